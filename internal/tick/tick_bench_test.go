package tick_test

import (
	"testing"
	"time"

	"github.com/randomizedcoder/simloop/internal/cancel"
	"github.com/randomizedcoder/simloop/internal/tick"
)

// Long interval so Tick() returns false (we're measuring check overhead)
const benchInterval = time.Hour

// Sink variables to prevent compiler from eliminating benchmark loops
var (
	sinkTick bool
	sinkNow  int64
)

func BenchmarkNow(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	var result int64
	for i := 0; i < b.N; i++ {
		result = tick.Now()
	}
	sinkNow = result
}

func BenchmarkTimeNow(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	var result int64
	for i := 0; i < b.N; i++ {
		result = time.Now().UnixNano()
	}
	sinkNow = result
}

func BenchmarkTick_Atomic(b *testing.B) {
	t := tick.NewAtomicTicker(benchInterval)
	b.ReportAllocs()
	b.ResetTimer()

	var result bool
	for i := 0; i < b.N; i++ {
		result = t.Tick()
	}
	sinkTick = result
}

func BenchmarkTick_Atomic_Parallel(b *testing.B) {
	t := tick.NewAtomicTicker(benchInterval)
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		var result bool
		for pb.Next() {
			result = t.Tick()
		}
		sinkTick = result
	})
}

// Each op is one 100µs wait, entirely inside the spin window.
func BenchmarkWaiter_Spin100us(b *testing.B) {
	w := tick.NewWaiter()
	c := cancel.NewAtomic()
	b.ReportAllocs()
	b.ResetTimer()

	var result bool
	for i := 0; i < b.N; i++ {
		result = w.Wait(c, 100*time.Microsecond)
	}
	sinkTick = result
}
