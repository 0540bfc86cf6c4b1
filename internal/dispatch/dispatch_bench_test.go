package dispatch_test

import (
	"fmt"
	"testing"

	"github.com/randomizedcoder/simloop/internal/dispatch"
)

type particle struct {
	x, v float64
}

func step(p *particle, delta float64) {
	p.x += p.v * delta
}

// One op is one full Update round, including the barrier.
func BenchmarkDispatcher_Update(b *testing.B) {
	for _, workers := range []int{1, 2, 4, 8} {
		for _, n := range []int{64, 4096} {
			b.Run(fmt.Sprintf("workers=%d/items=%d", workers, n), func(b *testing.B) {
				d, err := dispatch.New[*particle](workers, step)
				if err != nil {
					b.Fatal(err)
				}
				defer func() {
					d.Shutdown()
					d.Wait()
				}()

				items := make([]*particle, n)
				for i := range items {
					items[i] = &particle{v: 1}
				}

				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := d.Update(items, 1); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// Baseline: the same work on the calling goroutine.
func BenchmarkSerial_Update(b *testing.B) {
	for _, n := range []int{64, 4096} {
		b.Run(fmt.Sprintf("items=%d", n), func(b *testing.B) {
			items := make([]*particle, n)
			for i := range items {
				items[i] = &particle{v: 1}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for _, p := range items {
					step(p, 1)
				}
			}
		})
	}
}
