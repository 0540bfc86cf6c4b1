package tick

import (
	"sync/atomic"
	"time"
)

// AtomicTicker reports when an interval has elapsed, using atomic operations
// and the runtime clock.
//
// It is polled, never blocks, and owns no goroutine or timer, so the
// scheduler can check it once per tick for periodic work (heartbeat logs)
// without touching the runtime timer heap.
type AtomicTicker struct {
	interval int64 // nanoseconds
	lastTick atomic.Int64
}

// NewAtomicTicker creates an AtomicTicker with the specified interval.
func NewAtomicTicker(interval time.Duration) *AtomicTicker {
	t := &AtomicTicker{
		interval: int64(interval),
	}
	t.lastTick.Store(nanotime())
	return t
}

// Tick returns true if the interval has elapsed since the last tick.
//
// Uses a compare-and-swap so concurrent pollers trigger a given tick once.
func (a *AtomicTicker) Tick() bool {
	now := nanotime()
	last := a.lastTick.Load()

	if now-last >= a.interval {
		if a.lastTick.CompareAndSwap(last, now) {
			return true
		}
	}
	return false
}

// Interval returns the ticker's interval.
func (a *AtomicTicker) Interval() time.Duration {
	return time.Duration(a.interval)
}
