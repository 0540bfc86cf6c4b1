// Package tick provides the timing primitives of the tick scheduler.
//
//   - Now: the runtime monotonic clock in nanoseconds
//   - Waiter: a hybrid sleep/spin wait with sub-millisecond accuracy
//   - AtomicTicker: a cheap "has the interval elapsed" check for hot loops
//
// time.Sleep alone overshoots by up to a scheduler quantum, which at 60Hz
// is a visible fraction of the tick budget. Waiter sleeps in short coarse
// steps while the deadline is far and spins on Now for the final stretch.
package tick

import (
	"time"
	_ "unsafe" // Required for go:linkname
)

// nanotime returns the current monotonic time in nanoseconds.
// This is faster than time.Now() because it returns a single int64
// and avoids constructing a time.Time struct.
//
//go:linkname nanotime runtime.nanotime
func nanotime() int64

// Now returns the monotonic clock reading in nanoseconds. Only differences
// between readings are meaningful.
func Now() int64 {
	return nanotime()
}

// Since returns the time elapsed since the Now reading start.
func Since(start int64) time.Duration {
	return time.Duration(nanotime() - start)
}

// Millis converts d to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
