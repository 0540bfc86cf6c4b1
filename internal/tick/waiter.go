package tick

import (
	"time"

	"github.com/randomizedcoder/simloop/internal/cancel"
)

const (
	// DefaultLag is how close to the deadline the Waiter stops sleeping and
	// starts spinning.
	DefaultLag = 2 * time.Millisecond

	// DefaultCoarse is the length of each sleep step while the deadline is
	// further away than the lag.
	DefaultCoarse = time.Millisecond
)

// Waiter blocks for a duration with sub-millisecond accuracy.
//
// While more than Lag remains it sleeps in Coarse steps; inside the lag
// window it busy-spins on the clock. Cancellation is checked before every
// step and on every spin, so a cancelled wait returns within about one
// Coarse step.
//
// The zero value is not usable; use NewWaiter.
type Waiter struct {
	Lag    time.Duration
	Coarse time.Duration
}

// NewWaiter returns a Waiter with DefaultLag and DefaultCoarse.
func NewWaiter() *Waiter {
	return &Waiter{
		Lag:    DefaultLag,
		Coarse: DefaultCoarse,
	}
}

// Wait blocks for d or until c is cancelled, whichever comes first.
//
// It returns true if the full duration elapsed, false if it was cut short by
// cancellation. A non-positive d returns true immediately. A nil c is never
// cancelled.
func (w *Waiter) Wait(c cancel.Canceler, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	deadline := nanotime() + int64(d)
	return w.WaitUntil(c, deadline)
}

// WaitUntil blocks until the Now reading deadline, or until c is cancelled.
func (w *Waiter) WaitUntil(c cancel.Canceler, deadline int64) bool {
	lag := int64(w.Lag)

	for {
		now := nanotime()
		if now >= deadline {
			return true
		}
		if cancel.IsDone(c) {
			return false
		}
		if deadline-now > lag {
			time.Sleep(w.Coarse)
			continue
		}
		return w.spin(c, deadline)
	}
}

func (w *Waiter) spin(c cancel.Canceler, deadline int64) bool {
	for nanotime() < deadline {
		if cancel.IsDone(c) {
			return false
		}
	}
	return true
}
