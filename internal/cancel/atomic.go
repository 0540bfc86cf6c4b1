package cancel

import "sync/atomic"

// AtomicCanceler uses an atomic.Bool for cancellation signaling.
//
// Each call to Done() is a single atomic load, cheap enough to poll between
// every item of a dispatcher partition. The flag is monotonic: once
// cancelled it stays cancelled.
type AtomicCanceler struct {
	done atomic.Bool
}

// NewAtomic creates a new AtomicCanceler.
func NewAtomic() *AtomicCanceler {
	return &AtomicCanceler{}
}

// Done returns true if cancellation has been triggered.
func (a *AtomicCanceler) Done() bool {
	return a.done.Load()
}

// Cancel triggers cancellation.
//
// Safe to call multiple times; subsequent calls are no-ops.
func (a *AtomicCanceler) Cancel() {
	a.done.Store(true)
}

// CancelOnce triggers cancellation and reports whether this call was the one
// that did it.
func (a *AtomicCanceler) CancelOnce() bool {
	return a.done.CompareAndSwap(false, true)
}
