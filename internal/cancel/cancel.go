// Package cancel provides the cooperative cancellation tokens used by the
// tick scheduler and the batch dispatcher.
//
// Two implementations of the Canceler interface are provided:
//   - ContextCanceler: bound to a context.Context, used for scheduler runs
//     so that a parent context can stop a loop
//   - AtomicCanceler: a bare atomic.Bool, used where only an internal
//     owner triggers cancellation (dispatcher shutdown)
//
// Cancellation is never forced. Loops poll Done() at their own boundaries
// (top of a tick, each step of a wait, between items of a partition).
package cancel

// Canceler provides cancellation signaling to a polling loop.
//
// Implementations must be safe for concurrent use:
//   - Multiple goroutines may call Done() concurrently
//   - Cancel() may be called concurrently with Done()
type Canceler interface {
	// Done returns true if cancellation has been requested.
	Done() bool

	// Cancel requests cancellation. Safe to call multiple times.
	Cancel()
}

// IsDone reports whether c has been cancelled. A nil Canceler is never
// cancelled.
func IsDone(c Canceler) bool {
	return c != nil && c.Done()
}
