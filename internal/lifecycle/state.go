// Package lifecycle holds the state machine and error taxonomy shared by the
// tick scheduler and the batch dispatcher.
//
// Errors fall into four groups that callers can tell apart with errors.Is
// and errors.As:
//   - ErrInvalidArgument: bad input, fixable by the caller
//   - ErrIllegalState: operation outside its lifecycle stage
//   - *PanicError (or any other error): a user callback failed
//   - ErrCanceled / context.Canceled: cooperative cancellation, not a failure
package lifecycle

import "fmt"

// State is the lifecycle stage of a scheduler. Transitions only move
// forward: Ready -> Running -> Stopped, or Ready -> Stopped.
type State int32

const (
	// Ready is the initial state; a start call is allowed.
	Ready State = iota

	// Running means a start call succeeded and the loop has not finished.
	Running

	// Stopped is terminal.
	Stopped
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// CheckStart validates a start attempt from s. It returns nil for Ready and
// an ErrIllegalState naming the violated precondition otherwise.
func CheckStart(s State) error {
	switch s {
	case Ready:
		return nil
	case Running:
		return fmt.Errorf("%w: already running", ErrIllegalState)
	case Stopped:
		return fmt.Errorf("%w: already stopped", ErrIllegalState)
	default:
		return fmt.Errorf("%w: unknown %s", ErrIllegalState, s)
	}
}
