package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrInvalidArgument is wrapped by errors for structurally invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIllegalState is wrapped by errors for calls made at the wrong
	// lifecycle stage.
	ErrIllegalState = errors.New("illegal state")

	// ErrCanceled may be returned by a callback to stop its loop quietly.
	ErrCanceled = errors.New("canceled")
)

// InvalidArgument returns an error wrapping ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

// IllegalState returns an error wrapping ErrIllegalState.
func IllegalState(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrIllegalState}, args...)...)
}

// IsCancellation reports whether err is a cooperative cancellation signal
// rather than a failure.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// PanicError is a recovered panic from a user callback.
type PanicError struct {
	// Value is the value passed to panic.
	Value any

	// Stack is the goroutine stack at the point of recovery.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value if it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Call runs fn, converting a panic into a *PanicError.
func Call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
