package cancel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/randomizedcoder/simloop/internal/cancel"
)

func TestContextCanceler(t *testing.T) {
	c := cancel.NewContext(context.Background())

	if c.Done() {
		t.Error("expected Done() = false before Cancel()")
	}
	if err := c.Err(); err != nil {
		t.Errorf("expected Err() = nil before Cancel(), got %v", err)
	}

	c.Cancel()

	if !c.Done() {
		t.Error("expected Done() = true after Cancel()")
	}
	if err := c.Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("expected Err() = context.Canceled, got %v", err)
	}

	// Verify idempotent
	c.Cancel()
	if !c.Done() {
		t.Error("expected Done() = true after second Cancel()")
	}
}

func TestContextCanceler_ParentCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	c := cancel.NewContext(parent)

	if c.Done() {
		t.Error("expected Done() = false while parent is live")
	}

	cancelParent()

	if !c.Done() {
		t.Error("expected Done() = true after parent was cancelled")
	}
}

func TestContextCanceler_DoesNotCancelParent(t *testing.T) {
	parent := context.Background()
	c := cancel.NewContext(parent)
	c.Cancel()

	if parent.Err() != nil {
		t.Error("expected parent context to stay live")
	}
}

func TestAtomicCanceler(t *testing.T) {
	c := cancel.NewAtomic()

	if c.Done() {
		t.Error("expected Done() = false before Cancel()")
	}

	c.Cancel()

	if !c.Done() {
		t.Error("expected Done() = true after Cancel()")
	}

	// Verify idempotent
	c.Cancel()
	if !c.Done() {
		t.Error("expected Done() = true after second Cancel()")
	}
}

func TestAtomicCanceler_CancelOnce(t *testing.T) {
	c := cancel.NewAtomic()

	if !c.CancelOnce() {
		t.Error("expected first CancelOnce() = true")
	}
	if c.CancelOnce() {
		t.Error("expected second CancelOnce() = false")
	}
	if !c.Done() {
		t.Error("expected Done() = true after CancelOnce()")
	}
}

func TestIsDone(t *testing.T) {
	if cancel.IsDone(nil) {
		t.Error("expected IsDone(nil) = false")
	}

	c := cancel.NewAtomic()
	if cancel.IsDone(c) {
		t.Error("expected IsDone() = false before Cancel()")
	}
	c.Cancel()
	if !cancel.IsDone(c) {
		t.Error("expected IsDone() = true after Cancel()")
	}
}

// Test that both implementations satisfy the interface
func TestCancelerInterface(t *testing.T) {
	testCases := []struct {
		name string
		c    cancel.Canceler
	}{
		{"Context", cancel.NewContext(context.Background())},
		{"Atomic", cancel.NewAtomic()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.c.Done() {
				t.Error("expected Done() = false initially")
			}

			tc.c.Cancel()

			if !tc.c.Done() {
				t.Error("expected Done() = true after Cancel()")
			}
		})
	}
}
