package cancel

import "context"

// ContextCanceler wraps a cancellable context.Context.
//
// Cancellation of the parent context is observed by Done(), which lets a
// caller stop a scheduler run through its context instead of calling Stop.
type ContextCanceler struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewContext creates a ContextCanceler derived from parent.
func NewContext(parent context.Context) *ContextCanceler {
	ctx, cancel := context.WithCancel(parent)
	return &ContextCanceler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Done returns true if the context has been cancelled, either directly or
// through its parent.
//
// This performs a non-blocking select on ctx.Done().
func (c *ContextCanceler) Done() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Cancel cancels the derived context. The parent is unaffected.
func (c *ContextCanceler) Cancel() {
	c.cancel()
}

// Context returns the derived context.
func (c *ContextCanceler) Context() context.Context {
	return c.ctx
}

// Err returns the cause recorded by the derived context, or nil while it is
// still live.
func (c *ContextCanceler) Err() error {
	return context.Cause(c.ctx)
}
