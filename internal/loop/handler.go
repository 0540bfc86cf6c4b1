package loop

// Handler receives the scheduler's lifecycle callbacks. All three run on
// the loop goroutine: the caller's for Start, a spawned one for StartAsync.
//
// A callback returning an error stops the loop; returning
// lifecycle.ErrCanceled or context.Canceled stops it quietly.
type Handler interface {
	// OnStart is called once, before the first tick.
	OnStart() error

	// OnUpdate is called once per tick. delta is the ratio of the previous
	// tick's real duration to the expected one, 1.0 on the first tick.
	OnUpdate(delta float64) error

	// OnStop is called exactly once when the run ends, however it ends.
	OnStop() error
}

// ErrorHandler receives the error that ended a background run.
type ErrorHandler func(err error)

// Funcs adapts plain functions to a Handler. Nil fields are no-ops.
type Funcs struct {
	Start  func() error
	Update func(delta float64) error
	Stop   func() error
}

var _ Handler = Funcs{}

// OnStart implements Handler.
func (f Funcs) OnStart() error {
	if f.Start == nil {
		return nil
	}
	return f.Start()
}

// OnUpdate implements Handler.
func (f Funcs) OnUpdate(delta float64) error {
	if f.Update == nil {
		return nil
	}
	return f.Update(delta)
}

// OnStop implements Handler.
func (f Funcs) OnStop() error {
	if f.Stop == nil {
		return nil
	}
	return f.Stop()
}

func discardError(error) {}
