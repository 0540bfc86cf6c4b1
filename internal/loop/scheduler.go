// Package loop implements a fixed-frequency tick scheduler.
//
// A Scheduler calls Handler.OnUpdate at a target frequency, either on the
// caller's goroutine (Start) or on a goroutine of its own (StartAsync).
// Between ticks it waits out the remainder of the tick budget with a
// tick.Waiter. A tick that overruns its budget is followed immediately by
// the next one; no catch-up ticks are run.
//
// A Scheduler runs once. Its state only moves forward,
// Ready -> Running -> Stopped, and a stopped Scheduler cannot be restarted.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/randomizedcoder/simloop/internal/cancel"
	"github.com/randomizedcoder/simloop/internal/lifecycle"
	"github.com/randomizedcoder/simloop/internal/telemetry"
	"github.com/randomizedcoder/simloop/internal/tick"
)

// Mode records which start variant was used.
type Mode int32

const (
	// ModeNone means the scheduler was never started.
	ModeNone Mode = iota

	// ModeSync means Start or StartContext; the loop runs on the caller.
	ModeSync

	// ModeAsync means one of the StartAsync variants.
	ModeAsync
)

// String returns the lower-case name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeSync:
		return "sync"
	case ModeAsync:
		return "async"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// Scheduler drives a Handler at a fixed frequency.
// Instances must be initialized using New.
type Scheduler struct {
	frequency int
	nanos     float64 // tick budget, unrounded
	expected  time.Duration
	handler   Handler
	log       zerolog.Logger
	recorder  *telemetry.Recorder
	source    uint64
	waiter    *tick.Waiter
	heartbeat time.Duration

	mu       sync.Mutex // guards state writes, mode and canceler
	state    atomic.Int32
	mode     Mode
	canceler cancel.Canceler
	done     chan struct{}
}

// New creates a Scheduler that ticks frequency times per second.
//
// It returns an error wrapping lifecycle.ErrInvalidArgument if frequency is
// not positive or h is nil.
func New(frequency int, h Handler, opts ...Option) (*Scheduler, error) {
	if frequency <= 0 {
		return nil, lifecycle.InvalidArgument("frequency must be greater than zero: %d", frequency)
	}
	if h == nil {
		return nil, lifecycle.InvalidArgument("handler must be not nil")
	}

	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.waiter == nil {
		o.waiter = tick.NewWaiter()
	}
	if o.source == 0 {
		o.source = telemetry.NextSource()
	}

	return &Scheduler{
		frequency: frequency,
		nanos:     float64(time.Second) / float64(frequency),
		expected:  time.Duration(float64(time.Second) / float64(frequency)),
		handler:   h,
		log:       o.logger.With().Str("component", "scheduler").Int("frequency", frequency).Logger(),
		recorder:  o.recorder,
		source:    o.source,
		waiter:    o.waiter,
		heartbeat: o.heartbeat,
		done:      make(chan struct{}),
	}, nil
}

// Frequency returns the target number of ticks per second.
func (s *Scheduler) Frequency() int { return s.frequency }

// ExpectedTick returns the tick budget rounded down to a whole nanosecond.
// Deltas are computed against the unrounded budget.
func (s *Scheduler) ExpectedTick() time.Duration { return s.expected }

// ExpectedTickMillis returns the tick budget in milliseconds, 1000/frequency.
func (s *Scheduler) ExpectedTickMillis() float64 { return 1000.0 / float64(s.frequency) }

// State returns the current lifecycle state.
func (s *Scheduler) State() lifecycle.State {
	return lifecycle.State(s.state.Load())
}

// Mode returns the start variant used, or ModeNone.
func (s *Scheduler) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Done returns a channel closed once the scheduler has fully finished: the
// run ended, OnStop returned and, for background runs, the ErrorHandler
// returned. It is also closed by a Stop on a scheduler that never started.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Start runs the scheduler on the calling goroutine until it stops.
// See StartContext.
func (s *Scheduler) Start() error {
	return s.StartContext(context.Background())
}

// StartContext runs the scheduler on the calling goroutine until Stop is
// called, ctx is done, or a callback fails.
//
// OnStop runs before StartContext returns, however the run ended. The
// returned error is the callback failure (joined with any OnStop failure);
// a stop or cancellation returns nil. Starting a scheduler that is not
// Ready returns an error wrapping lifecycle.ErrIllegalState.
func (s *Scheduler) StartContext(ctx context.Context) error {
	s.mu.Lock()
	c, err := s.begin(ctx, ModeSync)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	defer close(s.done)
	return s.run(c)
}

// StartAsync runs the scheduler on a new goroutine, discarding any error.
func (s *Scheduler) StartAsync() error {
	return s.StartAsyncContext(context.Background(), discardError)
}

// StartAsyncFunc runs the scheduler on a new goroutine and passes any
// callback failure to h. See StartAsyncContext.
func (s *Scheduler) StartAsyncFunc(h ErrorHandler) error {
	return s.StartAsyncContext(context.Background(), h)
}

// StartAsyncContext runs the scheduler on a new goroutine until Stop is
// called, ctx is done, or a callback fails, then stops it and calls OnStop.
//
// A failure from OnStart, OnUpdate or OnStop is passed to h after OnStop
// has run; it never reaches the caller. It returns an error wrapping
// lifecycle.ErrInvalidArgument if h is nil, or lifecycle.ErrIllegalState if
// the scheduler is not Ready.
func (s *Scheduler) StartAsyncContext(ctx context.Context, h ErrorHandler) error {
	if h == nil {
		return lifecycle.InvalidArgument("handler must be not nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.begin(ctx, ModeAsync)
	if err != nil {
		return err
	}

	go func() {
		defer close(s.done)
		if err := s.run(c); err != nil {
			h(err)
		}
	}()

	return nil
}

// Stop moves the scheduler to Stopped and cancels a running loop, which
// exits at its next cancellation check. It is idempotent and does not call
// OnStop; the goroutine running the loop does that.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.State()
	if prev == lifecycle.Stopped {
		return
	}
	s.state.Store(int32(lifecycle.Stopped))

	if s.canceler != nil {
		s.canceler.Cancel()
	}
	if prev == lifecycle.Ready {
		close(s.done)
	}
	s.log.Debug().Stringer("from", prev).Msg("scheduler stop requested")
}

// begin performs the Ready -> Running transition. Must hold mu.
func (s *Scheduler) begin(ctx context.Context, mode Mode) (*cancel.ContextCanceler, error) {
	if err := lifecycle.CheckStart(s.State()); err != nil {
		return nil, err
	}
	c := cancel.NewContext(ctx)
	s.canceler = c
	s.mode = mode
	s.state.Store(int32(lifecycle.Running))
	return c, nil
}

// run executes OnStart, the tick loop and finalization on the current
// goroutine.
func (s *Scheduler) run(c *cancel.ContextCanceler) error {
	s.log.Debug().Stringer("mode", s.Mode()).Dur("tick", s.expected).Msg("scheduler started")

	callback := "start"
	err := lifecycle.Call(s.handler.OnStart)
	if err == nil {
		callback = "update"
		err = s.loop(c)
	}

	s.Stop()
	stopErr := lifecycle.Call(s.handler.OnStop)

	err = errors.Join(s.failure(err, callback), s.failure(stopErr, "stop"))
	s.log.Debug().Err(err).Msg("scheduler stopped")
	return err
}

// failure filters cancellation out of a callback result and logs the rest.
func (s *Scheduler) failure(err error, callback string) error {
	if err == nil || lifecycle.IsCancellation(err) {
		return nil
	}
	var pe *lifecycle.PanicError
	if errors.As(err, &pe) {
		s.log.Error().Str("callback", callback).Interface("panic", pe.Value).Bytes("stack", pe.Stack).Msg("scheduler callback panicked")
	} else {
		s.log.Warn().Str("callback", callback).Err(err).Msg("scheduler callback failed")
	}
	return err
}

func (s *Scheduler) loop(c cancel.Canceler) error {
	var (
		tickTime = s.nanos
		seq      uint64
		beat     *tick.AtomicTicker
	)
	if s.heartbeat > 0 {
		beat = tick.NewAtomicTicker(s.heartbeat)
	}

	for s.State() == lifecycle.Running && !c.Done() {
		start := tick.Now()
		delta := tickTime / s.nanos

		if err := lifecycle.Call(func() error { return s.handler.OnUpdate(delta) }); err != nil {
			return err
		}

		update := tick.Since(start)
		s.waiter.Wait(c, s.expected-update)
		elapsed := tick.Since(start)
		tickTime = float64(elapsed)
		seq++

		s.recorder.RecordTick(telemetry.TickSample{
			Source:  s.source,
			Seq:     seq,
			Delta:   delta,
			Update:  update,
			Tick:    elapsed,
			Overrun: float64(update) > s.nanos,
		})

		if beat != nil && beat.Tick() {
			s.log.Debug().Dur("every", beat.Interval()).Uint64("ticks", seq).Float64("delta", delta).Dur("update", update).Msg("scheduler heartbeat")
		}
	}

	return nil
}
