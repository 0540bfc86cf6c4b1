package loop

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/randomizedcoder/simloop/internal/telemetry"
	"github.com/randomizedcoder/simloop/internal/tick"
)

type options struct {
	logger    zerolog.Logger
	recorder  *telemetry.Recorder
	source    uint64
	waiter    *tick.Waiter
	heartbeat time.Duration
}

// Option configures a Scheduler.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder records a telemetry.TickSample for every tick.
func WithRecorder(r *telemetry.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithSource sets the producer id used for telemetry samples. By default a
// fresh id from telemetry.NextSource is used.
func WithSource(id uint64) Option {
	return func(o *options) { o.source = id }
}

// WithWaiter replaces the inter-tick waiter.
func WithWaiter(w *tick.Waiter) Option {
	return func(o *options) { o.waiter = w }
}

// WithHeartbeat logs a debug line with loop statistics every d. Zero
// disables it.
func WithHeartbeat(d time.Duration) Option {
	return func(o *options) { o.heartbeat = d }
}
