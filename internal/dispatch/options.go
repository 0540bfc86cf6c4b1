package dispatch

import (
	"github.com/rs/zerolog"

	"github.com/randomizedcoder/simloop/internal/telemetry"
)

type options struct {
	logger   zerolog.Logger
	recorder *telemetry.Recorder
	source   uint64
}

// Option configures a Dispatcher.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder records a telemetry.BatchSample for every Update call.
func WithRecorder(r *telemetry.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithSource sets the producer id used for telemetry samples.
func WithSource(id uint64) Option {
	return func(o *options) { o.source = id }
}
