// Package telemetry collects per-tick and per-batch samples from many
// producers into a single consumer.
//
// Producers are scheduler loops and dispatcher callers, each running on its
// own goroutine; the consumer is whoever reports (the simloop CLI). The
// hand-off is a sharded MPSC lock-free ring, so recording never blocks a
// tick: when the ring is full the sample is dropped and counted.
package telemetry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	ring "github.com/randomizedcoder/go-lock-free-ring"
)

const (
	// ringCapacity is the total number of buffered samples across shards.
	ringCapacity = 4096

	// ringShards spreads producers so they rarely contend on one shard.
	ringShards = 8
)

var sources atomic.Uint64

// NextSource returns a process-unique producer id.
func NextSource() uint64 {
	return sources.Add(1)
}

// TickSample describes one iteration of a scheduler loop.
type TickSample struct {
	Source  uint64
	Seq     uint64
	Delta   float64
	Update  time.Duration // time spent in the update callback
	Tick    time.Duration // full tick including the wait
	Overrun bool          // update alone exceeded the tick budget
}

// BatchSample describes one dispatcher Update round.
type BatchSample struct {
	Source  uint64
	Items   int
	Workers int
	Elapsed time.Duration
	Failed  bool
}

// Summary aggregates samples.
type Summary struct {
	Ticks     uint64
	Overruns  uint64
	DeltaSum  float64
	MaxUpdate time.Duration
	MaxTick   time.Duration

	Batches      uint64
	BatchFailed  uint64
	Items        uint64
	BatchElapsed time.Duration
	MaxBatch     time.Duration

	Dropped uint64
}

// MeanDelta returns the average tick delta, or 0 with no ticks.
func (s Summary) MeanDelta() float64 {
	if s.Ticks == 0 {
		return 0
	}
	return s.DeltaSum / float64(s.Ticks)
}

// MeanBatch returns the average Update round duration.
func (s Summary) MeanBatch() time.Duration {
	if s.Batches == 0 {
		return 0
	}
	return s.BatchElapsed / time.Duration(s.Batches)
}

// Merge adds o into s.
func (s *Summary) Merge(o Summary) {
	s.Ticks += o.Ticks
	s.Overruns += o.Overruns
	s.DeltaSum += o.DeltaSum
	s.MaxUpdate = max(s.MaxUpdate, o.MaxUpdate)
	s.MaxTick = max(s.MaxTick, o.MaxTick)
	s.Batches += o.Batches
	s.BatchFailed += o.BatchFailed
	s.Items += o.Items
	s.BatchElapsed += o.BatchElapsed
	s.MaxBatch = max(s.MaxBatch, o.MaxBatch)
	s.Dropped += o.Dropped
}

func (s *Summary) addTick(t TickSample) {
	s.Ticks++
	s.DeltaSum += t.Delta
	if t.Overrun {
		s.Overruns++
	}
	s.MaxUpdate = max(s.MaxUpdate, t.Update)
	s.MaxTick = max(s.MaxTick, t.Tick)
}

func (s *Summary) addBatch(b BatchSample) {
	s.Batches++
	s.Items += uint64(b.Items)
	s.BatchElapsed += b.Elapsed
	s.MaxBatch = max(s.MaxBatch, b.Elapsed)
	if b.Failed {
		s.BatchFailed++
	}
}

// Recorder buffers samples from concurrent producers. A nil *Recorder
// discards everything, so components can record unconditionally.
type Recorder struct {
	ring    *ring.ShardedRing
	dropped atomic.Uint64

	mu    sync.Mutex // serializes consumers; the ring allows only one
	total Summary
}

// NewRecorder creates a Recorder.
func NewRecorder() (*Recorder, error) {
	r, err := ring.NewShardedRing(ringCapacity, ringShards)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create ring: %w", err)
	}
	return &Recorder{ring: r}, nil
}

// RecordTick buffers a tick sample, returning false if it was dropped.
func (r *Recorder) RecordTick(s TickSample) bool {
	if r == nil {
		return false
	}
	return r.write(s.Source, s)
}

// RecordBatch buffers a batch sample, returning false if it was dropped.
func (r *Recorder) RecordBatch(s BatchSample) bool {
	if r == nil {
		return false
	}
	return r.write(s.Source, s)
}

func (r *Recorder) write(source uint64, v any) bool {
	if r.ring.Write(source, v) {
		return true
	}
	r.dropped.Add(1)
	return false
}

// Drain consumes every buffered sample and returns their summary, which
// also includes the drops counted since the previous Drain. The result is
// added to Total.
func (r *Recorder) Drain() Summary {
	var s Summary
	if r == nil {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		v, ok := r.ring.TryRead()
		if !ok {
			break
		}
		switch sample := v.(type) {
		case TickSample:
			s.addTick(sample)
		case BatchSample:
			s.addBatch(sample)
		}
	}
	s.Dropped = r.dropped.Swap(0)
	r.total.Merge(s)
	return s
}

// Total returns the summary of everything drained so far.
func (r *Recorder) Total() Summary {
	if r == nil {
		return Summary{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
