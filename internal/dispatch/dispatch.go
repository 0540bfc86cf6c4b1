// Package dispatch applies an update function to every item of a slice in
// parallel, using a fixed pool of worker goroutines.
//
// Each Update call splits the slice into one contiguous partition per
// worker (see Partition), queues them, and blocks until all of them are
// done. The pool lives as long as the Dispatcher; Shutdown ends it.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/randomizedcoder/simloop/internal/cancel"
	"github.com/randomizedcoder/simloop/internal/lifecycle"
	"github.com/randomizedcoder/simloop/internal/telemetry"
	"github.com/randomizedcoder/simloop/internal/tick"
)

// UpdateFunc updates one item. It may be called from any worker goroutine,
// concurrently for different items.
type UpdateFunc[T any] func(item T, delta float64)

type (
	// Dispatcher runs an UpdateFunc over batches of items on a fixed pool.
	// Instances must be initialized using New.
	Dispatcher[T any] struct {
		workers  int
		fn       UpdateFunc[T]
		log      zerolog.Logger
		recorder *telemetry.Recorder
		source   uint64

		// quit is checked between items, so shutdown preempts the rest of a
		// running partition
		quit    *cancel.AtomicCanceler
		stopped sync.WaitGroup // pool goroutines

		mu       sync.Mutex // guards shutdown and queue
		cond     *sync.Cond
		shutdown bool
		queue    []*task[T]
	}

	// round is the state shared by the partitions of one Update call.
	round[T any] struct {
		items     []T
		delta     float64
		barrier   sync.WaitGroup
		preempted atomic.Bool
		panicked  atomic.Pointer[lifecycle.PanicError]
	}

	task[T any] struct {
		round    *round[T]
		from, to int
	}
)

// New starts a Dispatcher with the given number of workers.
//
// It returns an error wrapping lifecycle.ErrInvalidArgument if workers is
// less than one or fn is nil.
func New[T any](workers int, fn UpdateFunc[T], opts ...Option) (*Dispatcher[T], error) {
	if workers < 1 {
		return nil, lifecycle.InvalidArgument("workers must be greater than zero: %d", workers)
	}
	if fn == nil {
		return nil, lifecycle.InvalidArgument("update function must be not nil")
	}

	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == 0 {
		o.source = telemetry.NextSource()
	}

	d := &Dispatcher[T]{
		workers:  workers,
		fn:       fn,
		log:      o.logger.With().Str("component", "dispatcher").Int("workers", workers).Logger(),
		recorder: o.recorder,
		source:   o.source,
		quit:     cancel.NewAtomic(),
	}
	d.cond = sync.NewCond(&d.mu)

	d.stopped.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d, nil
}

// Workers returns the pool size.
func (d *Dispatcher[T]) Workers() int { return d.workers }

// Update applies the update function to every item with the same delta and
// returns once all items are done. See UpdateContext.
func (d *Dispatcher[T]) Update(items []T, delta float64) error {
	return d.UpdateContext(context.Background(), items, delta)
}

// UpdateContext applies the update function to every item with the same
// delta, in parallel, and blocks until every partition has finished.
//
// A nil items is rejected with lifecycle.ErrInvalidArgument; an empty slice
// is a valid, empty batch. After Shutdown it returns an error wrapping
// lifecycle.ErrIllegalState.
//
// If ctx is done before the batch completes the wait is abandoned and
// ctx.Err() is returned; the partitions already queued still run. If an
// item panicked, the rest of its partition is skipped and a
// *lifecycle.PanicError is returned. If Shutdown cut the batch short, an
// error wrapping lifecycle.ErrIllegalState is returned.
func (d *Dispatcher[T]) UpdateContext(ctx context.Context, items []T, delta float64) error {
	if items == nil {
		return lifecycle.InvalidArgument("items must be not nil")
	}

	start := tick.Now()
	r := &round[T]{items: items, delta: delta}

	d.mu.Lock()
	if d.shutdown {
		d.mu.Unlock()
		return lifecycle.IllegalState("dispatcher was shut down")
	}
	n := len(items)
	r.barrier.Add(d.workers)
	for k := 0; k < d.workers; k++ {
		from, to := Partition(n, d.workers, k)
		d.queue = append(d.queue, &task[T]{round: r, from: from, to: to})
	}
	d.cond.Broadcast()
	d.mu.Unlock()

	err := r.wait(ctx)

	d.recorder.RecordBatch(telemetry.BatchSample{
		Source:  d.source,
		Items:   n,
		Workers: d.workers,
		Elapsed: tick.Since(start),
		Failed:  err != nil,
	})

	return err
}

// Shutdown stops the pool. Further Update calls fail. Items already running
// finish, but the rest of their partitions and any queued partitions are
// skipped; an Update waiting on them returns an error. Shutdown does not
// wait for the pool to exit; use Wait for that. It is safe to call more than
// once and concurrently with Update.
func (d *Dispatcher[T]) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.shutdown {
		return
	}
	d.shutdown = true
	d.quit.Cancel()
	d.cond.Broadcast()
	d.log.Debug().Int("queued", len(d.queue)).Msg("dispatcher shut down")
}

// Wait blocks until every pool goroutine has exited, which happens only
// after Shutdown.
func (d *Dispatcher[T]) Wait() {
	d.stopped.Wait()
}

func (d *Dispatcher[T]) worker() {
	defer d.stopped.Done()
	for {
		t, ok := d.next()
		if !ok {
			d.drain()
			return
		}
		d.run(t)
	}
}

// next blocks for the next queued task. It returns false once shut down.
func (d *Dispatcher[T]) next() (*task[T], bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for len(d.queue) == 0 && !d.shutdown {
		d.cond.Wait()
	}
	if d.shutdown {
		return nil, false
	}
	t := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return t, true
}

// drain releases queued tasks that will never run, so no Update waits
// forever on them.
func (d *Dispatcher[T]) drain() {
	d.mu.Lock()
	queue := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, t := range queue {
		t.round.preempted.Store(true)
		t.round.barrier.Done()
	}
}

func (d *Dispatcher[T]) run(t *task[T]) {
	r := t.round
	defer r.barrier.Done()

	for i := t.from; i < t.to; i++ {
		if d.quit.Done() {
			r.preempted.Store(true)
			return
		}
		if err := lifecycle.Call(func() error {
			d.fn(r.items[i], r.delta)
			return nil
		}); err != nil {
			var pe *lifecycle.PanicError
			if errors.As(err, &pe) {
				r.panicked.CompareAndSwap(nil, pe)
				d.log.Error().Int("index", i).Interface("panic", pe.Value).Bytes("stack", pe.Stack).Msg("update function panicked")
			}
			return
		}
	}
}

func (r *round[T]) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.barrier.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if pe := r.panicked.Load(); pe != nil {
		return pe
	}
	if r.preempted.Load() {
		return lifecycle.IllegalState("shut down during update")
	}
	return nil
}
