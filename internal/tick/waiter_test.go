package tick_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/simloop/internal/cancel"
	"github.com/randomizedcoder/simloop/internal/tick"
)

func TestNewWaiter_Defaults(t *testing.T) {
	w := tick.NewWaiter()
	assert.Equal(t, tick.DefaultLag, w.Lag)
	assert.Equal(t, tick.DefaultCoarse, w.Coarse)
}

func TestWaiter_NonPositive(t *testing.T) {
	w := tick.NewWaiter()
	for _, d := range []time.Duration{0, -time.Millisecond, -time.Hour} {
		start := time.Now()
		assert.True(t, w.Wait(nil, d), "non-positive wait should report completion")
		assert.Less(t, time.Since(start), time.Millisecond, "non-positive wait should not block (d=%v)", d)
	}
}

func TestWaiter_ReachesDeadline(t *testing.T) {
	w := tick.NewWaiter()
	for _, d := range []time.Duration{
		500 * time.Microsecond, // spin only
		3 * time.Millisecond,   // sleep then spin
		20 * time.Millisecond,
	} {
		start := tick.Now()
		require.True(t, w.Wait(nil, d))
		elapsed := tick.Since(start)
		assert.GreaterOrEqual(t, elapsed, d, "wait returned before deadline")
		assert.Less(t, elapsed, d+20*time.Millisecond, "wait overshot by too much")
	}
}

func TestWaiter_CancelledBefore(t *testing.T) {
	w := tick.NewWaiter()
	c := cancel.NewAtomic()
	c.Cancel()

	start := time.Now()
	assert.False(t, w.Wait(c, time.Second))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWaiter_CancelledMidWait(t *testing.T) {
	w := tick.NewWaiter()
	c := cancel.NewContext(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		c.Cancel()
	}()

	start := time.Now()
	assert.False(t, w.Wait(c, 5*time.Second), "cancelled wait should report false")
	assert.Less(t, time.Since(start), time.Second, "cancelled wait should return promptly")
}

func TestWaiter_CancelledDuringSpin(t *testing.T) {
	// a lag larger than the wait forces the whole wait into the spin phase
	w := &tick.Waiter{Lag: time.Hour, Coarse: time.Millisecond}
	c := cancel.NewAtomic()

	go func() {
		time.Sleep(5 * time.Millisecond)
		c.Cancel()
	}()

	start := time.Now()
	assert.False(t, w.Wait(c, 10*time.Second))
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaiter_WaitUntilPast(t *testing.T) {
	w := tick.NewWaiter()
	assert.True(t, w.WaitUntil(nil, tick.Now()-int64(time.Second)))
}
