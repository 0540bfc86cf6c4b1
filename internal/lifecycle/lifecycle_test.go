package lifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/simloop/internal/lifecycle"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "ready", lifecycle.Ready.String())
	assert.Equal(t, "running", lifecycle.Running.String())
	assert.Equal(t, "stopped", lifecycle.Stopped.String())
	assert.Equal(t, "state(7)", lifecycle.State(7).String())
}

func TestCheckStart(t *testing.T) {
	require.NoError(t, lifecycle.CheckStart(lifecycle.Ready))

	err := lifecycle.CheckStart(lifecycle.Running)
	require.ErrorIs(t, err, lifecycle.ErrIllegalState)
	assert.Contains(t, err.Error(), "already running")

	err = lifecycle.CheckStart(lifecycle.Stopped)
	require.ErrorIs(t, err, lifecycle.ErrIllegalState)
	assert.Contains(t, err.Error(), "already stopped")

	assert.ErrorIs(t, lifecycle.CheckStart(lifecycle.State(-1)), lifecycle.ErrIllegalState)
}

func TestInvalidArgument(t *testing.T) {
	err := lifecycle.InvalidArgument("frequency must be greater than zero: %d", 0)
	require.ErrorIs(t, err, lifecycle.ErrInvalidArgument)
	assert.NotErrorIs(t, err, lifecycle.ErrIllegalState)
	assert.Equal(t, "invalid argument: frequency must be greater than zero: 0", err.Error())
}

func TestIllegalState(t *testing.T) {
	err := lifecycle.IllegalState("dispatcher was shut down")
	require.ErrorIs(t, err, lifecycle.ErrIllegalState)
	assert.Equal(t, "illegal state: dispatcher was shut down", err.Error())
}

func TestIsCancellation(t *testing.T) {
	assert.True(t, lifecycle.IsCancellation(lifecycle.ErrCanceled))
	assert.True(t, lifecycle.IsCancellation(context.Canceled))
	assert.True(t, lifecycle.IsCancellation(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.False(t, lifecycle.IsCancellation(nil))
	assert.False(t, lifecycle.IsCancellation(errors.New("Test!")))
	assert.False(t, lifecycle.IsCancellation(context.DeadlineExceeded))
}

func TestCall(t *testing.T) {
	assert.NoError(t, lifecycle.Call(func() error { return nil }))

	boom := errors.New("boom")
	assert.Same(t, boom, lifecycle.Call(func() error { return boom }))

	err := lifecycle.Call(func() error { panic("Some terrible error") })
	var pe *lifecycle.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Some terrible error", pe.Value)
	assert.Equal(t, "panic: Some terrible error", err.Error())
	assert.NotEmpty(t, pe.Stack)
	assert.Nil(t, pe.Unwrap())
}

func TestCall_PanicWithError(t *testing.T) {
	err := lifecycle.Call(func() error { panic(context.Canceled) })
	var pe *lifecycle.PanicError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, context.Canceled)
}
