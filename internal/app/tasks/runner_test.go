package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitResult(t *testing.T, r *Runner) Result {
	t.Helper()
	select {
	case res := <-r.Results():
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task result")
		return Result{}
	}
}

func TestRunnerReportsSuccess(t *testing.T) {
	r := NewRunner(4)
	r.Start(1)
	defer r.Shutdown()

	var ran atomic.Bool
	ok := r.Go(Task{Name: "ping", Run: func(context.Context) error {
		ran.Store(true)
		return nil
	}})
	require.True(t, ok)

	res := waitResult(t, r)
	assert.Equal(t, "ping", res.Name)
	assert.NoError(t, res.Err)
	assert.True(t, ran.Load())
}

func TestRunnerReportsFailure(t *testing.T) {
	r := NewRunner(4)
	r.Start(1)
	defer r.Shutdown()

	wantErr := errors.New("boom")
	require.True(t, r.Go(Task{Name: "broken", Run: func(context.Context) error {
		return wantErr
	}}))

	res := waitResult(t, r)
	assert.Equal(t, "broken", res.Name)
	assert.ErrorIs(t, res.Err, wantErr)
}

func TestRunnerPreservesOrderWithSingleWorker(t *testing.T) {
	r := NewRunner(8)
	r.Start(1)
	defer r.Shutdown()

	for _, name := range []string{"a", "b", "c"} {
		name := name
		require.True(t, r.Go(Task{Name: name, Run: func(context.Context) error { return nil }}))
	}

	assert.Equal(t, "a", waitResult(t, r).Name)
	assert.Equal(t, "b", waitResult(t, r).Name)
	assert.Equal(t, "c", waitResult(t, r).Name)
}

func TestRunnerDropsWhenQueueFull(t *testing.T) {
	// No workers started, so nothing drains the queue.
	r := NewRunner(1)

	require.True(t, r.Go(Task{Name: "fits", Run: func(context.Context) error { return nil }}))
	assert.False(t, r.Go(Task{Name: "dropped", Run: func(context.Context) error { return nil }}))
}

func TestRunnerShutdownWaitsForInFlightTask(t *testing.T) {
	r := NewRunner(1)
	r.Start(1)

	started := make(chan struct{})
	var done atomic.Bool
	require.True(t, r.Go(Task{Name: "slow", Run: func(context.Context) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		done.Store(true)
		return nil
	}}))

	<-started
	r.Shutdown()
	assert.True(t, done.Load(), "shutdown returned before the running task finished")
}
