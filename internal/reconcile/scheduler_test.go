package reconcile

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSchedulerStartTwice(t *testing.T) {
	s := NewScheduler()
	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)
	s.Stop()

	// restart after stop
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())
	s.Stop()
	assert.False(t, s.Running())
}

func TestSchedulerRejectsWorkWhenStopped(t *testing.T) {
	s := NewScheduler()
	assert.False(t, s.Running())
	assert.False(t, s.After(time.Millisecond, func(context.Context) {}))
	assert.False(t, s.Every(time.Millisecond, func(context.Context) {}))
	assert.False(t, s.Go(func(context.Context) {}))
	s.Stop()
}

func TestSchedulerAfterFires(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewScheduler()
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	fired := make(chan struct{})
	require.True(t, s.After(5*time.Millisecond, func(context.Context) { close(fired) }))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("settle timer did not fire")
	}
	assert.Zero(t, s.Pending())
}

func TestSchedulerStopCancelsPendingTimers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewScheduler()
	require.NoError(t, s.Start(context.Background()))

	var ran atomic.Bool
	for i := 0; i < 3; i++ {
		require.True(t, s.After(time.Hour, func(context.Context) { ran.Store(true) }))
	}
	assert.Equal(t, 3, s.Pending())

	s.Stop()
	assert.Zero(t, s.Pending())
	assert.False(t, ran.Load())
	assert.False(t, s.After(0, func(context.Context) { ran.Store(true) }))
	s.Stop()
}

func TestSchedulerEveryRunsImmediately(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewScheduler()
	require.NoError(t, s.Start(context.Background()))

	var calls atomic.Int32
	require.True(t, s.Every(time.Hour, func(context.Context) { calls.Add(1) }))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.Equal(t, int32(1), calls.Load())
}

func TestSchedulerEveryTicks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewScheduler()
	require.NoError(t, s.Start(context.Background()))

	var calls atomic.Int32
	s.Every(5*time.Millisecond, func(context.Context) { calls.Add(1) })
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestSchedulerStopWaitsForTasks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewScheduler()
	require.NoError(t, s.Start(context.Background()))

	started := make(chan struct{})
	var finished atomic.Bool
	s.Go(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		finished.Store(true)
	})
	<-started
	s.Stop()
	assert.True(t, finished.Load())
}

func TestSchedulerParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler()
	require.NoError(t, s.Start(ctx))
	cancel()
	assert.False(t, s.Running())
	s.Stop()
}
