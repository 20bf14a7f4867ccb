package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/appcatalog/internal/domain"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(ctx context.Context, trigger domain.SyncTrigger) (*domain.SyncRun, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	run := domain.NewSyncRun(trigger)
	run.MarkCompleted()
	return run, nil
}

func TestScheduler_StartStop(t *testing.T) {
	runner := &countingRunner{}
	scheduler := NewScheduler(runner, &domain.SchedulerConfig{Enabled: true, Interval: 10 * time.Millisecond}, nil)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())
	assert.Error(t, scheduler.Start(context.Background()))

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())
	assert.Error(t, scheduler.Stop())

	calls := runner.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, runner.calls.Load())
}

func TestScheduler_SkipsWhenInProgress(t *testing.T) {
	runner := &countingRunner{err: domain.ErrUpdateInProgress}
	scheduler := NewScheduler(runner, &domain.SchedulerConfig{Interval: 5 * time.Millisecond}, nil)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, scheduler.Stop())
}

func TestScheduler_ContextCancel(t *testing.T) {
	runner := &countingRunner{}
	scheduler := NewScheduler(runner, &domain.SchedulerConfig{Interval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))
	cancel()

	// the loop exits on its own; Stop still releases the scheduler
	require.NoError(t, scheduler.Stop())
	assert.Equal(t, int32(0), runner.calls.Load())
}

func TestScheduler_InvalidInterval(t *testing.T) {
	scheduler := NewScheduler(&countingRunner{}, &domain.SchedulerConfig{}, nil)
	assert.Error(t, scheduler.Start(context.Background()))
	assert.False(t, scheduler.IsRunning())
}
