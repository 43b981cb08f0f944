package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingRunner struct {
	calls  atomic.Int32
	synced int
	err    error
}

func (r *countingRunner) SyncDueFeeds(ctx context.Context) (int, int, error) {
	r.calls.Add(1)
	return r.synced, 4, r.err
}

func TestNewFeedSyncCronTrigger_InvalidConfig(t *testing.T) {
	_, err := NewFeedSyncCronTrigger(FeedSyncCronTriggerConfig{}, &countingRunner{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewFeedSyncCronTrigger(DefaultFeedSyncCronTriggerConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFeedSyncCronTrigger_RunsOnStartAndOnTicks(t *testing.T) {
	runner := &countingRunner{synced: 2}
	core, logs := observer.New(zapcore.InfoLevel)
	trigger, err := NewFeedSyncCronTrigger(FeedSyncCronTriggerConfig{
		CheckInterval: 10 * time.Millisecond,
		RunOnStart:    true,
	}, runner, zap.New(core))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, trigger.Start(ctx))
	require.NoError(t, trigger.Start(ctx))
	assert.True(t, trigger.IsRunning())

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, trigger.Stop(ctx))
	require.NoError(t, trigger.Stop(ctx))
	assert.False(t, trigger.IsRunning())

	after := runner.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runner.calls.Load(), "no checks after Stop")
	assert.NotZero(t, logs.FilterMessage("Due feeds synced").Len())
}

func TestFeedSyncCronTrigger_LogsFailures(t *testing.T) {
	runner := &countingRunner{err: errors.New("database unavailable")}
	core, logs := observer.New(zapcore.InfoLevel)
	trigger, err := NewFeedSyncCronTrigger(FeedSyncCronTriggerConfig{
		CheckInterval: time.Hour,
		RunOnStart:    true,
	}, runner, zap.New(core))
	require.NoError(t, err)

	require.NoError(t, trigger.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("Due feed sync failed").Len() == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, trigger.Stop(context.Background()))
}

func TestFeedSyncCronTrigger_RestartAfterStop(t *testing.T) {
	runner := &countingRunner{}
	trigger, err := NewFeedSyncCronTrigger(FeedSyncCronTriggerConfig{
		CheckInterval: time.Hour,
		RunOnStart:    true,
	}, runner, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, trigger.Start(ctx))
	assert.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, trigger.Stop(ctx))

	require.NoError(t, trigger.Start(ctx))
	assert.Eventually(t, func() bool { return runner.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, trigger.Stop(ctx))
}
