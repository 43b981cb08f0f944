// Package scheduler runs due feed syncs from inside the server process.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidConfig is returned when configuration is invalid
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// FeedSyncRunner syncs every active feed whose interval has elapsed
type FeedSyncRunner interface {
	SyncDueFeeds(ctx context.Context) (synced, total int, err error)
}

// FeedSyncCronTriggerConfig holds configuration for the feed sync trigger
type FeedSyncCronTriggerConfig struct {
	// CheckInterval is how often due feeds are looked up
	CheckInterval time.Duration

	// RunOnStart runs one check immediately instead of waiting a full interval
	RunOnStart bool
}

// DefaultFeedSyncCronTriggerConfig returns default configuration
func DefaultFeedSyncCronTriggerConfig() FeedSyncCronTriggerConfig {
	return FeedSyncCronTriggerConfig{
		CheckInterval: 15 * time.Minute,
		RunOnStart:    true,
	}
}

// FeedSyncCronTrigger is the in-process alternative to an external cron
// calling the due-sync endpoint. Checks never overlap.
type FeedSyncCronTrigger struct {
	config FeedSyncCronTriggerConfig
	runner FeedSyncRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewFeedSyncCronTrigger creates a new feed sync trigger
func NewFeedSyncCronTrigger(config FeedSyncCronTriggerConfig, runner FeedSyncRunner, logger *zap.Logger) (*FeedSyncCronTrigger, error) {
	if config.CheckInterval <= 0 || runner == nil {
		return nil, ErrInvalidConfig
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedSyncCronTrigger{
		config: config,
		runner: runner,
		logger: logger.Named("feed_sync_trigger"),
	}, nil
}

// Start starts the trigger. Calling Start on a running trigger is a no-op.
func (c *FeedSyncCronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}
	c.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Feed sync cron trigger started",
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight check, bounded by ctx.
// Calling Stop on a stopped trigger is a no-op.
func (c *FeedSyncCronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Feed sync cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the trigger loop is active
func (c *FeedSyncCronTrigger) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isRunning
}

func (c *FeedSyncCronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	if c.config.RunOnStart {
		c.check(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

func (c *FeedSyncCronTrigger) check(ctx context.Context) {
	start := time.Now()
	synced, total, err := c.runner.SyncDueFeeds(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Error("Due feed sync failed", zap.Error(err))
		return
	}
	if synced == 0 {
		c.logger.Debug("No feeds due", zap.Int("active_feeds", total))
		return
	}
	c.logger.Info("Due feeds synced",
		zap.Int("synced", synced),
		zap.Int("active_feeds", total),
		zap.Duration("duration", time.Since(start)),
	)
}
