package feedapp

import (
	"context"
	"fmt"
	"time"

	"github.com/eshop/backend/internal/domain/feed"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FeedSyncer syncs one feed
type FeedSyncer interface {
	SyncFeed(ctx context.Context, feedID uuid.UUID) (*feed.SyncResult, error)
}

// FeedRunResult is the outcome of one feed in a due run: the sync counts,
// or the error message when the sync failed
type FeedRunResult struct {
	*feed.SyncResult
	Error string `json:"error,omitempty"`
}

// Failed reports whether the feed's sync failed
func (r FeedRunResult) Failed() bool {
	return r.Error != ""
}

// CronSummary reports a due run. Synced counts the due feeds attempted,
// Total the active feeds. Results are keyed by feed name.
type CronSummary struct {
	Synced  int                      `json:"synced"`
	Total   int                      `json:"total"`
	Results map[string]FeedRunResult `json:"results"`
}

// DueRunner syncs every active feed whose interval has elapsed
type DueRunner struct {
	feeds  feed.Repository
	syncer FeedSyncer
	logger *zap.Logger
	now    func() time.Time
}

// NewDueRunner creates a DueRunner
func NewDueRunner(feeds feed.Repository, syncer FeedSyncer, logger *zap.Logger) *DueRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DueRunner{
		feeds:  feeds,
		syncer: syncer,
		logger: logger.Named("feed_due_runner"),
		now:    time.Now,
	}
}

// RunDue syncs the feeds due at now one after another. A failing feed is
// recorded in the summary and never stops the others.
func (r *DueRunner) RunDue(ctx context.Context, now time.Time) (*CronSummary, error) {
	active, err := r.feeds.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active feeds: %w", err)
	}

	summary := &CronSummary{Total: len(active), Results: make(map[string]FeedRunResult)}
	for i := range active {
		f := &active[i]
		if !f.IsDue(now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		key := resultKey(summary.Results, f)
		result, err := r.syncer.SyncFeed(ctx, f.ID)
		if err != nil {
			r.logger.Error("Due feed sync failed",
				zap.String("feed_id", f.ID.String()),
				zap.String("feed_name", f.Name),
				zap.Error(err),
			)
			summary.Results[key] = FeedRunResult{Error: FailureMessage(err)}
		} else {
			summary.Results[key] = FeedRunResult{SyncResult: result}
		}
		summary.Synced++
	}

	r.logger.Info("Due feeds processed", zap.Int("synced", summary.Synced), zap.Int("total", summary.Total))
	return summary, nil
}

// SyncDueFeeds runs the feeds due now, for the in-process trigger
func (r *DueRunner) SyncDueFeeds(ctx context.Context) (synced, total int, err error) {
	summary, err := r.RunDue(ctx, r.now())
	if summary == nil {
		return 0, 0, err
	}
	return summary.Synced, summary.Total, err
}

// resultKey is the feed name, disambiguated by ID when two feeds share it
func resultKey(results map[string]FeedRunResult, f *feed.SupplierFeed) string {
	if _, taken := results[f.Name]; !taken {
		return f.Name
	}
	return fmt.Sprintf("%s (%s)", f.Name, f.ID)
}
