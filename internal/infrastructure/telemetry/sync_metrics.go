package telemetry

import (
	"context"
	"errors"

	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics type is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// SyncMetrics turns feed sync events into counters. Subscribe it to the event bus.
type SyncMetrics struct {
	runs         *Counter
	created      *Counter
	updated      *Counter
	deactivated  *Counter
	recordErrors *Counter
	recordsSeen  *Histogram
}

// NewSyncMetrics registers the sync instruments on meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &SyncMetrics{}
	var err error
	if m.runs, err = NewCounter(meter, "feedsync.runs", "Feed sync runs by outcome", "{run}"); err != nil {
		return nil, err
	}
	if m.created, err = NewCounter(meter, "feedsync.products.created", "Products created by feed syncs", "{product}"); err != nil {
		return nil, err
	}
	if m.updated, err = NewCounter(meter, "feedsync.products.updated", "Products updated by feed syncs", "{product}"); err != nil {
		return nil, err
	}
	if m.deactivated, err = NewCounter(meter, "feedsync.products.deactivated", "Products deactivated because they left the feed", "{product}"); err != nil {
		return nil, err
	}
	if m.recordErrors, err = NewCounter(meter, "feedsync.record_errors", "Feed records skipped because of errors", "{record}"); err != nil {
		return nil, err
	}
	if m.recordsSeen, err = NewHistogram(meter, "feedsync.records", "Records processed per successful sync", "{record}", RecordCountBuckets...); err != nil {
		return nil, err
	}
	return m, nil
}

// Handle implements shared.EventHandler
func (m *SyncMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	feedAttr := AttrFeedID.String(event.AggregateID().String())

	switch e := event.(type) {
	case *feed.SyncCompletedEvent:
		m.runs.Inc(ctx, feedAttr, AttrOutcome.String("success"))
		m.created.Add(ctx, int64(e.Created), feedAttr)
		m.updated.Add(ctx, int64(e.Updated), feedAttr)
		m.deactivated.Add(ctx, int64(e.Deactivated), feedAttr)
		m.recordErrors.Add(ctx, int64(e.ErrorCount), feedAttr)
		m.recordsSeen.Record(ctx, float64(e.Created+e.Updated+e.ErrorCount), feedAttr)
	case *feed.SyncFailedEvent:
		m.runs.Inc(ctx, feedAttr, AttrOutcome.String("failure"), AttrFeedName.String(e.FeedName))
	}
	return nil
}

// EventTypes implements shared.EventHandler
func (m *SyncMetrics) EventTypes() []string {
	return []string{feed.EventTypeSyncCompleted, feed.EventTypeSyncFailed}
}

var _ shared.EventHandler = (*SyncMetrics)(nil)
