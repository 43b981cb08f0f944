package feed

import "github.com/eshop/backend/internal/domain/shared"

// AggregateTypeSupplierFeed is the aggregate type of feed events
const AggregateTypeSupplierFeed = "SupplierFeed"

// Event type constants
const (
	EventTypeSyncCompleted = "FeedSyncCompleted"
	EventTypeSyncFailed    = "FeedSyncFailed"
)

// SyncCompletedEvent is published after a sync run finishes
type SyncCompletedEvent struct {
	shared.BaseDomainEvent
	FeedName    string `json:"feed_name"`
	Created     int    `json:"created"`
	Updated     int    `json:"updated"`
	Deactivated int    `json:"deactivated"`
	ErrorCount  int    `json:"error_count"`
}

// NewSyncCompletedEvent creates a SyncCompletedEvent
func NewSyncCompletedEvent(f *SupplierFeed, result *SyncResult) *SyncCompletedEvent {
	return &SyncCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSyncCompleted, AggregateTypeSupplierFeed, f.ID),
		FeedName:        f.Name,
		Created:         result.Created,
		Updated:         result.Updated,
		Deactivated:     result.Deactivated,
		ErrorCount:      len(result.Errors),
	}
}

// SyncFailedEvent is published when the feed document could not be fetched or parsed
type SyncFailedEvent struct {
	shared.BaseDomainEvent
	FeedName string `json:"feed_name"`
	Reason   string `json:"reason"`
}

// NewSyncFailedEvent creates a SyncFailedEvent
func NewSyncFailedEvent(f *SupplierFeed, reason string) *SyncFailedEvent {
	return &SyncFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSyncFailed, AggregateTypeSupplierFeed, f.ID),
		FeedName:        f.Name,
		Reason:          reason,
	}
}
