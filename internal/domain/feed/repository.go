package feed

import (
	"context"

	"github.com/eshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines persistence operations for supplier feeds
type Repository interface {
	// FindByID finds a feed by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SupplierFeed, error)

	// FindAll returns feeds newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]SupplierFeed, error)

	// Count counts the feeds matching the filter's search term
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindActive returns all active feeds
	FindActive(ctx context.Context) ([]SupplierFeed, error)

	// Save creates or updates a feed
	Save(ctx context.Context, feed *SupplierFeed) error

	// SaveSyncStatus writes only the last sync time, status and message,
	// leaving settings edited during the run untouched
	SaveSyncStatus(ctx context.Context, feed *SupplierFeed) error

	// Delete detaches the feed's products (clearing their feed ID and
	// supplier SKU) and removes the feed, in one transaction
	Delete(ctx context.Context, id uuid.UUID) error
}
