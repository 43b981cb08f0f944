package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the persistence operations for products
type ProductRepository interface {
	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByFeedAndSupplierSKU finds the product owned by a feed for a supplier SKU
	FindByFeedAndSupplierSKU(ctx context.Context, feedID uuid.UUID, supplierSKU string) (*Product, error)

	// FindActiveByFeed returns the active products owned by a feed
	FindActiveByFeed(ctx context.Context, feedID uuid.UUID) ([]Product, error)

	// FindWithRemoteImages returns up to limit products whose image list
	// references an http(s) URL, ordered by ID, starting after the given ID
	FindWithRemoteImages(ctx context.Context, after uuid.UUID, limit int) ([]Product, error)

	// ExistsBySlug checks whether any product uses the slug
	ExistsBySlug(ctx context.Context, slug string) (bool, error)

	// ExistsBySKU checks whether any product uses the catalog SKU
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// CountByFeed counts the products linked to a feed
	CountByFeed(ctx context.Context, feedID uuid.UUID) (int64, error)

	// CountByFeeds counts the linked products of several feeds at once.
	// Feeds without products are absent from the map.
	CountByFeeds(ctx context.Context, feedIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// DeactivateByIDs marks the given products inactive in one statement
	DeactivateByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)

	// UpdateImages replaces the image list of a product
	UpdateImages(ctx context.Context, id uuid.UUID, images []string) error
}
