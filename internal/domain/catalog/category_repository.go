package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryRepository defines the read access the feed pipeline needs to categories
type CategoryRepository interface {
	// FindByID finds a category by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindActive returns all active categories
	FindActive(ctx context.Context) ([]Category, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error
}
