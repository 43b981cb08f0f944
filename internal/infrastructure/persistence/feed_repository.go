package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/domain/shared"
	"github.com/eshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// feedSortColumns whitelists the columns a feed list may be ordered by
var feedSortColumns = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"last_sync_at": true,
}

// feedOrder builds the ORDER BY expression. Unknown columns fall back to
// created_at and anything but "asc" sorts descending.
func feedOrder(filter shared.Filter) string {
	column := strings.TrimSpace(filter.OrderBy)
	if !feedSortColumns[column] {
		column = "created_at"
	}
	if strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc") {
		return column + " ASC"
	}
	return column + " DESC"
}

// GormFeedRepository implements feed.Repository using GORM
type GormFeedRepository struct {
	db *gorm.DB
}

// NewGormFeedRepository creates a new GormFeedRepository
func NewGormFeedRepository(db *gorm.DB) *GormFeedRepository {
	return &GormFeedRepository{db: db}
}

// FindByID finds a feed by its ID
func (r *GormFeedRepository) FindByID(ctx context.Context, id uuid.UUID) (*feed.SupplierFeed, error) {
	var model models.SupplierFeedModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of feeds, newest first by default
func (r *GormFeedRepository) FindAll(ctx context.Context, filter shared.Filter) ([]feed.SupplierFeed, error) {
	var feedModels []models.SupplierFeedModel
	query := r.db.WithContext(ctx).Model(&models.SupplierFeedModel{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(url) LIKE LOWER(?)", pattern, pattern)
	}

	query = query.Order(feedOrder(filter)).Order("id ASC")

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&feedModels).Error; err != nil {
		return nil, err
	}

	feeds := make([]feed.SupplierFeed, len(feedModels))
	for i := range feedModels {
		feeds[i] = *feedModels[i].ToDomain()
	}
	return feeds, nil
}

// Count counts feeds matching the search term of the filter
func (r *GormFeedRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.SupplierFeedModel{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(url) LIKE LOWER(?)", pattern, pattern)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindActive returns all active feeds, oldest first so scheduling order is stable
func (r *GormFeedRepository) FindActive(ctx context.Context) ([]feed.SupplierFeed, error) {
	var feedModels []models.SupplierFeedModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&feedModels).Error; err != nil {
		return nil, err
	}

	feeds := make([]feed.SupplierFeed, len(feedModels))
	for i := range feedModels {
		feeds[i] = *feedModels[i].ToDomain()
	}
	return feeds, nil
}

// Save creates or updates a feed
func (r *GormFeedRepository) Save(ctx context.Context, f *feed.SupplierFeed) error {
	model := models.SupplierFeedModelFromDomain(f)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveSyncStatus updates the last_sync_* columns of an existing feed
func (r *GormFeedRepository) SaveSyncStatus(ctx context.Context, f *feed.SupplierFeed) error {
	result := r.db.WithContext(ctx).
		Model(&models.SupplierFeedModel{}).
		Where("id = ?", f.ID).
		Updates(map[string]any{
			"last_sync_at":      f.LastSyncAt,
			"last_sync_status":  string(f.LastSyncStatus),
			"last_sync_message": f.LastSyncMessage,
			"updated_at":        f.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete detaches the feed's products and deletes the feed in one transaction
func (r *GormFeedRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProductModel{}).
			Where("supplier_feed_id = ?", id).
			Updates(map[string]any{
				"supplier_feed_id": nil,
				"supplier_sku":     nil,
			}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.SupplierFeedModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Ensure GormFeedRepository implements feed.Repository
var _ feed.Repository = (*GormFeedRepository)(nil)
