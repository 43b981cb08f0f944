package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/eshop/backend/internal/domain/catalog"
	"github.com/eshop/backend/internal/domain/shared"
	"github.com/eshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByFeedAndSupplierSKU finds the product a feed created for a supplier SKU
func (r *GormProductRepository) FindByFeedAndSupplierSKU(ctx context.Context, feedID uuid.UUID, supplierSKU string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("supplier_feed_id = ? AND supplier_sku = ?", feedID, supplierSKU).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByFeed returns the active products owned by a feed
func (r *GormProductRepository) FindActiveByFeed(ctx context.Context, feedID uuid.UUID) ([]catalog.Product, error) {
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("supplier_feed_id = ? AND status = ?", feedID, catalog.ProductStatusActive).
		Find(&productModels).Error; err != nil {
		return nil, err
	}
	return toDomainProducts(productModels), nil
}

// FindWithRemoteImages returns products whose image list still contains an
// http(s) URL, keyset-paginated by ID
func (r *GormProductRepository) FindWithRemoteImages(ctx context.Context, after uuid.UUID, limit int) ([]catalog.Product, error) {
	var productModels []models.ProductModel
	query := r.db.WithContext(ctx).
		Where("images LIKE ? OR images LIKE ?", `%"http://%`, `%"https://%`).
		Order("id ASC")
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&productModels).Error; err != nil {
		return nil, err
	}
	return toDomainProducts(productModels), nil
}

// ExistsBySlug checks if any product uses the slug
func (r *GormProductRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsBySKU checks if any product uses the catalog SKU
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("sku = ?", sku).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByFeed counts the products linked to a feed
func (r *GormProductRepository) CountByFeed(ctx context.Context, feedID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("supplier_feed_id = ?", feedID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByFeeds counts linked products for several feeds in one query
func (r *GormProductRepository) CountByFeeds(ctx context.Context, feedIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(feedIDs))
	if len(feedIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		SupplierFeedID uuid.UUID
		Count          int64
	}
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Select("supplier_feed_id, COUNT(*) AS count").
		Where("supplier_feed_id IN ?", feedIDs).
		Group("supplier_feed_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SupplierFeedID] = row.Count
	}
	return counts, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	return r.db.WithContext(ctx).Save(model).Error
}

// DeactivateByIDs marks products inactive in a single UPDATE
func (r *GormProductRepository) DeactivateByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":  catalog.ProductStatusInactive,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateImages replaces the image list of a product
func (r *GormProductRepository) UpdateImages(ctx context.Context, id uuid.UUID, images []string) error {
	model := &models.ProductModel{Images: images}
	model.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", id).
		Select("images", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainProducts(productModels []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(productModels))
	for i := range productModels {
		products[i] = *productModels[i].ToDomain()
	}
	return products
}

// Ensure GormProductRepository implements catalog.ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
