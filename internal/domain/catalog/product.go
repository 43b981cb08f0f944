package catalog

import (
	"strings"

	"github.com/eshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a catalog entry. Products created by a supplier feed carry the
// feed ID and the supplier's own SKU; at most one product exists per pair.
type Product struct {
	shared.BaseAggregateRoot
	SKU            string
	Slug           string
	NameEl         string
	NameEn         string
	DescriptionEl  *string
	DescriptionEn  *string
	Price          decimal.Decimal
	Stock          int
	Brand          *string
	Weight         *decimal.Decimal
	Images         []string
	CategoryID     *uuid.UUID
	Status         ProductStatus
	SupplierFeedID *uuid.UUID
	SupplierSKU    *string
}

// FeedData holds the values a supplier feed record contributes to a product
type FeedData struct {
	NameEl        string
	NameEn        string
	DescriptionEl *string
	DescriptionEn *string
	Price         decimal.Decimal
	Stock         int
	Brand         *string
	Weight        *decimal.Decimal
	Images        []string
	CategoryID    *uuid.UUID
}

// NewFeedProduct creates an active product owned by a supplier feed
func NewFeedProduct(feedID uuid.UUID, supplierSKU, sku, slug string, data FeedData) (*Product, error) {
	if strings.TrimSpace(supplierSKU) == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_SKU", "Supplier SKU cannot be empty")
	}
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_SLUG", "Product slug cannot be empty")
	}
	if err := validateFeedData(data); err != nil {
		return nil, err
	}

	supplierSKUCopy := supplierSKU
	feedIDCopy := feedID
	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Slug:              slug,
		Status:            ProductStatusActive,
		SupplierFeedID:    &feedIDCopy,
		SupplierSKU:       &supplierSKUCopy,
		Images:            []string{},
	}
	product.assign(data)
	if len(data.Images) > 0 {
		product.Images = append([]string(nil), data.Images...)
	}
	return product, nil
}

// ApplyFeedData overwrites the feed-managed fields in place and reactivates
// the product. SKU, slug and identity never change. Images are only replaced
// when the record resolved at least one.
func (p *Product) ApplyFeedData(data FeedData) error {
	if err := validateFeedData(data); err != nil {
		return err
	}
	p.assign(data)
	if len(data.Images) > 0 {
		p.Images = append([]string(nil), data.Images...)
	}
	p.Status = ProductStatusActive
	p.IncrementVersion()
	return nil
}

func (p *Product) assign(data FeedData) {
	p.NameEl = data.NameEl
	p.NameEn = data.NameEn
	p.DescriptionEl = data.DescriptionEl
	p.DescriptionEn = data.DescriptionEn
	p.Price = data.Price
	p.Stock = data.Stock
	p.Brand = data.Brand
	p.Weight = data.Weight
	p.CategoryID = data.CategoryID
}

// Deactivate marks the product inactive. Feed-owned products are never deleted.
func (p *Product) Deactivate() {
	if p.Status == ProductStatusInactive {
		return
	}
	p.Status = ProductStatusInactive
	p.IncrementVersion()
}

// DetachFromFeed removes the supplier feed ownership
func (p *Product) DetachFromFeed() {
	p.SupplierFeedID = nil
	p.SupplierSKU = nil
	p.IncrementVersion()
}

// ReplaceImages swaps the image list
func (p *Product) ReplaceImages(images []string) {
	p.Images = append([]string(nil), images...)
	p.IncrementVersion()
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// IsFeedOwned returns true if a supplier feed manages the product
func (p *Product) IsFeedOwned() bool {
	return p.SupplierFeedID != nil && p.SupplierSKU != nil
}

// HasRemoteImages returns true if any image still points to an external URL
func (p *Product) HasRemoteImages() bool {
	for _, img := range p.Images {
		if IsRemoteURL(img) {
			return true
		}
	}
	return false
}

// IsRemoteURL reports whether the image reference is an absolute http(s) URL
func IsRemoteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if len(sku) > 100 {
		return shared.NewDomainError("INVALID_SKU", "Product SKU cannot exceed 100 characters")
	}
	return nil
}

func validateFeedData(data FeedData) error {
	if data.NameEl == "" || data.NameEn == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if data.Price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}
	if data.Weight != nil && data.Weight.IsNegative() {
		return shared.NewDomainError("INVALID_WEIGHT", "Product weight cannot be negative")
	}
	return nil
}
