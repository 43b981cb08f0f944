package models

import (
	"github.com/eshop/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	SKU            string                `gorm:"column:sku;type:varchar(100);not null;uniqueIndex"`
	Slug           string                `gorm:"type:varchar(255);not null;uniqueIndex"`
	NameEl         string                `gorm:"type:varchar(500);not null"`
	NameEn         string                `gorm:"type:varchar(500);not null"`
	DescriptionEl  *string               `gorm:"type:text"`
	DescriptionEn  *string               `gorm:"type:text"`
	Price          decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	Stock          int                   `gorm:"not null;default:0"`
	Brand          *string               `gorm:"type:varchar(200)"`
	Weight         decimal.NullDecimal   `gorm:"type:decimal(10,3)"`
	Images         []string              `gorm:"type:text;serializer:json"`
	CategoryID     *uuid.UUID            `gorm:"type:uuid;index"`
	Status         catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	SupplierFeedID *uuid.UUID            `gorm:"type:uuid;uniqueIndex:idx_products_feed_supplier_sku,priority:1"`
	SupplierSKU    *string               `gorm:"column:supplier_sku;type:varchar(200);uniqueIndex:idx_products_feed_supplier_sku,priority:2"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SKU:               m.SKU,
		Slug:              m.Slug,
		NameEl:            m.NameEl,
		NameEn:            m.NameEn,
		DescriptionEl:     m.DescriptionEl,
		DescriptionEn:     m.DescriptionEn,
		Price:             m.Price,
		Stock:             m.Stock,
		Brand:             m.Brand,
		Images:            m.Images,
		CategoryID:        m.CategoryID,
		Status:            m.Status,
		SupplierFeedID:    m.SupplierFeedID,
		SupplierSKU:       m.SupplierSKU,
	}
	if m.Weight.Valid {
		w := m.Weight.Decimal
		p.Weight = &w
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.SKU = p.SKU
	m.Slug = p.Slug
	m.NameEl = p.NameEl
	m.NameEn = p.NameEn
	m.DescriptionEl = p.DescriptionEl
	m.DescriptionEn = p.DescriptionEn
	m.Price = p.Price
	m.Stock = p.Stock
	m.Brand = p.Brand
	m.Weight = decimal.NullDecimal{}
	if p.Weight != nil {
		m.Weight = decimal.NewNullDecimal(*p.Weight)
	}
	m.Images = p.Images
	if m.Images == nil {
		m.Images = []string{}
	}
	m.CategoryID = p.CategoryID
	m.Status = p.Status
	m.SupplierFeedID = p.SupplierFeedID
	m.SupplierSKU = p.SupplierSKU
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	BaseModel
	NameEl   string `gorm:"type:varchar(200);not null"`
	NameEn   string `gorm:"type:varchar(200);not null"`
	Slug     string `gorm:"type:varchar(255);not null;uniqueIndex"`
	IsActive bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity: m.BaseModel.ToDomain(),
		NameEl:     m.NameEl,
		NameEn:     m.NameEn,
		Slug:       m.Slug,
		IsActive:   m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Category entity.
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.NameEl = c.NameEl
	m.NameEn = c.NameEn
	m.Slug = c.Slug
	m.IsActive = c.IsActive
}

// CategoryModelFromDomain creates a new persistence model from a domain Category entity.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{}
	m.FromDomain(c)
	return m
}
