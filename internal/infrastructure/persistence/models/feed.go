package models

import (
	"time"

	"github.com/eshop/backend/internal/domain/feed"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierFeedModel is the persistence model for the SupplierFeed aggregate.
type SupplierFeedModel struct {
	AggregateModel
	Name              string              `gorm:"type:varchar(200);not null"`
	URL               string              `gorm:"column:url;type:text;not null"`
	SyncInterval      int                 `gorm:"not null;default:6"`
	ProductPath       string              `gorm:"type:varchar(500);not null;default:''"`
	FieldMapping      map[string]string   `gorm:"type:text;serializer:json"`
	DefaultCategoryID *uuid.UUID          `gorm:"type:uuid"`
	MarkupPercent     decimal.NullDecimal `gorm:"type:decimal(6,2)"`
	IsActive          bool                `gorm:"not null;index"`
	LastSyncAt        *time.Time
	LastSyncStatus    string `gorm:"type:varchar(20);not null;default:''"`
	LastSyncMessage   string `gorm:"type:text;not null;default:''"`
}

// TableName returns the table name for GORM
func (SupplierFeedModel) TableName() string {
	return "supplier_feeds"
}

// ToDomain converts the persistence model to a domain SupplierFeed.
func (m *SupplierFeedModel) ToDomain() *feed.SupplierFeed {
	f := &feed.SupplierFeed{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		URL:               m.URL,
		SyncInterval:      m.SyncInterval,
		ProductPath:       m.ProductPath,
		FieldMapping:      feed.FieldMapping(m.FieldMapping),
		DefaultCategoryID: m.DefaultCategoryID,
		IsActive:          m.IsActive,
		LastSyncAt:        m.LastSyncAt,
		LastSyncStatus:    feed.SyncStatus(m.LastSyncStatus),
		LastSyncMessage:   m.LastSyncMessage,
	}
	if f.FieldMapping == nil {
		f.FieldMapping = feed.FieldMapping{}
	}
	if m.MarkupPercent.Valid {
		pct := m.MarkupPercent.Decimal
		f.MarkupPercent = &pct
	}
	return f
}

// FromDomain populates the persistence model from a domain SupplierFeed.
func (m *SupplierFeedModel) FromDomain(f *feed.SupplierFeed) {
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	m.Name = f.Name
	m.URL = f.URL
	m.SyncInterval = f.SyncInterval
	m.ProductPath = f.ProductPath
	m.FieldMapping = map[string]string(f.FieldMapping)
	if m.FieldMapping == nil {
		m.FieldMapping = map[string]string{}
	}
	m.DefaultCategoryID = f.DefaultCategoryID
	m.MarkupPercent = decimal.NullDecimal{}
	if f.MarkupPercent != nil {
		m.MarkupPercent = decimal.NewNullDecimal(*f.MarkupPercent)
	}
	m.IsActive = f.IsActive
	m.LastSyncAt = f.LastSyncAt
	m.LastSyncStatus = string(f.LastSyncStatus)
	m.LastSyncMessage = f.LastSyncMessage
}

// SupplierFeedModelFromDomain creates a new persistence model from a domain SupplierFeed.
func SupplierFeedModelFromDomain(f *feed.SupplierFeed) *SupplierFeedModel {
	m := &SupplierFeedModel{}
	m.FromDomain(f)
	return m
}

// AllModels lists every persistence model, for AutoMigrate on sqlite and in tests
func AllModels() []any {
	return []any{
		&CategoryModel{},
		&SupplierFeedModel{},
		&ProductModel{},
	}
}
