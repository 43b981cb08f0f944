package feedapp

import (
	"time"

	"github.com/eshop/backend/internal/domain/feed"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateFeedRequest represents a request to register a supplier feed
type CreateFeedRequest struct {
	Name              string            `json:"name" binding:"required,min=1,max=200"`
	URL               string            `json:"url" binding:"required,url,max=2048"`
	SyncInterval      *int              `json:"syncInterval" binding:"omitempty,min=1,max=8760"`
	ProductPath       string            `json:"productPath" binding:"max=500"`
	FieldMapping      map[string]string `json:"fieldMapping" binding:"omitempty,dive,keys,required,endkeys,max=200"`
	DefaultCategoryID *uuid.UUID        `json:"defaultCategoryId"`
	MarkupPercent     *decimal.Decimal  `json:"markupPercent"`
	IsActive          *bool             `json:"isActive"`
}

// UpdateFeedRequest represents a partial update. Absent fields are left
// unchanged; the Clear flags remove the default category or the markup.
type UpdateFeedRequest struct {
	Name                 *string           `json:"name" binding:"omitempty,min=1,max=200"`
	URL                  *string           `json:"url" binding:"omitempty,url,max=2048"`
	SyncInterval         *int              `json:"syncInterval" binding:"omitempty,min=1,max=8760"`
	ProductPath          *string           `json:"productPath" binding:"omitempty,max=500"`
	FieldMapping         map[string]string `json:"fieldMapping" binding:"omitempty,dive,keys,required,endkeys,max=200"`
	DefaultCategoryID    *uuid.UUID        `json:"defaultCategoryId"`
	ClearDefaultCategory bool              `json:"clearDefaultCategory"`
	MarkupPercent        *decimal.Decimal  `json:"markupPercent"`
	ClearMarkup          bool              `json:"clearMarkup"`
	IsActive             *bool             `json:"isActive"`
}

// FeedResponse represents a feed in API responses
type FeedResponse struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	URL               string            `json:"url"`
	SyncInterval      int               `json:"syncInterval"`
	ProductPath       string            `json:"productPath"`
	FieldMapping      map[string]string `json:"fieldMapping"`
	DefaultCategoryID *uuid.UUID        `json:"defaultCategoryId"`
	MarkupPercent     *decimal.Decimal  `json:"markupPercent"`
	IsActive          bool              `json:"isActive"`
	LastSyncAt        *time.Time        `json:"lastSyncAt"`
	LastSyncStatus    *string           `json:"lastSyncStatus"`
	LastSyncMessage   *string           `json:"lastSyncMessage"`
	ProductCount      int64             `json:"productCount"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// ToFeedResponse converts a domain feed to a response
func ToFeedResponse(f *feed.SupplierFeed, productCount int64) FeedResponse {
	resp := FeedResponse{
		ID:                f.ID,
		Name:              f.Name,
		URL:               f.URL,
		SyncInterval:      f.SyncInterval,
		ProductPath:       f.ProductPath,
		FieldMapping:      map[string]string(f.FieldMapping.Clone()),
		DefaultCategoryID: f.DefaultCategoryID,
		MarkupPercent:     f.MarkupPercent,
		IsActive:          f.IsActive,
		LastSyncAt:        f.LastSyncAt,
		ProductCount:      productCount,
		CreatedAt:         f.CreatedAt,
		UpdatedAt:         f.UpdatedAt,
	}
	if f.LastSyncStatus != feed.SyncStatusNone {
		status := string(f.LastSyncStatus)
		resp.LastSyncStatus = &status
	}
	if f.LastSyncMessage != "" {
		msg := f.LastSyncMessage
		resp.LastSyncMessage = &msg
	}
	return resp
}

// SyncResponse is returned by a manual sync
type SyncResponse struct {
	Created     int      `json:"created"`
	Updated     int      `json:"updated"`
	Deactivated int      `json:"deactivated"`
	Errors      []string `json:"errors"`
}

// ToSyncResponse converts a sync result, capping the error list
func ToSyncResponse(r *feed.SyncResult, maxErrors int) SyncResponse {
	errs := r.Errors
	if maxErrors > 0 && len(errs) > maxErrors {
		errs = errs[:maxErrors]
	}
	return SyncResponse{
		Created:     r.Created,
		Updated:     r.Updated,
		Deactivated: r.Deactivated,
		Errors:      append([]string{}, errs...),
	}
}
