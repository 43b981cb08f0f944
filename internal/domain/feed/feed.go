package feed

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/eshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SyncStatus is the outcome of the most recent sync attempt
type SyncStatus string

const (
	SyncStatusNone    SyncStatus = ""
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusError   SyncStatus = "error"
)

// DefaultSyncInterval is the polling interval in hours for new feeds
const DefaultSyncInterval = 6

// SupplierFeed is the configuration of one supplier XML feed together with
// the outcome of its last sync.
type SupplierFeed struct {
	shared.BaseAggregateRoot
	Name              string
	URL               string
	SyncInterval      int
	ProductPath       string
	FieldMapping      FieldMapping
	DefaultCategoryID *uuid.UUID
	MarkupPercent     *decimal.Decimal
	IsActive          bool
	LastSyncAt        *time.Time
	LastSyncStatus    SyncStatus
	LastSyncMessage   string
}

// Params carries the administrator-editable fields. Nil fields are left
// unchanged by Update and take their defaults in NewSupplierFeed.
type Params struct {
	Name              *string
	URL               *string
	SyncInterval      *int
	ProductPath       *string
	FieldMapping      FieldMapping
	DefaultCategoryID *uuid.UUID
	MarkupPercent     *decimal.Decimal
	IsActive          *bool
}

// NewSupplierFeed creates a feed with defaults applied
func NewSupplierFeed(p Params) (*SupplierFeed, error) {
	f := &SupplierFeed{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SyncInterval:      DefaultSyncInterval,
		FieldMapping:      FieldMapping{},
		IsActive:          true,
	}
	if p.Name == nil || p.URL == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Feed name and URL are required")
	}
	if err := f.apply(p); err != nil {
		return nil, err
	}
	return f, nil
}

// Update applies a partial update. The default category and markup are
// replaced as given, so passing nil clears them.
func (f *SupplierFeed) Update(p Params) error {
	if err := f.apply(p); err != nil {
		return err
	}
	f.IncrementVersion()
	return nil
}

func (f *SupplierFeed) apply(p Params) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return shared.NewDomainError("INVALID_NAME", "Feed name cannot be empty")
		}
		if len(name) > 200 {
			return shared.NewDomainError("INVALID_NAME", "Feed name cannot exceed 200 characters")
		}
		f.Name = name
	}
	if p.URL != nil {
		if err := validateFeedURL(*p.URL); err != nil {
			return err
		}
		f.URL = strings.TrimSpace(*p.URL)
	}
	if p.SyncInterval != nil {
		if *p.SyncInterval < 1 {
			return shared.NewDomainError("INVALID_INTERVAL", "Sync interval must be at least 1 hour")
		}
		f.SyncInterval = *p.SyncInterval
	}
	if p.ProductPath != nil {
		f.ProductPath = strings.Trim(strings.TrimSpace(*p.ProductPath), ".")
	}
	if p.FieldMapping != nil {
		for field := range p.FieldMapping {
			if !IsLogicalField(field) {
				return shared.NewDomainError("INVALID_MAPPING", fmt.Sprintf("Unknown mapped field %q", field))
			}
		}
		f.FieldMapping = p.FieldMapping.Clone()
	}
	if p.MarkupPercent != nil && p.MarkupPercent.LessThanOrEqual(decimal.NewFromInt(-100)) {
		return shared.NewDomainError("INVALID_MARKUP", "Markup percent must be greater than -100")
	}
	f.DefaultCategoryID = p.DefaultCategoryID
	f.MarkupPercent = p.MarkupPercent
	if p.IsActive != nil {
		f.IsActive = *p.IsActive
	}
	return nil
}

func validateFeedURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return shared.NewDomainError("INVALID_URL", "Feed URL must be an absolute http(s) URL")
	}
	return nil
}

// IsDue reports whether the feed should be synced at now: it has never been
// synced, or its interval has fully elapsed since the last attempt.
func (f *SupplierFeed) IsDue(now time.Time) bool {
	if f.LastSyncAt == nil {
		return true
	}
	next := f.LastSyncAt.Add(time.Duration(f.SyncInterval) * time.Hour)
	return !next.After(now)
}

// MarkupMultiplier returns 1 + markupPercent/100, or 1 without a markup
func (f *SupplierFeed) MarkupMultiplier() decimal.Decimal {
	if f.MarkupPercent == nil || f.MarkupPercent.IsZero() {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(1).Add(f.MarkupPercent.Div(decimal.NewFromInt(100)))
}

// ApplyMarkup multiplies a supplier price and rounds half away from zero to cents
func (f *SupplierFeed) ApplyMarkup(price decimal.Decimal) decimal.Decimal {
	return price.Mul(f.MarkupMultiplier()).Round(2)
}

// SKUPrefix returns the first n hex characters of the feed ID, used to
// disambiguate generated catalog SKUs
func (f *SupplierFeed) SKUPrefix(n int) string {
	hex := strings.ReplaceAll(f.ID.String(), "-", "")
	if n <= 0 || n > len(hex) {
		n = len(hex)
	}
	return hex[:n]
}

// RecordSuccess stores a successful sync outcome
func (f *SupplierFeed) RecordSuccess(at time.Time, result *SyncResult) {
	f.LastSyncAt = &at
	f.LastSyncStatus = SyncStatusSuccess
	f.LastSyncMessage = result.Summary()
	f.AddDomainEvent(NewSyncCompletedEvent(f, result))
	f.IncrementVersion()
}

// RecordFailure stores a fatal sync outcome
func (f *SupplierFeed) RecordFailure(at time.Time, cause error) {
	f.LastSyncAt = &at
	f.LastSyncStatus = SyncStatusError
	f.LastSyncMessage = cause.Error()
	f.AddDomainEvent(NewSyncFailedEvent(f, cause.Error()))
	f.IncrementVersion()
}
