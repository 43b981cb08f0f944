package feedapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eshop/backend/internal/domain/catalog"
	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/domain/shared"
	"github.com/eshop/backend/internal/infrastructure/fetch"
	"github.com/eshop/backend/internal/infrastructure/logger"
	"github.com/eshop/backend/internal/infrastructure/telemetry"
	"github.com/eshop/backend/internal/infrastructure/xmltree"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultSKUPrefixLength is the number of feed ID hex characters used to
// disambiguate a generated SKU that is already taken
const DefaultSKUPrefixLength = 8

// maxSlugAttempts bounds the numbered suffixes tried for a taken slug
const maxSlugAttempts = 50

// Fetcher downloads a feed document
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageResolver maps a remote image URL to a locally served path. ok is
// false when no local copy could be made.
type ImageResolver interface {
	Resolve(ctx context.Context, url string) (publicPath string, ok bool)
}

// SyncOption configures a SyncService
type SyncOption func(*SyncService)

// WithSyncLogger sets the logger
func WithSyncLogger(l *zap.Logger) SyncOption {
	return func(s *SyncService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSyncLock serializes runs of the same feed
func WithSyncLock(lock feed.SyncLock) SyncOption {
	return func(s *SyncService) {
		s.lock = lock
	}
}

// WithEventPublisher publishes the feed sync events after each run
func WithEventPublisher(p shared.EventPublisher) SyncOption {
	return func(s *SyncService) {
		s.publisher = p
	}
}

// WithImageResolver caches record images locally
func WithImageResolver(r ImageResolver) SyncOption {
	return func(s *SyncService) {
		s.images = r
	}
}

// WithSKUPrefixLength sets how many feed ID characters disambiguate SKUs
func WithSKUPrefixLength(n int) SyncOption {
	return func(s *SyncService) {
		if n > 0 {
			s.skuPrefixLength = n
		}
	}
}

// WithClock overrides the time source used for lastSyncAt
func WithClock(now func() time.Time) SyncOption {
	return func(s *SyncService) {
		if now != nil {
			s.now = now
		}
	}
}

// SyncService reconciles the catalog with one supplier feed
type SyncService struct {
	feeds           feed.Repository
	products        catalog.ProductRepository
	categories      catalog.CategoryRepository
	fetcher         Fetcher
	images          ImageResolver
	lock            feed.SyncLock
	publisher       shared.EventPublisher
	mapper          *Mapper
	logger          *zap.Logger
	skuPrefixLength int
	now             func() time.Time
}

// NewSyncService creates a SyncService. Without an image resolver the
// remote image URLs are stored as-is; without a lock runs are not serialized.
func NewSyncService(
	feeds feed.Repository,
	products catalog.ProductRepository,
	categories catalog.CategoryRepository,
	fetcher Fetcher,
	opts ...SyncOption,
) *SyncService {
	s := &SyncService{
		feeds:           feeds,
		products:        products,
		categories:      categories,
		fetcher:         fetcher,
		mapper:          NewMapper(),
		logger:          zap.NewNop(),
		skuPrefixLength: DefaultSKUPrefixLength,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("feed_sync")
	return s
}

// SyncFeed fetches the feed document and reconciles its records into the
// catalog. Fetch and document errors are fatal: they are stored on the feed
// and returned. Record errors are collected in the result.
func (s *SyncService) SyncFeed(ctx context.Context, feedID uuid.UUID) (*feed.SyncResult, error) {
	ctx = logger.WithFeedID(ctx, feedID.String())
	ctx, span := telemetry.StartSpan(ctx, "feed_sync.sync", telemetry.AttrFeedID.String(feedID.String()))
	defer span.End()
	log := logger.WithLogger(ctx, s.logger)

	f, err := s.feeds.FindByID(ctx, feedID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			err = feed.ErrFeedNotFound
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(telemetry.AttrFeedName.String(f.Name))

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, f.ID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to release feed sync lock", zap.Error(err))
			}
		}()
	}

	log.Info("Feed sync started", zap.String("feed_name", f.Name), zap.String("url", f.URL))

	records, err := s.loadRecords(ctx, f)
	if err != nil {
		s.fail(ctx, f, err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("feed.records", len(records)))

	result, err := s.reconcile(ctx, f, records)
	if err != nil {
		s.fail(ctx, f, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	f.RecordSuccess(s.now(), result)
	if err := s.feeds.SaveSyncStatus(ctx, f); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("save feed status: %w", err)
	}
	s.publish(ctx, f)

	log.Info("Feed sync completed",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("deactivated", result.Deactivated),
		zap.Int("errors", len(result.Errors)),
	)
	telemetry.SetOK(span)
	return result, nil
}

// loadRecords fetches and parses the document and selects the records
func (s *SyncService) loadRecords(ctx context.Context, f *feed.SupplierFeed) ([]xmltree.Value, error) {
	data, err := s.fetcher.Fetch(ctx, f.URL)
	if err != nil {
		return nil, err
	}
	root, err := xmltree.Parse(data, f.ProductPath)
	if err != nil {
		return nil, err
	}
	records, ok := xmltree.Records(root, f.ProductPath)
	if !ok {
		return nil, feed.NewProductPathError(f.ProductPath)
	}
	return records, nil
}

func (s *SyncService) reconcile(ctx context.Context, f *feed.SupplierFeed, records []xmltree.Value) (*feed.SyncResult, error) {
	log := logger.WithLogger(ctx, s.logger)

	active, err := s.categories.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	categories := catalog.NewCategoryIndex(active)

	result := feed.NewSyncResult()
	seen := make(map[string]struct{}, len(records))
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sku, err := s.syncRecord(ctx, f, categories, record, result)
		if sku != "" {
			seen[sku] = struct{}{}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, ErrMissingSKU) {
			result.AddError(err.Error())
		} else {
			result.AddError("Product error: " + err.Error())
		}
		log.Warn("Feed record skipped", zap.Int("index", i), zap.String("supplier_sku", sku), zap.Error(err))
	}

	deactivated, err := s.deactivateUnseen(ctx, f.ID, seen)
	if err != nil {
		return nil, err
	}
	result.Deactivated = deactivated
	return result, nil
}

// syncRecord creates or updates the product of one record. The supplier SKU
// is returned whenever the record carried one, even on failure.
func (s *SyncService) syncRecord(
	ctx context.Context,
	f *feed.SupplierFeed,
	categories catalog.CategoryIndex,
	record xmltree.Value,
	result *feed.SyncResult,
) (string, error) {
	m, err := s.mapper.Map(f.FieldMapping, record)
	if err != nil {
		return "", err
	}

	data := catalog.FeedData{
		NameEl:        m.NameEl,
		NameEn:        m.NameEn,
		DescriptionEl: m.DescriptionEl,
		DescriptionEn: m.DescriptionEn,
		Price:         f.ApplyMarkup(m.Price),
		Stock:         m.Stock,
		Brand:         m.Brand,
		Weight:        m.Weight,
		CategoryID:    resolveCategory(f, categories, m.CategoryName),
	}
	if m.ImageURL != "" {
		data.Images = []string{s.resolveImage(ctx, m.ImageURL)}
	}

	existing, err := s.products.FindByFeedAndSupplierSKU(ctx, f.ID, m.SupplierSKU)
	switch {
	case err == nil:
		if err := existing.ApplyFeedData(data); err != nil {
			return m.SupplierSKU, err
		}
		if err := s.products.Save(ctx, existing); err != nil {
			return m.SupplierSKU, err
		}
		result.Updated++
		return m.SupplierSKU, nil
	case !errors.Is(err, shared.ErrNotFound):
		return m.SupplierSKU, err
	}

	slug, err := s.uniqueSlug(ctx, m)
	if err != nil {
		return m.SupplierSKU, err
	}
	sku, err := s.uniqueSKU(ctx, f, m.SupplierSKU)
	if err != nil {
		return m.SupplierSKU, err
	}
	product, err := catalog.NewFeedProduct(f.ID, m.SupplierSKU, sku, slug, data)
	if err != nil {
		return m.SupplierSKU, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return m.SupplierSKU, err
	}
	result.Created++
	return m.SupplierSKU, nil
}

// resolveCategory prefers an active category whose name matches the record's
// category text, then the feed default
func resolveCategory(f *feed.SupplierFeed, categories catalog.CategoryIndex, name string) *uuid.UUID {
	if name != "" {
		if c, ok := categories.Lookup(name); ok {
			id := c.ID
			return &id
		}
	}
	if f.DefaultCategoryID == nil {
		return nil
	}
	id := *f.DefaultCategoryID
	return &id
}

func (s *SyncService) resolveImage(ctx context.Context, url string) string {
	if s.images == nil {
		return url
	}
	if local, ok := s.images.Resolve(ctx, url); ok {
		return local
	}
	return url
}

// uniqueSlug derives the slug of a new product. A taken slug gets the
// normalized supplier SKU appended, then a counter.
func (s *SyncService) uniqueSlug(ctx context.Context, m MappedRecord) (string, error) {
	base := catalog.Slugify(m.NameEl)
	if base == "" {
		base = catalog.Slugify(m.SupplierSKU)
	}
	if base == "" {
		base = "product"
	}

	candidates := []string{base}
	if suffix := catalog.NormalizeSKUSuffix(m.SupplierSKU); suffix != "" && suffix != base {
		base = base + "-" + suffix
		candidates = append(candidates, base)
	}
	for _, slug := range candidates {
		taken, err := s.products.ExistsBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
	}
	for n := 2; n <= maxSlugAttempts; n++ {
		slug := fmt.Sprintf("%s-%d", base, n)
		taken, err := s.products.ExistsBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
	}
	return "", shared.NewDomainError("SLUG_TAKEN", fmt.Sprintf("No free slug for %q", base))
}

// uniqueSKU returns SF-<sku>, or SF-<feed prefix>-<sku> when that is taken
func (s *SyncService) uniqueSKU(ctx context.Context, f *feed.SupplierFeed, supplierSKU string) (string, error) {
	candidates := []string{
		"SF-" + supplierSKU,
		"SF-" + f.SKUPrefix(s.skuPrefixLength) + "-" + supplierSKU,
	}
	for _, sku := range candidates {
		taken, err := s.products.ExistsBySKU(ctx, sku)
		if err != nil {
			return "", err
		}
		if !taken {
			return sku, nil
		}
	}
	return "", shared.NewDomainError("SKU_TAKEN", fmt.Sprintf("SKU %s is already taken", candidates[1]))
}

// deactivateUnseen marks inactive the feed's active products whose supplier
// SKU did not appear in this run
func (s *SyncService) deactivateUnseen(ctx context.Context, feedID uuid.UUID, seen map[string]struct{}) (int, error) {
	active, err := s.products.FindActiveByFeed(ctx, feedID)
	if err != nil {
		return 0, fmt.Errorf("load feed products: %w", err)
	}
	var ids []uuid.UUID
	for _, p := range active {
		if p.SupplierSKU == nil {
			continue
		}
		if _, ok := seen[*p.SupplierSKU]; !ok {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.products.DeactivateByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("deactivate products: %w", err)
	}
	return int(n), nil
}

// fail stores a fatal outcome on the feed. The status is written even when
// the run's context was cancelled.
func (s *SyncService) fail(ctx context.Context, f *feed.SupplierFeed, cause error) {
	log := logger.WithLogger(ctx, s.logger)
	log.Error("Feed sync failed", zap.Error(cause))

	f.RecordFailure(s.now(), errors.New(FailureMessage(cause)))
	saveCtx := context.WithoutCancel(ctx)
	if err := s.feeds.SaveSyncStatus(saveCtx, f); err != nil {
		log.Error("Failed to store feed sync failure", zap.Error(err))
		return
	}
	s.publish(saveCtx, f)
}

func (s *SyncService) publish(ctx context.Context, f *feed.SupplierFeed) {
	events := f.PullDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Failed to publish feed sync events", zap.Error(err))
	}
}

// FailureMessage renders a fatal sync error for the feed status and the
// cron summary. Fetch errors report their reason without the URL.
func FailureMessage(err error) string {
	var fe *fetch.FetchError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return err.Error()
}
