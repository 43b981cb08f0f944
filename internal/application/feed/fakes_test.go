package feedapp

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eshop/backend/internal/domain/catalog"
	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memProductRepo is an in-memory ProductRepository enforcing unique SKUs,
// slugs and (feed, supplier SKU) pairs like the database does
type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
	saveErr  func(p *catalog.Product) error
	saves    int
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]catalog.Product)}
}

func cloneProduct(p catalog.Product) catalog.Product {
	p.Images = append([]string(nil), p.Images...)
	p.ClearDomainEvents()
	return p
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

func (r *memProductRepo) FindByFeedAndSupplierSKU(_ context.Context, feedID uuid.UUID, supplierSKU string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SupplierFeedID != nil && *p.SupplierFeedID == feedID && p.SupplierSKU != nil && *p.SupplierSKU == supplierSKU {
			out := cloneProduct(p)
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindActiveByFeed(_ context.Context, feedID uuid.UUID) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Product
	for _, p := range r.products {
		if p.SupplierFeedID != nil && *p.SupplierFeedID == feedID && p.IsActive() {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (r *memProductRepo) FindWithRemoteImages(_ context.Context, after uuid.UUID, limit int) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Product
	for _, p := range r.products {
		if p.HasRemoteImages() && bytes.Compare(p.ID[:], after[:]) > 0 {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memProductRepo) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *memProductRepo) ExistsBySKU(_ context.Context, sku string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r *memProductRepo) CountByFeed(_ context.Context, feedID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.products {
		if p.SupplierFeedID != nil && *p.SupplierFeedID == feedID {
			n++
		}
	}
	return n, nil
}

func (r *memProductRepo) CountByFeeds(ctx context.Context, feedIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64)
	for _, id := range feedIDs {
		n, _ := r.CountByFeed(ctx, id)
		if n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		if err := r.saveErr(p); err != nil {
			return err
		}
	}
	for id, other := range r.products {
		if id == p.ID {
			continue
		}
		if other.SKU == p.SKU {
			return errors.New("duplicate key value violates unique constraint \"idx_products_sku\"")
		}
		if other.Slug == p.Slug {
			return errors.New("duplicate key value violates unique constraint \"idx_products_slug\"")
		}
	}
	r.saves++
	r.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *memProductRepo) DeactivateByIDs(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		p, ok := r.products[id]
		if !ok || !p.IsActive() {
			continue
		}
		p.Status = catalog.ProductStatusInactive
		r.products[id] = p
		n++
	}
	return n, nil
}

func (r *memProductRepo) UpdateImages(_ context.Context, id uuid.UUID, images []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Images = append([]string(nil), images...)
	r.products[id] = p
	return nil
}

func (r *memProductRepo) bySupplierSKU(feedID uuid.UUID, supplierSKU string) *catalog.Product {
	p, err := r.FindByFeedAndSupplierSKU(context.Background(), feedID, supplierSKU)
	if err != nil {
		panic("product not found: " + supplierSKU)
	}
	return p
}

func (r *memProductRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.products)
}

func (r *memProductRepo) detach(feedID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.products {
		if p.SupplierFeedID != nil && *p.SupplierFeedID == feedID {
			p.SupplierFeedID = nil
			p.SupplierSKU = nil
			r.products[id] = p
		}
	}
}

var _ catalog.ProductRepository = (*memProductRepo)(nil)

// memFeedRepo is an in-memory feed.Repository
type memFeedRepo struct {
	mu       sync.Mutex
	feeds    map[uuid.UUID]feed.SupplierFeed
	products *memProductRepo
	saveErr  error
}

func newMemFeedRepo(products *memProductRepo) *memFeedRepo {
	return &memFeedRepo{feeds: make(map[uuid.UUID]feed.SupplierFeed), products: products}
}

func (r *memFeedRepo) FindByID(_ context.Context, id uuid.UUID) (*feed.SupplierFeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feeds[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	f.ClearDomainEvents()
	return &f, nil
}

func (r *memFeedRepo) sorted() []feed.SupplierFeed {
	out := make([]feed.SupplierFeed, 0, len(r.feeds))
	for _, f := range r.feeds {
		f.ClearDomainEvents()
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *memFeedRepo) FindAll(_ context.Context, filter shared.Filter) ([]feed.SupplierFeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	var out []feed.SupplierFeed
	for i := len(all) - 1; i >= 0; i-- {
		if filter.Search == "" || strings.Contains(strings.ToLower(all[i].Name), strings.ToLower(filter.Search)) {
			out = append(out, all[i])
		}
	}
	start := filter.Offset()
	if start > len(out) {
		return nil, nil
	}
	out = out[start:]
	if filter.PageSize > 0 && len(out) > filter.PageSize {
		out = out[:filter.PageSize]
	}
	return out, nil
}

func (r *memFeedRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	all, _ := r.FindAll(ctx, shared.Filter{Search: filter.Search})
	return int64(len(all)), nil
}

func (r *memFeedRepo) FindActive(_ context.Context) ([]feed.SupplierFeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []feed.SupplierFeed
	for _, f := range r.sorted() {
		if f.IsActive {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFeedRepo) Save(_ context.Context, f *feed.SupplierFeed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	stored := *f
	stored.FieldMapping = f.FieldMapping.Clone()
	r.feeds[f.ID] = stored
	return nil
}

func (r *memFeedRepo) SaveSyncStatus(_ context.Context, f *feed.SupplierFeed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	stored, ok := r.feeds[f.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.LastSyncAt = f.LastSyncAt
	stored.LastSyncStatus = f.LastSyncStatus
	stored.LastSyncMessage = f.LastSyncMessage
	stored.UpdatedAt = f.UpdatedAt
	r.feeds[f.ID] = stored
	return nil
}

func (r *memFeedRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.feeds[id]; !ok {
		return shared.ErrNotFound
	}
	if r.products != nil {
		r.products.detach(id)
	}
	delete(r.feeds, id)
	return nil
}

func (r *memFeedRepo) get(id uuid.UUID) feed.SupplierFeed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.feeds[id]
}

var _ feed.Repository = (*memFeedRepo)(nil)

// memCategoryRepo is an in-memory CategoryRepository
type memCategoryRepo struct {
	categories []catalog.Category
}

func (r *memCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Category, error) {
	for i := range r.categories {
		if r.categories[i].ID == id {
			c := r.categories[i]
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCategoryRepo) FindActive(_ context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, c := range r.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCategoryRepo) Save(_ context.Context, c *catalog.Category) error {
	r.categories = append(r.categories, *c)
	return nil
}

var _ catalog.CategoryRepository = (*memCategoryRepo)(nil)

// MockFetcher is a mock implementation of Fetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// staticFetcher serves a fixed document and counts requests
type staticFetcher struct {
	mu    sync.Mutex
	body  string
	calls int
}

func (f *staticFetcher) set(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = body
}

func (f *staticFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return []byte(f.body), nil
}

// fakeResolver caches URLs in memory; downloads counts cache misses and
// URLs listed in failing are never cached
type fakeResolver struct {
	mu        sync.Mutex
	cached    map[string]string
	failing   map[string]bool
	downloads int
}

func newFakeResolver(failing ...string) *fakeResolver {
	r := &fakeResolver{cached: map[string]string{}, failing: map[string]bool{}}
	for _, u := range failing {
		r.failing[u] = true
	}
	return r
}

func (r *fakeResolver) Resolve(_ context.Context, url string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.cached[url]; ok {
		return p, true
	}
	if r.failing[url] {
		return "", false
	}
	r.downloads++
	p := "/products/" + strings.ToLower(strings.ReplaceAll(url[strings.LastIndex(url, "/")+1:], " ", "-"))
	r.cached[url] = p
	return p, true
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// heldLock refuses every acquisition
type heldLock struct{}

func (heldLock) Acquire(context.Context, uuid.UUID) (feed.ReleaseFunc, error) {
	return nil, feed.ErrSyncInProgress
}

// countingLock grants every acquisition and counts releases
type countingLock struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (l *countingLock) Acquire(context.Context, uuid.UUID) (feed.ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquired++
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func strPtr(s string) *string { return &s }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
