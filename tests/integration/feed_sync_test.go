package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	feedapp "github.com/eshop/backend/internal/application/feed"
	"github.com/eshop/backend/internal/domain/catalog"
	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/domain/shared"
	"github.com/eshop/backend/internal/infrastructure/cache"
	"github.com/eshop/backend/internal/infrastructure/fetch"
	"github.com/eshop/backend/internal/infrastructure/imagecache"
	"github.com/eshop/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

var imageBody = append([]byte("\x89PNG\r\n\x1a\n"), []byte(strings.Repeat("p", 300))...)

// supplier serves a mutable XML document at /feed.xml and images under /img/
type supplier struct {
	server    *httptest.Server
	document  atomic.Value
	downloads atomic.Int32
}

func newSupplier(t *testing.T) *supplier {
	t.Helper()
	s := &supplier{}
	s.document.Store("")
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(s.document.Load().(string)))
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, _ *http.Request) {
		s.downloads.Add(1)
		_, _ = w.Write(imageBody)
	})
	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *supplier) serve(products ...string) {
	s.document.Store(`<?xml version="1.0" encoding="UTF-8"?><catalog><products>` +
		strings.Join(products, "") + `</products></catalog>`)
}

func (s *supplier) product(code, title, price, img string) string {
	return fmt.Sprintf(
		"<product><code>%s</code><title>%s</title><price>%s</price><qty>3</qty><cat>Kitchen</cat><img>%s</img></product>",
		code, title, price, s.server.URL+img)
}

type pipeline struct {
	db       *TestDB
	feeds    *persistence.GormFeedRepository
	products *persistence.GormProductRepository
	admin    *feedapp.FeedService
	syncer   *feedapp.SyncService
	runner   *feedapp.DueRunner
	resolver *imagecache.Resolver
	imageDir string
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	db := NewSharedTestDB(t)
	db.CleanTables()

	log := zaptest.NewLogger(t)
	feeds := persistence.NewGormFeedRepository(db.DB)
	products := persistence.NewGormProductRepository(db.DB)
	categories := persistence.NewGormCategoryRepository(db.DB)

	fetcher := fetch.New(fetch.Config{Timeout: 5 * time.Second})
	imageDir := t.TempDir()
	store, err := imagecache.NewLocalStore(imageDir, "/products")
	require.NoError(t, err)
	resolver := imagecache.NewResolver(store, fetcher, imagecache.WithLogger(log))

	syncer := feedapp.NewSyncService(feeds, products, categories, fetcher,
		feedapp.WithSyncLogger(log),
		feedapp.WithSyncLock(cache.NewInMemoryFeedLock(time.Minute)),
		feedapp.WithImageResolver(resolver),
	)
	return &pipeline{
		db:       db,
		feeds:    feeds,
		products: products,
		admin:    feedapp.NewFeedService(feeds, products, categories, log),
		syncer:   syncer,
		runner:   feedapp.NewDueRunner(feeds, syncer, log),
		resolver: resolver,
		imageDir: imageDir,
	}
}

func (p *pipeline) createFeed(t *testing.T, url string) *feedapp.FeedResponse {
	t.Helper()
	markup := decimal.RequireFromString("10")
	created, err := p.admin.Create(context.Background(), feedapp.CreateFeedRequest{
		Name:        "Acme",
		URL:         url,
		ProductPath: "catalog.products.product",
		FieldMapping: map[string]string{
			feed.FieldSKU:      "code",
			feed.FieldNameEl:   "title",
			feed.FieldPrice:    "price",
			feed.FieldStock:    "qty",
			feed.FieldImage:    "img",
			feed.FieldCategory: "cat",
		},
		MarkupPercent: &markup,
	})
	require.NoError(t, err)
	return created
}

func (p *pipeline) product(t *testing.T, feedID uuid.UUID, supplierSKU string) *catalog.Product {
	t.Helper()
	product, err := p.products.FindByFeedAndSupplierSKU(context.Background(), feedID, supplierSKU)
	require.NoError(t, err)
	return product
}

func TestFeedSync_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	p := newPipeline(t)
	s := newSupplier(t)

	kitchen, err := catalog.NewCategory("Κουζίνα", "Kitchen")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCategoryRepository(p.db.DB).Save(ctx, kitchen))

	created := p.createFeed(t, s.server.URL+"/feed.xml")

	t.Run("first run creates products", func(t *testing.T) {
		s.serve(
			s.product("A-1", "Coffee maker", "19,90", "/img/a1.jpg"),
			s.product("A-2", "Kettle", "10.00", "/img/a2.png"),
		)

		result, err := p.syncer.SyncFeed(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Created)
		assert.Empty(t, result.Errors)

		a1 := p.product(t, created.ID, "A-1")
		assert.Equal(t, "SF-A-1", a1.SKU)
		assert.Equal(t, "coffee-maker", a1.Slug)
		assert.True(t, a1.Price.Equal(decimal.RequireFromString("21.89")), "got %s", a1.Price)
		assert.Equal(t, 3, a1.Stock)
		require.NotNil(t, a1.CategoryID)
		assert.Equal(t, kitchen.ID, *a1.CategoryID)
		require.Len(t, a1.Images, 1)
		assert.True(t, strings.HasPrefix(a1.Images[0], "/products/"), "got %s", a1.Images[0])
		assert.FileExists(t, filepath.Join(p.imageDir, strings.TrimPrefix(a1.Images[0], "/products/")))

		stored, err := p.feeds.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, feed.SyncStatusSuccess, stored.LastSyncStatus)
		assert.Equal(t, "Created: 2, Updated: 0, Deactivated: 0", stored.LastSyncMessage)
	})

	t.Run("second run updates and deactivates", func(t *testing.T) {
		downloads := s.downloads.Load()
		s.serve(s.product("A-1", "Coffee maker deluxe", "20", "/img/a1.jpg"))

		result, err := p.syncer.SyncFeed(ctx, created.ID)
		require.NoError(t, err)
		assert.Zero(t, result.Created)
		assert.Equal(t, 1, result.Updated)
		assert.Equal(t, 1, result.Deactivated)
		assert.Equal(t, downloads, s.downloads.Load(), "cached images are not fetched again")

		a1 := p.product(t, created.ID, "A-1")
		assert.Equal(t, "Coffee maker deluxe", a1.NameEl)
		assert.Equal(t, "coffee-maker", a1.Slug)
		assert.False(t, p.product(t, created.ID, "A-2").IsActive())
	})

	t.Run("malformed document is recorded on the feed", func(t *testing.T) {
		s.document.Store("<catalog><products>")

		_, err := p.syncer.SyncFeed(ctx, created.ID)
		require.Error(t, err)

		stored, err := p.feeds.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, feed.SyncStatusError, stored.LastSyncStatus)
		assert.NotEmpty(t, stored.LastSyncMessage)
		assert.Equal(t, 2, mustCount(t, p, created.ID), "a failed run touches no product")
	})

	t.Run("list reports product counts", func(t *testing.T) {
		list, err := p.admin.List(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, int64(2), list.Items[0].ProductCount)
	})

	t.Run("delete keeps products detached", func(t *testing.T) {
		a1 := p.product(t, created.ID, "A-1")
		require.NoError(t, p.admin.Delete(ctx, created.ID))

		_, err := p.feeds.FindByID(ctx, created.ID)
		assert.Error(t, err)

		kept, err := p.products.FindByID(ctx, a1.ID)
		require.NoError(t, err)
		assert.Nil(t, kept.SupplierFeedID)
		assert.Equal(t, a1.SKU, kept.SKU)
	})
}

func TestDueRunner_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	p := newPipeline(t)
	s := newSupplier(t)
	s.serve(s.product("D-1", "Toaster", "30", "/img/d1.jpg"))
	created := p.createFeed(t, s.server.URL+"/feed.xml")

	summary, err := p.runner.RunDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Synced)
	require.Contains(t, summary.Results, "Acme")
	assert.Equal(t, 1, summary.Results["Acme"].Created)

	again, err := p.runner.RunDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, again.Synced, "a feed synced moments ago is not due")
	assert.Equal(t, 1, mustCount(t, p, created.ID))
}

func TestImageBackfill_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	p := newPipeline(t)
	s := newSupplier(t)

	remote := s.server.URL + "/img/legacy.jpg"
	product, err := catalog.NewFeedProduct(uuid.Nil, "L-1", "LEGACY-1", "legacy-1", catalog.FeedData{
		NameEl: "Legacy",
		NameEn: "Legacy",
		Price:  decimal.NewFromInt(5),
		Images: []string{remote},
	})
	require.NoError(t, err)
	product.SupplierFeedID = nil
	require.NoError(t, p.products.Save(ctx, product))

	stats, err := feedapp.NewImageBackfill(p.products, p.resolver, 2, 10, zaptest.NewLogger(t)).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.Updated)

	stored, err := p.products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, stored.Images, 1)
	assert.Equal(t, "/products/"+imagecache.FileName(remote), stored.Images[0])
}

func mustCount(t *testing.T, p *pipeline, feedID uuid.UUID) int {
	t.Helper()
	n, err := p.products.CountByFeed(context.Background(), feedID)
	require.NoError(t, err)
	return int(n)
}
