package feedapp

import (
	"context"
	"sync/atomic"

	"github.com/eshop/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BackfillStats reports an image backfill run
type BackfillStats struct {
	Scanned int
	Updated int
	Cached  int
	Failed  int
}

// ImageBackfill rewrites remote product image URLs to locally cached copies
type ImageBackfill struct {
	products    catalog.ProductRepository
	images      ImageResolver
	concurrency int
	batchSize   int
	logger      *zap.Logger
}

// NewImageBackfill creates an ImageBackfill. concurrency bounds parallel
// downloads; batchSize bounds the products loaded per query.
func NewImageBackfill(products catalog.ProductRepository, images ImageResolver, concurrency, batchSize int, logger *zap.Logger) *ImageBackfill {
	if concurrency < 1 {
		concurrency = 3
	}
	if batchSize < 1 {
		batchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageBackfill{
		products:    products,
		images:      images,
		concurrency: concurrency,
		batchSize:   batchSize,
		logger:      logger.Named("image_backfill"),
	}
}

// Run walks every product that still references a remote image. Images that
// cannot be cached keep their remote URL. Products are visited once, in ID
// order, so a product whose images all failed is not retried in the same run.
func (b *ImageBackfill) Run(ctx context.Context) (BackfillStats, error) {
	var (
		stats          BackfillStats
		updated        atomic.Int64
		cached, failed atomic.Int64
		after          uuid.UUID
	)

	for {
		batch, err := b.products.FindWithRemoteImages(ctx, after, b.batchSize)
		if err != nil {
			return stats, err
		}
		if len(batch) == 0 {
			break
		}
		stats.Scanned += len(batch)
		after = batch[len(batch)-1].ID

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.concurrency)
		for i := range batch {
			p := &batch[i]
			g.Go(func() error {
				images, hits, misses := b.localize(gctx, p.Images)
				cached.Add(int64(hits))
				failed.Add(int64(misses))
				if hits == 0 {
					return nil
				}
				if err := b.products.UpdateImages(gctx, p.ID, images); err != nil {
					b.logger.Warn("Failed to update product images",
						zap.String("product_id", p.ID.String()), zap.Error(err))
					return nil
				}
				updated.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return stats, err
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if len(batch) < b.batchSize {
			break
		}
	}

	stats.Updated = int(updated.Load())
	stats.Cached = int(cached.Load())
	stats.Failed = int(failed.Load())
	b.logger.Info("Image backfill finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("updated", stats.Updated),
		zap.Int("cached", stats.Cached),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// localize resolves each remote image, keeping the URL when caching fails
func (b *ImageBackfill) localize(ctx context.Context, images []string) ([]string, int, int) {
	out := make([]string, len(images))
	hits, misses := 0, 0
	for i, img := range images {
		out[i] = img
		if !catalog.IsRemoteURL(img) {
			continue
		}
		if local, ok := b.images.Resolve(ctx, img); ok {
			out[i] = local
			hits++
		} else {
			misses++
		}
	}
	return out, hits, misses
}
