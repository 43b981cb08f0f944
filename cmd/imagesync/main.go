// Command imagesync caches the remote images of existing products and
// rewrites their image URLs to the cached copies.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	feedapp "github.com/eshop/backend/internal/application/feed"
	"github.com/eshop/backend/internal/infrastructure/config"
	"github.com/eshop/backend/internal/infrastructure/fetch"
	"github.com/eshop/backend/internal/infrastructure/imagecache"
	"github.com/eshop/backend/internal/infrastructure/logger"
	"github.com/eshop/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		concurrency int
		batchSize   int
		logLevel    string
	)
	flag.IntVar(&concurrency, "concurrency", 0, "Parallel downloads (default: feedsync.backfill_concurrency)")
	flag.IntVar(&batchSize, "batch", 0, "Products loaded per query (default: feedsync.backfill_batch_size)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if concurrency <= 0 {
		concurrency = cfg.FeedSync.BackfillConcurrency
	}
	if batchSize <= 0 {
		batchSize = cfg.FeedSync.BackfillBatchSize
	}

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel("warn")))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	store, err := imagecache.NewStore(cfg.FeedSync, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize image store", zap.Error(err))
	}
	resolver := imagecache.NewResolver(store,
		fetch.New(fetch.Config{
			Timeout:   cfg.FeedSync.ImageTimeout,
			MaxBytes:  cfg.FeedSync.MaxBodyBytes,
			UserAgent: cfg.FeedSync.UserAgent,
		}),
		imagecache.WithLogger(log),
		imagecache.WithMinBytes(cfg.FeedSync.ImageMinBytes),
	)

	backfill := feedapp.NewImageBackfill(persistence.NewGormProductRepository(db.DB), resolver, concurrency, batchSize, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, err := backfill.Run(ctx)
	fields := []zap.Field{
		zap.Int("scanned", stats.Scanned),
		zap.Int("updated", stats.Updated),
		zap.Int("cached", stats.Cached),
		zap.Int("failed", stats.Failed),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		log.Fatal("Image backfill aborted", append(fields, zap.Error(err))...)
	}
	log.Info("Image backfill finished", fields...)
}
