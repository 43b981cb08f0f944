package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	feedapp "github.com/eshop/backend/internal/application/feed"
	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/infrastructure/auth"
	"github.com/eshop/backend/internal/infrastructure/cache"
	"github.com/eshop/backend/internal/infrastructure/config"
	"github.com/eshop/backend/internal/infrastructure/event"
	"github.com/eshop/backend/internal/infrastructure/fetch"
	"github.com/eshop/backend/internal/infrastructure/imagecache"
	"github.com/eshop/backend/internal/infrastructure/logger"
	"github.com/eshop/backend/internal/infrastructure/persistence"
	"github.com/eshop/backend/internal/infrastructure/scheduler"
	"github.com/eshop/backend/internal/infrastructure/telemetry"
	"github.com/eshop/backend/internal/interfaces/http/handler"
	"github.com/eshop/backend/internal/interfaces/http/middleware"
	"github.com/eshop/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			E-shop Backend API
//	@version		1.0
//	@description	Supplier feed administration and scheduled catalog synchronization

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Export logs to the collector alongside stdout
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = logProvider.Bridge(log)

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	// Initialize database with custom GORM logger
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to auto-migrate database", zap.Error(err))
		}
		log.Info("Database schema auto-migrated")
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, cfg.Database.Driver, log); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories
	feedRepo := persistence.NewGormFeedRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)

	// Sync lock: shared through redis when several instances run
	var syncLock feed.SyncLock = cache.NewInMemoryFeedLock(cfg.FeedSync.LockTTL)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		syncLock = cache.NewRedisFeedLock(redisClient, cfg.FeedSync.LockTTL)
		log.Info("Feed sync lock backed by redis", zap.String("addr", cfg.Redis.Addr()))
	}

	// Event bus: sync outcomes feed the metrics
	eventBus := event.NewInMemoryEventBus(log)
	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("eshop.feedsync"))
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}
	eventBus.Subscribe(syncMetrics, syncMetrics.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Outbound HTTP clients
	newFetcher := func(timeout time.Duration) *fetch.Client {
		return fetch.New(fetch.Config{
			Timeout:   timeout,
			MaxBytes:  cfg.FeedSync.MaxBodyBytes,
			UserAgent: cfg.FeedSync.UserAgent,
		})
	}
	feedFetcher := newFetcher(cfg.FeedSync.FetchTimeout)
	previewFetcher := newFetcher(cfg.FeedSync.PreviewTimeout)
	imageFetcher := newFetcher(cfg.FeedSync.ImageTimeout)

	// Image cache
	imageStore, err := imagecache.NewStore(cfg.FeedSync, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize image store", zap.Error(err))
	}
	imageResolver := imagecache.NewResolver(imageStore, imageFetcher,
		imagecache.WithLogger(log),
		imagecache.WithMinBytes(cfg.FeedSync.ImageMinBytes),
	)

	// Application services
	feedService := feedapp.NewFeedService(feedRepo, productRepo, categoryRepo, log)
	syncService := feedapp.NewSyncService(feedRepo, productRepo, categoryRepo, feedFetcher,
		feedapp.WithSyncLogger(log),
		feedapp.WithSyncLock(syncLock),
		feedapp.WithEventPublisher(eventBus),
		feedapp.WithImageResolver(imageResolver),
		feedapp.WithSKUPrefixLength(cfg.FeedSync.SKUPrefixLength),
	)
	dueRunner := feedapp.NewDueRunner(feedRepo, syncService, log)
	previewService := feedapp.NewPreviewService(previewFetcher, log)

	// In-process trigger, an alternative to an external cron hitting /cron/sync-feeds
	if cfg.Scheduler.Enabled {
		trigger, err := scheduler.NewFeedSyncCronTrigger(scheduler.FeedSyncCronTriggerConfig{
			CheckInterval: cfg.Scheduler.CheckInterval,
			RunOnStart:    true,
		}, dueRunner, log)
		if err != nil {
			log.Fatal("Failed to create feed sync trigger", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start feed sync trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping feed sync trigger", zap.Error(err))
			}
		}()
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	engineCfg := router.EngineConfig{
		HTTP: cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
	}
	if imagecache.ServesLocally(cfg.FeedSync) {
		engineCfg.ImagePublicPrefix = cfg.FeedSync.ImagePublicPrefix
		engineCfg.ImageDir = cfg.FeedSync.ImageDir
	}

	engine := router.NewEngine(engineCfg, log, handler.NewHealthHandler(db),
		router.FeedRoutes(
			handler.NewFeedHandler(feedService, syncService, previewService),
			middleware.JWTAuth(jwtService, log),
		),
		router.CronRoutes(handler.NewCronHandler(dueRunner), cfg.FeedSync.CronSecret),
	)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logs":   logProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Error("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
