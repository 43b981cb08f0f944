package router

import (
	_ "github.com/eshop/backend/docs"
	"github.com/eshop/backend/internal/infrastructure/config"
	"github.com/eshop/backend/internal/infrastructure/logger"
	"github.com/eshop/backend/internal/interfaces/http/handler"
	"github.com/eshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// HealthPath is served outside the versioned API and is not logged
const HealthPath = "/health"

// EngineConfig describes the HTTP engine
type EngineConfig struct {
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	// ImagePublicPrefix and ImageDir expose locally cached product images.
	// Both empty disables the static route (S3 backend).
	ImagePublicPrefix string
	ImageDir          string
}

// NewEngine builds the gin engine with the middleware stack, the health
// endpoint, the API docs, the static image route and every registrar under /api/v1.
//
// Middleware order:
//  1. RequestID, read by the logger and the error responses
//  2. Recovery
//  3. Tracing (otelgin) and SpanEnricher
//  4. request logging
//  5. CORS
//  6. BodyLimit
func NewEngine(cfg EngineConfig, log *zap.Logger, health *handler.HealthHandler, registrars ...RouteRegistrar) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	tracing := cfg.Tracing
	tracing.SkipPaths = append(tracing.SkipPaths, HealthPath)

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(tracing), middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log, HealthPath))
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if health != nil {
		engine.GET(HealthPath, health.Health)
	}
	if cfg.HTTP.SwaggerEnabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if cfg.ImagePublicPrefix != "" && cfg.ImageDir != "" {
		engine.Static(cfg.ImagePublicPrefix, cfg.ImageDir)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	for _, registrar := range registrars {
		r.Register(registrar)
	}
	r.Setup()

	return engine
}
