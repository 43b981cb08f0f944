package router

import (
	"github.com/eshop/backend/internal/domain/identity"
	"github.com/eshop/backend/internal/interfaces/http/handler"
	"github.com/eshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// FeedRoutes registers the supplier feed administration under /admin/feeds.
// authenticate must store a principal; the group then requires the ADMIN role.
func FeedRoutes(h *handler.FeedHandler, authenticate gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("feeds", "/admin/feeds").
		Use(authenticate, middleware.RequireRole(identity.RoleAdmin)).
		GET("", h.List).
		POST("", h.Create).
		POST("/preview", h.Preview).
		GET("/:id", h.Get).
		PATCH("/:id", h.Update).
		DELETE("/:id", h.Delete).
		POST("/:id/sync", h.Sync)
}

// CronRoutes registers the scheduler endpoint guarded by the shared secret
func CronRoutes(h *handler.CronHandler, secret string) *DomainGroup {
	return NewDomainGroup("cron", "/cron").
		Use(middleware.CronSecret(secret)).
		GET("/sync-feeds", h.SyncFeeds)
}
