package handler

import (
	"context"
	"time"

	feedapp "github.com/eshop/backend/internal/application/feed"
	"github.com/gin-gonic/gin"
)

// DueFeedRunner syncs every feed whose interval has elapsed
type DueFeedRunner interface {
	RunDue(ctx context.Context, now time.Time) (*feedapp.CronSummary, error)
}

// CronHandler serves the endpoint hit by the external scheduler
type CronHandler struct {
	BaseHandler
	runner DueFeedRunner
	now    func() time.Time
}

// NewCronHandler creates a new CronHandler
func NewCronHandler(runner DueFeedRunner) *CronHandler {
	return &CronHandler{runner: runner, now: time.Now}
}

// SyncFeeds godoc
// @Summary      Synchronize due feeds
// @Description  Called by the scheduler. Per-feed failures are reported in results and do not fail the request.
// @Tags         cron
// @Produce      json
// @Param        key  query     string  true  "Cron secret"
// @Success      200  {object}  dto.Response{data=feedapp.CronSummary}
// @Failure      401  {object}  dto.Response
// @Router       /cron/sync-feeds [get]
func (h *CronHandler) SyncFeeds(c *gin.Context) {
	summary, err := h.runner.RunDue(c.Request.Context(), h.now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
