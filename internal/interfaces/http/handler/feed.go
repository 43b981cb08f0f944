package handler

import (
	"context"

	feedapp "github.com/eshop/backend/internal/application/feed"
	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/domain/shared"
	"github.com/eshop/backend/internal/infrastructure/xmltree"
	"github.com/eshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MaxSyncErrors caps the per-record errors returned by a manual sync
const MaxSyncErrors = 100

// FeedAdmin manages supplier feeds
type FeedAdmin interface {
	List(ctx context.Context, filter shared.Filter) (shared.Paginated[feedapp.FeedResponse], error)
	Get(ctx context.Context, id uuid.UUID) (*feedapp.FeedResponse, error)
	Create(ctx context.Context, req feedapp.CreateFeedRequest) (*feedapp.FeedResponse, error)
	Update(ctx context.Context, id uuid.UUID, req feedapp.UpdateFeedRequest) (*feedapp.FeedResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FeedSyncer runs a single feed synchronization
type FeedSyncer interface {
	SyncFeed(ctx context.Context, feedID uuid.UUID) (*feed.SyncResult, error)
}

// FeedPreviewer inspects a supplier document before a feed is configured
type FeedPreviewer interface {
	Preview(ctx context.Context, req feedapp.PreviewRequest) (*xmltree.PreviewResult, error)
}

// FeedHandler handles supplier feed administration
type FeedHandler struct {
	BaseHandler
	feeds    FeedAdmin
	syncer   FeedSyncer
	previews FeedPreviewer
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feeds FeedAdmin, syncer FeedSyncer, previews FeedPreviewer) *FeedHandler {
	return &FeedHandler{
		feeds:    feeds,
		syncer:   syncer,
		previews: previews,
	}
}

// List godoc
// @Summary      List supplier feeds
// @Description  Paginated list of feeds with the number of products each one supplies
// @Tags         feeds
// @Produce      json
// @Param        page       query  int     false  "Page number"  default(1)
// @Param        page_size  query  int     false  "Page size"    default(20)
// @Param        search     query  string  false  "Name or URL contains"
// @Success      200  {object}  dto.Response{data=[]feedapp.FeedResponse}
// @Failure      401  {object}  dto.Response
// @Security     BearerAuth
// @Router       /admin/feeds [get]
func (h *FeedHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.feeds.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get godoc
// @Summary      Get a supplier feed
// @Tags         feeds
// @Produce      json
// @Param        id   path      string  true  "Feed ID"
// @Success      200  {object}  dto.Response{data=feedapp.FeedResponse}
// @Failure      404  {object}  dto.Response
// @Security     BearerAuth
// @Router       /admin/feeds/{id} [get]
func (h *FeedHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	resp, err := h.feeds.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create godoc
// @Summary      Register a supplier feed
// @Tags         feeds
// @Accept       json
// @Produce      json
// @Param        request  body      feedapp.CreateFeedRequest  true  "Feed settings"
// @Success      201      {object}  dto.Response{data=feedapp.FeedResponse}
// @Failure      400      {object}  dto.Response
// @Security     BearerAuth
// @Router       /admin/feeds [post]
func (h *FeedHandler) Create(c *gin.Context) {
	var req feedapp.CreateFeedRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.feeds.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update godoc
// @Summary      Update a supplier feed
// @Description  Absent fields are left unchanged
// @Tags         feeds
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Feed ID"
// @Param        request  body      feedapp.UpdateFeedRequest  true  "Changed settings"
// @Success      200      {object}  dto.Response{data=feedapp.FeedResponse}
// @Failure      400      {object}  dto.Response
// @Failure      404      {object}  dto.Response
// @Security     BearerAuth
// @Router       /admin/feeds/{id} [patch]
func (h *FeedHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req feedapp.UpdateFeedRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.feeds.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @Summary      Delete a supplier feed
// @Description  Products of the feed are kept and detached from it
// @Tags         feeds
// @Param        id   path      string  true  "Feed ID"
// @Success      200  {object}  dto.Response
// @Failure      404  {object}  dto.Response
// @Security     BearerAuth
// @Router       /admin/feeds/{id} [delete]
func (h *FeedHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.feeds.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nil)
}

// Sync godoc
// @Summary      Synchronize a supplier feed now
// @Tags         feeds
// @Produce      json
// @Param        id   path      string  true  "Feed ID"
// @Success      200  {object}  dto.Response{data=feedapp.SyncResponse}
// @Failure      404  {object}  dto.Response
// @Failure      409  {object}  dto.Response  "sync already running"
// @Failure      422  {object}  dto.Response  "malformed supplier document"
// @Failure      502  {object}  dto.Response  "supplier fetch failed"
// @Security     BearerAuth
// @Router       /admin/feeds/{id}/sync [post]
func (h *FeedHandler) Sync(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	result, err := h.syncer.SyncFeed(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, feedapp.ToSyncResponse(result, MaxSyncErrors))
}

// Preview godoc
// @Summary      Preview a supplier document
// @Description  Without a product path the top-level structure is returned
// @Tags         feeds
// @Accept       json
// @Produce      json
// @Param        request  body      feedapp.PreviewRequest  true  "Document URL and product path"
// @Success      200      {object}  dto.Response{data=xmltree.PreviewResult}
// @Failure      400      {object}  dto.Response
// @Security     BearerAuth
// @Router       /admin/feeds/preview [post]
func (h *FeedHandler) Preview(c *gin.Context) {
	var req feedapp.PreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.previews.Preview(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
