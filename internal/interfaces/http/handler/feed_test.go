package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	feedapp "github.com/eshop/backend/internal/application/feed"
	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/domain/shared"
	"github.com/eshop/backend/internal/infrastructure/fetch"
	"github.com/eshop/backend/internal/infrastructure/xmltree"
	"github.com/eshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type feedHandlerFixture struct {
	admin    *MockFeedAdmin
	syncer   *MockFeedSyncer
	previews *MockFeedPreviewer
	engine   *gin.Engine
}

func newFeedHandlerFixture() *feedHandlerFixture {
	fx := &feedHandlerFixture{
		admin:    new(MockFeedAdmin),
		syncer:   new(MockFeedSyncer),
		previews: new(MockFeedPreviewer),
	}
	h := NewFeedHandler(fx.admin, fx.syncer, fx.previews)
	fx.engine = gin.New()
	g := fx.engine.Group("/feeds")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/preview", h.Preview)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/sync", h.Sync)
	return fx
}

func (fx *feedHandlerFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	fx.engine.ServeHTTP(rec, req)
	return rec
}

func TestFeedHandler_List(t *testing.T) {
	fx := newFeedHandlerFixture()
	items := []feedapp.FeedResponse{{ID: uuid.New(), Name: "Acme", ProductCount: 12}}
	fx.admin.On("List", mock.Anything, shared.Filter{
		Page: 2, PageSize: 10, OrderBy: "created_at", OrderDir: "desc", Search: "ac",
	}).Return(shared.NewPaginated(items, 11, 2, 10), nil)

	rec := fx.do(http.MethodGet, "/feeds?page=2&page_size=10&search=ac", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.EqualValues(t, 11, resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	data := resp.Data.([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Acme", data[0].(map[string]any)["name"])
	assert.EqualValues(t, 12, data[0].(map[string]any)["productCount"])
	fx.admin.AssertExpectations(t)
}

func TestFeedHandler_ListInvalidQuery(t *testing.T) {
	fx := newFeedHandlerFixture()

	rec := fx.do(http.MethodGet, "/feeds?page_size=1000", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fx.admin.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestFeedHandler_Create(t *testing.T) {
	fx := newFeedHandlerFixture()
	id := uuid.New()
	fx.admin.On("Create", mock.Anything, mock.MatchedBy(func(req feedapp.CreateFeedRequest) bool {
		return req.Name == "Acme" && req.URL == "https://supplier.example/feed.xml" &&
			req.ProductPath == "products.product" && req.FieldMapping["sku"] == "code"
	})).Return(&feedapp.FeedResponse{ID: id, Name: "Acme"}, nil)

	rec := fx.do(http.MethodPost, "/feeds", `{
		"name": "Acme",
		"url": "https://supplier.example/feed.xml",
		"productPath": "products.product",
		"fieldMapping": {"sku": "code"}
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, id.String(), resp.Data.(map[string]any)["id"])
	fx.admin.AssertExpectations(t)
}

func TestFeedHandler_CreateValidation(t *testing.T) {
	fx := newFeedHandlerFixture()

	t.Run("field errors", func(t *testing.T) {
		rec := fx.do(http.MethodPost, "/feeds", `{"url": "not a url"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"name", "url"}, fields)
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := fx.do(http.MethodPost, "/feeds", `{"name":`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decodeResponse(t, rec).Error.Code)
	})

	t.Run("domain rejection", func(t *testing.T) {
		fx.admin.On("Create", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError("INVALID_URL", "Feed URL must be an absolute http(s) URL")).Once()

		rec := fx.do(http.MethodPost, "/feeds", `{"name":"A","url":"ftp://supplier.example/feed.xml"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_URL", decodeResponse(t, rec).Error.Code)
	})

	fx.admin.AssertNumberOfCalls(t, "Create", 1)
}

func TestFeedHandler_GetUpdateDelete(t *testing.T) {
	fx := newFeedHandlerFixture()
	id := uuid.New()
	missing := uuid.New()

	fx.admin.On("Get", mock.Anything, id).Return(&feedapp.FeedResponse{ID: id, Name: "Acme"}, nil)
	fx.admin.On("Get", mock.Anything, missing).Return(nil, feed.ErrFeedNotFound)
	fx.admin.On("Update", mock.Anything, id, mock.MatchedBy(func(req feedapp.UpdateFeedRequest) bool {
		return req.Name != nil && *req.Name == "Renamed" && req.URL == nil && req.ClearMarkup
	})).Return(&feedapp.FeedResponse{ID: id, Name: "Renamed"}, nil)
	fx.admin.On("Delete", mock.Anything, id).Return(nil)
	fx.admin.On("Delete", mock.Anything, missing).Return(feed.ErrFeedNotFound)

	rec := fx.do(http.MethodGet, "/feeds/"+id.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = fx.do(http.MethodGet, "/feeds/"+missing.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, rec).Error.Code)

	rec = fx.do(http.MethodGet, "/feeds/123", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.do(http.MethodPatch, "/feeds/"+id.String(), `{"name":"Renamed","clearMarkup":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decodeResponse(t, rec).Data.(map[string]any)["name"])

	rec = fx.do(http.MethodDelete, "/feeds/"+id.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)

	rec = fx.do(http.MethodDelete, "/feeds/"+missing.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	fx.admin.AssertExpectations(t)
}

func TestFeedHandler_Sync(t *testing.T) {
	id := uuid.New()

	t.Run("counts", func(t *testing.T) {
		fx := newFeedHandlerFixture()
		errs := make([]string, 150)
		for i := range errs {
			errs[i] = "Product error: bad"
		}
		fx.syncer.On("SyncFeed", mock.Anything, id).
			Return(&feed.SyncResult{Created: 2, Updated: 3, Deactivated: 1, Errors: errs}, nil)

		rec := fx.do(http.MethodPost, "/feeds/"+id.String()+"/sync", "")

		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeResponse(t, rec).Data.(map[string]any)
		assert.EqualValues(t, 2, data["created"])
		assert.EqualValues(t, 3, data["updated"])
		assert.EqualValues(t, 1, data["deactivated"])
		assert.Len(t, data["errors"], MaxSyncErrors)
	})

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", feed.ErrFeedNotFound, http.StatusNotFound},
		{"locked", feed.ErrSyncInProgress, http.StatusConflict},
		{"supplier down", &fetch.FetchError{URL: "https://s.example", Status: 503, Reason: "HTTP 503: Service Unavailable"}, http.StatusBadGateway},
		{"bad path", feed.NewProductPathError("catalog.item"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFeedHandlerFixture()
			fx.syncer.On("SyncFeed", mock.Anything, id).Return(nil, tt.err)

			rec := fx.do(http.MethodPost, "/feeds/"+id.String()+"/sync", "")

			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, decodeResponse(t, rec).Success)
		})
	}
}

func TestFeedHandler_Preview(t *testing.T) {
	fx := newFeedHandlerFixture()
	req := feedapp.PreviewRequest{URL: "https://supplier.example/feed.xml", ProductPath: "products.product"}
	fx.previews.On("Preview", mock.Anything, req).Return(&xmltree.PreviewResult{
		Tags:          []string{"code", "title"},
		TotalProducts: 3,
	}, nil)

	rec := fx.do(http.MethodPost, "/feeds/preview", `{"url":"https://supplier.example/feed.xml","productPath":"products.product"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]any)
	assert.Equal(t, []any{"code", "title"}, data["tags"])
	assert.EqualValues(t, 3, data["totalProducts"])

	rec = fx.do(http.MethodPost, "/feeds/preview", `{"productPath":"products.product"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fx.previews.AssertNumberOfCalls(t, "Preview", 1)
}
