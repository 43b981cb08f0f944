package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eshop/backend/internal/domain/identity"
	"github.com/eshop/backend/internal/infrastructure/auth"
	"github.com/eshop/backend/internal/infrastructure/config"
	"github.com/eshop/backend/internal/infrastructure/logger"
	"github.com/eshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: expiration,
		Issuer:                "test-issuer",
	})
}

func tokenFor(t *testing.T, svc *auth.JWTService, role identity.Role) (string, identity.Principal) {
	t.Helper()
	p := identity.Principal{UserID: uuid.New(), Email: "admin@shop.example", Role: role}
	token, _, err := svc.GenerateAccessToken(p)
	require.NoError(t, err)
	return token, p
}

func newAuthRouter(svc *auth.JWTService) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	admin := r.Group("/admin", JWTAuth(svc, nil), RequireRole(identity.RoleAdmin))
	admin.GET("/ping", func(c *gin.Context) {
		p, _ := GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":  p.UserID.String(),
			"ctx_user": logger.GetUserID(c.Request.Context()),
		})
	})
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestJWTAuth_AdminAllowed(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	token, p := tokenFor(t, svc, identity.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	rec := httptest.NewRecorder()
	newAuthRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, p.UserID.String(), body["user_id"])
	assert.Equal(t, p.UserID.String(), body["ctx_user"])
}

func TestJWTAuth_Rejections(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	customer, _ := tokenFor(t, svc, identity.RoleCustomer)
	expired, _ := tokenFor(t, newTestJWTService(-time.Minute), identity.RoleAdmin)
	foreign, _ := tokenFor(t, auth.NewJWTService(config.JWTConfig{
		Secret:                "another-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Minute,
		Issuer:                "test-issuer",
	}), identity.RoleAdmin)

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, dto.ErrCodeTokenInvalid},
		{"wrong signature", "Bearer " + foreign, http.StatusUnauthorized, dto.ErrCodeTokenInvalid},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, dto.ErrCodeTokenExpired},
		{"customer role", "Bearer " + customer, http.StatusForbidden, dto.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			rec := httptest.NewRecorder()
			newAuthRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			info := decodeError(t, rec)
			assert.Equal(t, tt.code, info.Code)
			assert.Equal(t, rec.Header().Get(RequestIDHeader), info.RequestID)
		})
	}
}

func TestRequireRole_WithoutPrincipal(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRole(identity.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
