package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/eshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// CronKeyParam is the query parameter carrying the cron secret
const CronKeyParam = "key"

// CronSecret guards the scheduler endpoint. The secret is taken from the
// ?key= query parameter or an Authorization: Bearer header and compared in
// constant time. An empty configured secret rejects every request.
func CronSecret(secret string) gin.HandlerFunc {
	expected := []byte(secret)

	return func(c *gin.Context) {
		provided := c.Query(CronKeyParam)
		if provided == "" {
			if h := c.GetHeader(AuthHeaderKey); strings.HasPrefix(h, BearerPrefix) {
				provided = strings.TrimPrefix(h, BearerPrefix)
			}
		}

		if len(expected) == 0 || provided == "" ||
			subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}
