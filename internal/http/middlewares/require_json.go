package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON guards the credential endpoints, which only accept JSON bodies.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}

		// allow "application/json; charset=utf-8"
		ct := strings.ToLower(strings.TrimSpace(c.GetHeader("Content-Type")))
		if strings.HasPrefix(ct, "application/json") {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"error": gin.H{
				"code":      "unsupported_media_type",
				"message":   "Content-Type must be application/json",
				"requestId": c.GetString(CtxRequestID),
			},
		})
	}
}
