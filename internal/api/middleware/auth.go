package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Auth enforces the configured API key via Authorization: Bearer or an
// api_key query parameter. Health endpoints are always exempt.
func Auth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isHealthEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		var providedKey string

		if authHeader != "" {
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			} else {
				providedKey = authHeader
			}
		} else {
			providedKey = c.Query("api_key")
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key is required", "code": "MISSING_API_KEY"})
			c.Abort()
			return
		}

		if providedKey != apiKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key", "code": "INVALID_API_KEY"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func isHealthEndpoint(path string) bool {
	healthPaths := []string{"/health", "/ready", "/live", "/metrics"}
	for _, healthPath := range healthPaths {
		if strings.HasPrefix(path, healthPath) {
			return true
		}
	}
	return false
}
