package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/activadee/videocraft-render/pkg/logger"
)

// RequestLogger logs one structured line per request, severity keyed off
// the response status rather than a single level for every line.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency":    latency.String(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if raw != "" {
			fields["query"] = raw
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.WithFields(fields).Error("request completed")
		case status >= 400:
			log.WithFields(fields).Warn("request completed")
		default:
			log.WithFields(fields).Info("request completed")
		}
	}
}
