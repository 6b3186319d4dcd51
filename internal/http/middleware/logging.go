// README: Logging middleware; one structured line and one metric per request.
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"voyage/internal/observability"
)

func Logging(logger *slog.Logger, metrics *observability.Metrics) gin.HandlerFunc {
	logger = observability.Component(logger, "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		d := time.Since(start)
		metrics.ObserveHTTP(c.Request.Method, route, status, d)

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", d.Milliseconds(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.ErrorContext(ctx, "request completed", attrs...)
		case status >= 400:
			logger.WarnContext(ctx, "request completed", attrs...)
		default:
			logger.InfoContext(ctx, "request completed", attrs...)
		}
	}
}
