// README: Recovery middleware; turns panics into 500s and reports them to Sentry.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"voyage/internal/observability"
)

// Recovery reports through the current Sentry hub, which is a no-op when
// Sentry was never initialised.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	logger = observability.Component(logger, "http")
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		hub := sentry.GetHubFromContext(ctx)
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
			c.Request = c.Request.WithContext(sentry.SetHubOnContext(ctx, hub))
		}
		hub.Scope().SetRequest(c.Request)

		defer func() {
			if rec := recover(); rec != nil {
				hub.RecoverWithContext(c.Request.Context(), rec)
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"panic", rec,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}
