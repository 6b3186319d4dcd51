// README: Per-client token bucket rate limiting.
package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"voyage/internal/observability"
)

const (
	visitorTTL      = 10 * time.Minute
	cleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit allows rps requests per second per client IP with the given
// burst. A non-positive rps disables limiting.
func RateLimit(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	logger = observability.Component(logger, "http")

	var (
		mu          sync.Mutex
		visitors    = make(map[string]*visitor)
		lastCleanup time.Time
	)

	return func(c *gin.Context) {
		now := time.Now()
		key := c.ClientIP()

		mu.Lock()
		v, ok := visitors[key]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			visitors[key] = v
		}
		v.lastSeen = now
		if now.Sub(lastCleanup) > cleanupInterval {
			for k, other := range visitors {
				if now.Sub(other.lastSeen) > visitorTTL {
					delete(visitors, k)
				}
			}
			lastCleanup = now
		}
		mu.Unlock()

		if !v.limiter.AllowN(now, 1) {
			logger.WarnContext(c.Request.Context(), "rate limit exceeded", "client", key, "path", c.Request.URL.Path)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
