// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"voyage/internal/http/handlers"
	"voyage/internal/http/middleware"
	"voyage/internal/observability"
	"voyage/internal/service"
)

type RouterDeps struct {
	Planner *service.TripPlanner
	Metrics *observability.Metrics
	Logger  *slog.Logger

	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(deps.Logger, deps.Metrics),
		middleware.Recovery(deps.Logger),
	)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	chat := handlers.NewChatHandler(deps.Planner)
	api := r.Group("/api", middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst, deps.Logger))
	api.POST("/chat", chat.Chat)
	api.POST("/itinerary/modify", chat.Modify)
	api.GET("/sessions/:id", chat.GetSession)
	api.DELETE("/sessions/:id", chat.DeleteSession)

	return r
}
