// README: Entry point; loads config, wires the planner, starts the HTTP server and the session janitor.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"voyage/internal/app"
	"voyage/internal/config"
	httptransport "voyage/internal/http"
	"voyage/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := observability.NewLogger(observability.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			AttachStacktrace: true,
		}); err != nil {
			logger.Warn("sentry initialization failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	a, err := app.Build(ctx, cfg, logger, metrics)
	if err != nil {
		log.Fatalf("wire planner: %v", err)
	}
	defer a.Close()

	go a.RunJanitor(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Planner:        a.Planner,
		Metrics:        metrics,
		Logger:         logger,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
	})
	server := httptransport.NewServer(httptransport.ServerConfig{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
	}, router, logger)

	logger.Info("voyage api starting",
		"addr", cfg.HTTP.Addr,
		"session_backend", cfg.Session.Backend,
		"ai_provider", cfg.AI.Provider,
	)
	if err := server.Run(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
