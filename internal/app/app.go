// README: Component wiring shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"voyage/internal/ai"
	"voyage/internal/config"
	"voyage/internal/infra"
	"voyage/internal/maps"
	"voyage/internal/modules/conversation"
	"voyage/internal/modules/intent"
	"voyage/internal/modules/itinerary"
	"voyage/internal/modules/modification"
	"voyage/internal/observability"
	"voyage/internal/service"
)

const janitorInterval = 10 * time.Minute

// App owns the planner and everything that must be closed with it.
type App struct {
	Planner *service.TripPlanner
	Store   conversation.Store

	logger  *slog.Logger
	closers []func()
}

// Build connects the configured backends and wires the planner.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	a := &App{logger: observability.Component(logger, "app")}

	llm, err := a.completer(ctx, cfg, logger, metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	store, err := a.store(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	deps := service.Deps{
		Store:       store,
		Machine:     conversation.NewMachine(conversation.Limits{MaxDestinations: cfg.Planner.MaxDestinations, MaxDaysPerCity: cfg.Planner.MaxDaysPerCity}, logger),
		Modifier:    modification.NewEngine(modificationLimits(cfg.Planner), logger, metrics),
		Metrics:     metrics,
		Logger:      logger,
		LockTimeout: cfg.Planner.LockTimeout,
	}
	var extractor *ai.FactExtractor
	if llm != nil {
		extractor = ai.NewFactExtractor(llm)
		deps.Generator = itinerary.NewGenerator(llm, itinerary.Config{
			StartLeadDays:     cfg.Planner.StartLeadDays,
			MaxAddressLookups: cfg.Maps.AddressLookups,
		}, logger, a.mapsOptions(cfg)...)
	}
	deps.Classifier = intent.NewClassifier(extractor, cfg.Planner.Threshold, logger)
	a.Planner = service.NewTripPlanner(deps)
	return a, nil
}

func modificationLimits(p config.PlannerConfig) modification.Limits {
	return modification.Limits{
		MaxDestinations: p.MaxDestinations,
		MinDays:         p.ModifyMinDays,
		MaxDays:         p.ModifyMaxDays,
		ConfirmDayDelta: p.ModifyConfirmDayDelta,
		DefaultAddDays:  p.ModifyDefaultAddDays,
	}
}

// completer returns nil when no provider is configured.
func (a *App) completer(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) (ai.Completer, error) {
	var provider ai.Completer
	switch cfg.AI.Provider {
	case config.ProviderGemini:
		g, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiModel, float32(cfg.AI.Temperature))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g.Close)
		provider = g
	case config.ProviderOpenAI:
		provider = ai.NewOpenAIProvider(ai.OpenAIConfig{
			APIKey:      cfg.AI.OpenAIKey,
			Endpoint:    cfg.AI.OpenAIEndpoint,
			Model:       cfg.AI.OpenAIModel,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.CallTimeout,
		})
	default:
		a.logger.Warn("no text-generation provider configured; itineraries will not be generated")
		return nil, nil
	}
	a.logger.Info("text generation ready", "provider", cfg.AI.Provider)

	rc := ai.DefaultRetryConfig()
	rc.CallTimeout = cfg.AI.CallTimeout
	rc.MaxRetries = cfg.AI.MaxRetries
	rc.RequestsPerSecond = cfg.AI.RequestsPerSecond
	if cfg.AI.Burst > 0 {
		rc.Burst = cfg.AI.Burst
	}
	return ai.NewRetryingCompleter(provider, rc, logger, metrics), nil
}

func (a *App) store(ctx context.Context, cfg config.Config) (conversation.Store, error) {
	switch cfg.Session.Backend {
	case config.BackendRedis:
		client, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return conversation.NewRedisStore(client, cfg.Session.KeyPrefix, cfg.Session.TTL), nil
	case config.BackendPostgres:
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		s := conversation.NewPostgresStore(pool, cfg.Session.TTL)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMemory:
		return conversation.NewMemoryStore(cfg.Session.TTL), nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
}

func (a *App) mapsOptions(cfg config.Config) []itinerary.Option {
	if cfg.Maps.APIKey == "" {
		return nil
	}
	var opts []itinerary.Option
	if routes, err := maps.NewRouteService(cfg.Maps.APIKey); err != nil {
		a.logger.Warn("route estimates disabled", "error", err)
	} else {
		opts = append(opts, itinerary.WithRouteEstimator(routes))
	}
	if cfg.Maps.AddressLookups > 0 {
		if places, err := maps.NewPlacesService(cfg.Maps.APIKey); err != nil {
			a.logger.Warn("address lookups disabled", "error", err)
		} else {
			opts = append(opts, itinerary.WithAddressResolver(places))
		}
	}
	return opts
}

// RunJanitor removes expired sessions until ctx ends. Redis expires keys by
// itself, so only the memory and Postgres stores are swept.
func (a *App) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sweep(ctx)
		}
	}
}

func (a *App) sweep(ctx context.Context) {
	switch s := a.Store.(type) {
	case *conversation.MemoryStore:
		if n := s.Sweep(); n > 0 {
			a.logger.Info("expired sessions removed", "count", n)
		}
	case *conversation.PostgresStore:
		n, err := s.DeleteExpired(ctx)
		if err != nil {
			a.logger.Warn("session sweep failed", "error", err)
			return
		}
		if n > 0 {
			a.logger.Info("expired sessions removed", "count", n)
		}
	}
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
