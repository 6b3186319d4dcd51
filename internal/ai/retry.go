package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"voyage/internal/observability"
)

// RetryConfig bounds every upstream call.
type RetryConfig struct {
	CallTimeout time.Duration
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// RequestsPerSecond paces calls process-wide; zero disables pacing.
	RequestsPerSecond float64
	Burst             int
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		CallTimeout:       40 * time.Second,
		MaxRetries:        2,
		BaseDelay:         500 * time.Millisecond,
		MaxDelay:          8 * time.Second,
		RequestsPerSecond: 2,
		Burst:             2,
	}
}

// RetryingCompleter wraps a provider with a per-call timeout, pacing and
// exponential backoff with jitter on retryable failures.
type RetryingCompleter struct {
	next    Completer
	cfg     RetryConfig
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewRetryingCompleter(next Completer, cfg RetryConfig, logger *slog.Logger, metrics *observability.Metrics) *RetryingCompleter {
	def := DefaultRetryConfig()
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &RetryingCompleter{
		next:    next,
		cfg:     cfg,
		limiter: limiter,
		logger:  observability.Component(logger, "upstream"),
		metrics: metrics,
	}
}

func (r *RetryingCompleter) Complete(ctx context.Context, req Request) (string, error) {
	if r.next == nil {
		return "", ErrNotConfigured
	}

	var (
		text    string
		attempt int
	)
	op := func() error {
		attempt++
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		out, err := r.call(ctx, req)
		if err != nil {
			if ctx.Err() != nil || !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		text = out
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.BaseDelay
	b.MaxInterval = r.cfg.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		r.metrics.ObserveRetry(req.Operation)
		r.logger.WarnContext(ctx, "upstream call failed, retrying",
			"operation", req.Operation,
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.MaxRetries)), ctx), notify)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (r *RetryingCompleter) call(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()

	start := time.Now()
	text, err := r.next.Complete(callCtx, req)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, ErrTimeout) {
		err = fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if err == nil && req.Check != nil {
		if cerr := req.Check(text); cerr != nil {
			if !errors.Is(cerr, ErrMalformedOutput) {
				cerr = fmt.Errorf("%w: %v", ErrMalformedOutput, cerr)
			}
			err = cerr
		}
	}
	r.metrics.ObserveUpstream(req.Operation, outcome(err), time.Since(start))
	return text, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformedOutput):
		return "malformed"
	default:
		return "error"
	}
}
