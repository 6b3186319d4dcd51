package ai

import (
	"context"
)

// Format selects the response mode of a completion.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Request is one completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Format       Format

	// Operation names the call for logs and metrics ("facts", "day_plan", "tips").
	Operation string

	// Check validates the raw response. A non-nil error is treated as
	// malformed output, which the retrying completer retries.
	Check func(text string) error
}

// Completer is the text-generation service. Providers are swappable
// (Gemini, any OpenAI-compatible endpoint) and failures are reported with the
// sentinels in errors.go so callers can tell timeouts, rate limits and
// malformed output apart.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
