// README: Classifier runs the strategy chain and applies the confidence threshold.
package intent

import (
	"context"
	"log/slog"
	"strings"

	"voyage/internal/ai"
	"voyage/internal/observability"
)

type Classifier struct {
	strategies []Strategy
	threshold  float64
	logger     *slog.Logger
}

// NewClassifier builds the default chain: modification, structured, ambiguous,
// then the conversational fallback backed by extractor (which may be nil).
func NewClassifier(extractor *ai.FactExtractor, threshold float64, logger *slog.Logger) *Classifier {
	logger = observability.Component(logger, "intent")
	return NewClassifierWith(threshold, logger,
		ModificationMatch{},
		StructuredMatch{},
		AmbiguousMatch{},
		ConversationalFallback{Extractor: extractor, Logger: logger},
	)
}

// NewClassifierWith uses a custom chain. The last strategy is the fallback and
// is accepted regardless of the threshold.
func NewClassifierWith(threshold float64, logger *slog.Logger, strategies ...Strategy) *Classifier {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = observability.Component(nil, "intent")
	}
	return &Classifier{strategies: strategies, threshold: threshold, logger: logger}
}

func (c *Classifier) Threshold() float64 { return c.threshold }

// Classify returns the first strategy result that clears the threshold.
func (c *Classifier) Classify(ctx context.Context, text string, sc SessionContext) Result {
	text = strings.TrimSpace(text)
	last := len(c.strategies) - 1
	for i, s := range c.strategies {
		res, ok := s.Evaluate(ctx, text, sc)
		if !ok {
			continue
		}
		if i != last && res.Confidence < c.threshold {
			c.logger.DebugContext(ctx, "strategy below threshold",
				"strategy", s.Name(), "confidence", res.Confidence, "threshold", c.threshold)
			continue
		}
		res.Strategy = s.Name()
		c.logger.DebugContext(ctx, "intent classified",
			"type", res.Type, "strategy", res.Strategy, "confidence", res.Confidence)
		return res
	}
	return Result{Type: TypeConversational, Strategy: "none", Question: "Where would you like to go, and for how many days?", Missing: MissingDestinations}
}
