// README: Classification strategies, evaluated in priority order.
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"voyage/internal/ai"
	"voyage/internal/modules/extraction"
	"voyage/internal/modules/modification"
	"voyage/internal/types"
)

// Strategy is one classification variant. ok is false when the strategy does
// not apply to the text at all.
type Strategy interface {
	Name() string
	Evaluate(ctx context.Context, text string, sc SessionContext) (res Result, ok bool)
}

const (
	structuredConfidence = 0.9
	ambiguousConfidence  = 0.7
	fallbackConfidence   = 0.5
)

// ModificationMatch recognises edits to an itinerary that already exists.
type ModificationMatch struct{}

func (ModificationMatch) Name() string { return "modification" }

func (ModificationMatch) Evaluate(_ context.Context, text string, sc SessionContext) (Result, bool) {
	if !sc.HasItinerary {
		return Result{}, false
	}
	req, ok := modification.Detect(text)
	if !ok {
		return Result{}, false
	}
	return Result{
		Type:         TypeModification,
		Confidence:   modification.Confidence(req),
		Modification: &req,
	}, true
}

// StructuredMatch accepts text whose every destination has a duration.
type StructuredMatch struct{}

func (StructuredMatch) Name() string { return "structured" }

func (StructuredMatch) Evaluate(_ context.Context, text string, _ SessionContext) (Result, bool) {
	trip := extraction.Extract(text)
	if len(trip.Destinations) == 0 || !trip.Complete() {
		return Result{}, false
	}
	return Result{Type: TypeStructured, Confidence: structuredConfidence, Trip: trip}, true
}

// AmbiguousMatch accepts partial trip facts and asks for the missing field.
type AmbiguousMatch struct{}

func (AmbiguousMatch) Name() string { return "ambiguous" }

func (AmbiguousMatch) Evaluate(_ context.Context, text string, sc SessionContext) (Result, bool) {
	trip := extraction.Extract(text)
	if trip.IsEmpty() {
		return Result{}, false
	}
	res := Result{Type: TypeAmbiguous, Confidence: ambiguousConfidence, Trip: trip}

	switch {
	case len(trip.Destinations) == 0 && len(sc.Known.Destinations) == 0:
		res.Missing = MissingDestinations
		if trip.UnassignedDays > 0 {
			res.Question = fmt.Sprintf("Where would you like to spend your %d days?", trip.UnassignedDays)
		} else {
			res.Question = "Where would you like to go?"
		}
	case len(trip.Destinations) > 0:
		var open []string
		for _, d := range trip.Destinations {
			if d.Duration <= 0 {
				open = append(open, d.Name)
			}
		}
		if len(open) > 0 {
			res.Missing = MissingDuration
			res.Question = DurationQuestion(open)
		}
	}
	return res, true
}

// ConversationalFallback asks the text-generation service for facts. It is
// always accepted; when the call fails the turn becomes a targeted question.
type ConversationalFallback struct {
	Extractor *ai.FactExtractor
	Logger    *slog.Logger
}

func (ConversationalFallback) Name() string { return "conversational" }

func (f ConversationalFallback) Evaluate(ctx context.Context, text string, sc SessionContext) (Result, bool) {
	res := Result{Type: TypeConversational, Confidence: fallbackConfidence}
	if f.Extractor == nil {
		res.Question, res.Missing = openQuestion(sc)
		return res, true
	}

	facts, err := f.Extractor.ExtractFacts(ctx, text, knownSummary(sc.Known))
	if err != nil {
		if f.Logger != nil {
			f.Logger.WarnContext(ctx, "fact extraction failed", "error", err)
		}
		res.Question, res.Missing = openQuestion(sc)
		return res, true
	}
	res.Facts = facts
	if facts.Empty() && facts.Reply == "" {
		res.Question, res.Missing = openQuestion(sc)
	}
	return res, true
}

func openQuestion(sc SessionContext) (string, Missing) {
	if len(sc.Known.Destinations) == 0 {
		return "Where would you like to go, and for how many days?", MissingDestinations
	}
	var open []string
	for _, d := range sc.Known.Destinations {
		if d.Duration <= 0 {
			open = append(open, d.Name)
		}
	}
	if len(open) > 0 {
		return DurationQuestion(open), MissingDuration
	}
	return "", MissingNone
}

// DurationQuestion asks how long to stay in the named cities.
func DurationQuestion(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("How many days would you like to spend in %s?", names[0])
	}
	list := strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	return fmt.Sprintf("How many days would you like to spend in each of %s?", list)
}

// knownSummary describes the facts gathered so far for the extraction prompt.
func knownSummary(t types.ParsedTrip) string {
	if t.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, len(t.Destinations)+1)
	for _, d := range t.Destinations {
		if d.Duration > 0 {
			parts = append(parts, fmt.Sprintf("%s (%d days)", d.Name, d.Duration))
		} else {
			parts = append(parts, d.Name+" (days unknown)")
		}
	}
	s := "destinations: " + strings.Join(parts, ", ")
	if len(parts) == 0 {
		s = "destinations: none yet"
	}
	if t.Origin != "" {
		s += "; origin: " + t.Origin
	}
	return s
}
