package ai

import (
	"context"
	"fmt"
	"strings"
)

// Facts is what the semantic extraction call returns for free-form input.
type Facts struct {
	Destinations []FactDestination `json:"destinations"`
	Origin       string            `json:"origin"`
	// Preferences maps a preference (pace, budget, style, interests) to its value.
	Preferences map[string]string `json:"preferences"`
	Constraints []string          `json:"constraints"`
	// Reply is a short conversational answer the planner may show the user.
	Reply string `json:"reply"`
}

type FactDestination struct {
	Name string `json:"name"`
	Days int    `json:"days"`
}

func (f *Facts) Empty() bool {
	return f == nil || (len(f.Destinations) == 0 && f.Origin == "" && len(f.Preferences) == 0 && len(f.Constraints) == 0)
}

// FactExtractor turns conversational text into trip facts via the
// text-generation service in JSON mode.
type FactExtractor struct {
	llm Completer
}

func NewFactExtractor(llm Completer) *FactExtractor {
	return &FactExtractor{llm: llm}
}

// ExtractFacts asks the model for facts in message. known summarises what the
// conversation already holds so the model only reports new information.
func (f *FactExtractor) ExtractFacts(ctx context.Context, message, known string) (*Facts, error) {
	if f == nil || f.llm == nil {
		return nil, ErrNotConfigured
	}
	var facts Facts
	check := func(text string) error { return DecodeJSON(text, &Facts{}) }

	text, err := f.llm.Complete(ctx, Request{
		SystemPrompt: factsSystemPrompt,
		UserPrompt:   buildFactsPrompt(message, known),
		Format:       FormatJSON,
		Operation:    "facts",
		Check:        check,
	})
	if err != nil {
		return nil, fmt.Errorf("extract facts: %w", err)
	}
	if err := DecodeJSON(text, &facts); err != nil {
		return nil, fmt.Errorf("extract facts: %w", err)
	}
	facts.normalize()
	return &facts, nil
}

func (f *Facts) normalize() {
	out := f.Destinations[:0]
	for _, d := range f.Destinations {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			continue
		}
		if d.Days < 0 {
			d.Days = 0
		}
		out = append(out, d)
	}
	f.Destinations = out
	f.Origin = strings.TrimSpace(f.Origin)
}

const factsSystemPrompt = `You extract travel-planning facts from one chat message.
Return ONLY a JSON object with this schema:
{
  "destinations": [{"name": "city name", "days": integer (0 if not stated)}],
  "origin": "city the traveller departs from, or empty string",
  "preferences": {"pace"|"budget"|"style"|"interests": "value"},
  "constraints": ["short constraint, e.g. 'no flights', 'wheelchair accessible'"],
  "reply": "one short friendly sentence answering the user"
}
Rules:
- Only report cities the user wants to visit; never invent destinations.
- Convert durations to days (a week = 7, a weekend = 2).
- Use proper capitalisation for city names.
- Leave fields empty when the message does not mention them.`

func buildFactsPrompt(message, known string) string {
	if strings.TrimSpace(known) == "" {
		known = "nothing yet"
	}
	return fmt.Sprintf("Already known about this trip: %s\n\nUser message: %s", known, message)
}
