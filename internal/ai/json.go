package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON unmarshals a model response, tolerating markdown fences.
// Failures wrap ErrMalformedOutput.
func DecodeJSON(raw string, v any) error {
	clean := cleanJSONString(raw)
	if clean == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
