package ai_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/internal/ai"
	"voyage/internal/ai/aitest"
)

func TestExtractFacts(t *testing.T) {
	fake := aitest.Scripted(aitest.Reply{Text: "```json\n" + `{
		"destinations": [{"name": " Kyoto ", "days": 4}, {"name": "", "days": 2}],
		"origin": "Seoul",
		"preferences": {"pace": "slow"},
		"constraints": ["no flights"],
		"reply": "Kyoto sounds lovely!"
	}` + "\n```"})

	facts, err := ai.NewFactExtractor(fake).ExtractFacts(context.Background(), "somewhere calm, maybe Kyoto for 4 days", "")
	require.NoError(t, err)
	require.Len(t, facts.Destinations, 1)
	assert.Equal(t, "Kyoto", facts.Destinations[0].Name)
	assert.Equal(t, 4, facts.Destinations[0].Days)
	assert.Equal(t, "Seoul", facts.Origin)
	assert.Equal(t, "slow", facts.Preferences["pace"])

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, ai.FormatJSON, calls[0].Format)
	assert.Equal(t, "facts", calls[0].Operation)
	assert.True(t, strings.Contains(calls[0].UserPrompt, "nothing yet"))
}

func TestExtractFactsMalformed(t *testing.T) {
	fake := aitest.Scripted(aitest.Reply{Text: "I think you should go to Rome"})
	_, err := ai.NewFactExtractor(fake).ExtractFacts(context.Background(), "hm", "")
	assert.ErrorIs(t, err, ai.ErrMalformedOutput)
}

func TestDecodeJSONStripsFences(t *testing.T) {
	var v struct{ A int }
	require.NoError(t, ai.DecodeJSON("```json\n{\"A\": 3}\n```", &v))
	assert.Equal(t, 3, v.A)
}
