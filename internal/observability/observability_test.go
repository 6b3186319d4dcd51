package observability

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewLogger(LogConfig{Level: "debug", Format: "json", Output: &buf}), "planner")

	ctx := WithRequestID(context.Background(), "req-123")
	logger.InfoContext(ctx, "turn handled")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"component":"planner"`)
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "text", Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveTurn("itinerary")
	m.ObserveUpstream("day_plan", "ok", 1500*time.Millisecond)
	m.ObserveModification("add_destination", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `voyage_turns_total{response_type="itinerary"} 1`))
	assert.Contains(t, body, "voyage_upstream_calls_total")
	assert.Contains(t, body, `voyage_modifications_total{success="true",type="add_destination"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveTurn("error")
	m.ObserveRetry("tips")
	m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
}
