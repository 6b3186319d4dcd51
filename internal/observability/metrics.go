// README: Prometheus metrics for planner turns, upstream calls, modifications and HTTP traffic.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the planner's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	TurnsTotal *prometheus.CounterVec

	UpstreamCallsTotal   *prometheus.CounterVec
	UpstreamRetriesTotal *prometheus.CounterVec
	UpstreamDuration     *prometheus.HistogramVec

	ModificationsTotal *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TurnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voyage_turns_total",
			Help: "Conversation turns by response type",
		}, []string{"response_type"}),
		UpstreamCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voyage_upstream_calls_total",
			Help: "Text-generation calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		UpstreamRetriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voyage_upstream_retries_total",
			Help: "Retried text-generation calls by operation",
		}, []string{"operation"}),
		UpstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voyage_upstream_call_duration_seconds",
			Help:    "Duration of text-generation calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 45},
		}, []string{"operation"}),
		ModificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voyage_modifications_total",
			Help: "Itinerary modifications by type and result",
		}, []string{"type", "success"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voyage_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voyage_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTurn(responseType string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(responseType).Inc()
}

func (m *Metrics) ObserveUpstream(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamCallsTotal.WithLabelValues(operation, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) ObserveRetry(operation string) {
	if m == nil {
		return
	}
	m.UpstreamRetriesTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveModification(kind string, success bool) {
	if m == nil {
		return
	}
	m.ModificationsTotal.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
