package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"voyage/internal/http/middleware"
	"voyage/internal/observability"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, observability.RequestID(c.Request.Context()))
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func get(r http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDPropagates(t *testing.T) {
	r := newEngine(middleware.RequestID())

	w := get(r, "/ok", middleware.RequestIDHeader, "req-42")
	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))

	w = get(r, "/ok")
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(middleware.RequestIDHeader))
}

func TestRecoveryReturns500(t *testing.T) {
	metrics := observability.NewMetrics()
	r := newEngine(
		middleware.Logging(observability.Discard(), metrics),
		middleware.Recovery(observability.Discard()),
	)

	w := get(r, "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())

	m := get(metrics.Handler(), "/metrics")
	assert.Contains(t, m.Body.String(), `voyage_http_requests_total{method="GET",route="/panic",status="500"} 1`)
}

func TestRateLimit(t *testing.T) {
	r := newEngine(middleware.RateLimit(0.001, 2, observability.Discard()))

	assert.Equal(t, http.StatusOK, get(r, "/ok").Code)
	assert.Equal(t, http.StatusOK, get(r, "/ok").Code)
	w := get(r, "/ok")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimitDisabled(t *testing.T) {
	r := newEngine(middleware.RateLimit(0, 0, observability.Discard()))
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/ok").Code)
	}
}
