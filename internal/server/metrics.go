// Package server exposes pi calculations over HTTP.
package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "picalc_http_active_requests",
		Help: "Current number of in-flight HTTP requests",
	})
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picalc_http_requests_total",
		Help: "HTTP requests by path and status code",
	}, []string{"path", "code"})
	cacheServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picalc_http_cached_responses_total",
		Help: "Pi responses served from the result cache",
	})
)

// Metrics exposes the Prometheus registry over HTTP. Calculation metrics
// are recorded by the chudnovsky package.
type Metrics struct {
	handler http.Handler
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{handler: promhttp.Handler()}
}

// observe records a completed request.
func (m *Metrics) observe(path string, code int) {
	requestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// handleMetrics is the HTTP handler for the /metrics endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.metrics.handler.ServeHTTP(w, r)
}

// metricsMiddleware tracks in-flight requests and counts responses by code.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeRequests.Inc()
		defer activeRequests.Dec()
		rec := recordStatus(w)
		next(rec, r)
		s.metrics.observe(r.URL.Path, rec.status)
	}
}
