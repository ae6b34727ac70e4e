package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the application. It is passed
// explicitly to the components that record into it. Every Record method is a
// no-op on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Reward calculation
	calculationsTotal   *prometheus.CounterVec
	calculationDuration *prometheus.HistogramVec
	pointsAwarded       prometheus.Histogram

	// Store
	storeQueryDuration *prometheus.HistogramVec
	storeQueriesTotal  *prometheus.CounterVec

	// Summary cache
	cacheLookupsTotal *prometheus.CounterVec

	// HTTP
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	rateLimitedTotal    prometheus.Counter

	// Events
	eventsPublishedTotal *prometheus.CounterVec
}

// NewMetrics registers all collectors on registry. A nil registry gets a
// fresh one with the Go and process collectors attached.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		calculationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reward_calculations_total",
				Help: "Total number of reward calculations by outcome",
			},
			[]string{"outcome"},
		),
		calculationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reward_calculation_duration_seconds",
				Help:    "Duration of reward calculations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5},
			},
			[]string{"outcome"},
		),
		pointsAwarded: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reward_points_per_summary",
				Help:    "Total points reported per successful calculation",
				Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 5000},
			},
		),

		storeQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_query_duration_seconds",
				Help:    "Duration of transaction store queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"backend", "operation"},
		),
		storeQueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_queries_total",
				Help: "Total number of transaction store queries",
			},
			[]string{"backend", "operation", "status"},
		),

		cacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "summary_cache_lookups_total",
				Help: "Summary cache lookups by result",
			},
			[]string{"result"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		rateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected by the per-client rate limiter",
			},
		),

		eventsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reward_events_published_total",
				Help: "Reward events published to the broker by status",
			},
			[]string{"status"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Reward metric helpers

// RecordCalculation records one reward calculation. outcome is one of
// "success", "not_found", "invalid" or "error".
func (m *Metrics) RecordCalculation(outcome string, duration float64) {
	if m == nil {
		return
	}
	m.calculationsTotal.WithLabelValues(outcome).Inc()
	m.calculationDuration.WithLabelValues(outcome).Observe(duration)
}

func (m *Metrics) RecordPointsAwarded(points int) {
	if m == nil {
		return
	}
	m.pointsAwarded.Observe(float64(points))
}

// Store metric helpers

// RecordStoreQuery records a store query with duration.
func (m *Metrics) RecordStoreQuery(backend, operation string, duration float64, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.storeQueryDuration.WithLabelValues(backend, operation).Observe(duration)
	m.storeQueriesTotal.WithLabelValues(backend, operation, status).Inc()
}

// Cache metric helpers

func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	if m == nil {
		return
	}
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}

// Event metric helpers

func (m *Metrics) RecordEventPublished(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.eventsPublishedTotal.WithLabelValues(status).Inc()
}

func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
