package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCalculation("success", 0.1)
		m.RecordPointsAwarded(10)
		m.RecordStoreQuery("memory", "all_for_customer", 0.1, nil)
		m.RecordCacheLookup(true)
		m.RecordHTTPRequest("h", "GET", 200, 0.1)
		m.RecordRateLimited()
		m.RecordEventPublished(nil)
	})
}

func TestRecordStoreQuery(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordStoreQuery("sqlite", "in_range", 0.01, nil)
	m.RecordStoreQuery("sqlite", "in_range", 0.01, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeQueriesTotal.WithLabelValues("sqlite", "in_range", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeQueriesTotal.WithLabelValues("sqlite", "in_range", "error")))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	h := HTTPMetricsMiddleware(m, "/api/rewards/{customerId}")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/rewards/X", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/api/rewards/{customerId}", "GET", "4xx")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics(nil)
	m.RecordCalculation("success", 0.002)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `reward_calculations_total{outcome="success"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func TestStatusCodeToString(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 302: "3xx", 429: "4xx", 503: "5xx", 0: "unknown"} {
		assert.Equal(t, want, statusCodeToString(code))
	}
}
