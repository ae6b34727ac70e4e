package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards/internal/log"
)

func newTestLogger(buf *bytes.Buffer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = slog.LevelDebug
	cfg.Format = "json"
	cfg.Output = buf
	return log.New(cfg)
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	var ctxLogger *log.Logger
	h := NewMiddleware(newTestLogger(&buf), func(*http.Request) string { return "10.0.0.1" }).
		Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
			ctxLogger = log.FromContext(r.Context())
			w.WriteHeader(http.StatusNotFound)
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rewards/CUST999", nil))

	require.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, log.ComponentTrace, ctxLogger.Component())

	out := buf.String()
	assert.Contains(t, out, "HTTP request started")
	assert.Contains(t, out, "HTTP request completed")
	assert.Contains(t, out, `"status_code":404`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestMiddleware_ReusesIncomingRequestID(t *testing.T) {
	var seen string
	h := NewMiddleware(nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "edge-1234")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "edge-1234", seen)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "bad id\n")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, strings.HasPrefix(seen, "req_"))
}

func TestGenerateRequestID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
