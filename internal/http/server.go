package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"rewards/internal/cache"
	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/metrics"
	"rewards/internal/middleware/ratelimit"
	"rewards/internal/middleware/security"
	"rewards/internal/middleware/trace"
)

// RewardsCalculator computes a customer's summary for a date range.
type RewardsCalculator interface {
	CalculateRewards(ctx context.Context, customerID string, rng core.DateRange) (core.RewardSummary, error)
}

// EventPublisher announces computed summaries. Failures never reach the client.
type EventPublisher interface {
	PublishRewardsCalculated(ctx context.Context, summary core.RewardSummary) error
}

const publishTimeout = 5 * time.Second

type Options struct {
	Addr       string
	Calculator RewardsCalculator

	// Optional collaborators; nil disables the feature.
	Publisher EventPublisher
	Ready     func(ctx context.Context) error
	Cache     *cache.LRUCache[core.RewardSummary]
	Limiter   *ratelimit.Limiter
	Metrics   *metrics.Metrics
	Logger    *log.Logger

	// ClientIP defaults to the direct peer address.
	ClientIP func(*http.Request) string
	Headers  *security.HeadersConfig
}

type Server struct {
	http.Server

	calc      RewardsCalculator
	publisher EventPublisher
	ready     func(ctx context.Context) error
	summaries *cache.LRUCache[core.RewardSummary]
	flight    singleflight.Group
	metrics   *metrics.Metrics
	logger    *log.Logger
	events    *log.StructuredLogger
	clientIP  func(*http.Request) string

	publishing sync.WaitGroup
}

// NewServer wires routes and the middleware chain:
// trace -> security headers -> rate limit -> per-route metrics -> handler.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	clientIP := opts.ClientIP
	if clientIP == nil {
		resolver, _ := security.NewClientIPResolver()
		clientIP = resolver.ClientIP
	}

	s := &Server{
		calc:      opts.Calculator,
		publisher: opts.Publisher,
		ready:     opts.Ready,
		summaries: opts.Cache,
		metrics:   opts.Metrics,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		clientIP:  clientIP,
	}

	mux := http.NewServeMux()
	s.route(mux, "GET /api/rewards/{customerId}", "/api/rewards/{customerId}", s.handleRewards)
	s.route(mux, "GET /api/rewards/{$}", "/api/rewards/", s.handleMissingCustomer)
	s.route(mux, "GET /healthz", "/healthz", s.handleHealth)
	s.route(mux, "GET /readyz", "/readyz", s.handleReady)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}
	mux.HandleFunc("/", s.handleNotFound)

	var handler http.Handler = mux
	if opts.Limiter != nil {
		handler = opts.Limiter.Middleware(clientIP, s.handleRateLimited)(handler)
	}
	headers := security.DefaultHeadersConfig()
	if opts.Headers != nil {
		headers = *opts.Headers
	}
	handler = security.NewHeadersMiddleware(headers).Middleware(handler)
	handler = trace.NewMiddleware(logger, clientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) route(mux *http.ServeMux, pattern, name string, h http.HandlerFunc) {
	mux.Handle(pattern, metrics.HTTPMetricsMiddleware(s.metrics, name)(h))
}

// Shutdown stops accepting requests, then waits for in-flight event publishes.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.publishing.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Shutdown deadline reached with events still publishing")
	}
	return err
}
