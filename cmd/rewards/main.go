package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"rewards/internal/amqp"
	"rewards/internal/cache"
	"rewards/internal/cli"
	"rewards/internal/config"
	"rewards/internal/core"
	apphttp "rewards/internal/http"
	"rewards/internal/log"
	"rewards/internal/metrics"
	"rewards/internal/middleware/ratelimit"
	"rewards/internal/middleware/security"
	"rewards/internal/services"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(nil, log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	m := metrics.NewMetrics(nil)

	policy, err := cli.PolicyFromConfig(cfg)
	if err != nil {
		return err
	}

	store, err := cli.InitBackend(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close transaction store", log.FieldError, err)
		}
	}()

	svc := services.NewRewardService(store.Reader, policy, logger)

	var publisher apphttp.EventPublisher
	if cfg.AMQPURL != "" {
		p, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
		if err != nil {
			// events are optional; serve without them
			logger.Warn("AMQP unavailable, reward events disabled", log.FieldError, err)
		} else {
			defer p.Close()
			publisher = p
			logger.Info("Publishing reward events", "exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
		}
	}

	resolver, err := security.NewClientIPResolver(cfg.TrustedProxies...)
	if err != nil {
		return err
	}

	summaries := cache.NewLRUCache[core.RewardSummary](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager(logger)
	caches.Register("summaries", summaries)

	var limiter *ratelimit.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:       cfg.Addr(),
		Calculator: svc,
		Publisher:  publisher,
		Ready:      store.Ping,
		Cache:      summaries,
		Limiter:    limiter,
		Metrics:    m,
		Logger:     logger,
		ClientIP:   resolver.ClientIP,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting rewards server", "addr", srv.Addr, log.FieldBackend, store.Type.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if !summaries.Enabled() {
			return nil
		}
		return caches.Run(gctx, cfg.CacheCleanupInterval)
	})

	if limiter != nil {
		g.Go(func() error { return limiter.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
