// Package cli provides common initialization shared by cmd/rewards and
// cmd/rewardsctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"rewards/internal/backend"
	"rewards/internal/config"
	"rewards/internal/log"
	"rewards/internal/metrics"
	"rewards/internal/services"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logCfg := log.DefaultConfig()
	logCfg.Component = component
	if cfg != nil {
		logCfg.Level = log.ParseLevel(cfg.LogLevel)
		logCfg.Format = cfg.LogFormat
	}
	logger := log.New(logCfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// PolicyFromConfig builds the tier schedule from the REWARD_* settings.
func PolicyFromConfig(cfg *config.Config) (services.TieredPolicy, error) {
	policy := services.TieredPolicy{
		Threshold:      cfg.RewardThreshold,
		UpperThreshold: cfg.RewardUpperThreshold,
		BaseRate:       cfg.RewardBaseRate,
		BonusRate:      cfg.RewardBonusRate,
	}
	if err := policy.Validate(); err != nil {
		return services.TieredPolicy{}, err
	}
	return policy, nil
}

// InitBackend creates the configured transaction store.
func InitBackend(ctx context.Context, cfg *config.Config, logger *log.Logger, m *metrics.Metrics) (*backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger, m).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}
	logger.Info("Initialized transaction store", log.FieldBackend, res.Type.String())
	return res, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
