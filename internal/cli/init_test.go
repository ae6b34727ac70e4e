package cli

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards/internal/config"
	"rewards/internal/services"
)

func TestPolicyFromConfig(t *testing.T) {
	cfg := &config.Config{
		RewardThreshold:      decimal.NewFromInt(50),
		RewardUpperThreshold: decimal.NewFromInt(100),
		RewardBaseRate:       decimal.NewFromInt(1),
		RewardBonusRate:      decimal.NewFromInt(2),
	}
	policy, err := PolicyFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 90, policy.Calculate(decimal.NewFromInt(120)))

	cfg.RewardUpperThreshold = decimal.NewFromInt(10)
	_, err = PolicyFromConfig(cfg)
	assert.True(t, errors.Is(err, services.ErrInvalidPolicy))
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, "rewards")
	assert.Equal(t, "rewards", logger.Component())
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}
