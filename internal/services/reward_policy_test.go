package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTieredPolicyTiers(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		amount string
		want   int
	}{
		{"0", 0},
		{"49", 0},
		{"50", 0},
		{"50.99", 0},
		{"51", 1},
		{"75", 25},
		{"90", 40},
		{"100", 50},
		{"100.50", 51},
		{"101", 52},
		{"120", 90},
		{"130", 110},
		{"200", 250},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Calculate(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestTieredPolicyIsMonotone(t *testing.T) {
	p := DefaultPolicy()
	prev := -1
	step := decimal.RequireFromString("0.25")
	for a := decimal.Zero; a.LessThanOrEqual(decimal.NewFromInt(400)); a = a.Add(step) {
		got := p.Calculate(a)
		require.GreaterOrEqual(t, got, 0, "amount %s", a)
		require.GreaterOrEqual(t, got, prev, "points dropped at amount %s", a)
		prev = got
	}
}

func TestTieredPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	inverted := DefaultPolicy()
	inverted.UpperThreshold = decimal.NewFromInt(10)
	assert.ErrorIs(t, inverted.Validate(), ErrInvalidPolicy)

	negative := DefaultPolicy()
	negative.BonusRate = decimal.NewFromInt(-1)
	assert.ErrorIs(t, negative.Validate(), ErrInvalidPolicy)

	below := DefaultPolicy()
	below.Threshold = decimal.NewFromInt(-5)
	assert.ErrorIs(t, below.Validate(), ErrInvalidPolicy)
}

func TestPolicyFunc(t *testing.T) {
	flat := PolicyFunc(func(decimal.Decimal) int { return 7 })
	assert.Equal(t, 7, flat.Calculate(decimal.NewFromInt(1)))
}
