// Package services provides business logic and orchestration services.
//
// This file holds the Strategy used to turn a purchase amount into reward
// points. The aggregator only depends on the RewardPolicy interface, so a
// different schedule can be injected without touching the aggregation code.

package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RewardPolicy maps a single purchase amount to whole reward points.
// Implementations must be pure and safe for concurrent use.
type RewardPolicy interface {
	Calculate(amount decimal.Decimal) int
}

// PolicyFunc adapts a plain function to RewardPolicy.
type PolicyFunc func(amount decimal.Decimal) int

func (f PolicyFunc) Calculate(amount decimal.Decimal) int {
	return f(amount)
}

// TieredPolicy awards BaseRate points per unit spent above Threshold up to
// UpperThreshold, and BonusRate points per unit above UpperThreshold.
// Fractional points are truncated.
type TieredPolicy struct {
	Threshold      decimal.Decimal
	UpperThreshold decimal.Decimal
	BaseRate       decimal.Decimal
	BonusRate      decimal.Decimal
}

var ErrInvalidPolicy = errors.New("invalid reward policy")

// DefaultPolicy is 1 point per unit between 50 and 100 and 2 points per
// unit above 100.
func DefaultPolicy() TieredPolicy {
	return TieredPolicy{
		Threshold:      decimal.NewFromInt(50),
		UpperThreshold: decimal.NewFromInt(100),
		BaseRate:       decimal.NewFromInt(1),
		BonusRate:      decimal.NewFromInt(2),
	}
}

// Validate rejects schedules that would make points decrease as the amount grows.
func (p TieredPolicy) Validate() error {
	if p.Threshold.IsNegative() {
		return fmt.Errorf("%w: threshold %s is negative", ErrInvalidPolicy, p.Threshold)
	}
	if p.UpperThreshold.LessThan(p.Threshold) {
		return fmt.Errorf("%w: upper threshold %s is below threshold %s", ErrInvalidPolicy, p.UpperThreshold, p.Threshold)
	}
	if p.BaseRate.IsNegative() || p.BonusRate.IsNegative() {
		return fmt.Errorf("%w: rates must not be negative", ErrInvalidPolicy)
	}
	return nil
}

func (p TieredPolicy) Calculate(amount decimal.Decimal) int {
	switch {
	case amount.LessThanOrEqual(p.Threshold):
		return 0
	case amount.LessThanOrEqual(p.UpperThreshold):
		return int(amount.Sub(p.Threshold).Mul(p.BaseRate).IntPart())
	default:
		band := p.UpperThreshold.Sub(p.Threshold).Mul(p.BaseRate)
		bonus := amount.Sub(p.UpperThreshold).Mul(p.BonusRate)
		return int(bonus.Add(band).IntPart())
	}
}
