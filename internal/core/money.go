// Package core provides money parsing and handling utilities.
//
// Amounts are carried as decimals so point arithmetic never sees binary
// floating point rounding.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Negative values, signs, exponents and empty strings are rejected.
//
// Examples:
//
//	ParseAmount("120.00") -> 120, nil
//	ParseAmount("49,5")   -> 49.5, nil
//	ParseAmount("-1")     -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "+-eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with at least two decimals. Extra
// precision is kept, never rounded away.
func FormatAmount(d decimal.Decimal) string {
	places := int32(2)
	if -d.Exponent() > places {
		places = -d.Exponent()
	}
	return d.StringFixed(places)
}
