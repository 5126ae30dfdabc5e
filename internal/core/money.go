package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount parses a positive decimal amount and rounds it half-up to cents.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Signs, exponents and
// zero amounts are rejected.
//
//	ParseAmount("12.345") -> 12.35
//	ParseAmount("12,3")   -> 12.30
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ValidateAmount checks that d is positive with at most two fractional digits.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	if !d.Equal(d.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}

// Percent returns part/whole rounded half-up to two places and scaled by 100,
// formatted with two decimals ("80.00").
func Percent(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return "0.00"
	}
	return part.DivRound(whole, 2).Mul(hundred).StringFixed(2)
}

// ValidateBalance is ValidateAmount that also admits zero, for running totals.
func ValidateBalance(d decimal.Decimal) error {
	if d.IsZero() {
		return nil
	}
	return ValidateAmount(d)
}
