// Package core provides the budget domain model.
//
// This file contains the parsing of user-entered amounts and their
// formatting for display.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "R$"

// ParseAmount converts user-entered text to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. The
// parsed float is kept exact; no rounding is applied. Empty, non-numeric,
// NaN/Inf and non-positive inputs are rejected with ErrInvalidAmount,
// never coerced to zero.
//
// Examples:
//
//	ParseAmount("400")    -> 400, nil
//	ParseAmount("12,5")   -> 12.5, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.Count(s, ",") > 1 || (strings.Contains(s, ",") && strings.Contains(s, ".")) {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	// ParseFloat also understands "Inf", "NaN" and hex floats; only plain
	// decimal notation is user input.
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' && r != 'e' && r != 'E' {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !validAmount(v) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// FormatAmount renders v with two decimals for display, e.g. "R$ 600.00".
// Negative balances keep their sign after the symbol.
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return CurrencySymbol + " -"
	}
	return CurrencySymbol + " " + decimal.NewFromFloat(v).StringFixed(2)
}
