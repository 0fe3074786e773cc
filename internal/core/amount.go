// Package core holds the domain model shared by every other package:
// transactions, categories, budgets, goals, filters, and the
// aggregation rules over them.
//
// This file contains amount parsing and currency conversion.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Rates holds current conversion rates keyed by currency code,
// expressed against Base (rate of Base is 1).
type Rates struct {
	Base  string
	Rates map[string]float64
}

// Convert converts an amount between currencies using current rates.
// Returns an error when either currency has no known rate.
func (r Rates) Convert(amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	fromRate, ok := r.rate(from)
	if !ok {
		return 0, fmt.Errorf("no rate for currency %q", from)
	}
	toRate, ok := r.rate(to)
	if !ok {
		return 0, fmt.Errorf("no rate for currency %q", to)
	}
	return amount / fromRate * toRate, nil
}

func (r Rates) rate(currency string) (float64, bool) {
	if currency == r.Base {
		return 1, true
	}
	rate, ok := r.Rates[currency]
	if !ok || rate == 0 {
		return 0, false
	}
	return rate, true
}

// AmountIn resolves a transaction amount in the target currency with
// the two-path policy: a backend pre-computed amount for the target
// currency is used verbatim when present (it may pin historical
// rates); otherwise the original amount is converted with current
// rates. A transaction already in the target currency needs neither.
func (t Transaction) AmountIn(currency string, rates Rates) float64 {
	if pre, ok := t.ConvertedAmounts[currency]; ok {
		return pre
	}
	if t.Currency == currency || t.Currency == "" {
		return t.Amount
	}
	converted, err := rates.Convert(t.Amount, t.Currency, currency)
	if err != nil {
		// Unknown rate: fall back to the original amount rather than
		// dropping the transaction from totals.
		return t.Amount
	}
	return converted
}

// ParseAmount converts a decimal string to a positive amount with
// half-up rounding to cents. Both dot (12.34) and comma (12,34)
// separators are accepted.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// First two fractional digits, half-up on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return float64(cents) / 100, nil
}

// RoundCents rounds an amount to two decimal places, half away from
// zero. Aggregates are rounded only at the display boundary.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
