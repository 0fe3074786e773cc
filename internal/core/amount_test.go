package core

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.0", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{"0.01", 0.01, true},
		{"1.005", 1.01, true}, // half-up rounding
		{" 2.50 ", 2.50, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || math.Abs(got-tc.out) > 1e-9 {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestRatesConvert(t *testing.T) {
	rates := Rates{Base: "USD", Rates: map[string]float64{"EUR": 0.5, "GBP": 0.25}}

	got, err := rates.Convert(10, "USD", "EUR")
	if err != nil || got != 5 {
		t.Fatalf("USD->EUR expected 5, got %v (err=%v)", got, err)
	}
	got, err = rates.Convert(10, "EUR", "GBP")
	if err != nil || got != 5 {
		t.Fatalf("EUR->GBP expected 5, got %v (err=%v)", got, err)
	}
	if _, err := rates.Convert(1, "USD", "JPY"); err == nil {
		t.Fatalf("expected error for unknown currency")
	}
	got, err = rates.Convert(7, "EUR", "EUR")
	if err != nil || got != 7 {
		t.Fatalf("same currency must be identity, got %v (err=%v)", got, err)
	}
}

func TestAmountInPrefersPrecomputed(t *testing.T) {
	rates := Rates{Base: "USD", Rates: map[string]float64{"EUR": 0.5}}
	tx := Transaction{
		Amount:           100,
		Currency:         "USD",
		ConvertedAmounts: map[string]float64{"EUR": 49}, // historical rate, used verbatim
	}
	if got := tx.AmountIn("EUR", rates); got != 49 {
		t.Fatalf("pre-computed amount must win, got %v", got)
	}

	live := Transaction{Amount: 100, Currency: "USD"}
	if got := live.AmountIn("EUR", rates); got != 50 {
		t.Fatalf("live conversion expected 50, got %v", got)
	}
	if got := live.AmountIn("USD", rates); got != 100 {
		t.Fatalf("same currency expected 100, got %v", got)
	}
}

func TestAmountInUnknownRateFallsBack(t *testing.T) {
	tx := Transaction{Amount: 33, Currency: "JPY"}
	if got := tx.AmountIn("EUR", Rates{Base: "USD"}); got != 33 {
		t.Fatalf("unknown rate must fall back to original amount, got %v", got)
	}
}
