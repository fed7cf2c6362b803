package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAbsDaysBetween(t *testing.T) {
	a := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	b := time.Date(2024, 5, 2, 0, 15, 0, 0, time.UTC)

	if got := AbsDaysBetween(a, b); got != 1 {
		t.Fatalf("expected 1 calendar day, got %d", got)
	}
	if got := AbsDaysBetween(b, a); got != 1 {
		t.Fatalf("expected symmetry, got %d", got)
	}
	if got := AbsDaysBetween(a, a); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}

	c := time.Date(2024, 4, 28, 8, 0, 0, 0, time.UTC)
	if got := AbsDaysBetween(a, c); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestParseDecimal(t *testing.T) {
	got, err := ParseDecimal("1,500,000.50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("1500000.50")) {
		t.Fatalf("expected 1500000.50, got %s", got)
	}

	if _, err := ParseDecimal("abc"); err == nil {
		t.Fatal("expected error for non-numeric input")
	}
}
