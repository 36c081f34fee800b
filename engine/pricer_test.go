package engine

import (
	"errors"
	"testing"

	"quoteflow/models"
)

func TestBracketPrices(t *testing.T) {
	buy, sell, err := BracketPrices(100, 101, 0.3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buy != 100.7 {
		t.Fatalf("buy = %v, want 100.7", buy)
	}
	if sell != 100.3 {
		t.Fatalf("sell = %v, want 100.3", sell)
	}
	if !(buy < 101 && sell > 100) {
		t.Fatalf("bracket %v/%v not inside touch prices", buy, sell)
	}
}

func TestBracketPricesOffsetExceedsAsk(t *testing.T) {
	_, _, err := BracketPrices(99, 100, 150)
	if err == nil {
		t.Fatal("expected error when offset >= best ask")
	}
	var priceErr *models.InvalidPriceError
	if !errors.As(err, &priceErr) {
		t.Fatalf("expected InvalidPriceError, got %T", err)
	}
	if priceErr.Side != models.SideBuy {
		t.Fatalf("side = %v, want BUY", priceErr.Side)
	}
}

func TestBracketPricesInvalidSell(t *testing.T) {
	// degenerate book with a negative best bid still must not quote a
	// non-positive sell price
	_, _, err := BracketPrices(-200, 200, 150)
	if err == nil {
		t.Fatal("expected error for non-positive sell price")
	}
	var priceErr *models.InvalidPriceError
	if !errors.As(err, &priceErr) || priceErr.Side != models.SideSell {
		t.Fatalf("expected sell-side InvalidPriceError, got %v", err)
	}
}
