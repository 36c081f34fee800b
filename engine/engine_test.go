package engine

import (
	"errors"
	"testing"

	appconfig "quoteflow/config"
	"quoteflow/models"
)

func strategyConfig() appconfig.StrategyConfig {
	return appconfig.StrategyConfig{
		Symbol:        "BTCUSDT",
		Quantity:      0.001,
		Offset:        0.3,
		MinSpread:     0.5,
		MaxSpread:     50.0,
		OBITolerance:  0.2,
		MaxVolatility: 0.05,
		OBIDepth:      5,
		WindowSize:    50,
		MinSamples:    10,
		DepthLimit:    10,
	}
}

func snapshot(t *testing.T, bids, asks []models.BookLevel) *models.OrderbookSnapshot {
	t.Helper()
	snap, err := models.NewSnapshot("BTCUSDT", bids, asks)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func TestEvaluateSpreadGate(t *testing.T) {
	e := New(strategyConfig())
	snap := snapshot(t,
		levels([2]float64{100, 1}),
		levels([2]float64{100.3, 1}),
	)

	d, err := e.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Proceed {
		t.Fatal("expected skip for spread 0.3 below min 0.5")
	}
	if d.Reason != ReasonSpreadOutOfRange {
		t.Fatalf("reason = %q, want %q", d.Reason, ReasonSpreadOutOfRange)
	}
	if d.Spread != 0.3 {
		t.Fatalf("decision spread = %v, want 0.3", d.Spread)
	}
}

func TestEvaluateProceed(t *testing.T) {
	e := New(strategyConfig())
	snap := snapshot(t,
		levels([2]float64{100, 1}),
		levels([2]float64{101, 1}),
	)

	d, err := e.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Proceed {
		t.Fatalf("expected proceed, got skip %q", d.Reason)
	}
	if d.BuyPrice != 100.7 || d.SellPrice != 100.3 {
		t.Fatalf("bracket = %v/%v, want 100.7/100.3", d.BuyPrice, d.SellPrice)
	}
	if d.Imbalance != 0.5 {
		t.Fatalf("imbalance = %v, want 0.5", d.Imbalance)
	}
	if d.VolEstimated {
		t.Fatal("volatility should be unestimated on the first sample")
	}
}

func TestEvaluateImbalanceGate(t *testing.T) {
	e := New(strategyConfig())
	snap := snapshot(t,
		levels([2]float64{100, 10}),
		levels([2]float64{101, 1}),
	)

	d, err := e.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Proceed || d.Reason != ReasonImbalanced {
		t.Fatalf("decision = %+v, want imbalance skip", d)
	}
}

func TestVolatilityGateInactiveUntilWindowFilled(t *testing.T) {
	e := New(strategyConfig())

	// wild swings, but fewer than MinSamples observations in total
	prices := []float64{100, 200, 100, 200, 100, 200, 100, 200}
	var last Decision
	for _, p := range prices {
		snap := snapshot(t,
			levels([2]float64{p, 1}),
			levels([2]float64{p + 1, 1}),
		)
		d, err := e.Evaluate(snap)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		last = d
	}

	if !last.Proceed {
		t.Fatalf("expected proceed while volatility gate is inactive, got %q", last.Reason)
	}
}

func TestVolatilityGateVetoesOnceEligible(t *testing.T) {
	e := New(strategyConfig())

	for i := 0; i < 12; i++ {
		p := 100.0
		if i%2 == 1 {
			p = 200.0
		}
		snap := snapshot(t,
			levels([2]float64{p, 1}),
			levels([2]float64{p + 1, 1}),
		)
		d, err := e.Evaluate(snap)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if i >= 9 {
			if d.Proceed || d.Reason != ReasonVolatilityHigh {
				t.Fatalf("cycle %d: decision = %+v, want volatility skip", i, d)
			}
		}
	}
}

func TestWithoutFiltersAlwaysPrices(t *testing.T) {
	e := New(strategyConfig(), WithoutFilters())

	// spread far outside the configured range, still priced
	snap := snapshot(t,
		levels([2]float64{100, 1}),
		levels([2]float64{100.1, 1}),
	)
	d, err := e.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Proceed {
		t.Fatalf("expected proceed without filters, got %q", d.Reason)
	}
}

func TestWithoutFiltersPropagatesPriceError(t *testing.T) {
	cfg := strategyConfig()
	cfg.Offset = 150
	e := New(cfg, WithoutFilters())

	snap := snapshot(t,
		levels([2]float64{99, 1}),
		levels([2]float64{100, 1}),
	)
	_, err := e.Evaluate(snap)
	var priceErr *models.InvalidPriceError
	if !errors.As(err, &priceErr) {
		t.Fatalf("expected InvalidPriceError, got %v", err)
	}
}

func TestEvaluateFeedsWindow(t *testing.T) {
	e := New(strategyConfig())
	snap := snapshot(t,
		levels([2]float64{100, 1}),
		levels([2]float64{101, 1}),
	)
	if _, err := e.Evaluate(snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.WindowSamples() != 1 {
		t.Fatalf("window samples = %d, want 1", e.WindowSamples())
	}
	e.ObserveMid(100.5)
	if e.WindowSamples() != 2 {
		t.Fatalf("window samples = %d, want 2 after ObserveMid", e.WindowSamples())
	}
}
