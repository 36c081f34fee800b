package engine

import (
	appconfig "quoteflow/config"
	"quoteflow/models"
)

// Skip reasons reported by the filter pipeline.
const (
	ReasonSpreadOutOfRange = "spread out of range"
	ReasonImbalanced       = "orderbook imbalanced"
	ReasonVolatilityHigh   = "volatility too high"
)

// Decision is the outcome of evaluating one snapshot: either a skip with a
// reason or a proceed with bracket prices, never both. The computed values
// are carried for audit logging regardless of the outcome.
type Decision struct {
	Proceed   bool
	Reason    string
	BuyPrice  float64
	SellPrice float64

	Spread       float64
	Imbalance    float64
	Volatility   float64
	VolEstimated bool
}

// Engine is the quoting decision engine. It owns the volatility estimator's
// rolling window and applies the optional filter pipeline followed by the
// bracket pricer. One Engine serves both the filtered loop and the
// unfiltered single-shot mode.
type Engine struct {
	cfg        appconfig.StrategyConfig
	estimator  *VolatilityEstimator
	useFilters bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithoutFilters disables the pre-trade filter pipeline. Every snapshot
// proceeds straight to pricing, as in single-shot mode.
func WithoutFilters() Option {
	return func(e *Engine) { e.useFilters = false }
}

// New creates an Engine for the given strategy configuration.
func New(cfg appconfig.StrategyConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		estimator:  NewVolatilityEstimator(cfg.WindowSize, cfg.MinSamples),
		useFilters: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ObserveMid feeds an out-of-band mid price into the rolling window. Used
// by the loop to drain feed-buffered mids between cycles.
func (e *Engine) ObserveMid(mid float64) {
	e.estimator.Observe(mid)
}

// WindowSamples returns the number of mids in the rolling window.
func (e *Engine) WindowSamples() int {
	return e.estimator.Samples()
}

// Evaluate ingests the snapshot's mid price and decides whether and at what
// prices to quote. Gates are evaluated in order and short-circuit on the
// first violation. The returned error is an InvalidPriceError from the
// pricer; filter vetoes are not errors.
func (e *Engine) Evaluate(snap *models.OrderbookSnapshot) (Decision, error) {
	e.estimator.Observe(snap.Mid())

	d := Decision{
		Spread:    snap.Spread(),
		Imbalance: ComputeImbalance(snap.Bids, snap.Asks, e.cfg.OBIDepth),
	}
	d.Volatility, d.VolEstimated = e.estimator.Realized()

	if e.useFilters {
		if d.Spread < e.cfg.MinSpread || d.Spread > e.cfg.MaxSpread {
			d.Reason = ReasonSpreadOutOfRange
			return d, nil
		}
		if d.Imbalance < 0.5-e.cfg.OBITolerance || d.Imbalance > 0.5+e.cfg.OBITolerance {
			d.Reason = ReasonImbalanced
			return d, nil
		}
		if d.VolEstimated && d.Volatility > e.cfg.MaxVolatility {
			d.Reason = ReasonVolatilityHigh
			return d, nil
		}
	}

	buy, sell, err := BracketPrices(snap.BestBid, snap.BestAsk, e.cfg.Offset)
	if err != nil {
		return d, err
	}

	d.Proceed = true
	d.BuyPrice = buy
	d.SellPrice = sell
	return d, nil
}
