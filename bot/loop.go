package bot

import (
	"context"
	"time"

	appconfig "quoteflow/config"
	"quoteflow/engine"
	"quoteflow/journal"
	"quoteflow/logger"
	"quoteflow/venue"
)

// MidSource supplies out-of-band mid prices collected between cycles, such
// as the websocket bookticker feed.
type MidSource interface {
	Drain() []float64
}

// Recorder accepts audit records for completed cycles.
type Recorder interface {
	Record(rec journal.CycleRecord)
}

// Runner is the trading loop: poll open orders, decide, place, wait.
// It owns the engine (and through it the rolling price window) and is not
// safe for concurrent use.
type Runner struct {
	cfg     *appconfig.Config
	venue   venue.Venue
	engine  *engine.Engine
	feed    MidSource
	journal Recorder
	log     *logger.Log
	attempt int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMidSource attaches a feed whose buffered mids are drained into the
// volatility window at the start of each cycle.
func WithMidSource(src MidSource) RunnerOption {
	return func(r *Runner) { r.feed = src }
}

// WithRecorder attaches an audit journal.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) { r.journal = rec }
}

// NewRunner creates a loop runner over the given venue and engine.
func NewRunner(cfg *appconfig.Config, v venue.Venue, e *engine.Engine, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:    cfg,
		venue:  v,
		engine: e,
		log:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attempts returns the number of completed placements so far.
func (r *Runner) Attempts() int {
	return r.attempt
}

// Run executes trading cycles until the attempt budget is exhausted or the
// context is cancelled. Every error inside a cycle is recoverable: it is
// logged, journaled and followed by a short wait, never a shutdown.
func (r *Runner) Run(ctx context.Context) error {
	log := r.log.WithComponent("loop").WithFields(logger.Fields{
		"symbol":       r.cfg.Strategy.Symbol,
		"max_attempts": r.cfg.Loop.MaxAttempts,
	})
	log.Info("starting trading loop")

	for r.attempt < r.cfg.Loop.MaxAttempts {
		if ctx.Err() != nil {
			log.Info("loop stopped due to context cancellation")
			return ctx.Err()
		}

		wait := r.cycle(ctx)

		if r.attempt >= r.cfg.Loop.MaxAttempts {
			break
		}
		if !r.sleep(ctx, wait) {
			log.Info("loop stopped due to context cancellation")
			return ctx.Err()
		}
	}

	log.WithFields(logger.Fields{"attempts": r.attempt}).Info("attempt budget exhausted, loop finished")
	return nil
}

// cycle runs one Polling → Deciding → Placing pass and returns how long to
// wait before the next one.
func (r *Runner) cycle(ctx context.Context) time.Duration {
	log := r.log.WithComponent("loop").WithFields(logger.Fields{
		"symbol":  r.cfg.Strategy.Symbol,
		"attempt": r.attempt,
	})

	fullWait := time.Duration(r.cfg.Loop.WaitSeconds) * time.Second
	skipWait := time.Duration(r.cfg.Loop.SkipWaitSeconds) * time.Second
	errorWait := time.Duration(r.cfg.Loop.ErrorWaitSeconds) * time.Second

	if r.feed != nil {
		mids := r.feed.Drain()
		for _, mid := range mids {
			r.engine.ObserveMid(mid)
		}
		if len(mids) > 0 {
			log.WithFields(logger.Fields{"mids": len(mids)}).Debug("drained feed into volatility window")
		}
	}

	start := time.Now()

	// Polling
	open, err := r.venue.FetchOpenOrders(ctx, r.cfg.Strategy.Symbol)
	if err != nil {
		r.recordError(log, err, "fetch open orders failed")
		return errorWait
	}
	if len(open) > 0 {
		log.WithFields(logger.Fields{"open_orders": len(open)}).Info("open orders present, skipping cycle")
		r.record(journal.CycleRecord{State: journal.StateOpenOrders, Reason: "open orders present"})
		return fullWait
	}

	// Deciding
	snap, err := r.venue.FetchOrderBook(ctx, r.cfg.Strategy.Symbol, r.cfg.Strategy.DepthLimit)
	if err != nil {
		r.recordError(log, err, "fetch orderbook failed")
		return errorWait
	}

	decision, err := r.engine.Evaluate(snap)
	if err != nil {
		r.recordError(log, err, "pricing failed")
		return errorWait
	}
	if !decision.Proceed {
		log.WithFields(decisionFields(decision)).Info("filters vetoed quoting: " + decision.Reason)
		r.record(journal.CycleRecord{
			State:      journal.StateSkipped,
			Reason:     decision.Reason,
			Spread:     decision.Spread,
			Imbalance:  decision.Imbalance,
			Volatility: decision.Volatility,
		})
		return skipWait
	}

	// Placing
	result, err := PlaceBracket(ctx, r.venue, r.cfg.Strategy.Symbol, r.cfg.Strategy.Quantity, decision.BuyPrice, decision.SellPrice)
	if err != nil {
		r.recordError(log, err, "order placement failed")
		return errorWait
	}

	r.attempt++
	logger.LogPerformanceEntry(log, "loop", "trading_cycle", time.Since(start), nil)
	log.WithFields(logger.Fields{
		"buy_order_id":  result.Buy.OrderID,
		"sell_order_id": result.Sell.OrderID,
		"buy_price":     result.Buy.Price,
		"sell_price":    result.Sell.Price,
		"attempt":       r.attempt,
	}).Info("bracket placed")
	r.log.PublishMetric("loop", "brackets_placed", 1, logger.Fields{"symbol": r.cfg.Strategy.Symbol})

	r.record(journal.CycleRecord{
		State:       journal.StatePlaced,
		Spread:      decision.Spread,
		Imbalance:   decision.Imbalance,
		Volatility:  decision.Volatility,
		BuyPrice:    result.Buy.Price,
		SellPrice:   result.Sell.Price,
		BuyOrderID:  result.Buy.OrderID,
		SellOrderID: result.Sell.OrderID,
	})
	return fullWait
}

func (r *Runner) recordError(log *logger.Entry, err error, msg string) {
	log.WithError(err).Warn(msg)
	r.record(journal.CycleRecord{State: journal.StateError, Reason: err.Error()})
}

func (r *Runner) record(rec journal.CycleRecord) {
	if r.journal == nil {
		return
	}
	rec.Timestamp = time.Now().UnixMilli()
	rec.Symbol = r.cfg.Strategy.Symbol
	rec.Attempt = int32(r.attempt)
	r.journal.Record(rec)
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func decisionFields(d engine.Decision) logger.Fields {
	return logger.Fields{
		"spread":        d.Spread,
		"imbalance":     d.Imbalance,
		"volatility":    d.Volatility,
		"vol_estimated": d.VolEstimated,
	}
}
