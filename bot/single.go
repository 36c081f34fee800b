package bot

import (
	"context"
	"fmt"

	appconfig "quoteflow/config"
	"quoteflow/engine"
	"quoteflow/logger"
	"quoteflow/models"
	"quoteflow/venue"
)

// RunOnce performs one unfiltered bracket placement: fetch the book, price
// the bracket, submit both legs. Every error propagates to the caller; this
// is the fail-fast single-shot mode.
func RunOnce(ctx context.Context, cfg *appconfig.Config, v venue.Venue, e *engine.Engine) (*models.BracketResult, error) {
	log := logger.GetLogger().WithComponent("single_shot").WithFields(logger.Fields{
		"symbol": cfg.Strategy.Symbol,
	})

	log.Info("fetching orderbook")
	snap, err := v.FetchOrderBook(ctx, cfg.Strategy.Symbol, cfg.Strategy.DepthLimit)
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{
		"best_bid": snap.BestBid,
		"best_ask": snap.BestAsk,
	}).Info("orderbook fetched")

	decision, err := e.Evaluate(snap)
	if err != nil {
		return nil, err
	}
	if !decision.Proceed {
		return nil, fmt.Errorf("quoting vetoed: %s", decision.Reason)
	}

	result, err := PlaceBracket(ctx, v, cfg.Strategy.Symbol, cfg.Strategy.Quantity, decision.BuyPrice, decision.SellPrice)
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"buy_order_id":  result.Buy.OrderID,
		"buy_price":     result.Buy.Price,
		"sell_order_id": result.Sell.OrderID,
		"sell_price":    result.Sell.Price,
	}).Info("bracket placed")

	return result, nil
}
