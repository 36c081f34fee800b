// Package bot drives the quoting engine against a venue: it places bracket
// orders and runs the polling loop around the decision engine.
package bot

import (
	"context"

	"quoteflow/logger"
	"quoteflow/models"
	"quoteflow/venue"
)

// PlaceBracket submits the buy leg below the ask and then the sell leg
// above the bid. If the buy fails nothing was placed and the sell is never
// attempted. If the sell fails after the buy was accepted, the returned
// error carries the live buy order id: the resulting naked position is
// surfaced, not rolled back, since the venue contract has no cancellation.
func PlaceBracket(ctx context.Context, trader venue.Trader, symbol string, quantity, buyPrice, sellPrice float64) (*models.BracketResult, error) {
	log := logger.GetLogger().WithComponent("orchestrator").WithFields(logger.Fields{
		"symbol":   symbol,
		"quantity": quantity,
	})

	log.WithFields(logger.Fields{"price": buyPrice, "side": models.SideBuy}).Info("placing buy limit order")
	buyID, err := trader.PlaceLimitOrder(ctx, symbol, models.SideBuy, quantity, buyPrice)
	if err != nil {
		return nil, &models.OrderPlacementError{Leg: models.SideBuy, Symbol: symbol, Price: buyPrice, Err: err}
	}
	log.WithFields(logger.Fields{"order_id": buyID}).Info("buy order accepted")

	log.WithFields(logger.Fields{"price": sellPrice, "side": models.SideSell}).Info("placing sell limit order")
	sellID, err := trader.PlaceLimitOrder(ctx, symbol, models.SideSell, quantity, sellPrice)
	if err != nil {
		return nil, &models.OrderPlacementError{
			Leg:        models.SideSell,
			Symbol:     symbol,
			Price:      sellPrice,
			BuyOrderID: buyID,
			Err:        err,
		}
	}
	log.WithFields(logger.Fields{"order_id": sellID}).Info("sell order accepted")

	return &models.BracketResult{
		Symbol: symbol,
		Buy:    models.OrderResult{Side: models.SideBuy, Price: buyPrice, OrderID: buyID},
		Sell:   models.OrderResult{Side: models.SideSell, Price: sellPrice, OrderID: sellID},
	}, nil
}
