// Package venue defines the contracts between the decision engine and the
// exchanges it trades against.
package venue

import (
	"context"

	"quoteflow/models"
)

// OpenOrder is one resting order as reported by the venue.
type OpenOrder struct {
	OrderID string
	Symbol  string
	Side    models.Side
	Price   float64
}

// MarketData fetches depth-limited order book snapshots. All venue adapters
// implement it.
type MarketData interface {
	FetchOrderBook(ctx context.Context, symbol string, limit int) (*models.OrderbookSnapshot, error)
}

// Trader submits orders and reports resting ones. Submissions are
// synchronous and are never retried implicitly; a returned error means the
// order may not exist on the venue.
type Trader interface {
	FetchOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error)
	PlaceLimitOrder(ctx context.Context, symbol string, side models.Side, quantity, price float64) (string, error)
}

// Venue is a fully capable exchange connection.
type Venue interface {
	MarketData
	Trader
}
