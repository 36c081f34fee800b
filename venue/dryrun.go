package venue

import (
	"context"

	"github.com/google/uuid"

	"quoteflow/logger"
	"quoteflow/models"
)

// DryRun wraps any market data source into a Venue that records orders
// instead of submitting them. Minted order ids are uuids so downstream
// correlation behaves exactly as with a live venue. This is how paper
// trading works, and how market-data-only venues become quotable.
type DryRun struct {
	MarketData
	log    *logger.Log
	placed []OpenOrder
}

// NewDryRun creates a paper venue over the given market data source.
func NewDryRun(md MarketData) *DryRun {
	return &DryRun{
		MarketData: md,
		log:        logger.GetLogger(),
	}
}

// FetchOpenOrders reports no resting orders: paper orders are assumed
// filled immediately, so the loop never blocks on them.
func (d *DryRun) FetchOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	return nil, nil
}

// PlaceLimitOrder logs the order and mints a synthetic order id.
func (d *DryRun) PlaceLimitOrder(ctx context.Context, symbol string, side models.Side, quantity, price float64) (string, error) {
	id := uuid.New().String()
	d.placed = append(d.placed, OpenOrder{OrderID: id, Symbol: symbol, Side: side, Price: price})

	d.log.WithComponent("dryrun_venue").WithFields(logger.Fields{
		"symbol":   symbol,
		"side":     side,
		"quantity": quantity,
		"price":    price,
		"order_id": id,
	}).Info("dry run: order not submitted")

	return id, nil
}

// Placed returns every order recorded so far, in placement order.
func (d *DryRun) Placed() []OpenOrder {
	return d.placed
}
