package models

import "fmt"

// ConfigError reports a missing or invalid startup parameter. It is fatal
// and must abort the process before any trading activity.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// MarketDataError reports an unusable orderbook, typically an empty or
// missing side. Recoverable in the loop, fatal in single-shot mode.
type MarketDataError struct {
	Symbol string
	Side   string
}

func (e *MarketDataError) Error() string {
	return fmt.Sprintf("orderbook for %s missing %s", e.Symbol, e.Side)
}

// InvalidPriceError reports a non-positive computed limit price.
type InvalidPriceError struct {
	Side  Side
	Price float64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid %s price: %.8f", e.Side, e.Price)
}

// OrderPlacementError reports a failed order submission. Leg identifies
// which side failed. When the buy leg was already accepted and the sell leg
// failed, BuyOrderID carries the live order so the resulting naked position
// can be reconstructed from logs.
type OrderPlacementError struct {
	Leg        Side
	Symbol     string
	Price      float64
	BuyOrderID string
	Err        error
}

func (e *OrderPlacementError) Error() string {
	if e.BuyOrderID != "" {
		return fmt.Sprintf("placing %s order for %s at %.8f: %v (buy leg %s is live)",
			e.Leg, e.Symbol, e.Price, e.Err, e.BuyOrderID)
	}
	return fmt.Sprintf("placing %s order for %s at %.8f: %v", e.Leg, e.Symbol, e.Price, e.Err)
}

func (e *OrderPlacementError) Unwrap() error {
	return e.Err
}
