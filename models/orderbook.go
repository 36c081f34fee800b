package models

import (
	"time"
)

// BookLevel represents a single price level in the orderbook
type BookLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderbookSnapshot represents a depth-limited view of one symbol's book.
// Bids are sorted descending and asks ascending; both sides are guaranteed
// non-empty for any snapshot built through NewSnapshot.
type OrderbookSnapshot struct {
	Symbol    string      `json:"symbol"`
	BestBid   float64     `json:"best_bid"`
	BestAsk   float64     `json:"best_ask"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewSnapshot normalizes raw venue depth data into an OrderbookSnapshot.
// An empty or missing side is unusable for quoting and yields a
// MarketDataError.
func NewSnapshot(symbol string, bids, asks []BookLevel) (*OrderbookSnapshot, error) {
	if len(bids) == 0 {
		return nil, &MarketDataError{Symbol: symbol, Side: "bids"}
	}
	if len(asks) == 0 {
		return nil, &MarketDataError{Symbol: symbol, Side: "asks"}
	}

	return &OrderbookSnapshot{
		Symbol:    symbol,
		BestBid:   bids[0].Price,
		BestAsk:   asks[0].Price,
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Spread returns best ask minus best bid.
func (s *OrderbookSnapshot) Spread() float64 {
	return s.BestAsk - s.BestBid
}

// Mid returns the mid price between best bid and best ask.
func (s *OrderbookSnapshot) Mid() float64 {
	return (s.BestBid + s.BestAsk) / 2
}
