package models

// Side identifies the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderResult records one placed limit order leg.
type OrderResult struct {
	Side    Side    `json:"side"`
	Price   float64 `json:"price"`
	OrderID string  `json:"order_id"`
}

// BracketResult pairs exactly one buy and one sell leg. It is only
// constructed after both legs were accepted by the venue.
type BracketResult struct {
	Symbol string      `json:"symbol"`
	Buy    OrderResult `json:"buy"`
	Sell   OrderResult `json:"sell"`
}
