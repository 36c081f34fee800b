package engine

import "quoteflow/models"

// BracketPrices computes the bracket quote around the spread: a buy limit
// below the best ask and a sell limit above the best bid. A non-positive
// computed price yields an InvalidPriceError.
func BracketPrices(bestBid, bestAsk, offset float64) (buy, sell float64, err error) {
	buy = bestAsk - offset
	if buy <= 0 {
		return 0, 0, &models.InvalidPriceError{Side: models.SideBuy, Price: buy}
	}

	sell = bestBid + offset
	if sell <= 0 {
		return 0, 0, &models.InvalidPriceError{Side: models.SideSell, Price: sell}
	}

	return buy, sell, nil
}
