package engine

import "quoteflow/models"

// ComputeImbalance returns the order book imbalance over the top depth
// levels of each side: bid volume divided by total volume, always in [0,1].
// A completely empty book (both volumes zero) is treated as neutral 0.5
// rather than dividing by zero.
func ComputeImbalance(bids, asks []models.BookLevel, depth int) float64 {
	bidVol := sumQuantity(bids, depth)
	askVol := sumQuantity(asks, depth)

	total := bidVol + askVol
	if total == 0 {
		return 0.5
	}
	return bidVol / total
}

func sumQuantity(levels []models.BookLevel, depth int) float64 {
	if depth > len(levels) {
		depth = len(levels)
	}
	var sum float64
	for _, lvl := range levels[:depth] {
		sum += lvl.Quantity
	}
	return sum
}
