package engine

import "math"

// PriceWindow is a fixed-capacity ring buffer of mid prices. The oldest
// sample is evicted once capacity is exceeded. Insertion order is
// preserved by Values.
type PriceWindow struct {
	prices []float64
	start  int
	count  int
}

// NewPriceWindow creates a window holding at most capacity samples.
func NewPriceWindow(capacity int) *PriceWindow {
	return &PriceWindow{prices: make([]float64, capacity)}
}

// Append adds a price, evicting the oldest sample when the window is full.
func (w *PriceWindow) Append(price float64) {
	if w.count < len(w.prices) {
		w.prices[(w.start+w.count)%len(w.prices)] = price
		w.count++
		return
	}
	w.prices[w.start] = price
	w.start = (w.start + 1) % len(w.prices)
}

// Len returns the number of samples currently held.
func (w *PriceWindow) Len() int {
	return w.count
}

// Values returns the samples in insertion order, oldest first.
func (w *PriceWindow) Values() []float64 {
	out := make([]float64, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.prices[(w.start+i)%len(w.prices)]
	}
	return out
}

// VolatilityEstimator maintains a rolling window of mid prices and reports
// the realized volatility of their log returns. It is owned by the loop and
// must not be shared across goroutines.
type VolatilityEstimator struct {
	window     *PriceWindow
	minSamples int
}

// NewVolatilityEstimator creates an estimator over a window of windowSize
// samples. Realized reports insufficient data until minSamples mids have
// been observed.
func NewVolatilityEstimator(windowSize, minSamples int) *VolatilityEstimator {
	return &VolatilityEstimator{
		window:     NewPriceWindow(windowSize),
		minSamples: minSamples,
	}
}

// Observe appends a mid price to the rolling window.
func (e *VolatilityEstimator) Observe(mid float64) {
	e.window.Append(mid)
}

// Samples returns the number of mids currently in the window.
func (e *VolatilityEstimator) Samples() int {
	return e.window.Len()
}

// Realized returns the sample standard deviation of consecutive log returns
// over the entire current window. ok is false while the window holds fewer
// than the configured minimum number of samples; callers treat that as
// pass-through rather than a veto.
func (e *VolatilityEstimator) Realized() (vol float64, ok bool) {
	if e.window.Len() < e.minSamples {
		return 0, false
	}

	prices := e.window.Values()
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	// sample variance, n-1 denominator
	return math.Sqrt(ss / float64(len(returns)-1)), true
}
