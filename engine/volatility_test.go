package engine

import (
	"math"
	"testing"
)

func TestPriceWindowEviction(t *testing.T) {
	w := NewPriceWindow(50)
	for i := 1; i <= 51; i++ {
		w.Append(float64(i))
	}

	if w.Len() != 50 {
		t.Fatalf("len = %d, want 50", w.Len())
	}
	values := w.Values()
	if values[0] != 2 {
		t.Fatalf("oldest = %v, want 2 after eviction", values[0])
	}
	if values[49] != 51 {
		t.Fatalf("newest = %v, want 51", values[49])
	}
}

func TestPriceWindowOrder(t *testing.T) {
	w := NewPriceWindow(3)
	for _, p := range []float64{1, 2, 3, 4, 5} {
		w.Append(p)
	}
	values := w.Values()
	want := []float64{3, 4, 5}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("values = %v, want %v", values, want)
		}
	}
}

func TestRealizedInsufficientData(t *testing.T) {
	e := NewVolatilityEstimator(50, 10)
	// nine wildly swinging samples must still report insufficient data
	for i := 0; i < 9; i++ {
		if i%2 == 0 {
			e.Observe(100)
		} else {
			e.Observe(200)
		}
	}
	if _, ok := e.Realized(); ok {
		t.Fatal("expected insufficient data below 10 samples")
	}

	e.Observe(100)
	if _, ok := e.Realized(); !ok {
		t.Fatal("expected estimate at 10 samples")
	}
}

func TestRealizedConstantPrices(t *testing.T) {
	e := NewVolatilityEstimator(50, 10)
	for i := 0; i < 20; i++ {
		e.Observe(100)
	}
	vol, ok := e.Realized()
	if !ok {
		t.Fatal("expected estimate")
	}
	if vol != 0 {
		t.Fatalf("vol = %v, want 0 for constant prices", vol)
	}
}

func TestRealizedKnownSeries(t *testing.T) {
	e := NewVolatilityEstimator(50, 10)
	// alternate +1%/-1% style moves: log returns alternate between
	// ln(1.01) and ln(1/1.01), mean 0, sample std = |ln(1.01)| * sqrt(n/(n-1))
	price := 100.0
	e.Observe(price)
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			price *= 1.01
		} else {
			price /= 1.01
		}
		e.Observe(price)
	}

	vol, ok := e.Realized()
	if !ok {
		t.Fatal("expected estimate")
	}
	r := math.Log(1.01)
	n := 10.0
	want := r * math.Sqrt(n/(n-1))
	if math.Abs(vol-want) > 1e-12 {
		t.Fatalf("vol = %v, want %v", vol, want)
	}
}

func TestRealizedUsesFullWindow(t *testing.T) {
	// one old shock plus recent calm: full-window volatility stays elevated
	e := NewVolatilityEstimator(50, 10)
	e.Observe(100)
	e.Observe(150)
	for i := 0; i < 20; i++ {
		e.Observe(150)
	}
	vol, ok := e.Realized()
	if !ok {
		t.Fatal("expected estimate")
	}
	if vol == 0 {
		t.Fatal("expected shock outside the most recent samples to still register")
	}
}
