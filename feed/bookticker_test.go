package feed

import (
	"testing"

	appconfig "quoteflow/config"
)

func TestParseMid(t *testing.T) {
	msg := []byte(`{"e":"bookTicker","u":400900217,"s":"BTCUSDT","b":"100.00","B":"31.21","a":"101.00","A":"40.66","E":1568014460893}`)

	mid, err := parseMid(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mid != 100.5 {
		t.Fatalf("mid = %v, want 100.5", mid)
	}
}

func TestParseMidMalformed(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`{"e":"bookTicker","b":"","a":"101.00"}`),
		[]byte(`{"e":"bookTicker","b":"100.00","a":"abc"}`),
	}
	for _, msg := range cases {
		if _, err := parseMid(msg); err == nil {
			t.Fatalf("expected error for %s", msg)
		}
	}
}

func TestDrainClearsBuffer(t *testing.T) {
	b := New(&appconfig.Config{Strategy: appconfig.StrategyConfig{Symbol: "BTCUSDT"}})
	b.push(100.5)
	b.push(100.6)

	mids := b.Drain()
	if len(mids) != 2 || mids[0] != 100.5 || mids[1] != 100.6 {
		t.Fatalf("mids = %v", mids)
	}
	if got := b.Drain(); len(got) != 0 {
		t.Fatalf("expected empty buffer after drain, got %v", got)
	}
}

func TestPushBounded(t *testing.T) {
	b := New(&appconfig.Config{Strategy: appconfig.StrategyConfig{Symbol: "BTCUSDT"}})
	for i := 0; i < maxBuffered+10; i++ {
		b.push(float64(i))
	}

	mids := b.Drain()
	if len(mids) != maxBuffered {
		t.Fatalf("buffer length = %d, want %d", len(mids), maxBuffered)
	}
	if mids[len(mids)-1] != float64(maxBuffered+9) {
		t.Fatalf("newest sample lost: %v", mids[len(mids)-1])
	}
}
