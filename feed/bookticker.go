// Package feed streams best bid/ask updates over websocket and buffers the
// resulting mid prices. The trading loop drains the buffer between cycles
// to warm the volatility window faster than polling alone would; the feed
// itself never touches the rolling window.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	appconfig "quoteflow/config"
	"quoteflow/logger"
)

const defaultStreamURL = "wss://fstream.binance.com/ws"

const reconnectDelay = 5 * time.Second

// cap on buffered mids; older samples are discarded first. The volatility
// window holds at most 50, so anything beyond this is stale anyway.
const maxBuffered = 256

// bookTickerEvent mirrors the futures bookTicker stream payload.
type bookTickerEvent struct {
	Event   string `json:"e"`
	Symbol  string `json:"s"`
	BidPx   string `json:"b"`
	BidQty  string `json:"B"`
	AskPx   string `json:"a"`
	AskQty  string `json:"A"`
	EventTs int64  `json:"E"`
}

// BookTicker subscribes to a symbol's bookTicker stream and buffers mids.
type BookTicker struct {
	url     string
	symbol  string
	ctx     context.Context
	wg      *sync.WaitGroup
	mu      sync.Mutex
	running bool
	mids    []float64
	log     *logger.Log
}

// New creates a BookTicker for the configured feed URL and symbol.
func New(cfg *appconfig.Config) *BookTicker {
	url := cfg.Feed.URL
	if url == "" {
		url = defaultStreamURL
	}
	return &BookTicker{
		url:    url,
		symbol: cfg.Strategy.Symbol,
		wg:     &sync.WaitGroup{},
		log:    logger.GetLogger(),
	}
}

// Start launches the stream worker. It reconnects with a fixed delay until
// the context is cancelled.
func (b *BookTicker) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("feed already running")
	}
	b.running = true
	b.ctx = ctx
	b.mu.Unlock()

	b.log.WithComponent("feed").WithFields(logger.Fields{
		"url":    b.url,
		"symbol": b.symbol,
	}).Info("starting bookticker feed")

	b.wg.Add(1)
	go b.stream()
	return nil
}

// Stop waits for the stream worker to exit.
func (b *BookTicker) Stop() {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()

	b.wg.Wait()
	b.log.WithComponent("feed").Info("bookticker feed stopped")
}

// Drain returns the buffered mids in arrival order and clears the buffer.
func (b *BookTicker) Drain() []float64 {
	b.mu.Lock()
	mids := b.mids
	b.mids = nil
	b.mu.Unlock()
	return mids
}

func (b *BookTicker) stream() {
	defer b.wg.Done()

	log := b.log.WithComponent("feed").WithFields(logger.Fields{
		"worker": "bookticker_stream",
	})

	streamURL := fmt.Sprintf("%s/%s@bookTicker", strings.TrimRight(b.url, "/"), strings.ToLower(b.symbol))

	for {
		if b.ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(b.ctx, streamURL, nil)
		if err != nil {
			log.WithError(err).Warn("failed to connect feed")
			if !b.sleep(reconnectDelay) {
				return
			}
			continue
		}

		log.WithFields(logger.Fields{"stream": streamURL}).Info("feed connected")
		b.readLoop(conn, log)
		conn.Close()

		if !b.sleep(reconnectDelay) {
			return
		}
	}
}

func (b *BookTicker) readLoop(conn *websocket.Conn, log *logger.Entry) {
	go func() {
		<-b.ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if b.ctx.Err() == nil {
				log.WithError(err).Warn("feed read error, reconnecting")
			}
			return
		}

		mid, err := parseMid(data)
		if err != nil {
			log.WithError(err).Debug("skipping unparsable feed message")
			continue
		}
		b.push(mid)
	}
}

func (b *BookTicker) push(mid float64) {
	b.mu.Lock()
	b.mids = append(b.mids, mid)
	if len(b.mids) > maxBuffered {
		b.mids = b.mids[len(b.mids)-maxBuffered:]
	}
	b.mu.Unlock()
}

func (b *BookTicker) sleep(d time.Duration) bool {
	select {
	case <-b.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// parseMid extracts the mid price from a bookTicker message.
func parseMid(data []byte) (float64, error) {
	var ev bookTickerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return 0, err
	}

	bid, err := strconv.ParseFloat(ev.BidPx, 64)
	if err != nil {
		return 0, fmt.Errorf("bid %q: %w", ev.BidPx, err)
	}
	ask, err := strconv.ParseFloat(ev.AskPx, 64)
	if err != nil {
		return 0, fmt.Errorf("ask %q: %w", ev.AskPx, err)
	}

	return (bid + ask) / 2, nil
}
