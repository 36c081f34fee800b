// Package bybit provides a market-data venue over Bybit's v5 UTA API.
// Bybit books can be quoted against in dry-run mode; order placement is not
// wired here.
package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	bybit "github.com/bybit-exchange/bybit.go.api"

	appconfig "quoteflow/config"
	"quoteflow/logger"
	"quoteflow/models"
)

// MarketData fetches linear futures order book snapshots from Bybit.
type MarketData struct {
	client *bybit.Client
	log    *logger.Log
}

// orderbookResult mirrors the v5 orderbook payload: levels are
// [price, size] string pairs.
type orderbookResult struct {
	Symbol   string     `json:"s"`
	Bids     [][]string `json:"b"`
	Asks     [][]string `json:"a"`
	Ts       int64      `json:"ts"`
	UpdateID int64      `json:"u"`
}

// New creates a Bybit market-data venue.
func New(cfg *appconfig.Config) *MarketData {
	log := logger.GetLogger()

	transport := &http.Transport{
		MaxIdleConns:        cfg.Venue.ConnectionPool.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Venue.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:     cfg.Venue.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:     cfg.Venue.ConnectionPool.IdleConnTimeout,
		DisableCompression:  false,
	}
	httpClient := &http.Client{Transport: transport, Timeout: cfg.Venue.Timeout}

	opts := []bybit.ClientOption{}
	if cfg.Venue.Bybit.URL != "" {
		base := cfg.Venue.Bybit.URL
		if parsed, err := url.Parse(base); err == nil {
			base = fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
		}
		opts = append(opts, bybit.WithBaseURL(base))
	}

	client := bybit.NewBybitHttpClient("", "", opts...)
	client.HTTPClient = httpClient

	log.WithComponent("bybit_venue").WithFields(logger.Fields{
		"timeout": cfg.Venue.Timeout,
	}).Info("bybit venue initialized")

	return &MarketData{client: client, log: log}
}

// FetchOrderBook fetches a depth-limited snapshot for the symbol.
func (m *MarketData) FetchOrderBook(ctx context.Context, symbol string, limit int) (*models.OrderbookSnapshot, error) {
	params := map[string]interface{}{
		"category": "linear",
		"symbol":   symbol,
		"limit":    limit,
	}

	resp, err := m.client.NewUtaBybitServiceWithParams(params).GetOrderBookInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch orderbook for %s: %w", symbol, err)
	}

	payload, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal orderbook for %s: %w", symbol, err)
	}
	var result orderbookResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode orderbook for %s: %w", symbol, err)
	}

	bids, err := parsePairs(result.Bids)
	if err != nil {
		return nil, fmt.Errorf("parse bids for %s: %w", symbol, err)
	}
	asks, err := parsePairs(result.Asks)
	if err != nil {
		return nil, fmt.Errorf("parse asks for %s: %w", symbol, err)
	}

	return models.NewSnapshot(symbol, bids, asks)
}

func parsePairs(pairs [][]string) ([]models.BookLevel, error) {
	out := make([]models.BookLevel, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) < 2 {
			return nil, fmt.Errorf("malformed level %v", pair)
		}
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			return nil, fmt.Errorf("price %q: %w", pair[0], err)
		}
		qty, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			return nil, fmt.Errorf("quantity %q: %w", pair[1], err)
		}
		out = append(out, models.BookLevel{Price: price, Quantity: qty})
	}
	return out, nil
}
