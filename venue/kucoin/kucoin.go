// Package kucoin provides a market-data venue over KuCoin's futures level2
// snapshot endpoint. Like bybit, it is quotable only in dry-run mode.
package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	appconfig "quoteflow/config"
	"quoteflow/logger"
	"quoteflow/models"
)

const defaultSnapshotURL = "https://api-futures.kucoin.com/api/v1/level2/depth100"

// MarketData fetches futures order book snapshots from KuCoin.
type MarketData struct {
	client      *http.Client
	snapshotURL string
	log         *logger.Log
}

// New creates a KuCoin market-data venue.
func New(cfg *appconfig.Config) *MarketData {
	log := logger.GetLogger()

	transport := &http.Transport{
		MaxIdleConns:        cfg.Venue.ConnectionPool.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Venue.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:     cfg.Venue.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:     cfg.Venue.ConnectionPool.IdleConnTimeout,
		DisableCompression:  false,
	}

	snapshotURL := cfg.Venue.Kucoin.URL
	if snapshotURL == "" {
		snapshotURL = defaultSnapshotURL
	}

	log.WithComponent("kucoin_venue").WithFields(logger.Fields{
		"base_url": snapshotURL,
	}).Info("kucoin venue initialized")

	return &MarketData{
		client:      &http.Client{Transport: transport, Timeout: cfg.Venue.Timeout},
		snapshotURL: snapshotURL,
		log:         log,
	}
}

// FetchOrderBook fetches a snapshot for the symbol. KuCoin's level2
// endpoints return the full supported depth; the limit truncates locally.
func (m *MarketData) FetchOrderBook(ctx context.Context, symbol string, limit int) (*models.OrderbookSnapshot, error) {
	reqURL, err := url.Parse(m.snapshotURL)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot URL: %w", err)
	}
	q := reqURL.Query()
	q.Set("symbol", symbol)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", symbol, err)
	}

	res, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch orderbook for %s: %w", symbol, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch orderbook for %s: status %d", symbol, res.StatusCode)
	}

	var resp struct {
		Code string `json:"code"`
		Data struct {
			Sequence int64       `json:"sequence"`
			Bids     [][]float64 `json:"bids"`
			Asks     [][]float64 `json:"asks"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode orderbook for %s: %w", symbol, err)
	}

	return models.NewSnapshot(symbol, toLevels(resp.Data.Bids, limit), toLevels(resp.Data.Asks, limit))
}

func toLevels(pairs [][]float64, limit int) []models.BookLevel {
	out := make([]models.BookLevel, 0, limit)
	for _, pair := range pairs {
		if len(pair) < 2 {
			continue
		}
		out = append(out, models.BookLevel{Price: pair[0], Quantity: pair[1]})
		if len(out) == limit {
			break
		}
	}
	return out
}
