// Package binance implements the quoteflow venue contract on Binance
// USDT-M futures through the go-binance SDK.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	futures "github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"

	appconfig "quoteflow/config"
	"quoteflow/logger"
	"quoteflow/models"
	"quoteflow/venue"
)

// Venue is a fully capable Binance futures connection: market data, open
// order polling and limit order placement.
type Venue struct {
	client  *futures.Client
	limiter *rate.Limiter
	log     *logger.Log
}

// New creates a Binance venue using the configured connection pool, rate
// limit and credentials. An empty URL keeps the SDK's production endpoint.
func New(cfg *appconfig.Config) *Venue {
	log := logger.GetLogger()

	transport := &http.Transport{
		MaxIdleConns:        cfg.Venue.ConnectionPool.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Venue.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:     cfg.Venue.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:     cfg.Venue.ConnectionPool.IdleConnTimeout,
		DisableCompression:  false,
	}

	client := futures.NewClient(cfg.Venue.Binance.APIKey, cfg.Venue.Binance.APISecret)
	client.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   cfg.Venue.Timeout,
	}

	if cfg.Venue.Binance.URL != "" {
		if parsed, err := url.Parse(cfg.Venue.Binance.URL); err == nil {
			client.SetApiEndpoint(fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host))
		}
	}

	v := &Venue{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.Venue.RateLimit.RequestsPerSecond), cfg.Venue.RateLimit.BurstSize),
		log:     log,
	}

	log.WithComponent("binance_venue").WithFields(logger.Fields{
		"timeout":            cfg.Venue.Timeout,
		"max_conns_per_host": cfg.Venue.ConnectionPool.MaxConnsPerHost,
	}).Info("binance venue initialized")

	return v
}

// FetchOrderBook fetches a depth-limited snapshot for the symbol.
func (v *Venue) FetchOrderBook(ctx context.Context, symbol string, limit int) (*models.OrderbookSnapshot, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := v.client.NewDepthService().Symbol(symbol).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch orderbook for %s: %w", symbol, err)
	}

	bids, err := parseBidLevels(res.Bids)
	if err != nil {
		return nil, fmt.Errorf("parse bids for %s: %w", symbol, err)
	}
	asks, err := parseAskLevels(res.Asks)
	if err != nil {
		return nil, fmt.Errorf("parse asks for %s: %w", symbol, err)
	}

	return models.NewSnapshot(symbol, bids, asks)
}

// FetchOpenOrders lists the resting orders for the symbol.
func (v *Venue) FetchOpenOrders(ctx context.Context, symbol string) ([]venue.OpenOrder, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	orders, err := v.client.NewListOpenOrdersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch open orders for %s: %w", symbol, err)
	}

	out := make([]venue.OpenOrder, 0, len(orders))
	for _, o := range orders {
		price, _ := strconv.ParseFloat(o.Price, 64)
		out = append(out, venue.OpenOrder{
			OrderID: strconv.FormatInt(o.OrderID, 10),
			Symbol:  o.Symbol,
			Side:    models.Side(o.Side),
			Price:   price,
		})
	}
	return out, nil
}

// PlaceLimitOrder submits a GTC limit order and returns the venue order id.
func (v *Venue) PlaceLimitOrder(ctx context.Context, symbol string, side models.Side, quantity, price float64) (string, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return "", err
	}

	res, err := v.client.NewCreateOrderService().
		Symbol(symbol).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeLimit).
		TimeInForce(futures.TimeInForceTypeGTC).
		Quantity(strconv.FormatFloat(quantity, 'f', -1, 64)).
		Price(strconv.FormatFloat(price, 'f', -1, 64)).
		Do(ctx)
	if err != nil {
		return "", err
	}

	v.log.WithComponent("binance_venue").WithFields(logger.Fields{
		"symbol":   symbol,
		"side":     side,
		"price":    price,
		"order_id": res.OrderID,
	}).Info("limit order placed")

	return strconv.FormatInt(res.OrderID, 10), nil
}

func parseBidLevels(bids []futures.Bid) ([]models.BookLevel, error) {
	out := make([]models.BookLevel, 0, len(bids))
	for _, b := range bids {
		lvl, err := parseLevel(b.Price, b.Quantity)
		if err != nil {
			return nil, err
		}
		out = append(out, lvl)
	}
	return out, nil
}

func parseAskLevels(asks []futures.Ask) ([]models.BookLevel, error) {
	out := make([]models.BookLevel, 0, len(asks))
	for _, a := range asks {
		lvl, err := parseLevel(a.Price, a.Quantity)
		if err != nil {
			return nil, err
		}
		out = append(out, lvl)
	}
	return out, nil
}

func parseLevel(price, quantity string) (models.BookLevel, error) {
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return models.BookLevel{}, fmt.Errorf("price %q: %w", price, err)
	}
	q, err := strconv.ParseFloat(quantity, 64)
	if err != nil {
		return models.BookLevel{}, fmt.Errorf("quantity %q: %w", quantity, err)
	}
	return models.BookLevel{Price: p, Quantity: q}, nil
}
