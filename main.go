package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"quoteflow/bot"
	"quoteflow/config"
	"quoteflow/engine"
	"quoteflow/feed"
	"quoteflow/journal"
	"quoteflow/logger"
	"quoteflow/venue"
	"quoteflow/venue/binance"
	"quoteflow/venue/bybit"
	"quoteflow/venue/kucoin"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	once := flag.Bool("once", false, "Place a single unfiltered bracket and exit")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Quoteflow.Name,
		"version": cfg.Quoteflow.Version,
		"venue":   cfg.Venue.Name,
		"symbol":  cfg.Strategy.Symbol,
		"dry_run": cfg.Loop.DryRun,
	}).Info("starting quoteflow")

	if cfg.Metrics.CloudWatch.Enabled {
		logger.InitCloudWatch(cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
	}

	v := buildVenue(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		cancel()
	}()

	if *once {
		e := engine.New(cfg.Strategy, engine.WithoutFilters())
		result, err := bot.RunOnce(ctx, cfg, v, e)
		if err != nil {
			log.WithError(err).Error("single shot failed")
			os.Exit(1)
		}
		log.WithFields(logger.Fields{
			"buy_order_id":  result.Buy.OrderID,
			"sell_order_id": result.Sell.OrderID,
		}).Info("single shot completed")
		return
	}

	opts := []bot.RunnerOption{}

	var ticker *feed.BookTicker
	if cfg.Feed.Enabled {
		ticker = feed.New(cfg)
		if err := ticker.Start(ctx); err != nil {
			log.WithError(err).Error("Failed to start feed")
			os.Exit(1)
		}
		opts = append(opts, bot.WithMidSource(ticker))
	}

	var jnl *journal.Journal
	if cfg.Journal.Enabled {
		jnl, err = journal.New(cfg)
		if err != nil {
			log.WithError(err).Error("Failed to create journal")
			os.Exit(1)
		}
		if err := jnl.Start(ctx); err != nil {
			log.WithError(err).Error("Failed to start journal")
			os.Exit(1)
		}
		opts = append(opts, bot.WithRecorder(jnl))
	}

	runner := bot.NewRunner(cfg, v, engine.New(cfg.Strategy), opts...)
	runErr := runner.Run(ctx)

	log.Info("starting graceful shutdown")
	cancel()

	if jnl != nil {
		log.Info("stopping journal")
		jnl.Stop()
	}
	if ticker != nil {
		log.Info("stopping feed")
		ticker.Stop()
	}

	if runErr != nil && runErr != context.Canceled {
		log.WithError(runErr).Error("trading loop failed")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{"attempts": runner.Attempts()}).Info("quoteflow stopped")
}

// buildVenue wires the configured venue. Market-data-only venues and dry-run
// mode are wrapped into a paper venue that records orders locally.
func buildVenue(cfg *config.Config) venue.Venue {
	switch cfg.Venue.Name {
	case "bybit":
		return venue.NewDryRun(bybit.New(cfg))
	case "kucoin":
		return venue.NewDryRun(kucoin.New(cfg))
	default:
		b := binance.New(cfg)
		if cfg.Loop.DryRun {
			return venue.NewDryRun(b)
		}
		return b
	}
}
