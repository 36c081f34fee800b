package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"quoteflow/models"
)

type Config struct {
	Quoteflow QuoteflowConfig `yaml:"quoteflow"`
	Logging   LoggingConfig   `yaml:"logging"`
	Venue     VenueConfig     `yaml:"venue"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Loop      LoopConfig      `yaml:"loop"`
	Feed      FeedConfig      `yaml:"feed"`
	Journal   JournalConfig   `yaml:"journal"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type QuoteflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type VenueConfig struct {
	Name           string               `yaml:"name"`
	Timeout        time.Duration        `yaml:"timeout"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	Binance        BinanceVenueConfig   `yaml:"binance"`
	Bybit          BybitVenueConfig     `yaml:"bybit"`
	Kucoin         KucoinVenueConfig    `yaml:"kucoin"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type BinanceVenueConfig struct {
	URL       string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

type BybitVenueConfig struct {
	URL string `yaml:"url"`
}

type KucoinVenueConfig struct {
	URL string `yaml:"url"`
}

// StrategyConfig holds the quoting parameters. It is loaded once at startup
// and never mutated afterwards.
type StrategyConfig struct {
	Symbol        string  `yaml:"symbol"`
	Quantity      float64 `yaml:"quantity"`
	Offset        float64 `yaml:"offset"`
	MinSpread     float64 `yaml:"min_spread"`
	MaxSpread     float64 `yaml:"max_spread"`
	OBITolerance  float64 `yaml:"obi_tolerance"`
	MaxVolatility float64 `yaml:"max_volatility"`
	OBIDepth      int     `yaml:"obi_depth"`
	WindowSize    int     `yaml:"window_size"`
	MinSamples    int     `yaml:"min_samples"`
	DepthLimit    int     `yaml:"depth_limit"`
}

type LoopConfig struct {
	MaxAttempts      int  `yaml:"max_attempts"`
	WaitSeconds      int  `yaml:"wait_seconds"`
	SkipWaitSeconds  int  `yaml:"skip_wait_seconds"`
	ErrorWaitSeconds int  `yaml:"error_wait_seconds"`
	DryRun           bool `yaml:"dry_run"`
}

type FeedConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

type JournalConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Directory     string        `yaml:"directory"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	S3            S3Config      `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

// LoadConfig reads and validates the configuration file. Credentials are
// only ever taken from the environment; the yaml fields exist so tests can
// construct configs directly.
func LoadConfig(path string) (*Config, error) {
	path = resolveEnvSpecificPath(path, defaultConfigPath, envConfigPaths)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ConfigError{Field: "config", Reason: err.Error()}
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, &models.ConfigError{Field: "config", Reason: "unparsable yaml: " + err.Error()}
	}

	applyEnvOverrides(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Venue: VenueConfig{
			Name:    "binance",
			Timeout: 10 * time.Second,
			ConnectionPool: ConnectionPoolConfig{
				MaxIdleConns:    10,
				MaxConnsPerHost: 10,
				IdleConnTimeout: 90 * time.Second,
			},
			RateLimit: RateLimitConfig{RequestsPerSecond: 5, BurstSize: 10},
		},
		Strategy: StrategyConfig{
			OBIDepth:   5,
			WindowSize: 50,
			MinSamples: 10,
			DepthLimit: 10,
		},
		Loop: LoopConfig{
			MaxAttempts:      1,
			SkipWaitSeconds:  5,
			ErrorWaitSeconds: 10,
		},
		Journal: JournalConfig{
			Directory:     "journal",
			FlushInterval: time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.Venue.Binance.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.Venue.Binance.APISecret = strings.TrimSpace(v)
	}

	if cfg.Journal.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			cfg.Journal.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			cfg.Journal.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			cfg.Journal.S3.Region = strings.TrimSpace(v)
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Quoteflow.Name == "" {
		return &models.ConfigError{Field: "quoteflow.name", Reason: "required"}
	}
	if cfg.Quoteflow.Version == "" {
		return &models.ConfigError{Field: "quoteflow.version", Reason: "required"}
	}

	switch cfg.Venue.Name {
	case "binance", "bybit", "kucoin":
	default:
		return &models.ConfigError{Field: "venue.name", Reason: "must be one of binance, bybit, kucoin"}
	}
	if cfg.Venue.Name != "binance" && !cfg.Loop.DryRun {
		return &models.ConfigError{Field: "loop.dry_run", Reason: "only binance supports order placement; enable dry_run for " + cfg.Venue.Name}
	}
	if cfg.Venue.Name == "binance" && !cfg.Loop.DryRun {
		if cfg.Venue.Binance.APIKey == "" || cfg.Venue.Binance.APISecret == "" {
			return &models.ConfigError{Field: "venue.binance", Reason: "BINANCE_API_KEY and BINANCE_API_SECRET are required for live trading"}
		}
	}

	s := cfg.Strategy
	if s.Symbol == "" {
		return &models.ConfigError{Field: "strategy.symbol", Reason: "required"}
	}
	if s.Quantity <= 0 {
		return &models.ConfigError{Field: "strategy.quantity", Reason: "must be greater than 0"}
	}
	if s.Offset <= 0 {
		return &models.ConfigError{Field: "strategy.offset", Reason: "must be greater than 0"}
	}
	if s.MinSpread > s.MaxSpread {
		return &models.ConfigError{Field: "strategy.min_spread", Reason: "must not exceed max_spread"}
	}
	if s.OBITolerance < 0 || s.OBITolerance > 0.5 {
		return &models.ConfigError{Field: "strategy.obi_tolerance", Reason: "must be within [0, 0.5]"}
	}
	if s.MaxVolatility < 0 {
		return &models.ConfigError{Field: "strategy.max_volatility", Reason: "must not be negative"}
	}
	if s.OBIDepth <= 0 {
		return &models.ConfigError{Field: "strategy.obi_depth", Reason: "must be greater than 0"}
	}
	if s.WindowSize <= 1 {
		return &models.ConfigError{Field: "strategy.window_size", Reason: "must be greater than 1"}
	}
	if s.MinSamples < 2 || s.MinSamples > s.WindowSize {
		return &models.ConfigError{Field: "strategy.min_samples", Reason: "must be within [2, window_size]"}
	}
	if s.DepthLimit <= 0 {
		return &models.ConfigError{Field: "strategy.depth_limit", Reason: "must be greater than 0"}
	}

	if cfg.Loop.MaxAttempts <= 0 {
		return &models.ConfigError{Field: "loop.max_attempts", Reason: "must be greater than 0"}
	}
	if cfg.Loop.WaitSeconds < 0 {
		return &models.ConfigError{Field: "loop.wait_seconds", Reason: "must not be negative"}
	}

	if cfg.Journal.S3.Enabled {
		if cfg.Journal.S3.Bucket == "" || cfg.Journal.S3.Region == "" {
			return &models.ConfigError{Field: "journal.s3", Reason: "bucket and region are required when S3 upload is enabled"}
		}
		if cfg.Journal.S3.AccessKeyID == "" || cfg.Journal.S3.SecretAccessKey == "" {
			if IsProductionLike(AppEnvironment()) {
				return &models.ConfigError{Field: "journal.s3", Reason: "credentials are required when S3 upload is enabled"}
			}
			// outside production the journal falls back to local files
			cfg.Journal.S3.Enabled = false
		}
	}

	return nil
}
