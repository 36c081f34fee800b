package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quoteflow/models"
)

const validYAML = `
quoteflow:
  name: quoteflow
  version: 0.1.0
venue:
  name: binance
strategy:
  symbol: BTCUSDT
  quantity: 0.001
  offset: 100.0
  min_spread: 0.5
  max_spread: 50.0
  obi_tolerance: 0.2
  max_volatility: 0.05
loop:
  max_attempts: 3
  wait_seconds: 30
  dry_run: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Strategy.Symbol != "BTCUSDT" {
		t.Fatalf("symbol = %q", cfg.Strategy.Symbol)
	}
	if cfg.Strategy.OBIDepth != 5 || cfg.Strategy.WindowSize != 50 || cfg.Strategy.MinSamples != 10 {
		t.Fatalf("defaults not applied: %+v", cfg.Strategy)
	}
	if cfg.Loop.SkipWaitSeconds != 5 || cfg.Loop.ErrorWaitSeconds != 10 {
		t.Fatalf("loop wait defaults not applied: %+v", cfg.Loop)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_API_SECRET", "")

	cases := []struct {
		name    string
		mutate  string
		wantErr string
	}{
		{
			name: "missing symbol",
			mutate: `
quoteflow: {name: q, version: "1"}
venue: {name: binance}
strategy: {quantity: 1, offset: 1}
loop: {max_attempts: 1, dry_run: true}
`,
			wantErr: "strategy.symbol",
		},
		{
			name: "bad obi tolerance",
			mutate: `
quoteflow: {name: q, version: "1"}
venue: {name: binance}
strategy: {symbol: BTCUSDT, quantity: 1, offset: 1, obi_tolerance: 0.9}
loop: {max_attempts: 1, dry_run: true}
`,
			wantErr: "strategy.obi_tolerance",
		},
		{
			name: "non-binance venue requires dry run",
			mutate: `
quoteflow: {name: q, version: "1"}
venue: {name: bybit}
strategy: {symbol: BTCUSDT, quantity: 1, offset: 1}
loop: {max_attempts: 1}
`,
			wantErr: "loop.dry_run",
		},
		{
			name: "live binance requires credentials",
			mutate: `
quoteflow: {name: q, version: "1"}
venue: {name: binance}
strategy: {symbol: BTCUSDT, quantity: 1, offset: 1}
loop: {max_attempts: 1}
`,
			wantErr: "venue.binance",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.mutate))
			if err == nil {
				t.Fatal("expected error")
			}
			var cfgErr *models.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T: %v", err, err)
			}
			if cfgErr.Field != tc.wantErr {
				t.Fatalf("field = %q, want %q", cfgErr.Field, tc.wantErr)
			}
		})
	}
}

func TestLoadConfigUnparsable(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "quoteflow: ["))
	if err == nil {
		t.Fatal("expected error for unparsable yaml")
	}
	var cfgErr *models.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
}

func TestCredentialEnvOverride(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_API_SECRET", "secret")

	yml := `
quoteflow: {name: q, version: "1"}
venue: {name: binance}
strategy: {symbol: BTCUSDT, quantity: 1, offset: 1}
loop: {max_attempts: 1}
`
	cfg, err := LoadConfig(writeConfig(t, yml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Venue.Binance.APIKey != "key" || cfg.Venue.Binance.APISecret != "secret" {
		t.Fatalf("credentials not taken from environment: %+v", cfg.Venue.Binance)
	}
}
