package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	appconfig "quoteflow/config"
)

func journalConfig(t *testing.T) *appconfig.Config {
	t.Helper()
	return &appconfig.Config{
		Strategy: appconfig.StrategyConfig{Symbol: "BTCUSDT"},
		Journal: appconfig.JournalConfig{
			Enabled:       true,
			Directory:     t.TempDir(),
			FlushInterval: time.Hour,
		},
	}
}

func TestEncodeRecords(t *testing.T) {
	records := []CycleRecord{
		{Timestamp: 1, Symbol: "BTCUSDT", State: StateSkipped, Reason: "spread out of range", Spread: 0.3},
		{Timestamp: 2, Symbol: "BTCUSDT", State: StatePlaced, BuyPrice: 100.7, SellPrice: 100.3, BuyOrderID: "1", SellOrderID: "2", Attempt: 1},
	}

	data, err := encodeRecords(records)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty parquet payload")
	}
	// parquet files start and end with the PAR1 magic
	if string(data[:4]) != "PAR1" || string(data[len(data)-4:]) != "PAR1" {
		t.Fatalf("payload missing parquet magic: % x ... % x", data[:4], data[len(data)-4:])
	}
}

func TestJournalFlushWritesFile(t *testing.T) {
	cfg := journalConfig(t)
	j, err := New(cfg)
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := j.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := j.Start(ctx); err == nil {
		t.Fatal("expected error on second start")
	}

	j.Record(CycleRecord{Timestamp: time.Now().UnixMilli(), Symbol: "BTCUSDT", State: StateError, Reason: "fetch failed"})

	cancel()
	j.Stop()

	entries, err := os.ReadDir(cfg.Journal.Directory)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one journal file, found %d", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".parquet" {
		t.Fatalf("unexpected journal file name %q", entries[0].Name())
	}
}

func TestJournalFlushEmptyBufferWritesNothing(t *testing.T) {
	cfg := journalConfig(t)
	j, err := New(cfg)
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}

	j.Flush("interval")

	entries, err := os.ReadDir(cfg.Journal.Directory)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no journal files, found %d", len(entries))
	}
}
