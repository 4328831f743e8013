package main

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"xferbench/internal/config"
	"xferbench/internal/model"
	"xferbench/internal/results"
	"xferbench/internal/server"
	"xferbench/internal/sink"
)

func TestOverrideBench_WholeSecondTimeout(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Bench
	if err := overrideBench(&cfg, "./bin/client", "a.dat, b.dat", "", 90*time.Second, true); err != nil {
		t.Fatalf("overrideBench: %v", err)
	}
	if cfg.TimeoutSec != 90 {
		t.Fatalf("timeout=%d", cfg.TimeoutSec)
	}
	if cfg.ClientBinary != "./bin/client" || len(cfg.TestFiles) != 2 || cfg.TestFiles[1] != "b.dat" || !cfg.SkipBuild {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestOverrideBench_RejectsFractionalTimeout(t *testing.T) {
	t.Parallel()

	for _, d := range []time.Duration{500 * time.Millisecond, 1400 * time.Millisecond, -time.Second} {
		cfg := config.Default().Bench
		if err := overrideBench(&cfg, "", "", "", d, false); err == nil {
			t.Fatalf("%s: expected error", d)
		}
		if cfg.TimeoutSec != config.DefaultTimeoutSec {
			t.Fatalf("%s: timeout changed to %d", d, cfg.TimeoutSec)
		}
	}
}

func TestOverrideBench_ZeroKeepsConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Bench
	cfg.TimeoutSec = 7
	if err := overrideBench(&cfg, "", "", "", 0, false); err != nil {
		t.Fatalf("overrideBench: %v", err)
	}
	if cfg.TimeoutSec != 7 {
		t.Fatalf("timeout=%d", cfg.TimeoutSec)
	}
}

var statsItems = []model.TransferResult{
	{Filename: "test_1MB.dat", FileSizeMB: 1, TransferTimeS: 0.5, ThroughputMbps: 16},
	{Filename: "test_10MB.dat", FileSizeMB: 10, TransferTimeS: 2, ThroughputMbps: 40},
}

func configWithResults(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Bench.WorkDir = t.TempDir()
	if err := results.SaveJSON(filepath.Join(cfg.Bench.WorkDir, cfg.Bench.ResultsPath), statsItems); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	return cfg
}

func TestLoadStats_LocalFile(t *testing.T) {
	t.Parallel()

	cfg := configWithResults(t)
	items, summary, err := loadStats(context.Background(), cfg, statsSource{})
	if err != nil {
		t.Fatalf("loadStats: %v", err)
	}
	if len(items) != 2 || summary.Count != 2 || summary.AvgThroughputMbps != 28 {
		t.Fatalf("items=%d summary=%+v", len(items), summary)
	}
}

func TestLoadStats_RemoteUsesServerSummary(t *testing.T) {
	t.Parallel()

	cfg := configWithResults(t)
	ts := httptest.NewServer(server.New(cfg).Handler())
	defer ts.Close()

	items, summary, err := loadStats(context.Background(), config.Default(), statsSource{remote: ts.URL})
	if err != nil {
		t.Fatalf("loadStats: %v", err)
	}
	if len(items) != 2 || summary != results.Summarize(statsItems) {
		t.Fatalf("items=%d summary=%+v", len(items), summary)
	}
}

func TestLoadStats_RedisLatestAndLookup(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Redis = &config.RedisConfig{Addr: mr.Addr()}
	config.ApplyDefaults(&cfg)

	pub := sink.NewRedisPublisher(*cfg.Redis)
	defer pub.Close()
	ctx := context.Background()
	if err := pub.Publish(ctx, model.Run{ID: "r1"}, statsItems); err != nil {
		t.Fatalf("Publish r1: %v", err)
	}
	if err := pub.Publish(ctx, model.Run{ID: "r2"}, statsItems[:1]); err != nil {
		t.Fatalf("Publish r2: %v", err)
	}

	latest, _, err := loadStats(ctx, cfg, statsSource{redis: true})
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != 1 {
		t.Fatalf("latest=%+v", latest)
	}

	first, summary, err := loadStats(ctx, cfg, statsSource{redis: true, runID: "r1"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(first) != 2 || summary.Count != 2 {
		t.Fatalf("first=%+v summary=%+v", first, summary)
	}
}

func TestLoadStats_RedisRequiresConfig(t *testing.T) {
	t.Parallel()

	if _, _, err := loadStats(context.Background(), config.Default(), statsSource{redis: true}); err == nil {
		t.Fatalf("expected error")
	}
}
