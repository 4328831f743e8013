package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_MatchesFixedPaths(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Bench.ClientBinary != "./client" {
		t.Fatalf("client=%q", cfg.Bench.ClientBinary)
	}
	if len(cfg.Bench.BuildCommand) != 1 || cfg.Bench.BuildCommand[0] != "make" {
		t.Fatalf("build=%v", cfg.Bench.BuildCommand)
	}
	if len(cfg.Bench.TestFiles) != 5 || cfg.Bench.TestFiles[0] != "test_files/test_1KB.dat" {
		t.Fatalf("test_files=%v", cfg.Bench.TestFiles)
	}
	if cfg.Bench.TimeoutSec != DefaultTimeoutSec {
		t.Fatalf("timeout=%d", cfg.Bench.TimeoutSec)
	}
	if cfg.Bench.ResultsPath != "transfer_results.json" || cfg.Bench.ChartPath != "transfer_analysis.png" {
		t.Fatalf("paths=%q %q", cfg.Bench.ResultsPath, cfg.Bench.ChartPath)
	}
	if cfg.Plot.InputPath != "benchmark_results.txt" || cfg.Plot.OutputPath != "benchmark_plot.png" {
		t.Fatalf("plot=%+v", cfg.Plot)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestApplyDefaults_DoesNotShareTestFiles(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Bench.TestFiles[0] = "mutated"
	if DefaultTestFiles[0] == "mutated" {
		t.Fatalf("defaults aliased")
	}
}

func TestValidate_ClientArgsMustReferenceFile(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Bench.ClientArgs = []string{"-v"}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error")
	}

	cfg.Bench.ClientArgs = []string{"--file={file}"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestValidate_OptionalSections(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Redis = &RedisConfig{}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected redis error")
	}
	cfg.Redis.Addr = "127.0.0.1:6379"
	cfg.Schedule = &ScheduleConfig{Cron: " "}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected schedule error")
	}
}

func TestLoad_OverridesAndExpandsEnv(t *testing.T) {
	t.Setenv("XFERBENCH_REDIS_PASSWORD", "s3cret")

	tmp := t.TempDir()
	path := filepath.Join(tmp, "xferbench.yaml")
	data := []byte(`bench:
  client_binary: ./bin/client
  timeout_sec: 5
  test_files:
    - a.dat
redis:
  addr: 127.0.0.1:6379
  password: ${XFERBENCH_REDIS_PASSWORD}
serve: {}
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bench.ClientBinary != "./bin/client" || cfg.Bench.TimeoutSec != 5 {
		t.Fatalf("bench=%+v", cfg.Bench)
	}
	if len(cfg.Bench.TestFiles) != 1 {
		t.Fatalf("test_files=%v", cfg.Bench.TestFiles)
	}
	if cfg.Bench.ResultsPath != DefaultResultsPath {
		t.Fatalf("results_path default not applied")
	}
	if cfg.Redis.Password != "s3cret" || cfg.Redis.KeyPrefix != DefaultRedisKeyPrefix {
		t.Fatalf("redis=%+v", cfg.Redis)
	}
	if cfg.Serve == nil || cfg.Serve.Listen != DefaultServeListen {
		t.Fatalf("serve=%+v", cfg.Serve)
	}
}

func TestSave_Writes0600(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "xferbench.yaml")
	if err := Save(path, Config{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode=%o", info.Mode().Perm())
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bench.ClientBinary != DefaultClientBinary {
		t.Fatalf("client=%q", cfg.Bench.ClientBinary)
	}
}
