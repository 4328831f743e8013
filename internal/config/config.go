package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBuildCommand    = "make"
	DefaultBuildTimeoutSec = 600
	DefaultClientBinary    = "./client"
	DefaultFileArg         = "{file}"
	DefaultReceivedDir     = "received"
	DefaultTimeoutSec      = 60
	DefaultResultsPath     = "transfer_results.json"
	DefaultChartPath       = "transfer_analysis.png"
	DefaultChartDPI        = 300
	DefaultHistoryPath     = ".xferbench/runs.yaml"
	DefaultSTUNTimeoutSec  = 5

	DefaultPlotInput  = "benchmark_results.txt"
	DefaultPlotOutput = "benchmark_plot.png"
	DefaultPlotTitle  = "Client Performance: File Size vs Execution Time"
	DefaultPlotXLabel = "File Size (bytes)"
	DefaultPlotYLabel = "Execution Time (seconds)"

	DefaultServeListen    = ":8090"
	DefaultRedisKeyPrefix = "xferbench:"
)

// DefaultTestFiles is the fixed input set the driver measures.
var DefaultTestFiles = []string{
	"test_files/test_1KB.dat",
	"test_files/test_10KB.dat",
	"test_files/test_100KB.dat",
	"test_files/test_1MB.dat",
	"test_files/test_10MB.dat",
}

// Config holds every setting; all sections are optional in the YAML file.
type Config struct {
	Bench    BenchConfig     `yaml:"bench"`
	Plot     PlotConfig      `yaml:"plot"`
	Serve    *ServeConfig    `yaml:"serve,omitempty"`
	Redis    *RedisConfig    `yaml:"redis,omitempty"`
	Schedule *ScheduleConfig `yaml:"schedule,omitempty"`
}

// BenchConfig drives the measurement session.
type BenchConfig struct {
	WorkDir         string   `yaml:"work_dir"`
	BuildCommand    []string `yaml:"build_command"`
	SkipBuild       bool     `yaml:"skip_build"`
	BuildTimeoutSec int      `yaml:"build_timeout_sec"`
	ClientBinary    string   `yaml:"client_binary"`
	// ClientArgs may reference the measured file as {file}.
	ClientArgs     []string `yaml:"client_args"`
	ReceivedDir    string   `yaml:"received_dir"`
	TestFiles      []string `yaml:"test_files"`
	TimeoutSec     int      `yaml:"timeout_sec"`
	ResultsPath    string   `yaml:"results_path"`
	ChartPath      string   `yaml:"chart_path"`
	ChartDPI       int      `yaml:"chart_dpi"`
	CSVPath        string   `yaml:"csv_path"`
	SamplesPath    string   `yaml:"samples_path"`
	HistoryPath    string   `yaml:"history_path"`
	STUNServers    []string `yaml:"stun_servers"`
	STUNTimeoutSec int      `yaml:"stun_timeout_sec"`
}

// PlotConfig is used by the standalone scatter plotter.
type PlotConfig struct {
	InputPath  string `yaml:"input_path"`
	OutputPath string `yaml:"output_path"`
	Title      string `yaml:"title"`
	XLabel     string `yaml:"x_label"`
	YLabel     string `yaml:"y_label"`
}

// ServeConfig is used by the results HTTP API.
type ServeConfig struct {
	Listen string `yaml:"listen"`
}

// RedisConfig enables publishing finished runs to Redis.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// ScheduleConfig repeats the measurement session on a cron expression.
type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

// Default returns the built-in configuration used when no file is given.
func Default() Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return cfg
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Redis != nil {
		cfg.Redis.Password = os.ExpandEnv(cfg.Redis.Password)
	}
	ApplyDefaults(&cfg)
	return cfg, nil
}

// Save writes a YAML config file to disk.
func Save(path string, cfg Config) error {
	ApplyDefaults(&cfg)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate performs minimal validation for required fields.
func Validate(cfg Config) error {
	if cfg.Bench.ClientBinary == "" {
		return fmt.Errorf("bench.client_binary is required")
	}
	if len(cfg.Bench.TestFiles) == 0 {
		return fmt.Errorf("bench.test_files must not be empty")
	}
	if !referencesFile(cfg.Bench.ClientArgs) {
		return fmt.Errorf("bench.client_args must reference %s", DefaultFileArg)
	}
	if cfg.Bench.TimeoutSec < 0 {
		return fmt.Errorf("bench.timeout_sec must not be negative")
	}
	if cfg.Bench.ResultsPath == "" {
		return fmt.Errorf("bench.results_path is required")
	}
	if cfg.Redis != nil && cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if cfg.Schedule != nil && strings.TrimSpace(cfg.Schedule.Cron) == "" {
		return fmt.Errorf("schedule.cron is required")
	}
	return nil
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	b := &cfg.Bench
	if b.WorkDir == "" {
		b.WorkDir = "."
	}
	if len(b.BuildCommand) == 0 {
		b.BuildCommand = []string{DefaultBuildCommand}
	}
	if b.BuildTimeoutSec == 0 {
		b.BuildTimeoutSec = DefaultBuildTimeoutSec
	}
	if b.ClientBinary == "" {
		b.ClientBinary = DefaultClientBinary
	}
	if len(b.ClientArgs) == 0 {
		b.ClientArgs = []string{"-f", DefaultFileArg}
	}
	if b.ReceivedDir == "" {
		b.ReceivedDir = DefaultReceivedDir
	}
	if len(b.TestFiles) == 0 {
		b.TestFiles = append([]string(nil), DefaultTestFiles...)
	}
	if b.TimeoutSec == 0 {
		b.TimeoutSec = DefaultTimeoutSec
	}
	if b.ResultsPath == "" {
		b.ResultsPath = DefaultResultsPath
	}
	if b.ChartPath == "" {
		b.ChartPath = DefaultChartPath
	}
	if b.ChartDPI == 0 {
		b.ChartDPI = DefaultChartDPI
	}
	if b.HistoryPath == "" {
		b.HistoryPath = DefaultHistoryPath
	}
	if b.STUNTimeoutSec == 0 {
		b.STUNTimeoutSec = DefaultSTUNTimeoutSec
	}

	p := &cfg.Plot
	if p.InputPath == "" {
		p.InputPath = DefaultPlotInput
	}
	if p.OutputPath == "" {
		p.OutputPath = DefaultPlotOutput
	}
	if p.Title == "" {
		p.Title = DefaultPlotTitle
	}
	if p.XLabel == "" {
		p.XLabel = DefaultPlotXLabel
	}
	if p.YLabel == "" {
		p.YLabel = DefaultPlotYLabel
	}

	if cfg.Serve != nil && cfg.Serve.Listen == "" {
		cfg.Serve.Listen = DefaultServeListen
	}
	if cfg.Redis != nil && cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
}

func referencesFile(args []string) bool {
	for _, a := range args {
		if strings.Contains(a, DefaultFileArg) {
			return true
		}
	}
	return false
}
