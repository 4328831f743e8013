package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"xferbench/internal/api"
	"xferbench/internal/bench"
	"xferbench/internal/chart"
	"xferbench/internal/config"
	"xferbench/internal/envprobe"
	"xferbench/internal/execx"
	"xferbench/internal/model"
	"xferbench/internal/report"
	"xferbench/internal/results"
	"xferbench/internal/schedule"
	"xferbench/internal/server"
	"xferbench/internal/sink"
	"xferbench/internal/store"
)

const usage = `xferbench - file transfer benchmark driver

Usage:
  xferbench                       (same as "xferbench run" with built-in defaults)
  xferbench run [--config <path>] [--client <path>] [--files a,b] [--timeout 60s] [--skip-build]
  xferbench stats [--config <path>] [--results <file> | --remote <url> | --redis [--run <id>]]
  xferbench export csv [--config <path>] [--results <file>] --out <file>
  xferbench history [--config <path>] [--limit 20] [--remote <url> | --redis]
  xferbench probe [--config <path>] [--stun host:port,...]
  xferbench serve [--config <path>] [--listen :8090]
  xferbench schedule [--config <path>] [--cron "@hourly"] [--now]
`

func main() {
	if len(os.Args) < 2 {
		handleRun(nil)
		return
	}

	cmd := os.Args[1]
	switch cmd {
	case "-h", "--help", "help":
		fmt.Print(usage)
	case "run":
		handleRun(os.Args[2:])
	case "stats":
		handleStats(os.Args[2:])
	case "export":
		handleExport(os.Args[2:])
	case "history":
		handleHistory(os.Args[2:])
	case "probe":
		handleProbe(os.Args[2:])
	case "serve":
		handleServe(os.Args[2:])
	case "schedule":
		handleSchedule(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func handleRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	client := fs.String("client", "", "client binary override")
	files := fs.String("files", "", "comma-separated test files override")
	timeout := fs.Duration("timeout", 0, "per-transfer timeout override")
	workDir := fs.String("work-dir", "", "working directory override")
	skipBuild := fs.Bool("skip-build", false, "do not run the build command")
	noHistory := fs.Bool("no-history", false, "do not record the run")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if err := overrideBench(&cfg.Bench, *client, *files, *workDir, *timeout, *skipBuild); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := config.Validate(cfg); err != nil {
		fatal(err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	session, closeFn := newSession(cfg, !*noHistory)
	defer closeFn()

	if _, err := session.Execute(ctx); err != nil {
		if errors.Is(err, bench.ErrNoResults) {
			fmt.Fprintln(os.Stdout, "No successful transfers to analyze")
			closeFn()
			os.Exit(1)
		}
		closeFn()
		fatal(err)
	}
}

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	path := fs.String("results", "", "results JSON path override")
	remote := fs.String("remote", "", "results API base URL")
	fromRedis := fs.Bool("redis", false, "read results from the configured Redis sink")
	runID := fs.String("run", "", "run id to read from Redis (default latest)")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	items, summary, err := loadStats(ctx, cfg, statsSource{path: *path, remote: *remote, redis: *fromRedis, runID: *runID})
	if err != nil {
		fatal(err)
	}

	if len(items) == 0 {
		fmt.Fprintln(os.Stdout, "no results")
		return
	}
	report.PrintResults(os.Stdout, items)
	report.PrintSummary(os.Stdout, items)
	fmt.Fprintf(os.Stdout, "time p95=%.4fs throughput avg=%.2f Mbps\n", summary.P95TimeS, summary.AvgThroughputMbps)
}

type statsSource struct {
	path   string
	remote string
	redis  bool
	runID  string
}

// loadStats fetches results and their summary from a results server, the
// Redis sink, or the local results file, in that order of precedence.
func loadStats(ctx context.Context, cfg config.Config, src statsSource) ([]model.TransferResult, results.Summary, error) {
	switch {
	case src.remote != "":
		client := api.NewClient(src.remote)
		items, err := client.Results(ctx)
		if err != nil {
			return nil, results.Summary{}, err
		}
		summary, err := client.Summary(ctx)
		return items, summary, err
	case src.redis:
		if cfg.Redis == nil {
			return nil, results.Summary{}, errors.New("redis section required in config")
		}
		pub := sink.NewRedisPublisher(*cfg.Redis)
		defer pub.Close()
		var (
			entry sink.Entry
			err   error
		)
		if src.runID != "" {
			entry, err = pub.Lookup(ctx, src.runID)
		} else {
			entry, err = pub.Latest(ctx)
		}
		if err != nil {
			return nil, results.Summary{}, err
		}
		return entry.Results, results.Summarize(entry.Results), nil
	default:
		items, err := results.LoadJSON(selectResultsPath(cfg, src.path))
		if err != nil {
			return nil, results.Summary{}, err
		}
		return items, results.Summarize(items), nil
	}
}

func handleExport(args []string) {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, "export subcommand required\n")
		os.Exit(2)
	}
	if args[0] != "csv" {
		fmt.Fprintf(os.Stderr, "unknown export format %q\n", args[0])
		os.Exit(2)
	}

	fs := flag.NewFlagSet("export csv", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	out := fs.String("out", "", "output file")
	path := fs.String("results", "", "results JSON path override")
	_ = fs.Parse(args[1:])

	if *out == "" {
		fmt.Fprint(os.Stderr, "--out is required\n")
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}

	items, err := results.LoadJSON(selectResultsPath(cfg, *path))
	if err != nil {
		fatal(err)
	}
	if err := results.SaveCSV(*out, items); err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stdout, "exported %s\n", *out)
}

func handleHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	limit := fs.Int("limit", 20, "number of most recent runs to show (0 = all)")
	remote := fs.String("remote", "", "results API base URL")
	fromRedis := fs.Bool("redis", false, "read runs from the configured Redis sink")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var runs []model.Run
	switch {
	case *remote != "":
		runs, err = api.NewClient(*remote).Runs(ctx, *limit)
	case *fromRedis:
		if cfg.Redis == nil {
			fatal(errors.New("redis section required in config"))
		}
		pub := sink.NewRedisPublisher(*cfg.Redis)
		defer pub.Close()
		var entries []sink.Entry
		entries, err = pub.Runs(ctx, int64(*limit))
		for _, e := range entries {
			runs = append(runs, e.Run)
		}
	default:
		runs, err = store.NewFileRecorder(workPath(cfg.Bench, cfg.Bench.HistoryPath)).Runs()
		if *limit > 0 && len(runs) > *limit {
			runs = runs[len(runs)-*limit:]
		}
	}
	if err != nil {
		fatal(err)
	}
	report.PrintRuns(os.Stdout, runs)
}

func handleProbe(args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	stunList := fs.String("stun", "", "comma-separated STUN servers")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *stunList != "" {
		cfg.Bench.STUNServers = splitList(*stunList)
	}

	ctx, cancel := signalContext()
	defer cancel()

	host := envprobe.Detect(ctx, cfg.Bench.STUNServers, stunTimeout(cfg.Bench))
	fmt.Fprintf(os.Stdout, "hostname=%s os=%s arch=%s\n", host.Hostname, host.OS, host.Arch)
	if host.PublicAddr != "" {
		fmt.Fprintf(os.Stdout, "public_addr=%s nat_type=%s\n", host.PublicAddr, host.NATType)
	} else if len(cfg.Bench.STUNServers) > 0 {
		fmt.Fprintln(os.Stdout, "public address unavailable")
	}
}

func handleServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	listen := fs.String("listen", "", "listen address")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if cfg.Serve == nil {
		cfg.Serve = &config.ServeConfig{}
	}
	if *listen != "" {
		cfg.Serve.Listen = *listen
	}
	config.ApplyDefaults(&cfg)

	log.Printf("serving results from %s on %s", cfg.Bench.WorkDir, cfg.Serve.Listen)
	fatal(server.New(cfg).ListenAndServe())
}

func handleSchedule(args []string) {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	spec := fs.String("cron", "", "cron expression override")
	now := fs.Bool("now", false, "run once immediately before waiting for the schedule")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *spec != "" {
		cfg.Schedule = &config.ScheduleConfig{Cron: *spec}
	}
	if cfg.Schedule == nil {
		fmt.Fprint(os.Stderr, "--cron or schedule.cron is required\n")
		os.Exit(2)
	}
	if err := config.Validate(cfg); err != nil {
		fatal(err)
	}
	if err := schedule.Validate(cfg.Schedule.Cron); err != nil {
		fatal(err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	session, closeFn := newSession(cfg, true)
	defer closeFn()

	sched := &schedule.Scheduler{Spec: cfg.Schedule.Cron, Immediate: *now}
	err = sched.Run(ctx, func(ctx context.Context) error {
		_, err := session.Execute(ctx)
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}
}

// newSession wires the driver and its optional collaborators. The returned
// func releases the Redis connection when one was opened.
func newSession(cfg config.Config, recordHistory bool) (*bench.Session, func()) {
	driver := bench.NewDriver(execx.NewOSRunner(), cfg.Bench)
	if cfg.Bench.SkipBuild {
		driver.BuildCommand = nil
	}

	session := &bench.Session{
		Driver:   driver,
		Cfg:      cfg.Bench,
		Renderer: chart.NewRenderer(cfg.Bench.ChartDPI),
		Out:      os.Stdout,
	}
	if recordHistory {
		session.History = store.NewFileRecorder(workPath(cfg.Bench, cfg.Bench.HistoryPath))
	}

	servers := cfg.Bench.STUNServers
	timeout := stunTimeout(cfg.Bench)
	session.Host = func(ctx context.Context) model.Host {
		return envprobe.Detect(ctx, servers, timeout)
	}

	closeFn := func() {}
	if cfg.Redis != nil {
		pub := sink.NewRedisPublisher(*cfg.Redis)
		session.Publisher = pub
		closed := false
		closeFn = func() {
			if closed {
				return
			}
			closed = true
			if err := pub.Close(); err != nil {
				log.Printf("close redis: %v", err)
			}
		}
	}
	return session, closeFn
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func overrideBench(cfg *config.BenchConfig, client, files, workDir string, timeout time.Duration, skipBuild bool) error {
	if timeout < 0 || timeout%time.Second != 0 {
		return fmt.Errorf("--timeout must be a whole number of seconds, got %s", timeout)
	}
	if client != "" {
		cfg.ClientBinary = client
	}
	if files != "" {
		cfg.TestFiles = splitList(files)
	}
	if workDir != "" {
		cfg.WorkDir = workDir
	}
	if timeout > 0 {
		cfg.TimeoutSec = int(timeout / time.Second)
	}
	if skipBuild {
		cfg.SkipBuild = true
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func selectResultsPath(cfg config.Config, override string) string {
	if override != "" {
		return override
	}
	return workPath(cfg.Bench, cfg.Bench.ResultsPath)
}

func workPath(cfg config.BenchConfig, p string) string {
	if filepath.IsAbs(p) || cfg.WorkDir == "" {
		return p
	}
	return filepath.Join(cfg.WorkDir, p)
}

func stunTimeout(cfg config.BenchConfig) time.Duration {
	return time.Duration(cfg.STUNTimeoutSec) * time.Second
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()
	return ctx, cancel
}

func fatal(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
