package main

import (
	"flag"
	"fmt"
	"os"

	"xferbench/internal/chart"
	"xferbench/internal/config"
	"xferbench/internal/results"
)

func main() {
	fs := flag.NewFlagSet("plotresults", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	in := fs.String("in", "", "two-column results file override")
	out := fs.String("out", "", "PNG output override")
	dpi := fs.Int("dpi", 0, "output resolution override")
	_ = fs.Parse(os.Args[1:])

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}
	if *in != "" {
		cfg.Plot.InputPath = *in
	}
	if *out != "" {
		cfg.Plot.OutputPath = *out
	}

	samples, err := results.ReadSamples(cfg.Plot.InputPath)
	if err != nil {
		fatal(err)
	}

	opts := chart.DefaultScatterOptions()
	opts.Title = cfg.Plot.Title
	opts.XLabel = cfg.Plot.XLabel
	opts.YLabel = cfg.Plot.YLabel
	if *dpi > 0 {
		opts.DPI = *dpi
	}

	if err := chart.Scatter(samples, cfg.Plot.OutputPath, opts); err != nil {
		fatal(fmt.Errorf("plot %s: %w", cfg.Plot.InputPath, err))
	}
	fmt.Fprintf(os.Stdout, "plot saved to %s\n", cfg.Plot.OutputPath)
}

func fatal(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
