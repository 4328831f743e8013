package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"xferbench/internal/config"
	"xferbench/internal/model"
	"xferbench/internal/report"
	"xferbench/internal/results"
)

// ErrNoResults is returned when not a single transfer succeeded.
var ErrNoResults = errors.New("no successful transfers to analyze")

// Renderer draws the analysis chart for a finished run.
type Renderer interface {
	Analysis(items []model.TransferResult, path string) error
}

// Recorder persists run history.
type Recorder interface {
	Record(run model.Run) error
}

// Publisher ships a finished run somewhere outside the local filesystem.
type Publisher interface {
	Publish(ctx context.Context, run model.Run, items []model.TransferResult) error
}

// Session is one full measurement run: build, measure, save, render.
type Session struct {
	Driver   *Driver
	Cfg      config.BenchConfig
	Renderer Renderer

	// Optional collaborators.
	History   Recorder
	Publisher Publisher
	Host      func(ctx context.Context) model.Host

	Out io.Writer
}

// Report is what Execute hands back to the caller.
type Report struct {
	Run     model.Run
	Outcome Outcome
}

// Execute performs the session. A build failure aborts before any transfer;
// zero successful transfers return ErrNoResults without writing results or
// rendering charts.
func (s *Session) Execute(ctx context.Context) (Report, error) {
	started := s.Driver.clock()().UTC()
	rep := Report{Run: model.Run{ID: started.Format("20060102T150405Z"), StartedAt: started}}

	if err := s.Driver.Build(ctx); err != nil {
		return rep, err
	}

	if dir := s.Cfg.ReceivedDir; dir != "" {
		if err := os.MkdirAll(s.path(dir), 0o755); err != nil {
			return rep, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if s.Host != nil {
		rep.Run.Host = s.Host(ctx)
	}

	rep.Outcome = s.Driver.Run(ctx, s.Cfg.TestFiles)
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	items := rep.Outcome.Results
	rep.Run.Attempted = rep.Outcome.Attempted()
	rep.Run.Succeeded = len(items)
	rep.Run.Failed = len(rep.Outcome.Failures)

	if len(items) == 0 {
		rep.Run.FinishedAt = s.Driver.clock()().UTC()
		rep.Run.Error = ErrNoResults.Error()
		s.record(ctx, rep.Run, nil)
		return rep, ErrNoResults
	}

	if err := results.SaveJSON(s.path(s.Cfg.ResultsPath), items); err != nil {
		return rep, fmt.Errorf("save results: %w", err)
	}
	rep.Run.ResultsPath = s.Cfg.ResultsPath

	if s.Cfg.CSVPath != "" {
		if err := results.SaveCSV(s.path(s.Cfg.CSVPath), items); err != nil {
			return rep, fmt.Errorf("save csv: %w", err)
		}
	}
	if s.Cfg.SamplesPath != "" {
		if err := results.WriteSamples(s.path(s.Cfg.SamplesPath), results.SamplesFromResults(items)); err != nil {
			return rep, fmt.Errorf("save samples: %w", err)
		}
	}

	if s.Renderer != nil && s.Cfg.ChartPath != "" {
		if err := s.Renderer.Analysis(items, s.path(s.Cfg.ChartPath)); err != nil {
			return rep, fmt.Errorf("render chart: %w", err)
		}
		rep.Run.ChartPath = s.Cfg.ChartPath
	}

	out := s.out()
	report.PrintSummary(out, items)
	fmt.Fprintf(out, "\nResults saved to %s\n", s.Cfg.ResultsPath)
	if rep.Run.ChartPath != "" {
		fmt.Fprintf(out, "Visualization saved to %s\n", rep.Run.ChartPath)
	}

	rep.Run.AvgThroughputMbps = results.Summarize(items).AvgThroughputMbps
	rep.Run.FinishedAt = s.Driver.clock()().UTC()
	s.record(ctx, rep.Run, items)
	return rep, nil
}

// record stores and publishes the run; failures here never fail the session.
func (s *Session) record(ctx context.Context, run model.Run, items []model.TransferResult) {
	logger := s.Driver.logger()
	if s.History != nil {
		if err := s.History.Record(run); err != nil {
			logger.Printf("record history: %v", err)
		}
	}
	if s.Publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.Publisher.Publish(pubCtx, run, items); err != nil {
			logger.Printf("publish run %s: %v", run.ID, err)
		}
	}
}

func (s *Session) path(p string) string {
	if filepath.IsAbs(p) || s.Cfg.WorkDir == "" {
		return p
	}
	return filepath.Join(s.Cfg.WorkDir, p)
}

func (s *Session) out() io.Writer {
	if s.Out == nil {
		return os.Stdout
	}
	return s.Out
}
