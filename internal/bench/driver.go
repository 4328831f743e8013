package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xferbench/internal/config"
	"xferbench/internal/execx"
	"xferbench/internal/model"
)

// ErrBuildFailed wraps any failure of the build step.
var ErrBuildFailed = errors.New("build failed")

// Driver runs the external client once per test file and times it.
type Driver struct {
	Runner       execx.Runner
	BuildCommand []string
	BuildTimeout time.Duration
	Client       string
	ClientArgs   []string
	Dir          string
	Timeout      time.Duration
	// Now is the wall clock used around each client invocation.
	Now func() time.Time
	Log *log.Logger
}

// Failure records a test file that produced no result.
type Failure struct {
	Path string
	Err  error
}

// Outcome is the result of measuring every test file once.
type Outcome struct {
	Results  []model.TransferResult
	Failures []Failure
}

// Attempted is the number of test files the run looked at.
func (o Outcome) Attempted() int {
	return len(o.Results) + len(o.Failures)
}

// NewDriver builds a driver from bench settings.
func NewDriver(runner execx.Runner, cfg config.BenchConfig) *Driver {
	return &Driver{
		Runner:       runner,
		BuildCommand: cfg.BuildCommand,
		BuildTimeout: time.Duration(cfg.BuildTimeoutSec) * time.Second,
		Client:       cfg.ClientBinary,
		ClientArgs:   cfg.ClientArgs,
		Dir:          cfg.WorkDir,
		Timeout:      time.Duration(cfg.TimeoutSec) * time.Second,
		Now:          time.Now,
		Log:          log.Default(),
	}
}

// Build runs the build command. Any failure is reported as ErrBuildFailed.
func (d *Driver) Build(ctx context.Context) error {
	if len(d.BuildCommand) == 0 {
		return nil
	}
	cmd := execx.Command{
		Name:    d.BuildCommand[0],
		Args:    d.BuildCommand[1:],
		Dir:     d.Dir,
		Timeout: d.BuildTimeout,
	}
	d.logger().Printf("building project: %s", cmd)
	if _, err := d.Runner.Run(ctx, cmd); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", ErrBuildFailed, cmd, err)
	}
	return nil
}

// Measure invokes the client for one file name and returns the wall-clock
// time observed around the process.
func (d *Driver) Measure(ctx context.Context, name string) (time.Duration, error) {
	cmd := execx.Command{
		Name:    d.Client,
		Args:    ExpandArgs(d.ClientArgs, name),
		Dir:     d.Dir,
		Timeout: d.Timeout,
	}

	now := d.clock()
	start := now()
	_, err := d.Runner.Run(ctx, cmd)
	elapsed := now().Sub(start)
	if err != nil {
		return elapsed, fmt.Errorf("transfer %s: %w", name, err)
	}
	return elapsed, nil
}

// Run measures each path in order. Missing files and failed or timed out
// transfers are logged and skipped; only context cancellation stops the loop.
func (d *Driver) Run(ctx context.Context, paths []string) Outcome {
	var out Outcome
	logger := d.logger()

	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}

		full := d.resolve(p)
		name := filepath.Base(p)
		sizeMB, err := FileSizeMB(full)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Printf("file not found: %s", p)
			} else {
				logger.Printf("stat %s: %v", p, err)
			}
			out.Failures = append(out.Failures, Failure{Path: p, Err: err})
			continue
		}

		logger.Printf("testing %s (%.3f MB)", name, sizeMB)
		elapsed, err := d.Measure(ctx, name)
		if err != nil {
			if errors.Is(err, execx.ErrTimeout) {
				logger.Printf("timeout transferring %s", name)
			} else {
				logger.Printf("failed to transfer %s: %v", name, err)
			}
			out.Failures = append(out.Failures, Failure{Path: p, Err: err})
			continue
		}

		res := NewResult(name, sizeMB, elapsed)
		out.Results = append(out.Results, res)
		logger.Printf("  transfer time: %.4f seconds", res.TransferTimeS)
		logger.Printf("  throughput: %.2f Mbps", res.ThroughputMbps)
	}

	return out
}

// ExpandArgs substitutes {file} in the client argument template.
func ExpandArgs(tmpl []string, name string) []string {
	out := make([]string, len(tmpl))
	for i, a := range tmpl {
		out[i] = strings.ReplaceAll(a, config.DefaultFileArg, name)
	}
	return out
}

func (d *Driver) resolve(p string) string {
	if filepath.IsAbs(p) || d.Dir == "" {
		return p
	}
	return filepath.Join(d.Dir, p)
}

func (d *Driver) clock() func() time.Time {
	if d.Now == nil {
		return time.Now
	}
	return d.Now
}

func (d *Driver) logger() *log.Logger {
	if d.Log == nil {
		return log.New(io.Discard, "", 0)
	}
	return d.Log
}
