package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled benchmark run.
type Job func(ctx context.Context) error

// Scheduler runs a job on a standard five-field cron expression (or a
// descriptor such as @hourly or @every 30m). Runs never overlap.
type Scheduler struct {
	Spec string
	// Immediate runs the job once at start before waiting for the schedule.
	Immediate bool
	Log       *log.Logger
}

// Validate parses a cron expression.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron %q: %w", spec, err)
	}
	return nil
}

// Next returns the first activation of spec after from.
func Next(spec string, from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron %q: %w", spec, err)
	}
	return sched.Next(from), nil
}

// Run blocks until ctx is done, firing job on schedule. It waits for a
// running job to finish before returning ctx.Err().
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	logger := s.Log
	if logger == nil {
		logger = log.Default()
	}
	cronLog := cron.PrintfLogger(logger)

	c := cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))
	fire := func() {
		started := time.Now()
		if err := job(ctx); err != nil {
			logger.Printf("scheduled run failed after %s: %v", time.Since(started).Round(time.Millisecond), err)
			return
		}
		logger.Printf("scheduled run finished in %s", time.Since(started).Round(time.Millisecond))
	}
	id, err := c.AddFunc(s.Spec, fire)
	if err != nil {
		return fmt.Errorf("invalid cron %q: %w", s.Spec, err)
	}

	if s.Immediate {
		c.Entry(id).WrappedJob.Run()
	}

	c.Start()
	if next := c.Entry(id).Next; !next.IsZero() {
		logger.Printf("next run at %s", next.Format(time.RFC3339))
	}

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}
