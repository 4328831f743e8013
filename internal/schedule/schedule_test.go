package schedule

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"0 * * * *", "@hourly", "@every 30m", "*/5 9-17 * * 1-5"} {
		if err := Validate(spec); err != nil {
			t.Fatalf("Validate(%q): %v", spec, err)
		}
	}
	for _, spec := range []string{"", "61 * * * *", "not a spec"} {
		if err := Validate(spec); err == nil {
			t.Fatalf("Validate(%q) accepted", spec)
		}
	}
}

func TestNext(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC)
	next, err := Next("0 * * * *", from)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if want := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("next=%s want %s", next, want)
	}
}

func TestSchedulerRun_ImmediateThenStops(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s := &Scheduler{Spec: "@hourly", Immediate: true, Log: log.New(io.Discard, "", 0)}
	job := func(context.Context) error {
		calls.Add(1)
		cancel()
		return errors.New("build failed")
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, job) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls=%d", calls.Load())
	}
}

func TestSchedulerRun_InvalidSpec(t *testing.T) {
	t.Parallel()

	s := &Scheduler{Spec: "bogus", Log: log.New(io.Discard, "", 0)}
	err := s.Run(context.Background(), func(context.Context) error { return nil })
	if err == nil {
		t.Fatalf("expected error")
	}
}
