package results

import (
	"testing"

	"xferbench/internal/model"
)

func TestSummarize_Basic(t *testing.T) {
	t.Parallel()

	items := []model.TransferResult{
		{Filename: "a", FileSizeMB: 1, TransferTimeS: 0.5, ThroughputMbps: 16},
		{Filename: "b", FileSizeMB: 10, TransferTimeS: 2, ThroughputMbps: 40},
		{Filename: "c", FileSizeMB: 0.5, TransferTimeS: 1, ThroughputMbps: 4},
	}
	s := Summarize(items)
	if s.Count != 3 {
		t.Fatalf("count=%d", s.Count)
	}
	if s.MinSizeMB != 0.5 || s.MaxSizeMB != 10 {
		t.Fatalf("size=%v..%v", s.MinSizeMB, s.MaxSizeMB)
	}
	if s.MinTimeS != 0.5 || s.MaxTimeS != 2 || s.P95TimeS != 2 {
		t.Fatalf("time=%v..%v p95=%v", s.MinTimeS, s.MaxTimeS, s.P95TimeS)
	}
	if s.MinThroughputMbps != 4 || s.MaxThroughputMbps != 40 {
		t.Fatalf("throughput=%v..%v", s.MinThroughputMbps, s.MaxThroughputMbps)
	}
	if s.AvgThroughputMbps != 20 {
		t.Fatalf("avg=%v", s.AvgThroughputMbps)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	if s := Summarize(nil); s.Count != 0 || s.AvgThroughputMbps != 0 {
		t.Fatalf("summary=%+v", s)
	}
}

func TestEfficiency(t *testing.T) {
	t.Parallel()

	if got := Efficiency(model.TransferResult{FileSizeMB: 2, ThroughputMbps: 16}); got != 8 {
		t.Fatalf("got=%v", got)
	}
	if got := Efficiency(model.TransferResult{}); got != 0 {
		t.Fatalf("zero size got=%v", got)
	}
}

func TestPercentile_Edges(t *testing.T) {
	t.Parallel()

	values := []float64{1, 2, 3, 4}
	if got := percentile(values, 0); got != 1 {
		t.Fatalf("p0=%v", got)
	}
	if got := percentile(values, 1); got != 4 {
		t.Fatalf("p100=%v", got)
	}
	if got := percentile(values, 0.5); got != 2 {
		t.Fatalf("p50=%v", got)
	}
}
