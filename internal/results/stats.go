package results

import (
	"math"
	"sort"

	"xferbench/internal/model"
)

// Summary is a basic statistics snapshot of one run.
type Summary struct {
	Count             int     `json:"count"`
	MinSizeMB         float64 `json:"min_size_mb"`
	MaxSizeMB         float64 `json:"max_size_mb"`
	MinTimeS          float64 `json:"min_time_s"`
	MaxTimeS          float64 `json:"max_time_s"`
	P95TimeS          float64 `json:"p95_time_s"`
	MinThroughputMbps float64 `json:"min_throughput_mbps"`
	MaxThroughputMbps float64 `json:"max_throughput_mbps"`
	AvgThroughputMbps float64 `json:"avg_throughput_mbps"`
}

// Summarize computes summary metrics for a result list.
func Summarize(items []model.TransferResult) Summary {
	if len(items) == 0 {
		return Summary{Count: 0}
	}

	s := Summary{
		Count:             len(items),
		MinSizeMB:         math.MaxFloat64,
		MinTimeS:          math.MaxFloat64,
		MinThroughputMbps: math.MaxFloat64,
	}
	times := make([]float64, 0, len(items))
	var sumThroughput float64

	for _, r := range items {
		times = append(times, r.TransferTimeS)
		sumThroughput += r.ThroughputMbps
		s.MinSizeMB = math.Min(s.MinSizeMB, r.FileSizeMB)
		s.MaxSizeMB = math.Max(s.MaxSizeMB, r.FileSizeMB)
		s.MinTimeS = math.Min(s.MinTimeS, r.TransferTimeS)
		s.MaxTimeS = math.Max(s.MaxTimeS, r.TransferTimeS)
		s.MinThroughputMbps = math.Min(s.MinThroughputMbps, r.ThroughputMbps)
		s.MaxThroughputMbps = math.Max(s.MaxThroughputMbps, r.ThroughputMbps)
	}

	sort.Float64s(times)
	s.P95TimeS = percentile(times, 0.95)
	s.AvgThroughputMbps = sumThroughput / float64(len(items))
	return s
}

// Efficiency is throughput per MB of file size, in Mbps/MB.
func Efficiency(r model.TransferResult) float64 {
	if r.FileSizeMB == 0 {
		return 0
	}
	return r.ThroughputMbps / r.FileSizeMB
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p <= 0 {
		return values[0]
	}
	if p >= 1 {
		return values[len(values)-1]
	}
	idx := int(math.Ceil(p*float64(len(values)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}
