package model

import "time"

// BytesPerMB is the binary megabyte used for file sizes.
const BytesPerMB = 1024 * 1024

// TransferResult is one successful client invocation.
type TransferResult struct {
	Filename       string  `json:"filename"`
	FileSizeMB     float64 `json:"file_size_mb"`
	TransferTimeS  float64 `json:"transfer_time_s"`
	ThroughputMbps float64 `json:"throughput_mbps"`
}

// Sample is a row of a two-column results file: size in bytes, time in seconds.
type Sample struct {
	SizeBytes float64
	Seconds   float64
}

// Host identifies the machine a run was measured on.
type Host struct {
	Hostname   string `json:"hostname" yaml:"hostname"`
	OS         string `json:"os" yaml:"os"`
	Arch       string `json:"arch" yaml:"arch"`
	PublicAddr string `json:"public_addr,omitempty" yaml:"public_addr,omitempty"`
	NATType    string `json:"nat_type,omitempty" yaml:"nat_type,omitempty"`
}

// Run is a history entry for one measurement session.
type Run struct {
	ID                string    `json:"id" yaml:"id"`
	StartedAt         time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt        time.Time `json:"finished_at" yaml:"finished_at"`
	Host              Host      `json:"host" yaml:"host"`
	Attempted         int       `json:"attempted" yaml:"attempted"`
	Succeeded         int       `json:"succeeded" yaml:"succeeded"`
	Failed            int       `json:"failed" yaml:"failed"`
	AvgThroughputMbps float64   `json:"avg_throughput_mbps" yaml:"avg_throughput_mbps"`
	ResultsPath       string    `json:"results_path,omitempty" yaml:"results_path,omitempty"`
	ChartPath         string    `json:"chart_path,omitempty" yaml:"chart_path,omitempty"`
	Error             string    `json:"error,omitempty" yaml:"error,omitempty"`
}
