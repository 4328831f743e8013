package bench

import (
	"fmt"
	"os"
	"time"

	"xferbench/internal/model"
)

// Throughput returns megabits per second for sizeMB transferred in seconds.
func Throughput(sizeMB, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return (sizeMB * 8) / seconds
}

// FileSizeMB returns the size of the file at path in binary megabytes.
func FileSizeMB(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return float64(info.Size()) / model.BytesPerMB, nil
}

// NewResult derives a transfer result from a measured duration.
func NewResult(name string, sizeMB float64, elapsed time.Duration) model.TransferResult {
	seconds := elapsed.Seconds()
	return model.TransferResult{
		Filename:       name,
		FileSizeMB:     sizeMB,
		TransferTimeS:  seconds,
		ThroughputMbps: Throughput(sizeMB, seconds),
	}
}
