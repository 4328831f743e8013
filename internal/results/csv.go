package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"xferbench/internal/model"
)

var csvHeader = []string{
	"filename",
	"file_size_mb",
	"transfer_time_s",
	"throughput_mbps",
}

// WriteCSV writes results to CSV with a fixed column order.
func WriteCSV(w io.Writer, items []model.TransferResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range items {
		record := []string{
			r.Filename,
			formatFloat(r.FileSizeMB),
			formatFloat(r.TransferTimeS),
			formatFloat(r.ThroughputMbps),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV writes results to a CSV file, replacing it.
func SaveCSV(path string, items []model.TransferResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, items); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadCSV loads results from a CSV file.
func ReadCSV(path string) ([]model.TransferResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readCSV(file)
}

func readCSV(r io.Reader) ([]model.TransferResult, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	start := 0
	if len(records[0]) > 0 && records[0][0] == csvHeader[0] {
		start = 1
	}

	items := make([]model.TransferResult, 0, len(records)-start)
	for i := start; i < len(records); i++ {
		rec := records[i]
		if len(rec) < len(csvHeader) {
			return nil, fmt.Errorf("invalid record at line %d", i+1)
		}
		var vals [3]float64
		for j := range vals {
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s at line %d: %w", csvHeader[j+1], i+1, err)
			}
			vals[j] = v
		}
		items = append(items, model.TransferResult{
			Filename:       rec[0],
			FileSizeMB:     vals[0],
			TransferTimeS:  vals[1],
			ThroughputMbps: vals[2],
		})
	}

	return items, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
