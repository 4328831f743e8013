package results

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"xferbench/internal/model"
)

// ErrNoSamples is returned when a results file holds no data rows.
var ErrNoSamples = errors.New("no samples in results file")

// ReadSamples loads a whitespace-delimited numeric results file. Column 0 is
// the file size in bytes and column 1 the execution time in seconds.
func ReadSamples(path string) ([]model.Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	samples, err := ParseSamples(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// ParseSamples reads rows of numbers. Blank lines and # comments are
// skipped and every row must have the same number of columns.
func ParseSamples(r io.Reader) ([]model.Sample, error) {
	scanner := bufio.NewScanner(r)
	var samples []model.Sample
	columns := 0
	line := 0

	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		if columns == 0 {
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: need at least 2 columns, got %d", line, len(fields))
			}
			columns = len(fields)
		} else if len(fields) != columns {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, columns, len(fields))
		}

		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			values[i] = v
		}
		samples = append(samples, model.Sample{SizeBytes: values[0], Seconds: values[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	return samples, nil
}

// WriteSamples writes "<bytes> <seconds>" rows readable by ReadSamples.
func WriteSamples(path string, samples []model.Sample) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)
	for _, s := range samples {
		fmt.Fprintf(w, "%s %s\n",
			strconv.FormatFloat(s.SizeBytes, 'f', -1, 64),
			strconv.FormatFloat(s.Seconds, 'f', -1, 64))
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SamplesFromResults converts measured transfers into size/time samples.
func SamplesFromResults(items []model.TransferResult) []model.Sample {
	samples := make([]model.Sample, 0, len(items))
	for _, r := range items {
		samples = append(samples, model.Sample{
			SizeBytes: r.FileSizeMB * model.BytesPerMB,
			Seconds:   r.TransferTimeS,
		})
	}
	return samples
}
