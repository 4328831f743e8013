package results

import (
	"encoding/json"
	"fmt"
	"os"

	"xferbench/internal/fsutil"
	"xferbench/internal/model"
)

// SaveJSON writes the full result list as an indented JSON array.
func SaveJSON(path string, items []model.TransferResult) error {
	if items == nil {
		items = []model.TransferResult{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return fsutil.WriteFileAtomic(path, data, 0o644)
}

// LoadJSON reads a results file written by SaveJSON.
func LoadJSON(path string) ([]model.TransferResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []model.TransferResult
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return items, nil
}
