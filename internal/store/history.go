package store

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"xferbench/internal/fsutil"
	"xferbench/internal/model"
)

// DefaultMaxRuns bounds how many runs the history file keeps.
const DefaultMaxRuns = 500

// History persists finished benchmark runs.
type History struct {
	UpdatedAt time.Time   `yaml:"updated_at"`
	Runs      []model.Run `yaml:"runs"`
}

// LoadHistory loads the history from disk. If the file is missing, returns an empty history.
func LoadHistory(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &History{}, nil
		}
		return nil, err
	}

	var h History
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, err
	}

	return &h, nil
}

// SaveHistory writes the history to disk.
func SaveHistory(path string, h *History) error {
	if h == nil {
		return nil
	}
	h.UpdatedAt = time.Now().UTC()
	data, err := yaml.Marshal(h)
	if err != nil {
		return err
	}

	return fsutil.WriteFileAtomic(path, data, 0o644)
}

// FileRecorder appends runs to a YAML history file.
type FileRecorder struct {
	Path    string
	MaxRuns int

	mu sync.Mutex
}

func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{Path: path, MaxRuns: DefaultMaxRuns}
}

// Record appends run, dropping the oldest entries beyond MaxRuns.
func (r *FileRecorder) Record(run model.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := LoadHistory(r.Path)
	if err != nil {
		return err
	}
	h.Runs = append(h.Runs, run)
	if r.MaxRuns > 0 && len(h.Runs) > r.MaxRuns {
		h.Runs = h.Runs[len(h.Runs)-r.MaxRuns:]
	}
	return SaveHistory(r.Path, h)
}

// Runs returns the recorded runs, oldest first.
func (r *FileRecorder) Runs() ([]model.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := LoadHistory(r.Path)
	if err != nil {
		return nil, err
	}
	return h.Runs, nil
}
