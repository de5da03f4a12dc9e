package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"strategy-bench/internal/domain"
)

// Sink persists a run's full trial list as a timestamp-qualified CSV
// file under a fixed results directory. Each run gets a fresh file;
// nothing is ever appended across runs.
type Sink struct {
	dir string
}

// NewSink creates a Sink writing under dir.
func NewSink(dir string) *Sink {
	return &Sink{dir: dir}
}

// Write renders records to <dir>/strategy_comparison_<runID>.csv,
// creating the directory if absent, and returns the written path.
func (s *Sink) Write(runID string, records []*domain.TrialRecord) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("strategy_comparison_%s.csv", runID))
	if err := os.WriteFile(path, []byte(RenderCSV(records)), 0o644); err != nil {
		return "", fmt.Errorf("write results file: %w", err)
	}

	return path, nil
}
