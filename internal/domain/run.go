package domain

import "time"

// Period is a labeled date range the matrix iterates over.
// The label is a human-readable tag distinct from the dates it names.
type Period struct {
	Label     string `json:"label"`
	StartDate string `json:"start"` // YYYY-MM-DD
	EndDate   string `json:"end"`   // YYYY-MM-DD
}

// MatrixConfig lists the axes of the trial matrix plus the evaluator
// command the executor prefixes its per-trial flags onto.
type MatrixConfig struct {
	Periods    []Period `json:"periods"`
	Symbols    []string `json:"symbols"`
	Strategies []string `json:"strategies"`
	Evaluator  []string `json:"evaluator"`
}

// RunConfig is the immutable per-run configuration constructed once in
// main and passed into every component that needs it.
type RunConfig struct {
	RunID      string // timestamp tag, e.g. 20241106_153000
	ResultsDir string
	Deadline   time.Duration // wall-clock bound per evaluator invocation
	Workers    int           // <=1 means strict sequential execution
}

// NewRunID formats a run identifier from a wall-clock time.
func NewRunID(t time.Time) string {
	return t.Format("20060102_150405")
}
