package domain

import "strings"

// Status classifies the outcome of a single trial.
type Status string

// Status constants
const (
	StatusSuccess    Status = "Success"
	StatusParseError Status = "ParseError"
	StatusTimeout    Status = "Timeout"
	StatusExecError  Status = "ExecutionError"
)

// TrialSpec identifies one evaluator invocation within a run.
// Index is the zero-based position in generation order; it keys the
// record back into the matrix when trials complete out of order.
type TrialSpec struct {
	Index       int
	StrategyID  string
	PeriodLabel string
	StartDate   string // YYYY-MM-DD
	EndDate     string // YYYY-MM-DD
	Symbol      string
}

// TrialOutcome is the parsed result of one evaluator invocation.
// Numeric fields are meaningful only when Status == StatusSuccess;
// otherwise they are zero. Reason is set only for StatusExecError.
type TrialOutcome struct {
	Status     Status
	ReturnPct  float64
	NetPnl     float64
	TradeCount int
	Reason     string
}

// StatusLabel renders the status for tables and progress lines.
// ExecutionError carries its reason, sanitized so it stays on one
// CSV cell.
func (o TrialOutcome) StatusLabel() string {
	if o.Status != StatusExecError || o.Reason == "" {
		return string(o.Status)
	}
	reason := strings.NewReplacer(",", ";", "\n", " ", "\r", " ").Replace(o.Reason)
	return string(StatusExecError) + ": " + reason
}

// TrialRecord joins a spec with its outcome. One record per trial,
// in generation order; never mutated after creation.
type TrialRecord struct {
	RunID string
	TrialSpec
	TrialOutcome
}
