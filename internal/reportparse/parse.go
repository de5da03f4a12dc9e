// Package reportparse extracts structured performance fields from the
// evaluator's free-text report.
package reportparse

import (
	"regexp"
	"strconv"

	"strategy-bench/internal/domain"
)

// reportPattern matches the evaluator's performance line: a percentage
// return, a signed dollar net amount and an integer trade count, in
// that order, with arbitrary intervening text. (?s) lets the gaps span
// newlines; the gaps are non-greedy so the first well-formed triple
// wins.
var reportPattern = regexp.MustCompile(`(?s)Return:\s*(-?[\d.]+)%.*?Net:\s*\$(-?[\d.]+).*?Trades:\s*(\d+)`)

// Parse searches raw evaluator output for a performance line and
// returns the structured outcome. Parsing is total: absence of a
// match yields StatusParseError, never a fault. Numeric fields are
// zero unless the status is StatusSuccess.
func Parse(output string) domain.TrialOutcome {
	m := reportPattern.FindStringSubmatch(output)
	if m == nil {
		return domain.TrialOutcome{Status: domain.StatusParseError}
	}

	returnPct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return domain.TrialOutcome{Status: domain.StatusParseError}
	}
	netPnl, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return domain.TrialOutcome{Status: domain.StatusParseError}
	}
	trades, err := strconv.Atoi(m[3])
	if err != nil {
		return domain.TrialOutcome{Status: domain.StatusParseError}
	}

	return domain.TrialOutcome{
		Status:     domain.StatusSuccess,
		ReturnPct:  returnPct,
		NetPnl:     netPnl,
		TradeCount: trades,
	}
}
