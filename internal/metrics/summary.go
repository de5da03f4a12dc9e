// Package metrics computes aggregate statistics over trial records.
// The same pure computation serves the global per-strategy summary and
// every per-period breakdown cell; callers select the subset with the
// Filter helpers.
package metrics

import (
	"errors"

	"strategy-bench/internal/domain"
)

// ErrNoSuccesses is returned when the filtered subset contains no
// successful trials. Statistics over an empty subset are undefined and
// must surface as an explicit no-data condition, never as zeros.
var ErrNoSuccesses = errors.New("no successful trials in subset")

// Summarize computes aggregate statistics over the successful trials
// in records. Non-Success records are excluded from every numeric
// rollup; the win-rate denominator is the success count only, never
// the full subset size.
func Summarize(records []*domain.TrialRecord) (domain.Summary, error) {
	var (
		successes   int
		returnSum   float64
		netSum      float64
		winners     int
		totalTrades int
	)

	for _, r := range records {
		if r.Status != domain.StatusSuccess {
			continue
		}
		successes++
		returnSum += r.ReturnPct
		netSum += r.NetPnl
		totalTrades += r.TradeCount
		if r.ReturnPct > 0 {
			winners++
		}
	}

	if successes == 0 {
		return domain.Summary{}, ErrNoSuccesses
	}

	return domain.Summary{
		Successes:        successes,
		AvgReturnPct:     returnSum / float64(successes),
		TotalNetPnl:      netSum,
		WinRate:          float64(winners) / float64(successes),
		TotalTrades:      totalTrades,
		AvgTradesPerTest: float64(totalTrades) / float64(successes),
	}, nil
}

// FilterStrategy returns the records belonging to one strategy,
// preserving generation order.
func FilterStrategy(records []*domain.TrialRecord, strategyID string) []*domain.TrialRecord {
	var out []*domain.TrialRecord
	for _, r := range records {
		if r.StrategyID == strategyID {
			out = append(out, r)
		}
	}
	return out
}

// FilterPeriod returns the records belonging to one period,
// preserving generation order.
func FilterPeriod(records []*domain.TrialRecord, periodLabel string) []*domain.TrialRecord {
	var out []*domain.TrialRecord
	for _, r := range records {
		if r.PeriodLabel == periodLabel {
			out = append(out, r)
		}
	}
	return out
}
