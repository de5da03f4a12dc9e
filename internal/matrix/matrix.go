// Package matrix builds the ordered list of trials for a run.
package matrix

import "strategy-bench/internal/domain"

// Generate produces the full cross product of strategies, periods and
// symbols as a sequence of TrialSpec. Iteration order is strategy
// outermost, then periods, then symbols, and is deterministic for a
// given configuration so progress counters and breakdown groupings
// line up with the generated sequence. Pure function; no side effects.
func Generate(periods []domain.Period, symbols []string, strategies []string) []domain.TrialSpec {
	specs := make([]domain.TrialSpec, 0, len(strategies)*len(periods)*len(symbols))

	idx := 0
	for _, strategy := range strategies {
		for _, period := range periods {
			for _, symbol := range symbols {
				specs = append(specs, domain.TrialSpec{
					Index:       idx,
					StrategyID:  strategy,
					PeriodLabel: period.Label,
					StartDate:   period.StartDate,
					EndDate:     period.EndDate,
					Symbol:      symbol,
				})
				idx++
			}
		}
	}

	return specs
}
