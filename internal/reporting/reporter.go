// Package reporting persists trial records and renders the run's
// human-readable console report.
package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"strategy-bench/internal/domain"
	"strategy-bench/internal/metrics"
)

const bannerWidth = 60

// Reporter renders per-trial progress lines and the hierarchical
// summary to a stream. Safe for use from the parallel collector: one
// line is written at a time.
type Reporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

func (r *Reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *Reporter) banner(title string) {
	line := strings.Repeat("=", bannerWidth)
	r.printf("%s\n%s\n%s\n", line, title, line)
}

// Header prints the run banner.
func (r *Reporter) Header(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banner(title)
	r.printf("\n")
}

// StrategySection marks the start of one strategy's trial block.
func (r *Reporter) StrategySection(strategyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("\n")
	r.banner(fmt.Sprintf("Testing %s Strategy", strings.ToUpper(strategyID)))
	r.printf("\n")
}

// Progress prints one trial's result line as it arrives. done is the
// 1-based count of finished trials, total the matrix size.
func (r *Reporter) Progress(done, total int, rec *domain.TrialRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := fmt.Sprintf("[%d/%d] %s (%s)...", done, total, rec.Symbol, rec.PeriodLabel)
	if rec.Status == domain.StatusSuccess {
		r.printf("%s ✓ %+.2f%% ($%+.2f, %d trades)\n",
			prefix, rec.ReturnPct, rec.NetPnl, rec.TradeCount)
		return
	}
	r.printf("%s ✗ %s\n", prefix, rec.TrialOutcome.StatusLabel())
}

// ComparisonSummary prints the per-strategy aggregate section. A
// strategy without a single successful trial gets an explicit no-data
// line instead of zero-valued statistics.
func (r *Reporter) ComparisonSummary(strategies []string, records []*domain.TrialRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("\n")
	r.banner("COMPARISON SUMMARY")

	for _, strategy := range strategies {
		r.printf("\n%s:\n", strings.ToUpper(strategy))

		summary, err := metrics.Summarize(metrics.FilterStrategy(records, strategy))
		if err != nil {
			r.printf("  (no successful tests)\n")
			continue
		}

		r.printf("  Avg Return: %+.2f%%\n", summary.AvgReturnPct)
		r.printf("  Total P&L: $%+.2f\n", summary.TotalNetPnl)
		r.printf("  Win Rate: %.1f%%\n", summary.WinRate*100)
		r.printf("  Total Trades: %d\n", summary.TotalTrades)
		r.printf("  Avg Trades/Test: %.1f\n", summary.AvgTradesPerTest)
	}
}

// PeriodBreakdown prints the per-period-per-strategy section. Cells
// without successes are omitted, matching the summary's no-data rule.
func (r *Reporter) PeriodBreakdown(periods []domain.Period, strategies []string, records []*domain.TrialRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("\n")
	r.banner("PERIOD BREAKDOWN")

	for _, period := range periods {
		r.printf("\n%s:\n", period.Label)
		periodRecords := metrics.FilterPeriod(records, period.Label)

		for _, strategy := range strategies {
			summary, err := metrics.Summarize(metrics.FilterStrategy(periodRecords, strategy))
			if err != nil {
				continue
			}
			r.printf("  %-20s: $%+8.2f (%+.2f%% avg)\n",
				strategy, summary.TotalNetPnl, summary.AvgReturnPct)
		}
	}
}

// SavedTo prints the persisted file path, the report's final line.
func (r *Reporter) SavedTo(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("\nFull results: %s\n", path)
}
