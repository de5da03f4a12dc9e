package reporting

import (
	"fmt"
	"strings"

	"strategy-bench/internal/domain"
)

// RenderCSV renders trial records as a CSV string, one row per trial
// in the given (generation) order. Success rows carry two-decimal
// numerics; failed trials write literal zeros so positional consumers
// never mistake them for measured values.
func RenderCSV(records []*domain.TrialRecord) string {
	var sb strings.Builder

	// Header
	sb.WriteString("strategy,period,symbol,return,net,trades,status\n")

	// Rows
	for _, r := range records {
		if r.Status == domain.StatusSuccess {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%.2f,%.2f,%d,%s\n",
				r.StrategyID,
				r.PeriodLabel,
				r.Symbol,
				r.ReturnPct,
				r.NetPnl,
				r.TradeCount,
				r.StatusLabel(),
			))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,0,0,0,%s\n",
			r.StrategyID,
			r.PeriodLabel,
			r.Symbol,
			r.StatusLabel(),
		))
	}

	return sb.String()
}
