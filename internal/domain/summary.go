package domain

// Summary holds aggregate statistics over the successful subset of a
// group of trial records. Derived, never stored independently.
type Summary struct {
	Successes        int
	AvgReturnPct     float64
	TotalNetPnl      float64
	WinRate          float64 // strictly positive returns / successes
	TotalTrades      int
	AvgTradesPerTest float64
}
