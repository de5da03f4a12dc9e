package clickhouse

import (
	"context"
	"fmt"

	"strategy-bench/internal/domain"
	"strategy-bench/internal/storage"
)

// TrialRecordStore implements storage.TrialRecordStore using ClickHouse.
// MergeTree does not enforce uniqueness at insert time, so append-only
// semantics rely on explicit existence checks before insert.
type TrialRecordStore struct {
	conn *Conn
}

// NewTrialRecordStore creates a new TrialRecordStore.
func NewTrialRecordStore(conn *Conn) *TrialRecordStore {
	return &TrialRecordStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TrialRecordStore = (*TrialRecordStore)(nil)

const insertTrialRecordQuery = `
	INSERT INTO trial_records (
		run_id, trial_index, strategy_id, period_label,
		start_date, end_date, symbol,
		return_pct, net_pnl, trade_count, status, reason
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectTrialRecordColumns = `
	run_id, trial_index, strategy_id, period_label,
	start_date, end_date, symbol,
	return_pct, net_pnl, trade_count, status, reason
`

// Insert adds a new record. Returns ErrDuplicateKey if (run_id, trial_index) exists.
func (s *TrialRecordStore) Insert(ctx context.Context, r *domain.TrialRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, r.RunID, r.Index)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	if err := s.conn.Exec(ctx, insertTrialRecordQuery,
		r.RunID, int32(r.Index), r.StrategyID, r.PeriodLabel,
		r.StartDate, r.EndDate, r.Symbol,
		r.ReturnPct, r.NetPnl, int32(r.TradeCount), string(r.Status), r.Reason,
	); err != nil {
		return fmt.Errorf("insert trial record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple records. Fails the entire batch on any
// duplicate before anything is written.
func (s *TrialRecordStore) InsertBulk(ctx context.Context, records []*domain.TrialRecord) error {
	if len(records) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := fmt.Sprintf("%s|%d", r.RunID, r.Index)
		if _, dup := seen[key]; dup {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, r := range records {
		exists, err := s.exists(ctx, r.RunID, r.Index)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, insertTrialRecordQuery)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, r := range records {
		if err := batch.Append(
			r.RunID, int32(r.Index), r.StrategyID, r.PeriodLabel,
			r.StartDate, r.EndDate, r.Symbol,
			r.ReturnPct, r.NetPnl, int32(r.TradeCount), string(r.Status), r.Reason,
		); err != nil {
			return fmt.Errorf("append trial record to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send trial record batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all records for a run, ordered by trial_index ASC.
func (s *TrialRecordStore) GetByRunID(ctx context.Context, runID string) ([]*domain.TrialRecord, error) {
	query := `
		SELECT ` + selectTrialRecordColumns + `
		FROM trial_records
		WHERE run_id = ?
		ORDER BY trial_index ASC
	`
	return s.queryRecords(ctx, query, runID)
}

// GetByStrategy retrieves a run's records for one strategy, ordered by trial_index ASC.
func (s *TrialRecordStore) GetByStrategy(ctx context.Context, runID, strategyID string) ([]*domain.TrialRecord, error) {
	query := `
		SELECT ` + selectTrialRecordColumns + `
		FROM trial_records
		WHERE run_id = ? AND strategy_id = ?
		ORDER BY trial_index ASC
	`
	return s.queryRecords(ctx, query, runID, strategyID)
}

func (s *TrialRecordStore) exists(ctx context.Context, runID string, index int) (bool, error) {
	var count uint64
	row := s.conn.QueryRow(ctx,
		`SELECT count() FROM trial_records WHERE run_id = ? AND trial_index = ?`,
		runID, int32(index),
	)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *TrialRecordStore) queryRecords(ctx context.Context, query string, args ...any) ([]*domain.TrialRecord, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trial records: %w", err)
	}
	defer rows.Close()

	var out []*domain.TrialRecord
	for rows.Next() {
		var (
			r          domain.TrialRecord
			trialIndex int32
			tradeCount int32
			status     string
		)
		if err := rows.Scan(
			&r.RunID, &trialIndex, &r.StrategyID, &r.PeriodLabel,
			&r.StartDate, &r.EndDate, &r.Symbol,
			&r.ReturnPct, &r.NetPnl, &tradeCount, &status, &r.Reason,
		); err != nil {
			return nil, fmt.Errorf("scan trial record: %w", err)
		}
		r.Index = int(trialIndex)
		r.TradeCount = int(tradeCount)
		r.Status = domain.Status(status)
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trial records: %w", err)
	}

	return out, nil
}
