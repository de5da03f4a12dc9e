package postgres

import (
	"context"
	"fmt"

	"strategy-bench/internal/domain"
	"strategy-bench/internal/storage"
)

// TrialRecordStore implements storage.TrialRecordStore using PostgreSQL.
type TrialRecordStore struct {
	pool *Pool
}

// NewTrialRecordStore creates a new TrialRecordStore.
func NewTrialRecordStore(pool *Pool) *TrialRecordStore {
	return &TrialRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TrialRecordStore = (*TrialRecordStore)(nil)

const insertTrialRecordQuery = `
	INSERT INTO trial_records (
		run_id, trial_index, strategy_id, period_label,
		start_date, end_date, symbol,
		return_pct, net_pnl, trade_count, status, reason
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7,
		$8, $9, $10, $11, $12
	)
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

	_, err := s.pool.Exec(ctx, insertTrialRecordQuery,
		r.RunID, r.Index, r.StrategyID, r.PeriodLabel,
		r.StartDate, r.EndDate, r.Symbol,
		r.ReturnPct, r.NetPnl, r.TradeCount, string(r.Status), r.Reason,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trial record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *TrialRecordStore) InsertBulk(ctx context.Context, records []*domain.TrialRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertTrialRecordQuery,
			r.RunID, r.Index, r.StrategyID, r.PeriodLabel,
			r.StartDate, r.EndDate, r.Symbol,
			r.ReturnPct, r.NetPnl, r.TradeCount, string(r.Status), r.Reason,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trial record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all records for a run, ordered by trial_index ASC.
func (s *TrialRecordStore) GetByRunID(ctx context.Context, runID string) ([]*domain.TrialRecord, error) {
	query := `
		SELECT ` + selectTrialRecordColumns + `
		FROM trial_records
		WHERE run_id = $1
		ORDER BY trial_index ASC
	`
	return s.queryRecords(ctx, query, runID)
}

// GetByStrategy retrieves a run's records for one strategy, ordered by trial_index ASC.
func (s *TrialRecordStore) GetByStrategy(ctx context.Context, runID, strategyID string) ([]*domain.TrialRecord, error) {
	query := `
		SELECT ` + selectTrialRecordColumns + `
		FROM trial_records
		WHERE run_id = $1 AND strategy_id = $2
		ORDER BY trial_index ASC
	`
	return s.queryRecords(ctx, query, runID, strategyID)
}

func (s *TrialRecordStore) queryRecords(ctx context.Context, query string, args ...any) ([]*domain.TrialRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trial records: %w", err)
	}
	defer rows.Close()

	var out []*domain.TrialRecord
	for rows.Next() {
		var r domain.TrialRecord
		var status string
		if err := rows.Scan(
			&r.RunID, &r.Index, &r.StrategyID, &r.PeriodLabel,
			&r.StartDate, &r.EndDate, &r.Symbol,
			&r.ReturnPct, &r.NetPnl, &r.TradeCount, &status, &r.Reason,
		); err != nil {
			return nil, fmt.Errorf("scan trial record: %w", err)
		}
		r.Status = domain.Status(status)
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trial records: %w", err)
	}

	return out, nil
}
