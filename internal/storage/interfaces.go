package storage

import (
	"context"

	"strategy-bench/internal/domain"
)

// TrialRecordStore provides access to trial_records storage.
// Records are append-only: a run writes its full trial list once and
// never mutates it.
type TrialRecordStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if
	// (run_id, trial_index) exists.
	Insert(ctx context.Context, r *domain.TrialRecord) error

	// InsertBulk adds multiple records atomically. Fails the entire
	// batch on any duplicate.
	InsertBulk(ctx context.Context, records []*domain.TrialRecord) error

	// GetByRunID retrieves all records for a run, ordered by
	// trial_index ASC (generation order).
	GetByRunID(ctx context.Context, runID string) ([]*domain.TrialRecord, error)

	// GetByStrategy retrieves a run's records for one strategy,
	// ordered by trial_index ASC.
	GetByStrategy(ctx context.Context, runID, strategyID string) ([]*domain.TrialRecord, error)
}
