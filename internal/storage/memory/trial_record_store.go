package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"strategy-bench/internal/domain"
	"strategy-bench/internal/storage"
)

// TrialRecordStore is an in-memory implementation of storage.TrialRecordStore.
type TrialRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TrialRecord // keyed by run_id|trial_index
}

// NewTrialRecordStore creates a new in-memory trial record store.
func NewTrialRecordStore() *TrialRecordStore {
	return &TrialRecordStore{
		data: make(map[string]*domain.TrialRecord),
	}
}

// Compile-time interface check.
var _ storage.TrialRecordStore = (*TrialRecordStore)(nil)

func recordKey(runID string, index int) string {
	return fmt.Sprintf("%s|%d", runID, index)
}

// Insert adds a new record. Returns ErrDuplicateKey if (run_id, trial_index) exists.
func (s *TrialRecordStore) Insert(_ context.Context, r *domain.TrialRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(r.RunID, r.Index)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[key] = &copy
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *TrialRecordStore) InsertBulk(_ context.Context, records []*domain.TrialRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(records))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range records {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}

		key := recordKey(r.RunID, r.Index)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range records {
		copy := *r
		s.data[recordKey(r.RunID, r.Index)] = &copy
	}

	return nil
}

// GetByRunID retrieves all records for a run, ordered by trial_index ASC.
func (s *TrialRecordStore) GetByRunID(_ context.Context, runID string) ([]*domain.TrialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TrialRecord
	for _, r := range s.data {
		if r.RunID == runID {
			copy := *r
			out = append(out, &copy)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// GetByStrategy retrieves a run's records for one strategy, ordered by trial_index ASC.
func (s *TrialRecordStore) GetByStrategy(_ context.Context, runID, strategyID string) ([]*domain.TrialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TrialRecord
	for _, r := range s.data {
		if r.RunID == runID && r.StrategyID == strategyID {
			copy := *r
			out = append(out, &copy)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}
