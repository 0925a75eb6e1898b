package memory

import (
	"context"
	"sort"
	"sync"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/storage"
)

// SwapEventStore is an in-memory implementation of storage.SwapEventStore.
type SwapEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SwapRecord // keyed by event ID
}

// NewSwapEventStore creates a new in-memory swap event store.
func NewSwapEventStore() *SwapEventStore {
	return &SwapEventStore{
		data: make(map[string]*domain.SwapRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if exists.
func (s *SwapEventStore) Insert(_ context.Context, r *domain.SwapRecord) error {
	if r == nil || r.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.EventID] = &copy
	return nil
}

// GetAll retrieves all records ordered by timestamp ASC.
func (s *SwapEventStore) GetAll(_ context.Context) ([]*domain.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SwapRecord, 0, len(s.data))
	for _, r := range s.data {
		copy := *r
		result = append(result, &copy)
	}

	sortSwapsByTimestamp(result)
	return result, nil
}

// GetByOutcome retrieves records with the given outcome, ordered by timestamp ASC.
func (s *SwapEventStore) GetByOutcome(_ context.Context, outcome string) ([]*domain.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapRecord
	for _, r := range s.data {
		if r.Outcome == outcome {
			copy := *r
			result = append(result, &copy)
		}
	}

	sortSwapsByTimestamp(result)
	return result, nil
}

func sortSwapsByTimestamp(records []*domain.SwapRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].TimestampMs != records[j].TimestampMs {
			return records[i].TimestampMs < records[j].TimestampMs
		}
		return records[i].EventID < records[j].EventID
	})
}

var _ storage.SwapEventStore = (*SwapEventStore)(nil)
