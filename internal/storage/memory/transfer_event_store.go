package memory

import (
	"context"
	"sort"
	"sync"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/storage"
)

// TransferEventStore is an in-memory implementation of storage.TransferEventStore.
type TransferEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TransferRecord // keyed by event ID
}

// NewTransferEventStore creates a new in-memory transfer event store.
func NewTransferEventStore() *TransferEventStore {
	return &TransferEventStore{
		data: make(map[string]*domain.TransferRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if exists.
func (s *TransferEventStore) Insert(_ context.Context, r *domain.TransferRecord) error {
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

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *TransferEventStore) InsertBulk(_ context.Context, records []*domain.TransferRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(records))

	for _, r := range records {
		if r == nil || r.EventID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.EventID] = struct{}{}
	}

	for _, r := range records {
		copy := *r
		s.data[r.EventID] = &copy
	}

	return nil
}

// GetByID retrieves a record by event ID. Returns ErrNotFound if not exists.
func (s *TransferEventStore) GetByID(_ context.Context, eventID string) (*domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[eventID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

// GetByAddress retrieves records where addr is sender or recipient, ordered by timestamp ASC.
func (s *TransferEventStore) GetByAddress(_ context.Context, addr string) ([]*domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransferRecord
	for _, r := range s.data {
		if r.FromAddress == addr || r.ToAddress == addr {
			copy := *r
			result = append(result, &copy)
		}
	}

	sortByTimestamp(result)
	return result, nil
}

// GetByTimeRange retrieves records within [start, end] (inclusive), ordered by timestamp ASC.
func (s *TransferEventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransferRecord
	for _, r := range s.data {
		if r.TimestampMs >= start && r.TimestampMs <= end {
			copy := *r
			result = append(result, &copy)
		}
	}

	sortByTimestamp(result)
	return result, nil
}

// sortByTimestamp orders records by timestamp, then event ID for stability.
func sortByTimestamp(records []*domain.TransferRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].TimestampMs != records[j].TimestampMs {
			return records[i].TimestampMs < records[j].TimestampMs
		}
		return records[i].EventID < records[j].EventID
	})
}

var _ storage.TransferEventStore = (*TransferEventStore)(nil)
