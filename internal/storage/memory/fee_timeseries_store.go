package memory

import (
	"context"
	"sort"
	"sync"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/storage"
)

// FeeTimeseriesStore is an in-memory implementation of storage.FeeTimeseriesStore.
type FeeTimeseriesStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.FeeSample // keyed by bucket_ms
}

// NewFeeTimeseriesStore creates a new in-memory fee timeseries store.
func NewFeeTimeseriesStore() *FeeTimeseriesStore {
	return &FeeTimeseriesStore{
		data: make(map[int64]*domain.FeeSample),
	}
}

// InsertBulk adds multiple samples. Fails entire batch on duplicate bucket.
func (s *FeeTimeseriesStore) InsertBulk(_ context.Context, samples []*domain.FeeSample) error {
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track buckets in this batch to detect intra-batch duplicates
	batchKeys := make(map[int64]struct{}, len(samples))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range samples {
		if p == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[p.BucketMs]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[p.BucketMs]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[p.BucketMs] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range samples {
		copy := *p
		s.data[p.BucketMs] = &copy
	}

	return nil
}

// GetByTimeRange retrieves samples with bucket within [start, end] (inclusive).
func (s *FeeTimeseriesStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.FeeSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FeeSample
	for _, p := range s.data {
		if p.BucketMs >= start && p.BucketMs <= end {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BucketMs < result[j].BucketMs
	})

	return result, nil
}

var _ storage.FeeTimeseriesStore = (*FeeTimeseriesStore)(nil)
