package storage

import (
	"context"

	"evm-token-lab/internal/domain"
)

// TransferEventStore provides access to transfer_events storage.
type TransferEventStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, r *domain.TransferRecord) error

	// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, records []*domain.TransferRecord) error

	// GetByID retrieves a record by event ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, eventID string) (*domain.TransferRecord, error)

	// GetByAddress retrieves records where addr is sender or recipient,
	// ordered by timestamp ASC.
	GetByAddress(ctx context.Context, addr string) ([]*domain.TransferRecord, error)

	// GetByTimeRange retrieves records within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TransferRecord, error)
}

// SwapEventStore provides access to swap_events storage.
type SwapEventStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, r *domain.SwapRecord) error

	// GetAll retrieves all records ordered by timestamp ASC.
	GetAll(ctx context.Context) ([]*domain.SwapRecord, error)

	// GetByOutcome retrieves records with the given outcome, ordered by
	// timestamp ASC.
	GetByOutcome(ctx context.Context, outcome string) ([]*domain.SwapRecord, error)
}

// FeeTimeseriesStore provides access to the fee_timeseries analytics table.
type FeeTimeseriesStore interface {
	// InsertBulk adds multiple samples. Fails entire batch on duplicate bucket.
	InsertBulk(ctx context.Context, samples []*domain.FeeSample) error

	// GetByTimeRange retrieves samples with bucket within [start, end]
	// (inclusive), ordered by bucket ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.FeeSample, error)
}
