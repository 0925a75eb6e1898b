package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/storage"
)

// SwapEventStore implements storage.SwapEventStore using PostgreSQL.
type SwapEventStore struct {
	pool *Pool
}

// NewSwapEventStore creates a new SwapEventStore.
func NewSwapEventStore(pool *Pool) *SwapEventStore {
	return &SwapEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapEventStore = (*SwapEventStore)(nil)

const insertSwapQuery = `
	INSERT INTO swap_events (
		event_id, outcome, tokens_swapped, native_received, tokens_into_pool,
		reason, timestamp_ms
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const selectSwapColumns = `
	event_id, outcome, tokens_swapped, native_received, tokens_into_pool,
	reason, timestamp_ms,
	(EXTRACT(EPOCH FROM created_at) * 1000)::BIGINT AS created_at
`

// Insert adds a new record. Returns ErrDuplicateKey if event_id exists.
func (s *SwapEventStore) Insert(ctx context.Context, r *domain.SwapRecord) error {
	_, err := s.pool.Exec(ctx, insertSwapQuery,
		r.EventID,
		r.Outcome,
		r.TokensSwapped,
		r.NativeReceived,
		r.TokensIntoPool,
		r.Reason,
		r.TimestampMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert swap event: %w", err)
	}
	return nil
}

// GetAll retrieves all records ordered by timestamp ASC.
func (s *SwapEventStore) GetAll(ctx context.Context) ([]*domain.SwapRecord, error) {
	query := `SELECT ` + selectSwapColumns + ` FROM swap_events ORDER BY timestamp_ms ASC, event_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query swap events: %w", err)
	}
	defer rows.Close()

	return scanSwapRecords(rows)
}

// GetByOutcome retrieves records with the given outcome, ordered by timestamp ASC.
func (s *SwapEventStore) GetByOutcome(ctx context.Context, outcome string) ([]*domain.SwapRecord, error) {
	query := `
		SELECT ` + selectSwapColumns + `
		FROM swap_events
		WHERE outcome = $1
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, outcome)
	if err != nil {
		return nil, fmt.Errorf("query swap events by outcome: %w", err)
	}
	defer rows.Close()

	return scanSwapRecords(rows)
}

func scanSwapRecord(row pgx.Row) (*domain.SwapRecord, error) {
	var r domain.SwapRecord
	err := row.Scan(
		&r.EventID,
		&r.Outcome,
		&r.TokensSwapped,
		&r.NativeReceived,
		&r.TokensIntoPool,
		&r.Reason,
		&r.TimestampMs,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanSwapRecords(rows pgx.Rows) ([]*domain.SwapRecord, error) {
	var result []*domain.SwapRecord
	for rows.Next() {
		r, err := scanSwapRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap event: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap events: %w", err)
	}
	return result, nil
}
