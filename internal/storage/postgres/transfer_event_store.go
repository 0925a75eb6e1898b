package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/storage"
)

// TransferEventStore implements storage.TransferEventStore using PostgreSQL.
type TransferEventStore struct {
	pool *Pool
}

// NewTransferEventStore creates a new TransferEventStore.
func NewTransferEventStore(pool *Pool) *TransferEventStore {
	return &TransferEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransferEventStore = (*TransferEventStore)(nil)

const insertTransferQuery = `
	INSERT INTO transfer_events (
		event_id, from_address, to_address, amount, net_amount, burn_amount,
		fee_amount, tx_case, fee_applied, timestamp_ms
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

const selectTransferColumns = `
	event_id, from_address, to_address, amount, net_amount, burn_amount,
	fee_amount, tx_case, fee_applied, timestamp_ms,
	(EXTRACT(EPOCH FROM created_at) * 1000)::BIGINT AS created_at
`

// Insert adds a new record. Returns ErrDuplicateKey if event_id exists.
func (s *TransferEventStore) Insert(ctx context.Context, r *domain.TransferRecord) error {
	_, err := s.pool.Exec(ctx, insertTransferQuery,
		r.EventID,
		r.FromAddress,
		r.ToAddress,
		r.Amount,
		r.NetAmount,
		r.BurnAmount,
		r.FeeAmount,
		r.TxCase,
		r.FeeApplied,
		r.TimestampMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transfer event: %w", err)
	}
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *TransferEventStore) InsertBulk(ctx context.Context, records []*domain.TransferRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		_, err := tx.Exec(ctx, insertTransferQuery,
			r.EventID,
			r.FromAddress,
			r.ToAddress,
			r.Amount,
			r.NetAmount,
			r.BurnAmount,
			r.FeeAmount,
			r.TxCase,
			r.FeeApplied,
			r.TimestampMs,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert transfer event: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a record by event ID. Returns ErrNotFound if not exists.
func (s *TransferEventStore) GetByID(ctx context.Context, eventID string) (*domain.TransferRecord, error) {
	query := `SELECT ` + selectTransferColumns + ` FROM transfer_events WHERE event_id = $1`

	row := s.pool.QueryRow(ctx, query, eventID)
	r, err := scanTransferRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transfer event by id: %w", err)
	}
	return r, nil
}

// GetByAddress retrieves records where addr is sender or recipient, ordered by timestamp ASC.
func (s *TransferEventStore) GetByAddress(ctx context.Context, addr string) ([]*domain.TransferRecord, error) {
	query := `
		SELECT ` + selectTransferColumns + `
		FROM transfer_events
		WHERE from_address = $1 OR to_address = $1
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, addr)
	if err != nil {
		return nil, fmt.Errorf("query transfer events by address: %w", err)
	}
	defer rows.Close()

	return scanTransferRecords(rows)
}

// GetByTimeRange retrieves records within [start, end] (inclusive), ordered by timestamp ASC.
func (s *TransferEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TransferRecord, error) {
	query := `
		SELECT ` + selectTransferColumns + `
		FROM transfer_events
		WHERE timestamp_ms >= $1 AND timestamp_ms <= $2
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query transfer events by time range: %w", err)
	}
	defer rows.Close()

	return scanTransferRecords(rows)
}

// scanTransferRecord scans one row into a TransferRecord.
func scanTransferRecord(row pgx.Row) (*domain.TransferRecord, error) {
	var r domain.TransferRecord
	err := row.Scan(
		&r.EventID,
		&r.FromAddress,
		&r.ToAddress,
		&r.Amount,
		&r.NetAmount,
		&r.BurnAmount,
		&r.FeeAmount,
		&r.TxCase,
		&r.FeeApplied,
		&r.TimestampMs,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// scanTransferRecords scans all rows into TransferRecords.
func scanTransferRecords(rows pgx.Rows) ([]*domain.TransferRecord, error) {
	var result []*domain.TransferRecord
	for rows.Next() {
		r, err := scanTransferRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer event: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer events: %w", err)
	}
	return result, nil
}
