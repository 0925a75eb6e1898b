package clickhouse

import (
	"context"
	"fmt"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/storage"
)

// FeeTimeseriesStore implements storage.FeeTimeseriesStore using ClickHouse.
type FeeTimeseriesStore struct {
	conn *Conn
}

// NewFeeTimeseriesStore creates a new FeeTimeseriesStore.
func NewFeeTimeseriesStore(conn *Conn) *FeeTimeseriesStore {
	return &FeeTimeseriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeeTimeseriesStore = (*FeeTimeseriesStore)(nil)

// InsertBulk adds multiple samples. Fails entire batch on duplicate bucket.
func (s *FeeTimeseriesStore) InsertBulk(ctx context.Context, samples []*domain.FeeSample) error {
	if len(samples) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{})
	for _, p := range samples {
		if _, exists := seen[p.BucketMs]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.BucketMs] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range samples {
		exists, err := s.exists(ctx, p.BucketMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO fee_timeseries (
			bucket_ms, transfer_volume, fees_burned, fees_retained, swap_rounds, swap_failures
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range samples {
		err = batch.Append(
			uint64(p.BucketMs), p.TransferVol, p.FeesBurned, p.FeesRetained,
			uint32(p.SwapRounds), uint32(p.SwapFailures),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves samples with bucket within [start, end] (inclusive).
func (s *FeeTimeseriesStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.FeeSample, error) {
	query := `
		SELECT bucket_ms, transfer_volume, fees_burned, fees_retained, swap_rounds, swap_failures
		FROM fee_timeseries
		WHERE bucket_ms >= ? AND bucket_ms <= ?
		ORDER BY bucket_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanFeeSamples(rows)
}

// exists checks if a sample with the given bucket exists.
func (s *FeeTimeseriesStore) exists(ctx context.Context, bucketMs int64) (bool, error) {
	query := `SELECT count(*) FROM fee_timeseries WHERE bucket_ms = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, uint64(bucketMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows abstracts driver.Rows for scan helpers.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanFeeSamples scans multiple rows.
func scanFeeSamples(rows chRows) ([]*domain.FeeSample, error) {
	var samples []*domain.FeeSample

	for rows.Next() {
		var p domain.FeeSample
		var bucketMs uint64
		var swapRounds, swapFailures uint32

		err := rows.Scan(
			&bucketMs, &p.TransferVol, &p.FeesBurned, &p.FeesRetained,
			&swapRounds, &swapFailures,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fee timeseries row: %w", err)
		}

		p.BucketMs = int64(bucketMs)
		p.SwapRounds = uint64(swapRounds)
		p.SwapFailures = uint64(swapFailures)
		samples = append(samples, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fee timeseries rows: %w", err)
	}

	return samples, nil
}
