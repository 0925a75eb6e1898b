package recorder

import (
	"context"
	"log"
	"sync"
	"time"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/storage"
	"evm-token-lab/internal/token"
)

// Sampler aggregates fee activity into fixed-interval buckets and flushes
// completed buckets to a FeeTimeseriesStore. Amount magnitudes are folded
// to float64; the timeseries is for trend analytics, exact values live in
// the event stores.
type Sampler struct {
	store    storage.FeeTimeseriesStore
	interval time.Duration
	logger   *log.Logger
	clock    func() time.Time

	mu      sync.Mutex
	current *domain.FeeSample
}

// NewSampler creates a Sampler with the given bucket interval.
func NewSampler(store storage.FeeTimeseriesStore, interval time.Duration, logger *log.Logger) *Sampler {
	return &Sampler{
		store:    store,
		interval: interval,
		logger:   logger,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock for deterministic bucketing.
func (s *Sampler) WithClock(clock func() time.Time) *Sampler {
	s.clock = clock
	return s
}

var _ token.EventSink = (*Sampler)(nil)

// Emit implements token.EventSink.
func (s *Sampler) Emit(_ context.Context, ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.bucketFor(s.clock().UnixMilli())

	switch e := ev.(type) {
	case domain.TransferEvent:
		bucket.TransferVol += e.Amount.Float64()
		bucket.FeesBurned += e.BurnAmount.Float64()
		bucket.FeesRetained += e.FeeAmount.Float64()
	case domain.SwapAndLiquifyEvent:
		bucket.SwapRounds++
	case domain.SwapFailureEvent, domain.LiquidityFailureEvent:
		bucket.SwapFailures++
	}
}

// bucketFor returns the open bucket covering nowMs, flushing the previous
// one into pending writes if the interval rolled over. Caller holds mu.
func (s *Sampler) bucketFor(nowMs int64) *domain.FeeSample {
	intervalMs := s.interval.Milliseconds()
	start := nowMs - nowMs%intervalMs

	if s.current == nil || s.current.BucketMs != start {
		if s.current != nil {
			s.flushLocked(s.current)
		}
		s.current = &domain.FeeSample{BucketMs: start}
	}
	return s.current
}

// Flush persists the open bucket immediately. Used at shutdown.
func (s *Sampler) Flush(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.flushLocked(s.current)
		s.current = nil
	}
}

// flushLocked writes one completed bucket. Storage failures are logged,
// never propagated. Caller holds mu.
func (s *Sampler) flushLocked(sample *domain.FeeSample) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.InsertBulk(ctx, []*domain.FeeSample{sample}); err != nil {
		if s.logger != nil {
			s.logger.Printf("flush fee bucket %d: %v", sample.BucketMs, err)
		}
	}
}

// Run flushes completed buckets on a ticker until ctx is cancelled, then
// flushes whatever remains.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush(context.Background())
			return
		case <-ticker.C:
			s.mu.Lock()
			// Roll the bucket forward so a quiet interval still flushes.
			s.bucketFor(s.clock().UnixMilli())
			s.mu.Unlock()
		}
	}
}
