package recorder

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/idhash"
	"evm-token-lab/internal/observability"
	"evm-token-lab/internal/storage"
	"evm-token-lab/internal/token"
)

// Recorder is an EventSink that flattens transfer and swap events into
// persistable records and writes them to the configured stores. Storage
// failures are logged and counted, never propagated: persistence must not
// interfere with transfer execution.
type Recorder struct {
	transfers storage.TransferEventStore
	swaps     storage.SwapEventStore
	logger    *log.Logger

	seq atomic.Uint64
}

// New creates a Recorder writing to the given stores. Either store may be
// nil, in which case events of that family are skipped.
func New(transfers storage.TransferEventStore, swaps storage.SwapEventStore, logger *log.Logger) *Recorder {
	return &Recorder{
		transfers: transfers,
		swaps:     swaps,
		logger:    logger,
	}
}

var _ token.EventSink = (*Recorder)(nil)

// Emit implements token.EventSink.
func (r *Recorder) Emit(ctx context.Context, ev domain.Event) {
	switch e := ev.(type) {
	case domain.TransferEvent:
		r.recordTransfer(ctx, e)
	case domain.SwapAndLiquifyEvent:
		r.recordSwap(ctx, &domain.SwapRecord{
			Outcome:        domain.SwapOutcomeSuccess,
			TokensSwapped:  e.TokensSwapped.Dec(),
			NativeReceived: e.NativeReceived.Dec(),
			TokensIntoPool: e.TokensIntoPool.Dec(),
			TimestampMs:    e.TimestampMs,
		})
	case domain.SwapFailureEvent:
		r.recordSwap(ctx, &domain.SwapRecord{
			Outcome:        domain.SwapOutcomeSwapFailed,
			TokensSwapped:  e.AmountIn.Dec(),
			NativeReceived: "0",
			TokensIntoPool: "0",
			Reason:         e.Reason,
			TimestampMs:    e.TimestampMs,
		})
	case domain.LiquidityFailureEvent:
		r.recordSwap(ctx, &domain.SwapRecord{
			Outcome:        domain.SwapOutcomeLiquidityFailed,
			TokensSwapped:  "0",
			NativeReceived: e.NativeAmount.Dec(),
			TokensIntoPool: e.TokenAmount.Dec(),
			Reason:         e.Reason,
			TimestampMs:    e.TimestampMs,
		})
	}
}

func (r *Recorder) recordTransfer(ctx context.Context, e domain.TransferEvent) {
	if r.transfers == nil {
		return
	}

	rec := &domain.TransferRecord{
		FromAddress: e.From.Hex(),
		ToAddress:   e.To.Hex(),
		Amount:      e.Amount.Dec(),
		NetAmount:   e.NetAmount.Dec(),
		BurnAmount:  e.BurnAmount.Dec(),
		FeeAmount:   e.FeeAmount.Dec(),
		TxCase:      string(e.Case),
		FeeApplied:  e.FeeApplied,
		TimestampMs: e.TimestampMs,
	}
	rec.EventID = idhash.ComputeTransferEventID(
		rec.FromAddress, rec.ToAddress, rec.Amount, rec.TimestampMs, r.seq.Add(1),
	)

	start := time.Now()
	err := r.transfers.Insert(ctx, rec)
	observability.RecordDBQuery("events", "insert_transfer_event", time.Since(start).Seconds(), err)
	if err != nil && r.logger != nil {
		r.logger.Printf("insert transfer event %s: %v", rec.EventID, err)
	}
}

func (r *Recorder) recordSwap(ctx context.Context, rec *domain.SwapRecord) {
	if r.swaps == nil {
		return
	}

	rec.EventID = idhash.ComputeSwapEventID(
		rec.Outcome, rec.TokensSwapped, rec.TimestampMs, r.seq.Add(1),
	)

	start := time.Now()
	err := r.swaps.Insert(ctx, rec)
	observability.RecordDBQuery("events", "insert_swap_event", time.Since(start).Seconds(), err)
	if err != nil && r.logger != nil {
		r.logger.Printf("insert swap event %s: %v", rec.EventID, err)
	}
}
