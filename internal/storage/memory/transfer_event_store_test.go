package memory

import (
	"context"
	"errors"
	"testing"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/storage"
)

func sampleTransfer(id string, tsMs int64) *domain.TransferRecord {
	return &domain.TransferRecord{
		EventID:     id,
		FromAddress: "0x00000000000000000000000000000000000000aa",
		ToAddress:   "0x00000000000000000000000000000000000000bb",
		Amount:      "10000",
		NetAmount:   "9750",
		BurnAmount:  "50",
		FeeAmount:   "200",
		TxCase:      "TRANSFER",
		FeeApplied:  true,
		TimestampMs: tsMs,
	}
}

func TestTransferEventStore_InsertAndGetByID(t *testing.T) {
	store := NewTransferEventStore()
	ctx := context.Background()

	rec := sampleTransfer("ev1", 1000)
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "ev1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.NetAmount != "9750" {
		t.Errorf("NetAmount = %s, want 9750", got.NetAmount)
	}
	if got.TxCase != "TRANSFER" {
		t.Errorf("TxCase = %s, want TRANSFER", got.TxCase)
	}

	// Stored copy is isolated from the caller's struct.
	rec.NetAmount = "mutated"
	got, err = store.GetByID(ctx, "ev1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.NetAmount != "9750" {
		t.Errorf("stored record mutated through caller pointer: %s", got.NetAmount)
	}
}

func TestTransferEventStore_DuplicateKey(t *testing.T) {
	store := NewTransferEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, sampleTransfer("ev1", 1000)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, sampleTransfer("ev1", 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTransferEventStore_NotFound(t *testing.T) {
	store := NewTransferEventStore()

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTransferEventStore_InsertBulkAtomic(t *testing.T) {
	store := NewTransferEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, sampleTransfer("ev2", 2000)); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	// One record collides with an existing row: nothing from the batch lands.
	batch := []*domain.TransferRecord{
		sampleTransfer("ev1", 1000),
		sampleTransfer("ev2", 2000),
	}
	err := store.InsertBulk(ctx, batch)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByID(ctx, "ev1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("partial batch landed: ev1 present")
	}

	// Intra-batch duplicates are rejected too.
	err = store.InsertBulk(ctx, []*domain.TransferRecord{
		sampleTransfer("ev3", 3000),
		sampleTransfer("ev3", 3000),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}
}

func TestTransferEventStore_GetByAddress(t *testing.T) {
	store := NewTransferEventStore()
	ctx := context.Background()

	a := sampleTransfer("ev1", 3000)
	b := sampleTransfer("ev2", 1000)
	b.FromAddress = "0x00000000000000000000000000000000000000bb"
	b.ToAddress = "0x00000000000000000000000000000000000000cc"
	c := sampleTransfer("ev3", 2000)
	c.FromAddress = "0x00000000000000000000000000000000000000cc"
	c.ToAddress = "0x00000000000000000000000000000000000000dd"

	if err := store.InsertBulk(ctx, []*domain.TransferRecord{a, b, c}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// bb appears as recipient of ev1 and sender of ev2.
	result, err := store.GetByAddress(ctx, "0x00000000000000000000000000000000000000bb")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result))
	}
	if result[0].EventID != "ev2" || result[1].EventID != "ev1" {
		t.Errorf("wrong order: got %s, %s; want ev2, ev1 (timestamp ASC)", result[0].EventID, result[1].EventID)
	}
}

func TestTransferEventStore_GetByTimeRange(t *testing.T) {
	store := NewTransferEventStore()
	ctx := context.Background()

	batch := []*domain.TransferRecord{
		sampleTransfer("ev1", 1000),
		sampleTransfer("ev2", 2000),
		sampleTransfer("ev3", 3000),
	}
	if err := store.InsertBulk(ctx, batch); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Bounds are inclusive.
	result, err := store.GetByTimeRange(ctx, 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result))
	}
	if result[0].EventID != "ev1" || result[1].EventID != "ev2" {
		t.Errorf("wrong records: got %s, %s", result[0].EventID, result[1].EventID)
	}
}
