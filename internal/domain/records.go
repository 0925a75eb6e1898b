package domain

// TransferRecord is the flattened, persistable form of a TransferEvent.
// Corresponds to the transfer_events table in PostgreSQL. Amounts are
// stored as decimal strings to keep full uint256 precision.
type TransferRecord struct {
	EventID     string // deterministic hash
	FromAddress string // hex
	ToAddress   string // hex
	Amount      string // original requested amount
	NetAmount   string // amount delivered to the recipient
	BurnAmount  string
	FeeAmount   string // portion retained by the contract
	TxCase      string // "TRANSFER" | "BUY" | "SELL"
	FeeApplied  bool
	TimestampMs int64
	CreatedAt   int64 // record creation timestamp (ms)
}

// SwapRecord is the flattened, persistable form of one swap-and-liquify
// attempt, successful or not.
// Corresponds to the swap_events table in PostgreSQL.
type SwapRecord struct {
	EventID        string // deterministic hash
	Outcome        string // "SUCCESS" | "SWAP_FAILED" | "LIQUIDITY_FAILED"
	TokensSwapped  string
	NativeReceived string
	TokensIntoPool string
	Reason         string // failure reason, empty on success
	TimestampMs    int64
	CreatedAt      int64 // record creation timestamp (ms)
}

// Swap outcome constants
const (
	SwapOutcomeSuccess         = "SUCCESS"
	SwapOutcomeSwapFailed      = "SWAP_FAILED"
	SwapOutcomeLiquidityFailed = "LIQUIDITY_FAILED"
)

// FeeSample is one per-interval aggregation of fee activity, persisted to
// the ClickHouse fee_timeseries table for analytics.
type FeeSample struct {
	BucketMs     int64   // interval start, unix ms
	TransferVol  float64 // token volume transferred in the interval
	FeesBurned   float64
	FeesRetained float64
	SwapRounds   uint64 // swap-and-liquify rounds triggered
	SwapFailures uint64
}
