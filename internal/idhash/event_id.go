package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTransferEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(from|to|amount|timestamp_ms|seq)
// Returns hex-encoded hash (64 characters).
//
// seq disambiguates multiple identical transfers within the same
// millisecond; callers assign it monotonically per emission.
func ComputeTransferEventID(
	from string,
	to string,
	amount string,
	timestampMs int64,
	seq uint64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		from,
		to,
		amount,
		timestampMs,
		seq,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeSwapEventID computes a deterministic event_id for one
// swap-and-liquify attempt.
// Formula: SHA256(outcome|tokens_swapped|timestamp_ms|seq)
// Returns hex-encoded hash (64 characters).
func ComputeSwapEventID(
	outcome string,
	tokensSwapped string,
	timestampMs int64,
	seq uint64,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		outcome,
		tokensSwapped,
		timestampMs,
		seq,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
