package token

import "errors"

// Fatal pipeline and configuration errors. All of these abort the whole
// operation with no state change; swap-and-liquify failures are not errors
// at this level, they are absorbed and reported as events.
var (
	// ErrUnauthorized is returned when a caller other than the configuration
	// authority invokes a gated setter.
	ErrUnauthorized = errors.New("caller is not the configuration authority")

	// ErrFeeTooHigh is returned when a fee component exceeds the 500 bps cap.
	ErrFeeTooHigh = errors.New("fee component exceeds maximum")

	// ErrLimitBelowFloor is returned when an anti-whale limit is set below
	// its configured minimum floor.
	ErrLimitBelowFloor = errors.New("limit below minimum floor")

	// ErrZeroAddress is returned for transfers or wallet settings involving
	// the zero address.
	ErrZeroAddress = errors.New("zero address")

	// ErrZeroAmount is returned for transfers of a zero amount.
	ErrZeroAmount = errors.New("transfer amount must be greater than zero")

	// ErrBlacklisted is returned when sender or recipient is blacklisted.
	ErrBlacklisted = errors.New("address is blacklisted")

	// ErrMaxTxExceeded is returned when the post-fee transfer amount exceeds
	// the max transaction limit.
	ErrMaxTxExceeded = errors.New("transfer amount exceeds max transaction limit")

	// ErrMaxWalletExceeded is returned when the recipient balance would
	// exceed the max wallet limit.
	ErrMaxWalletExceeded = errors.New("recipient balance would exceed max wallet limit")

	// ErrAmountOverflow is returned when fee arithmetic overflows.
	ErrAmountOverflow = errors.New("amount arithmetic overflow")
)
