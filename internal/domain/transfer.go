package domain

import "github.com/holiman/uint256"

// TxCase classifies a transfer relative to registered liquidity pairs.
type TxCase string

// Transaction case constants
const (
	TxCaseTransfer TxCase = "TRANSFER"
	TxCaseBuy      TxCase = "BUY"
	TxCaseSell     TxCase = "SELL"
)

// Fee arithmetic constants, in basis points out of BpsDenominator.
const (
	// BpsDenominator is the basis-point scale: 10000 bps = 100%.
	BpsDenominator = 10000

	// MaxFeeBps caps each individual fee component at 5%.
	MaxFeeBps = 500
)

// TransferRequest describes one attempted token movement. It is produced
// by the caller of the transfer pipeline and consumed entirely within one
// pipeline invocation, never persisted.
type TransferRequest struct {
	From   Address
	To     Address
	Amount *uint256.Int
}

// FeeRates holds the fee components for one transaction case.
type FeeRates struct {
	LiquifyBps   uint64 // routed to the contract for later liquidity provisioning
	MarketingBps uint64 // routed to the contract for later marketing swaps
	BurnBps      uint64 // routed to the burn sink
}

// Total returns the sum of all components.
func (r FeeRates) Total() uint64 {
	return r.LiquifyBps + r.MarketingBps + r.BurnBps
}

// FeeSchedule keys fee rates by transaction case.
type FeeSchedule struct {
	Transfer FeeRates
	Buy      FeeRates
	Sell     FeeRates
}

// Rates returns the rates for the given case.
func (s FeeSchedule) Rates(c TxCase) FeeRates {
	switch c {
	case TxCaseBuy:
		return s.Buy
	case TxCaseSell:
		return s.Sell
	default:
		return s.Transfer
	}
}

// LiquifySum returns the liquify component summed across all three cases.
// The swap-and-liquify split intentionally uses these aggregate sums, not
// the rates of the case that triggered the swap.
func (s FeeSchedule) LiquifySum() uint64 {
	return s.Transfer.LiquifyBps + s.Buy.LiquifyBps + s.Sell.LiquifyBps
}

// MarketingSum returns the marketing component summed across all three cases.
func (s FeeSchedule) MarketingSum() uint64 {
	return s.Transfer.MarketingBps + s.Buy.MarketingBps + s.Sell.MarketingBps
}

// FeeBreakdown is the computed split of one taxed transfer amount.
// BurnAmount + ContractAmount + NetAmount always equals the original amount.
type FeeBreakdown struct {
	BurnAmount     *uint256.Int // sent to the burn sink
	ContractAmount *uint256.Int // held by the contract for swap-and-liquify
	NetAmount      *uint256.Int // delivered to the recipient
}
