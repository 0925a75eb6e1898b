package domain

import "github.com/holiman/uint256"

// Event kind constants
const (
	EventKindTransfer         = "TRANSFER"
	EventKindApproval         = "APPROVAL"
	EventKindSwapAndLiquify   = "SWAP_AND_LIQUIFY"
	EventKindSwapFailure      = "SWAP_FAILURE"
	EventKindLiquidityAdded   = "LIQUIDITY_ADDED"
	EventKindLiquidityFailure = "LIQUIDITY_FAILURE"
	EventKindMarketingSwap    = "MARKETING_SWAP"
	EventKindContribution     = "CONTRIBUTION"
	EventKindClaim            = "CLAIM"
	EventKindRefund           = "REFUND"
	EventKindStake            = "STAKE"
	EventKindUnstake          = "UNSTAKE"
	EventKindRewardPaid       = "REWARD_PAID"
)

// Event is an observable record emitted by a contract operation.
type Event interface {
	Kind() string
}

// TransferEvent records a completed token movement, including the fee
// split that was applied to it.
type TransferEvent struct {
	From        Address
	To          Address
	Amount      *uint256.Int // original requested amount
	NetAmount   *uint256.Int // amount delivered to the recipient
	BurnAmount  *uint256.Int
	FeeAmount   *uint256.Int // portion retained by the contract
	Case        TxCase
	FeeApplied  bool
	TimestampMs int64
}

// Kind implements Event.
func (e TransferEvent) Kind() string { return EventKindTransfer }

// SwapAndLiquifyEvent records a successful swap-and-liquify round.
type SwapAndLiquifyEvent struct {
	TokensSwapped   *uint256.Int
	NativeReceived  *uint256.Int
	TokensIntoPool  *uint256.Int
	MarketingTokens *uint256.Int
	TimestampMs     int64
}

// Kind implements Event.
func (e SwapAndLiquifyEvent) Kind() string { return EventKindSwapAndLiquify }

// SwapFailureEvent records an absorbed AMM swap failure. The enclosing
// transfer still completes; the tokens stay with the contract.
type SwapFailureEvent struct {
	AmountIn    *uint256.Int
	Recipient   Address
	Reason      string
	TimestampMs int64
}

// Kind implements Event.
func (e SwapFailureEvent) Kind() string { return EventKindSwapFailure }

// LiquidityAddedEvent records a successful add-liquidity call.
type LiquidityAddedEvent struct {
	TokenAmount  *uint256.Int
	NativeAmount *uint256.Int
	Recipient    Address
	TimestampMs  int64
}

// Kind implements Event.
func (e LiquidityAddedEvent) Kind() string { return EventKindLiquidityAdded }

// LiquidityFailureEvent records an absorbed add-liquidity failure.
type LiquidityFailureEvent struct {
	TokenAmount  *uint256.Int
	NativeAmount *uint256.Int
	Reason       string
	TimestampMs  int64
}

// Kind implements Event.
func (e LiquidityFailureEvent) Kind() string { return EventKindLiquidityFailure }

// MarketingSwapEvent records a successful swap of the marketing portion
// to the marketing wallet.
type MarketingSwapEvent struct {
	TokensSwapped  *uint256.Int
	NativeReceived *uint256.Int
	Wallet         Address
	TimestampMs    int64
}

// Kind implements Event.
func (e MarketingSwapEvent) Kind() string { return EventKindMarketingSwap }

// ContributionEvent records an accepted ICO contribution.
type ContributionEvent struct {
	Buyer        Address
	NativeAmount *uint256.Int
	TimestampMs  int64
}

// Kind implements Event.
func (e ContributionEvent) Kind() string { return EventKindContribution }

// ClaimEvent records a successful ICO token claim.
type ClaimEvent struct {
	Buyer       Address
	TokenAmount *uint256.Int
	TimestampMs int64
}

// Kind implements Event.
func (e ClaimEvent) Kind() string { return EventKindClaim }

// RefundEvent records an ICO refund after a missed soft cap.
type RefundEvent struct {
	Buyer        Address
	NativeAmount *uint256.Int
	TimestampMs  int64
}

// Kind implements Event.
func (e RefundEvent) Kind() string { return EventKindRefund }

// StakeEvent records an NFT deposited into the farm.
type StakeEvent struct {
	Owner       Address
	TokenID     uint64
	LockUntilMs int64
	TimestampMs int64
}

// Kind implements Event.
func (e StakeEvent) Kind() string { return EventKindStake }

// UnstakeEvent records an NFT withdrawn from the farm.
type UnstakeEvent struct {
	Owner       Address
	TokenID     uint64
	TimestampMs int64
}

// Kind implements Event.
func (e UnstakeEvent) Kind() string { return EventKindUnstake }

// RewardPaidEvent records staking rewards minted to an NFT owner.
type RewardPaidEvent struct {
	Owner       Address
	TokenID     uint64
	Amount      *uint256.Int
	TimestampMs int64
}

// Kind implements Event.
func (e RewardPaidEvent) Kind() string { return EventKindRewardPaid }
