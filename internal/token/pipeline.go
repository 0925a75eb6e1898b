// Package token implements the fee-on-transfer pipeline: classification,
// fee application, anti-whale limits and the swap-and-liquify trigger.
// The package is re-architected from a single merged contract into
// explicit stages over a TokenLedger collaborator.
package token

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/amm"
	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/ledger"
	"evm-token-lab/internal/observability"
)

// Pipeline is the transfer hook. Every token movement runs through it:
// blacklist pre-checks, classification, limit and balance validation, the
// liquify trigger, fee application and the final net transfer, in that
// order.
//
// Execution is transaction-serialized by the host: Transfer must not be
// called concurrently. Nested calls (the AMM router pulling tokens during
// swap-and-liquify re-enters the hook) are legal; the SWAPPING flag is the
// sole guard against nested liquify triggering.
type Pipeline struct {
	cfg      *Config
	tokens   ledger.TokenLedger
	native   ledger.NativeLedger
	contract domain.Address // the token contract's own address; doubles as the token address

	router     amm.Router
	routerAddr domain.Address

	events EventSink
	clock  func() time.Time

	inSwapAndLiquify bool
}

// NewPipeline creates a transfer pipeline for the token at contractAddr.
// The contract address is fee- and limit-exempt implicitly through the
// configuration the caller seeds.
func NewPipeline(contractAddr domain.Address, cfg *Config, tokens ledger.TokenLedger, native ledger.NativeLedger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		tokens:   tokens,
		native:   native,
		contract: contractAddr,
		events:   NewCollector(),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// WithRouter wires the AMM router used for swap-and-liquify. Without a
// router the liquify trigger never fires.
func (p *Pipeline) WithRouter(router amm.Router, routerAddr domain.Address) *Pipeline {
	p.router = router
	p.routerAddr = routerAddr
	return p
}

// WithEvents replaces the event sink.
func (p *Pipeline) WithEvents(sink EventSink) *Pipeline {
	p.events = sink
	return p
}

// WithClock sets a custom clock for deterministic timestamps and deadlines.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// Config returns the pipeline's configuration surface.
func (p *Pipeline) Config() *Config {
	return p.cfg
}

// ContractAddress returns the token contract's own address.
func (p *Pipeline) ContractAddress() domain.Address {
	return p.contract
}

// InSwap reports whether a swap-and-liquify round is in progress.
func (p *Pipeline) InSwap() bool {
	return p.inSwapAndLiquify
}

// Transfer runs one token movement through the full pipeline. It either
// fully succeeds, with fees taken as configured, or fails with no token
// movement at all. Swap-and-liquify failures inside it are absorbed and
// reported via events, never returned.
func (p *Pipeline) Transfer(ctx context.Context, req domain.TransferRequest) error {
	if req.From.IsZero() || req.To.IsZero() {
		return ErrZeroAddress
	}
	if req.Amount == nil || req.Amount.IsZero() {
		return ErrZeroAmount
	}
	if p.cfg.IsBlacklisted(req.From) || p.cfg.IsBlacklisted(req.To) {
		return ErrBlacklisted
	}

	feeApplied, txCase := Classify(p.cfg, req.From, req.To)

	breakdown := domain.FeeBreakdown{
		BurnAmount:     uint256.NewInt(0),
		ContractAmount: uint256.NewInt(0),
		NetAmount:      req.Amount.Clone(),
	}
	if feeApplied {
		var err error
		breakdown, err = SplitFee(req.Amount, p.cfg.Fees().Rates(txCase))
		if err != nil {
			return err
		}
	}

	// Validate everything before the first ledger mutation so a failure
	// leaves no partial movement. The limit checks see the post-fee amount.
	if err := p.checkLimits(ctx, req, breakdown.NetAmount); err != nil {
		return err
	}
	if p.tokens.BalanceOf(ctx, req.From).Lt(req.Amount) {
		return ledger.ErrInsufficientBalance
	}

	// The trigger check runs once per transfer, after validation (a
	// transfer rejected above must not have executed a swap round) and
	// before this transfer's own fee application.
	p.maybeSwapAndLiquify(ctx, feeApplied)

	if !breakdown.BurnAmount.IsZero() {
		if err := p.tokens.Transfer(ctx, req.From, domain.BurnSink, breakdown.BurnAmount); err != nil {
			return fmt.Errorf("burn portion: %w", err)
		}
	}
	if !breakdown.ContractAmount.IsZero() {
		if err := p.tokens.Transfer(ctx, req.From, p.contract, breakdown.ContractAmount); err != nil {
			return fmt.Errorf("fee portion: %w", err)
		}
	}
	if !breakdown.NetAmount.IsZero() {
		if err := p.tokens.Transfer(ctx, req.From, req.To, breakdown.NetAmount); err != nil {
			return fmt.Errorf("net transfer: %w", err)
		}
	}

	p.events.Emit(ctx, domain.TransferEvent{
		From:        req.From,
		To:          req.To,
		Amount:      req.Amount.Clone(),
		NetAmount:   breakdown.NetAmount.Clone(),
		BurnAmount:  breakdown.BurnAmount.Clone(),
		FeeAmount:   breakdown.ContractAmount.Clone(),
		Case:        txCase,
		FeeApplied:  feeApplied,
		TimestampMs: p.clock().UnixMilli(),
	})
	observability.RecordTransfer(string(txCase), feeApplied)
	return nil
}

// TransferFrom runs the pipeline on behalf of spender, consuming its
// allowance over 'from'. The allowance check happens before the pipeline
// runs and the debit only after it succeeds, so a failed transfer leaves
// the allowance untouched.
func (p *Pipeline) TransferFrom(ctx context.Context, spender, from, to domain.Address, amount *uint256.Int) error {
	if spender.IsZero() {
		return ErrZeroAddress
	}
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}

	allowed := p.tokens.Allowance(ctx, from, spender)
	if allowed.Lt(amount) {
		return ledger.ErrInsufficientAllowance
	}

	if err := p.Transfer(ctx, domain.TransferRequest{From: from, To: to, Amount: amount}); err != nil {
		return err
	}

	remaining := new(uint256.Int).Sub(allowed, amount)
	return p.tokens.Approve(ctx, from, spender, remaining)
}

// BalanceOf exposes the ledger balance through the pipeline, so the
// pipeline satisfies the AMM's token capability.
func (p *Pipeline) BalanceOf(ctx context.Context, addr domain.Address) *uint256.Int {
	return p.tokens.BalanceOf(ctx, addr)
}

// checkLimits enforces max-tx and max-wallet on the post-fee amount.
func (p *Pipeline) checkLimits(ctx context.Context, req domain.TransferRequest, netAmount *uint256.Int) error {
	if !p.cfg.IsTxLimitExempt(req.From) && !p.cfg.IsTxLimitExempt(req.To) {
		if netAmount.Gt(p.cfg.MaxTxAmount()) {
			return ErrMaxTxExceeded
		}
	}

	if !p.cfg.IsWalletLimitExempt(req.To) && !p.cfg.IsPair(req.To) {
		after, overflow := new(uint256.Int).AddOverflow(p.tokens.BalanceOf(ctx, req.To), netAmount)
		if overflow {
			return ErrAmountOverflow
		}
		if after.Gt(p.cfg.MaxWalletAmount()) {
			return ErrMaxWalletExceeded
		}
	}
	return nil
}
