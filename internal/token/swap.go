package token

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/amm"
	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/observability"
)

// swapDeadline is the fixed deadline passed to every router call. The
// router enforces it, not this code.
const swapDeadline = 300 * time.Second

// swapAndLiquify converts amount of contract-held tokens into liquidity
// and marketing proceeds. Invoked only while holding the SWAPPING flag.
//
// Failure policy: every external-call failure in here is absorbed and
// reported via events. The tokens stay with the contract and are retried
// on a later trigger; the enclosing transfer always completes.
func (p *Pipeline) swapAndLiquify(ctx context.Context, amount *uint256.Int, marketingBpsSum, liquifyBpsSum uint64) {
	if marketingBpsSum+liquifyBpsSum == 0 {
		return
	}

	// liquifyPortion = amount * liquifySum / (marketingSum + liquifySum),
	// marketing takes the exact remainder so nothing is stranded.
	scaled, overflow := new(uint256.Int).MulOverflow(amount, uint256.NewInt(liquifyBpsSum))
	if overflow {
		// Cannot split; leave the tokens for a later round.
		return
	}
	liquifyPortion := scaled.Div(scaled, uint256.NewInt(marketingBpsSum+liquifyBpsSum))
	marketingPortion := new(uint256.Int).Sub(amount, liquifyPortion)

	if !liquifyPortion.IsZero() {
		p.liquify(ctx, liquifyPortion, marketingPortion)
	}

	if !marketingPortion.IsZero() {
		received, err := p.swapTokensForNative(ctx, marketingPortion, p.cfg.MarketingWallet())
		if err != nil {
			p.reportSwapFailure(ctx, marketingPortion, p.cfg.MarketingWallet(), err)
			return
		}
		p.events.Emit(ctx, domain.MarketingSwapEvent{
			TokensSwapped:  marketingPortion.Clone(),
			NativeReceived: received,
			Wallet:         p.cfg.MarketingWallet(),
			TimestampMs:    p.clock().UnixMilli(),
		})
	}
}

// liquify swaps half the portion for native currency and pairs the other
// half with the proceeds as pool liquidity. marketingPortion is carried
// only for the round summary event.
func (p *Pipeline) liquify(ctx context.Context, portion, marketingPortion *uint256.Int) {
	half := new(uint256.Int).Div(portion, uint256.NewInt(2))
	otherHalf := new(uint256.Int).Sub(portion, half)

	received, err := p.swapTokensForNative(ctx, half, p.contract)
	if err != nil {
		p.reportSwapFailure(ctx, half, p.contract, err)
		return
	}

	if otherHalf.IsZero() || received.IsZero() {
		return
	}

	if err := p.addLiquidity(ctx, otherHalf, received); err != nil {
		observability.RecordSwapFailure("add_liquidity")
		p.events.Emit(ctx, domain.LiquidityFailureEvent{
			TokenAmount:  otherHalf.Clone(),
			NativeAmount: received.Clone(),
			Reason:       err.Error(),
			TimestampMs:  p.clock().UnixMilli(),
		})
		return
	}

	p.events.Emit(ctx, domain.LiquidityAddedEvent{
		TokenAmount:  otherHalf.Clone(),
		NativeAmount: received.Clone(),
		Recipient:    p.cfg.LiquidityWallet(),
		TimestampMs:  p.clock().UnixMilli(),
	})
	p.events.Emit(ctx, domain.SwapAndLiquifyEvent{
		TokensSwapped:   half.Clone(),
		NativeReceived:  received.Clone(),
		TokensIntoPool:  otherHalf.Clone(),
		MarketingTokens: marketingPortion.Clone(),
		TimestampMs:     p.clock().UnixMilli(),
	})
}

// swapTokensForNative approves the router and swaps amountIn contract-held
// tokens for native currency. The received amount is measured as the
// recipient's native balance delta, which stays correct for
// fee-on-transfer execution paths. Zero minimum output: slippage
// unprotected by design.
func (p *Pipeline) swapTokensForNative(ctx context.Context, amountIn *uint256.Int, to domain.Address) (*uint256.Int, error) {
	if err := p.tokens.Approve(ctx, p.contract, p.routerAddr, amountIn); err != nil {
		return nil, err
	}

	before := p.native.NativeBalanceOf(ctx, to)
	path := []domain.Address{p.contract, amm.NativePlaceholder}
	deadline := p.clock().Add(swapDeadline).UnixMilli()

	err := p.router.SwapExactTokensForNativeSupportingFeeOnTransfer(ctx, p.contract, amountIn, uint256.NewInt(0), path, to, deadline)
	if err != nil {
		return nil, err
	}

	after := p.native.NativeBalanceOf(ctx, to)
	return new(uint256.Int).Sub(after, before), nil
}

// addLiquidity approves the router and deposits tokenAmount plus
// nativeAmount into the pool with zero minimums and the fixed deadline.
func (p *Pipeline) addLiquidity(ctx context.Context, tokenAmount, nativeAmount *uint256.Int) error {
	if err := p.tokens.Approve(ctx, p.contract, p.routerAddr, tokenAmount); err != nil {
		return err
	}

	deadline := p.clock().Add(swapDeadline).UnixMilli()
	zero := uint256.NewInt(0)
	return p.router.AddLiquidityNative(ctx, p.contract, p.contract, tokenAmount, nativeAmount, zero, zero, p.cfg.LiquidityWallet(), deadline)
}

// reportSwapFailure emits the absorbed-failure event for a swap leg.
func (p *Pipeline) reportSwapFailure(ctx context.Context, amountIn *uint256.Int, to domain.Address, err error) {
	observability.RecordSwapFailure("swap")
	p.events.Emit(ctx, domain.SwapFailureEvent{
		AmountIn:    amountIn.Clone(),
		Recipient:   to,
		Reason:      err.Error(),
		TimestampMs: p.clock().UnixMilli(),
	})
}
