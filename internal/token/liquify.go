package token

import (
	"context"

	"evm-token-lab/internal/observability"
)

// maybeSwapAndLiquify is the liquify trigger, checked once per transfer
// before that transfer's fee application. It fires only when all four
// guards hold: not already swapping, fee applies to this transfer, the
// feature is enabled, and the contract's token balance has reached the
// threshold. The SWAPPING flag is released on every exit path, success or
// failure, so a router fault can never wedge the trigger.
func (p *Pipeline) maybeSwapAndLiquify(ctx context.Context, feeApplied bool) {
	if p.inSwapAndLiquify || !feeApplied || !p.cfg.SwapEnabled() || p.router == nil {
		return
	}

	threshold := p.cfg.SwapThreshold()
	if p.tokens.BalanceOf(ctx, p.contract).Lt(threshold) {
		return
	}

	p.inSwapAndLiquify = true
	defer func() { p.inSwapAndLiquify = false }()

	// The split ratio uses each component summed across all three tx-case
	// schedules, not the rates of the transfer that tripped the threshold.
	fees := p.cfg.Fees()
	observability.RecordSwapRound()
	p.swapAndLiquify(ctx, threshold, fees.MarketingSum(), fees.LiquifySum())
}
