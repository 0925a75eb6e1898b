// Package stub provides a failure-injectable AMM router for tests.
package stub

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/amm"
	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/ledger"
)

// Router is a scriptable Router implementation. By default every swap
// delivers NativePerSwap to the recipient and every add-liquidity call
// succeeds; either call can be made to fail with a configured error.
type Router struct {
	mu sync.Mutex

	// Failure injection
	SwapErr         error // returned by swap calls when non-nil
	AddLiquidityErr error // returned by add-liquidity calls when non-nil

	// SwapHook, when set, runs during each swap call, the way a real pool
	// re-enters the token while pulling its input.
	SwapHook func(ctx context.Context)

	// NativePerSwap is credited to the swap recipient on success.
	NativePerSwap *uint256.Int

	// Call log
	SwapCalls         []SwapCall
	AddLiquidityCalls []AddLiquidityCall

	native ledger.NativeLedger
	faucet domain.Address // funded account the stub pays swap proceeds from
}

// SwapCall records one swap invocation.
type SwapCall struct {
	From     domain.Address
	AmountIn *uint256.Int
	To       domain.Address
	Deadline int64
}

// AddLiquidityCall records one add-liquidity invocation.
type AddLiquidityCall struct {
	From         domain.Address
	TokenAmount  *uint256.Int
	NativeAmount *uint256.Int
	To           domain.Address
	Deadline     int64
}

// NewRouter creates a stub router paying swap proceeds from faucet.
func NewRouter(native ledger.NativeLedger, faucet domain.Address) *Router {
	return &Router{
		NativePerSwap: uint256.NewInt(0),
		native:        native,
		faucet:        faucet,
	}
}

// SwapExactTokensForNativeSupportingFeeOnTransfer implements amm.Router.
func (r *Router) SwapExactTokensForNativeSupportingFeeOnTransfer(ctx context.Context, from domain.Address, amountIn, _ *uint256.Int, _ []domain.Address, to domain.Address, deadlineMs int64) error {
	r.mu.Lock()
	r.SwapCalls = append(r.SwapCalls, SwapCall{From: from, AmountIn: amountIn.Clone(), To: to, Deadline: deadlineMs})
	err := r.SwapErr
	payout := r.NativePerSwap.Clone()
	hook := r.SwapHook
	r.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return err
	}
	if payout.IsZero() {
		return nil
	}
	return r.native.TransferNative(ctx, r.faucet, to, payout)
}

// AddLiquidityNative implements amm.Router.
func (r *Router) AddLiquidityNative(_ context.Context, from domain.Address, _ domain.Address, amountTokenDesired, amountNativeDesired, _, _ *uint256.Int, to domain.Address, deadlineMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.AddLiquidityCalls = append(r.AddLiquidityCalls, AddLiquidityCall{
		From:         from,
		TokenAmount:  amountTokenDesired.Clone(),
		NativeAmount: amountNativeDesired.Clone(),
		To:           to,
		Deadline:     deadlineMs,
	})
	return r.AddLiquidityErr
}

var _ amm.Router = (*Router)(nil)
