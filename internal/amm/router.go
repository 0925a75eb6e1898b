// Package amm models the external AMM router the token contract calls out
// to for swap-and-liquify. The Router interface mirrors the router entry
// points the contract uses; Pool is a constant-product implementation
// backed by the shared account ledger.
package amm

import (
	"context"
	"errors"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/domain"
)

// Router errors
var (
	// ErrExpired is returned when a call's deadline has passed.
	ErrExpired = errors.New("router: deadline expired")

	// ErrInsufficientOutputAmount is returned when execution would deliver
	// less than the caller's minimum.
	ErrInsufficientOutputAmount = errors.New("router: insufficient output amount")

	// ErrInsufficientLiquidity is returned when the pool cannot serve a swap.
	ErrInsufficientLiquidity = errors.New("router: insufficient liquidity")

	// ErrInvalidPath is returned when the swap path does not end in the
	// native currency placeholder.
	ErrInvalidPath = errors.New("router: invalid path")
)

// Router is the AMM capability consumed by the swap coordinator. The
// 'from' argument models the EVM msg.sender: the router pulls input tokens
// from it via the ledger allowance, so callers approve the router first.
type Router interface {
	// SwapExactTokensForNativeSupportingFeeOnTransfer swaps amountIn tokens
	// for native currency, crediting the proceeds to 'to'. The output is
	// quoted on the tokens actually received by the pool, so fee-on-transfer
	// tokens are handled. Fails if less than amountOutMin would be delivered
	// or the deadline (unix ms) has passed.
	SwapExactTokensForNativeSupportingFeeOnTransfer(ctx context.Context, from domain.Address, amountIn, amountOutMin *uint256.Int, path []domain.Address, to domain.Address, deadlineMs int64) error

	// AddLiquidityNative deposits amountTokenDesired tokens and
	// amountNativeDesired native currency into the pool. The native amount
	// models the payable value of the original entry point. Unused excess of
	// either side stays with 'from'; liquidity is credited to 'to'.
	AddLiquidityNative(ctx context.Context, from domain.Address, token domain.Address, amountTokenDesired, amountNativeDesired, amountTokenMin, amountNativeMin *uint256.Int, to domain.Address, deadlineMs int64) error
}

// Token is the token capability the pool consumes: balance reads and
// allowance-based pulls. Both a raw ledger and the fee pipeline satisfy
// it; wiring the pipeline makes pool pulls run the transfer hook, which
// is what the contract's re-entrancy lock exists for.
type Token interface {
	BalanceOf(ctx context.Context, addr domain.Address) *uint256.Int
	TransferFrom(ctx context.Context, spender, from, to domain.Address, amount *uint256.Int) error
}

// NativePlaceholder is the conventional path terminator standing in for
// the native currency (the wrapped-native address slot).
var NativePlaceholder = domain.MustParseAddress("0x000000000000000000000000000000000000000e")
