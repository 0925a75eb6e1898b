package amm

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/ledger"
)

// Swap fee constants: 0.3% taken on input, expressed as 997/1000.
const (
	swapFeeNumerator   = 997
	swapFeeDenominator = 1000
)

// Book is the pool's direct ledger access: native-currency legs plus token
// refunds when a later leg of a call fails. Refunds bypass the transfer
// hook so a failed call restores the balances it touched.
type Book interface {
	ledger.NativeLedger
	Transfer(ctx context.Context, from, to domain.Address, amount *uint256.Int) error
}

// Pool is a constant-product token/native pool. It holds its reserves as
// ordinary ledger balances under its own address, so reserve accounting and
// account accounting can never drift apart.
type Pool struct {
	addr   domain.Address
	token  domain.Address
	tokens Token
	book   Book
	clock  func() time.Time
}

// NewPool creates a pool trading 'token' against the native currency.
// Reserves are seeded by transferring balances to poolAddr, or via
// AddLiquidityNative. The pool acts as both router and pair: callers
// approve the pool's own address before swaps.
func NewPool(poolAddr, token domain.Address, tokens Token, book Book) *Pool {
	return &Pool{
		addr:   poolAddr,
		token:  token,
		tokens: tokens,
		book:   book,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock for deterministic deadline checks.
func (p *Pool) WithClock(clock func() time.Time) *Pool {
	p.clock = clock
	return p
}

// Address returns the pool's account address. Registering it as a
// liquidity pair on the token makes transfers to/from it classify as
// sells/buys.
func (p *Pool) Address() domain.Address {
	return p.addr
}

// SwapExactTokensForNativeSupportingFeeOnTransfer implements Router.
func (p *Pool) SwapExactTokensForNativeSupportingFeeOnTransfer(ctx context.Context, from domain.Address, amountIn, amountOutMin *uint256.Int, path []domain.Address, to domain.Address, deadlineMs int64) error {
	if err := p.checkDeadline(deadlineMs); err != nil {
		return err
	}
	if len(path) < 2 || path[0] != p.token || path[len(path)-1] != NativePlaceholder {
		return ErrInvalidPath
	}

	reserveToken := p.tokens.BalanceOf(ctx, p.addr)
	reserveNative := p.book.NativeBalanceOf(ctx, p.addr)
	if reserveToken.IsZero() || reserveNative.IsZero() {
		return ErrInsufficientLiquidity
	}

	// Pull input tokens, then quote on the amount actually received so
	// fee-on-transfer tokens are priced correctly. Every failure after the
	// pull refunds what landed: the call reverts as a unit.
	if err := p.tokens.TransferFrom(ctx, p.addr, from, p.addr, amountIn); err != nil {
		return fmt.Errorf("pull input tokens: %w", err)
	}
	received := new(uint256.Int).Sub(p.tokens.BalanceOf(ctx, p.addr), reserveToken)
	if received.IsZero() {
		return ErrInsufficientLiquidity
	}

	amountOut, err := quoteOut(received, reserveToken, reserveNative)
	if err != nil {
		return p.refund(ctx, from, received, err)
	}
	if amountOut.Lt(amountOutMin) {
		return p.refund(ctx, from, received, ErrInsufficientOutputAmount)
	}
	if amountOut.IsZero() || !amountOut.Lt(reserveNative) {
		return p.refund(ctx, from, received, ErrInsufficientLiquidity)
	}

	if err := p.book.TransferNative(ctx, p.addr, to, amountOut); err != nil {
		return p.refund(ctx, from, received, fmt.Errorf("pay native out: %w", err))
	}
	return nil
}

// refund returns tokens that landed at the pool back to the caller when a
// later leg of the same call fails, then surfaces the original cause.
func (p *Pool) refund(ctx context.Context, to domain.Address, amount *uint256.Int, cause error) error {
	if amount.IsZero() {
		return cause
	}
	if err := p.book.Transfer(ctx, p.addr, to, amount); err != nil {
		return fmt.Errorf("refund pulled tokens (%v): %w", err, cause)
	}
	return cause
}

// AddLiquidityNative implements Router.
func (p *Pool) AddLiquidityNative(ctx context.Context, from domain.Address, token domain.Address, amountTokenDesired, amountNativeDesired, amountTokenMin, amountNativeMin *uint256.Int, to domain.Address, deadlineMs int64) error {
	if err := p.checkDeadline(deadlineMs); err != nil {
		return err
	}
	if token != p.token {
		return ErrInvalidPath
	}

	reserveToken := p.tokens.BalanceOf(ctx, p.addr)
	reserveNative := p.book.NativeBalanceOf(ctx, p.addr)

	amountToken := amountTokenDesired.Clone()
	amountNative := amountNativeDesired.Clone()

	// Against nonempty reserves, take the smaller ratio-matched pair so the
	// price cannot be moved by a deposit.
	if !reserveToken.IsZero() && !reserveNative.IsZero() {
		nativeOptimal, err := quoteProportional(amountTokenDesired, reserveToken, reserveNative)
		if err != nil {
			return err
		}
		if !nativeOptimal.Gt(amountNativeDesired) {
			if nativeOptimal.Lt(amountNativeMin) {
				return ErrInsufficientOutputAmount
			}
			amountNative = nativeOptimal
		} else {
			tokenOptimal, err := quoteProportional(amountNativeDesired, reserveNative, reserveToken)
			if err != nil {
				return err
			}
			if tokenOptimal.Gt(amountTokenDesired) || tokenOptimal.Lt(amountTokenMin) {
				return ErrInsufficientOutputAmount
			}
			amountToken = tokenOptimal
		}
	}

	if err := p.tokens.TransferFrom(ctx, p.addr, from, p.addr, amountToken); err != nil {
		return fmt.Errorf("pull liquidity tokens: %w", err)
	}
	receivedToken := new(uint256.Int).Sub(p.tokens.BalanceOf(ctx, p.addr), reserveToken)
	if err := p.book.TransferNative(ctx, from, p.addr, amountNative); err != nil {
		return p.refund(ctx, from, receivedToken, fmt.Errorf("pull liquidity native: %w", err))
	}
	return nil
}

// checkDeadline rejects calls whose deadline has passed.
func (p *Pool) checkDeadline(deadlineMs int64) error {
	if p.clock().UnixMilli() > deadlineMs {
		return ErrExpired
	}
	return nil
}

// quoteOut computes constant-product output with the 0.3% input fee:
// out = reserveOut * in*997 / (reserveIn*1000 + in*997), floor division.
func quoteOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	inWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, uint256.NewInt(swapFeeNumerator))
	if overflow {
		return nil, ErrInsufficientLiquidity
	}
	numerator, overflow := new(uint256.Int).MulOverflow(reserveOut, inWithFee)
	if overflow {
		return nil, ErrInsufficientLiquidity
	}
	scaledReserve, overflow := new(uint256.Int).MulOverflow(reserveIn, uint256.NewInt(swapFeeDenominator))
	if overflow {
		return nil, ErrInsufficientLiquidity
	}
	denominator, overflow := new(uint256.Int).AddOverflow(scaledReserve, inWithFee)
	if overflow {
		return nil, ErrInsufficientLiquidity
	}
	return new(uint256.Int).Div(numerator, denominator), nil
}

// quoteProportional computes amount * reserveB / reserveA, floor division.
func quoteProportional(amount, reserveA, reserveB *uint256.Int) (*uint256.Int, error) {
	numerator, overflow := new(uint256.Int).MulOverflow(amount, reserveB)
	if overflow {
		return nil, ErrInsufficientLiquidity
	}
	return new(uint256.Int).Div(numerator, reserveA), nil
}

var _ Router = (*Pool)(nil)
