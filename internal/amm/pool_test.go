package amm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/ledger"
)

var (
	poolAddr  = domain.MustParseAddress("0x00000000000000000000000000000000000000f0")
	tokenAddr = domain.MustParseAddress("0x00000000000000000000000000000000000000c0")
	trader    = domain.MustParseAddress("0x00000000000000000000000000000000000000aa")
	provider  = domain.MustParseAddress("0x00000000000000000000000000000000000000bb")
)

// newTestPool seeds a pool with the given reserves over a raw ledger and
// returns both. A fixed clock keeps deadline checks deterministic.
func newTestPool(t *testing.T, reserveToken, reserveNative uint64) (*Pool, *ledger.Memory, int64) {
	t.Helper()
	ctx := context.Background()
	led := ledger.NewMemory()

	now := time.UnixMilli(1_700_000_000_000).UTC()
	pool := NewPool(poolAddr, tokenAddr, led, led).WithClock(func() time.Time { return now })

	if reserveToken > 0 {
		if err := led.Mint(ctx, poolAddr, uint256.NewInt(reserveToken)); err != nil {
			t.Fatalf("seed token reserve: %v", err)
		}
	}
	if reserveNative > 0 {
		if err := led.MintNative(ctx, poolAddr, uint256.NewInt(reserveNative)); err != nil {
			t.Fatalf("seed native reserve: %v", err)
		}
	}
	return pool, led, now.UnixMilli()
}

func approveAndFund(t *testing.T, led *ledger.Memory, who domain.Address, tokens, native uint64) {
	t.Helper()
	ctx := context.Background()
	if tokens > 0 {
		if err := led.Mint(ctx, who, uint256.NewInt(tokens)); err != nil {
			t.Fatalf("fund tokens: %v", err)
		}
	}
	if native > 0 {
		if err := led.MintNative(ctx, who, uint256.NewInt(native)); err != nil {
			t.Fatalf("fund native: %v", err)
		}
	}
	if err := led.Approve(ctx, who, poolAddr, new(uint256.Int).SetAllOne()); err != nil {
		t.Fatalf("approve pool: %v", err)
	}
}

func swapPath() []domain.Address {
	return []domain.Address{tokenAddr, NativePlaceholder}
}

func TestPool_SwapConstantProductQuote(t *testing.T) {
	pool, led, nowMs := newTestPool(t, 10_000, 10_000)
	ctx := context.Background()
	approveAndFund(t, led, trader, 1_000, 0)

	err := pool.SwapExactTokensForNativeSupportingFeeOnTransfer(
		ctx, trader, uint256.NewInt(1_000), uint256.NewInt(0), swapPath(), trader, nowMs+1000)
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}

	// out = 10000 * 997000 / (10000*1000 + 997000) = 906 after flooring.
	if got := led.NativeBalanceOf(ctx, trader).Uint64(); got != 906 {
		t.Errorf("trader native = %d, want 906", got)
	}
	if got := led.BalanceOf(ctx, poolAddr).Uint64(); got != 11_000 {
		t.Errorf("pool token reserve = %d, want 11000", got)
	}
	if got := led.NativeBalanceOf(ctx, poolAddr).Uint64(); got != 9_094 {
		t.Errorf("pool native reserve = %d, want 9094", got)
	}
}

func TestPool_SwapRespectsMinimumOut(t *testing.T) {
	pool, led, nowMs := newTestPool(t, 10_000, 10_000)
	ctx := context.Background()
	approveAndFund(t, led, trader, 1_000, 0)

	err := pool.SwapExactTokensForNativeSupportingFeeOnTransfer(
		ctx, trader, uint256.NewInt(1_000), uint256.NewInt(907), swapPath(), trader, nowMs+1000)
	if !errors.Is(err, ErrInsufficientOutputAmount) {
		t.Fatalf("err = %v, want ErrInsufficientOutputAmount", err)
	}
	if got := led.NativeBalanceOf(ctx, trader); !got.IsZero() {
		t.Errorf("trader received native on rejected swap: %s", got)
	}
	if got := led.BalanceOf(ctx, trader).Uint64(); got != 1_000 {
		t.Errorf("trader tokens = %d after rejected swap, want 1000 refunded", got)
	}
}

func TestPool_FailedSwapRefundsPulledTokens(t *testing.T) {
	// A heavily token-skewed pool floors the quote to zero, failing the
	// swap after the input was already pulled.
	pool, led, nowMs := newTestPool(t, 10_000_000, 1)
	ctx := context.Background()
	approveAndFund(t, led, trader, 1_000, 0)

	err := pool.SwapExactTokensForNativeSupportingFeeOnTransfer(
		ctx, trader, uint256.NewInt(1_000), uint256.NewInt(0), swapPath(), trader, nowMs+1000)
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("err = %v, want ErrInsufficientLiquidity", err)
	}

	if got := led.BalanceOf(ctx, trader).Uint64(); got != 1_000 {
		t.Errorf("trader tokens = %d after failed swap, want 1000 refunded", got)
	}
	if got := led.BalanceOf(ctx, poolAddr).Uint64(); got != 10_000_000 {
		t.Errorf("pool reserve = %d after failed swap, want 10000000", got)
	}
}

func TestPool_AddLiquidityRefundsWhenNativePullFails(t *testing.T) {
	pool, led, nowMs := newTestPool(t, 10_000, 5_000)
	ctx := context.Background()
	// Tokens approved but no native to cover the deposit.
	approveAndFund(t, led, provider, 1_000, 0)

	err := pool.AddLiquidityNative(ctx, provider, tokenAddr,
		uint256.NewInt(1_000), uint256.NewInt(500),
		uint256.NewInt(0), uint256.NewInt(0), provider, nowMs+1000)
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	if got := led.BalanceOf(ctx, provider).Uint64(); got != 1_000 {
		t.Errorf("provider tokens = %d after failed deposit, want 1000 refunded", got)
	}
	if got := led.BalanceOf(ctx, poolAddr).Uint64(); got != 10_000 {
		t.Errorf("pool reserve = %d after failed deposit, want 10000", got)
	}
}

func TestPool_SwapDeadlineExpired(t *testing.T) {
	pool, led, nowMs := newTestPool(t, 10_000, 10_000)
	ctx := context.Background()
	approveAndFund(t, led, trader, 1_000, 0)

	err := pool.SwapExactTokensForNativeSupportingFeeOnTransfer(
		ctx, trader, uint256.NewInt(1_000), uint256.NewInt(0), swapPath(), trader, nowMs-1)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	// Nothing was pulled.
	if got := led.BalanceOf(ctx, trader).Uint64(); got != 1_000 {
		t.Errorf("trader tokens = %d, want 1000", got)
	}
}

func TestPool_SwapInvalidPath(t *testing.T) {
	pool, led, nowMs := newTestPool(t, 10_000, 10_000)
	ctx := context.Background()
	approveAndFund(t, led, trader, 1_000, 0)

	cases := [][]domain.Address{
		nil,
		{tokenAddr},
		{NativePlaceholder, tokenAddr},
		{trader, NativePlaceholder},
	}
	for _, path := range cases {
		err := pool.SwapExactTokensForNativeSupportingFeeOnTransfer(
			ctx, trader, uint256.NewInt(100), uint256.NewInt(0), path, trader, nowMs+1000)
		if !errors.Is(err, ErrInvalidPath) {
			t.Errorf("path %v: err = %v, want ErrInvalidPath", path, err)
		}
	}
}

func TestPool_SwapEmptyReserves(t *testing.T) {
	pool, led, nowMs := newTestPool(t, 0, 0)
	ctx := context.Background()
	approveAndFund(t, led, trader, 1_000, 0)

	err := pool.SwapExactTokensForNativeSupportingFeeOnTransfer(
		ctx, trader, uint256.NewInt(1_000), uint256.NewInt(0), swapPath(), trader, nowMs+1000)
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("err = %v, want ErrInsufficientLiquidity", err)
	}
}

func TestPool_SwapWithoutApproval(t *testing.T) {
	pool, led, nowMs := newTestPool(t, 10_000, 10_000)
	ctx := context.Background()
	if err := led.Mint(ctx, trader, uint256.NewInt(1_000)); err != nil {
		t.Fatalf("fund tokens: %v", err)
	}

	err := pool.SwapExactTokensForNativeSupportingFeeOnTransfer(
		ctx, trader, uint256.NewInt(1_000), uint256.NewInt(0), swapPath(), trader, nowMs+1000)
	if !errors.Is(err, ledger.ErrInsufficientAllowance) {
		t.Fatalf("err = %v, want ErrInsufficientAllowance", err)
	}
}

func TestPool_AddLiquidityIntoEmptyPool(t *testing.T) {
	pool, led, nowMs := newTestPool(t, 0, 0)
	ctx := context.Background()
	approveAndFund(t, led, provider, 10_000, 5_000)

	err := pool.AddLiquidityNative(ctx, provider, tokenAddr,
		uint256.NewInt(10_000), uint256.NewInt(5_000),
		uint256.NewInt(0), uint256.NewInt(0), provider, nowMs+1000)
	if err != nil {
		t.Fatalf("AddLiquidityNative failed: %v", err)
	}

	if got := led.BalanceOf(ctx, poolAddr).Uint64(); got != 10_000 {
		t.Errorf("pool tokens = %d, want 10000", got)
	}
	if got := led.NativeBalanceOf(ctx, poolAddr).Uint64(); got != 5_000 {
		t.Errorf("pool native = %d, want 5000", got)
	}
}

func TestPool_AddLiquidityMatchesRatio(t *testing.T) {
	// Reserves at 2:1 token:native. Excess native stays with the provider.
	pool, led, nowMs := newTestPool(t, 10_000, 5_000)
	ctx := context.Background()
	approveAndFund(t, led, provider, 1_000, 800)

	err := pool.AddLiquidityNative(ctx, provider, tokenAddr,
		uint256.NewInt(1_000), uint256.NewInt(800),
		uint256.NewInt(0), uint256.NewInt(0), provider, nowMs+1000)
	if err != nil {
		t.Fatalf("AddLiquidityNative failed: %v", err)
	}

	if got := led.BalanceOf(ctx, poolAddr).Uint64(); got != 11_000 {
		t.Errorf("pool tokens = %d, want 11000", got)
	}
	if got := led.NativeBalanceOf(ctx, poolAddr).Uint64(); got != 5_500 {
		t.Errorf("pool native = %d, want 5500", got)
	}
	if got := led.NativeBalanceOf(ctx, provider).Uint64(); got != 300 {
		t.Errorf("provider native = %d, want 300 kept back", got)
	}
}

func TestPool_AddLiquidityScalesTokenSide(t *testing.T) {
	// Too little native offered for the desired tokens: the token side is
	// scaled down to match instead.
	pool, led, nowMs := newTestPool(t, 10_000, 5_000)
	ctx := context.Background()
	approveAndFund(t, led, provider, 1_000, 400)

	err := pool.AddLiquidityNative(ctx, provider, tokenAddr,
		uint256.NewInt(1_000), uint256.NewInt(400),
		uint256.NewInt(0), uint256.NewInt(0), provider, nowMs+1000)
	if err != nil {
		t.Fatalf("AddLiquidityNative failed: %v", err)
	}

	if got := led.BalanceOf(ctx, poolAddr).Uint64(); got != 10_800 {
		t.Errorf("pool tokens = %d, want 10800", got)
	}
	if got := led.BalanceOf(ctx, provider).Uint64(); got != 200 {
		t.Errorf("provider tokens = %d, want 200 kept back", got)
	}
	if got := led.NativeBalanceOf(ctx, poolAddr).Uint64(); got != 5_400 {
		t.Errorf("pool native = %d, want 5400", got)
	}
}

func TestPool_AddLiquidityBelowMinimumRejected(t *testing.T) {
	pool, led, nowMs := newTestPool(t, 10_000, 5_000)
	ctx := context.Background()
	approveAndFund(t, led, provider, 1_000, 800)

	// Ratio matching would use 500 native, below the 600 minimum.
	err := pool.AddLiquidityNative(ctx, provider, tokenAddr,
		uint256.NewInt(1_000), uint256.NewInt(800),
		uint256.NewInt(0), uint256.NewInt(600), provider, nowMs+1000)
	if !errors.Is(err, ErrInsufficientOutputAmount) {
		t.Fatalf("err = %v, want ErrInsufficientOutputAmount", err)
	}
	if got := led.BalanceOf(ctx, provider).Uint64(); got != 1_000 {
		t.Errorf("provider tokens = %d, want 1000 untouched", got)
	}
}

func TestPool_AddLiquidityWrongToken(t *testing.T) {
	pool, _, nowMs := newTestPool(t, 10_000, 5_000)
	ctx := context.Background()

	err := pool.AddLiquidityNative(ctx, provider, trader,
		uint256.NewInt(1_000), uint256.NewInt(500),
		uint256.NewInt(0), uint256.NewInt(0), provider, nowMs+1000)
	if !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("err = %v, want ErrInvalidPath", err)
	}
}
