package farm

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
	farmAddr = domain.MustParseAddress("0x0000000000000000000000000000000000000f01")
	staker   = domain.MustParseAddress("0x0000000000000000000000000000000000000e01")
	stranger = domain.MustParseAddress("0x0000000000000000000000000000000000000e02")
)

const farmStartMs = int64(1_700_000_000_000)

type farmFixture struct {
	farm  *Farm
	led   *ledger.Memory
	nfts  *ledger.NFTMemory
	nowMs int64
}

// newFarmFixture mints NFT 1 to the staker and builds a farm with a one
// hour lock and 5 reward tokens per second, on a movable clock.
func newFarmFixture(t *testing.T) *farmFixture {
	t.Helper()
	ctx := context.Background()

	f := &farmFixture{
		led:   ledger.NewMemory(),
		nfts:  ledger.NewNFTMemory(),
		nowMs: farmStartMs,
	}
	f.farm = New(farmAddr, f.nfts, f.led, time.Hour, uint256.NewInt(5)).
		WithClock(func() time.Time { return time.UnixMilli(f.nowMs).UTC() })

	if err := f.nfts.MintNFT(ctx, staker, 1); err != nil {
		t.Fatalf("mint nft: %v", err)
	}
	return f
}

func (f *farmFixture) stake(t *testing.T, tokenID uint64) {
	t.Helper()
	if err := f.farm.Stake(context.Background(), staker, tokenID); err != nil {
		t.Fatalf("Stake failed: %v", err)
	}
}

func TestFarm_StakeMovesNFTToFarm(t *testing.T) {
	f := newFarmFixture(t)
	ctx := context.Background()

	f.stake(t, 1)

	owner, err := f.nfts.OwnerOf(ctx, 1)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != farmAddr {
		t.Errorf("NFT owner = %s, want farm %s", owner, farmAddr)
	}
	if !f.farm.Staked(1) {
		t.Error("Staked(1) = false after staking")
	}
}

func TestFarm_StakeRequiresOwnership(t *testing.T) {
	f := newFarmFixture(t)

	err := f.farm.Stake(context.Background(), stranger, 1)
	if !errors.Is(err, ledger.ErrNotTokenOwner) {
		t.Fatalf("err = %v, want ErrNotTokenOwner", err)
	}
	if f.farm.Staked(1) {
		t.Error("Staked(1) = true after rejected stake")
	}
}

func TestFarm_PendingAccruesPerSecond(t *testing.T) {
	f := newFarmFixture(t)

	f.stake(t, 1)

	pending, err := f.farm.Pending(staker, 1)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if !pending.IsZero() {
		t.Errorf("pending = %s at stake time, want 0", pending)
	}

	// 90 seconds at 5 tokens/s. Sub-second remainders do not accrue.
	f.nowMs += 90_500
	pending, err = f.farm.Pending(staker, 1)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if got := pending.Uint64(); got != 450 {
		t.Errorf("pending = %d, want 450", got)
	}
}

func TestFarm_ClaimMintsRewards(t *testing.T) {
	f := newFarmFixture(t)
	ctx := context.Background()

	f.stake(t, 1)
	f.nowMs += 60_000

	if err := f.farm.Claim(ctx, staker, 1); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if got := f.led.BalanceOf(ctx, staker).Uint64(); got != 300 {
		t.Errorf("staker balance = %d, want 300", got)
	}

	// Accrual resets after payout.
	pending, err := f.farm.Pending(staker, 1)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if !pending.IsZero() {
		t.Errorf("pending = %s after claim, want 0", pending)
	}

	f.nowMs += 10_000
	if err := f.farm.Claim(ctx, staker, 1); err != nil {
		t.Fatalf("second Claim failed: %v", err)
	}
	if got := f.led.BalanceOf(ctx, staker).Uint64(); got != 350 {
		t.Errorf("staker balance = %d after second claim, want 350", got)
	}
}

func TestFarm_ClaimKeepsSubSecondRemainder(t *testing.T) {
	f := newFarmFixture(t)
	ctx := context.Background()

	f.stake(t, 1)

	// A claim at 1.5s pays one whole second and leaves the 500ms remainder
	// accruing.
	f.nowMs += 1_500
	if err := f.farm.Claim(ctx, staker, 1); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if got := f.led.BalanceOf(ctx, staker).Uint64(); got != 5 {
		t.Errorf("staker balance = %d, want 5", got)
	}

	// 500ms later the remainder completes a second.
	f.nowMs += 500
	pending, err := f.farm.Pending(staker, 1)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if got := pending.Uint64(); got != 5 {
		t.Errorf("pending = %d, want 5 from the carried remainder", got)
	}

	if err := f.farm.Claim(ctx, staker, 1); err != nil {
		t.Fatalf("second Claim failed: %v", err)
	}
	if got := f.led.BalanceOf(ctx, staker).Uint64(); got != 10 {
		t.Errorf("staker balance = %d after second claim, want 10", got)
	}
}

func TestFarm_ClaimAuthorization(t *testing.T) {
	f := newFarmFixture(t)
	ctx := context.Background()

	if err := f.farm.Claim(ctx, staker, 99); !errors.Is(err, ErrNotStaked) {
		t.Errorf("unknown token: err = %v, want ErrNotStaked", err)
	}

	f.stake(t, 1)
	if err := f.farm.Claim(ctx, stranger, 1); !errors.Is(err, ErrNotStakeOwner) {
		t.Errorf("stranger: err = %v, want ErrNotStakeOwner", err)
	}
}

func TestFarm_UnstakeBeforeLockExpiry(t *testing.T) {
	f := newFarmFixture(t)
	ctx := context.Background()

	f.stake(t, 1)
	f.nowMs += time.Hour.Milliseconds() - 1

	err := f.farm.Unstake(ctx, staker, 1)
	if !errors.Is(err, ErrStillLocked) {
		t.Fatalf("err = %v, want ErrStillLocked", err)
	}
	if !f.farm.Staked(1) {
		t.Error("stake removed by rejected unstake")
	}
}

func TestFarm_UnstakeAfterLockPaysAndReturnsNFT(t *testing.T) {
	f := newFarmFixture(t)
	ctx := context.Background()

	f.stake(t, 1)
	f.nowMs += time.Hour.Milliseconds()

	if err := f.farm.Unstake(ctx, staker, 1); err != nil {
		t.Fatalf("Unstake failed: %v", err)
	}

	// 3600 seconds at 5 tokens/s.
	if got := f.led.BalanceOf(ctx, staker).Uint64(); got != 18_000 {
		t.Errorf("staker balance = %d, want 18000", got)
	}
	owner, err := f.nfts.OwnerOf(ctx, 1)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != staker {
		t.Errorf("NFT owner = %s after unstake, want %s", owner, staker)
	}
	if f.farm.Staked(1) {
		t.Error("Staked(1) = true after unstake")
	}
}

func TestFarm_RestakeAfterUnstake(t *testing.T) {
	f := newFarmFixture(t)
	ctx := context.Background()

	f.stake(t, 1)
	f.nowMs += time.Hour.Milliseconds()
	if err := f.farm.Unstake(ctx, staker, 1); err != nil {
		t.Fatalf("Unstake failed: %v", err)
	}

	// A fresh stake starts a fresh lock and accrual window.
	f.stake(t, 1)
	pending, err := f.farm.Pending(staker, 1)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if !pending.IsZero() {
		t.Errorf("pending = %s right after restake, want 0", pending)
	}

	if err := f.farm.Unstake(ctx, staker, 1); !errors.Is(err, ErrStillLocked) {
		t.Errorf("err = %v, want ErrStillLocked on fresh lock", err)
	}
}
