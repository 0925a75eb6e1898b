// Package farm implements NFT staking: deposit an NFT under a lock period,
// accrue token rewards per second, claim and withdraw after expiry.
package farm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/ledger"
	"evm-token-lab/internal/observability"
	"evm-token-lab/internal/token"
)

// Farm errors
var (
	// ErrNotStaked is returned for operations on an NFT not in the farm.
	ErrNotStaked = errors.New("token not staked")

	// ErrNotStakeOwner is returned when someone other than the staker
	// operates on a stake.
	ErrNotStakeOwner = errors.New("caller did not stake this token")

	// ErrStillLocked is returned when unstaking before lock expiry.
	ErrStillLocked = errors.New("stake still locked")
)

// stake is the bookkeeping record for one deposited NFT.
type stake struct {
	owner       domain.Address
	stakedAtMs  int64
	lockUntilMs int64
	lastPaidMs  int64
}

// Farm holds staked NFTs and mints token rewards for them.
type Farm struct {
	mu sync.Mutex

	addr    domain.Address // the farm's own account; holds staked NFTs
	nfts    ledger.NFTLedger
	tokens  ledger.TokenLedger
	stakes  map[uint64]*stake
	lock    time.Duration
	rewards *uint256.Int // reward tokens minted per second per staked NFT

	events token.EventSink
	clock  func() time.Time
}

// New creates a farm at farmAddr with the given lock period and per-second
// reward rate.
func New(farmAddr domain.Address, nfts ledger.NFTLedger, tokens ledger.TokenLedger, lockPeriod time.Duration, rewardPerSecond *uint256.Int) *Farm {
	return &Farm{
		addr:    farmAddr,
		nfts:    nfts,
		tokens:  tokens,
		stakes:  make(map[uint64]*stake),
		lock:    lockPeriod,
		rewards: rewardPerSecond.Clone(),
		events:  token.NewCollector(),
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// WithEvents replaces the event sink.
func (f *Farm) WithEvents(sink token.EventSink) *Farm {
	f.events = sink
	return f
}

// WithClock sets a custom clock for deterministic accrual.
func (f *Farm) WithClock(clock func() time.Time) *Farm {
	f.clock = clock
	return f
}

// Stake deposits tokenID into the farm. The caller must own the NFT; it is
// held by the farm until unstaked, locked for the farm's lock period.
func (f *Farm) Stake(ctx context.Context, owner domain.Address, tokenID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.nfts.TransferNFT(ctx, owner, f.addr, tokenID); err != nil {
		return fmt.Errorf("deposit nft: %w", err)
	}

	now := f.clock().UnixMilli()
	f.stakes[tokenID] = &stake{
		owner:       owner,
		stakedAtMs:  now,
		lockUntilMs: now + f.lock.Milliseconds(),
		lastPaidMs:  now,
	}

	f.events.Emit(ctx, domain.StakeEvent{
		Owner:       owner,
		TokenID:     tokenID,
		LockUntilMs: now + f.lock.Milliseconds(),
		TimestampMs: now,
	})
	observability.UpdateStakesActive(len(f.stakes))
	return nil
}

// Claim mints accrued rewards for tokenID to its staker.
func (f *Farm) Claim(ctx context.Context, caller domain.Address, tokenID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.stakeOf(caller, tokenID)
	if err != nil {
		return err
	}
	return f.payRewardsLocked(ctx, s, tokenID)
}

// Unstake pays pending rewards and returns the NFT to its staker. Only
// allowed once the lock period has expired.
func (f *Farm) Unstake(ctx context.Context, caller domain.Address, tokenID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.stakeOf(caller, tokenID)
	if err != nil {
		return err
	}

	now := f.clock().UnixMilli()
	if now < s.lockUntilMs {
		return fmt.Errorf("locked until %d: %w", s.lockUntilMs, ErrStillLocked)
	}

	if err := f.payRewardsLocked(ctx, s, tokenID); err != nil {
		return err
	}
	if err := f.nfts.TransferNFT(ctx, f.addr, s.owner, tokenID); err != nil {
		return fmt.Errorf("return nft: %w", err)
	}

	delete(f.stakes, tokenID)
	f.events.Emit(ctx, domain.UnstakeEvent{
		Owner:       s.owner,
		TokenID:     tokenID,
		TimestampMs: now,
	})
	observability.UpdateStakesActive(len(f.stakes))
	return nil
}

// Pending returns the unclaimed reward amount for tokenID.
func (f *Farm) Pending(caller domain.Address, tokenID uint64) (*uint256.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.stakeOf(caller, tokenID)
	if err != nil {
		return nil, err
	}
	return f.accruedLocked(s), nil
}

// Staked reports whether tokenID is currently deposited.
func (f *Farm) Staked(tokenID uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.stakes[tokenID]
	return ok
}

// stakeOf resolves and authorizes a stake. Caller holds mu.
func (f *Farm) stakeOf(caller domain.Address, tokenID uint64) (*stake, error) {
	s, ok := f.stakes[tokenID]
	if !ok {
		return nil, fmt.Errorf("token %d: %w", tokenID, ErrNotStaked)
	}
	if s.owner != caller {
		return nil, fmt.Errorf("token %d: %w", tokenID, ErrNotStakeOwner)
	}
	return s, nil
}

// accruedLocked computes rewards earned since the last payout. Caller holds mu.
func (f *Farm) accruedLocked(s *stake) *uint256.Int {
	elapsed := f.clock().UnixMilli() - s.lastPaidMs
	if elapsed <= 0 {
		return uint256.NewInt(0)
	}
	seconds := uint256.NewInt(uint64(elapsed / 1000))
	return new(uint256.Int).Mul(seconds, f.rewards)
}

// payRewardsLocked mints pending rewards to the staker. Only whole accrued
// seconds are paid; lastPaidMs advances by exactly the seconds paid, so
// the sub-second remainder keeps accruing toward the next payout. Caller
// holds mu.
func (f *Farm) payRewardsLocked(ctx context.Context, s *stake, tokenID uint64) error {
	now := f.clock().UnixMilli()
	elapsed := now - s.lastPaidMs
	if elapsed < 1000 {
		return nil
	}
	seconds := elapsed / 1000
	due := new(uint256.Int).Mul(uint256.NewInt(uint64(seconds)), f.rewards)
	if due.IsZero() {
		s.lastPaidMs += seconds * 1000
		return nil
	}

	if err := f.tokens.Mint(ctx, s.owner, due); err != nil {
		return fmt.Errorf("mint rewards: %w", err)
	}

	s.lastPaidMs += seconds * 1000
	f.events.Emit(ctx, domain.RewardPaidEvent{
		Owner:       s.owner,
		TokenID:     tokenID,
		Amount:      due,
		TimestampMs: now,
	})
	observability.RecordRewardPaid()
	return nil
}
