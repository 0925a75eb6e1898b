// Package ico implements the contribution/claim crowdsale contract. Native
// currency comes in during the sale window; tokens go out after a
// successful close, refunds after a missed soft cap.
package ico

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

// Crowdsale errors
var (
	// ErrUnauthorized is returned when a gated operation is invoked by a
	// caller other than the sale authority.
	ErrUnauthorized = errors.New("caller is not the sale authority")

	// ErrSaleClosed is returned when contributing outside the sale window.
	ErrSaleClosed = errors.New("sale window is not open")

	// ErrSaleNotEnded is returned for claim/refund/withdraw before the end.
	ErrSaleNotEnded = errors.New("sale has not ended")

	// ErrSaleStarted is returned when reconfiguring a sale already underway.
	ErrSaleStarted = errors.New("sale already started")

	// ErrBelowMinContribution is returned for contributions under the minimum.
	ErrBelowMinContribution = errors.New("contribution below minimum")

	// ErrAboveMaxContribution is returned when an address would exceed its cap.
	ErrAboveMaxContribution = errors.New("contribution above per-address maximum")

	// ErrHardCapExceeded is returned when a contribution would break the hard cap.
	ErrHardCapExceeded = errors.New("hard cap exceeded")

	// ErrSoftCapNotMet guards claim and withdraw after a failed sale.
	ErrSoftCapNotMet = errors.New("soft cap not met")

	// ErrSoftCapMet guards refunds after a successful sale.
	ErrSoftCapMet = errors.New("soft cap met, no refunds")

	// ErrNothingToClaim is returned when an address has no pending balance.
	ErrNothingToClaim = errors.New("nothing to claim")

	// ErrInvalidWindow is returned for a window where start is not before end.
	ErrInvalidWindow = errors.New("sale start must precede end")

	// ErrInvalidCaps is returned unless 0 < softCap <= hardCap.
	ErrInvalidCaps = errors.New("caps must satisfy 0 < softCap <= hardCap")
)

// Params seeds a new Crowdsale.
type Params struct {
	Authority domain.Address
	Treasury  domain.Address // receives raised native on successful withdraw
	SaleAddr  domain.Address // the sale's own account, pre-funded with sale tokens

	StartMs int64
	EndMs   int64

	// Rate is tokens granted per unit of native contributed.
	Rate *uint256.Int

	SoftCap *uint256.Int // native units; refunds below this
	HardCap *uint256.Int // native units; contributions rejected above this

	MinContribution *uint256.Int // per single contribution
	MaxContribution *uint256.Int // cumulative per address
}

// Crowdsale tracks contributions and hands out tokens or refunds.
type Crowdsale struct {
	mu sync.Mutex

	params Params
	tokens ledger.TokenLedger
	native ledger.NativeLedger

	contributions map[domain.Address]*uint256.Int
	claimed       map[domain.Address]bool
	totalRaised   *uint256.Int
	withdrawn     bool

	events token.EventSink
	clock  func() time.Time
}

// New validates params and creates a Crowdsale.
func New(p Params, tokens ledger.TokenLedger, native ledger.NativeLedger) (*Crowdsale, error) {
	if p.Authority.IsZero() || p.Treasury.IsZero() || p.SaleAddr.IsZero() {
		return nil, ledger.ErrZeroAddress
	}
	if p.StartMs >= p.EndMs {
		return nil, ErrInvalidWindow
	}
	if p.Rate == nil || p.Rate.IsZero() {
		return nil, fmt.Errorf("rate must be positive")
	}
	if p.SoftCap == nil || p.HardCap == nil || p.SoftCap.IsZero() || p.SoftCap.Gt(p.HardCap) {
		return nil, ErrInvalidCaps
	}
	if p.MinContribution == nil {
		p.MinContribution = uint256.NewInt(1)
	}
	if p.MaxContribution == nil {
		p.MaxContribution = p.HardCap.Clone()
	}

	return &Crowdsale{
		params:        p,
		tokens:        tokens,
		native:        native,
		contributions: make(map[domain.Address]*uint256.Int),
		claimed:       make(map[domain.Address]bool),
		totalRaised:   uint256.NewInt(0),
		events:        token.NewCollector(),
		clock:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithEvents replaces the event sink.
func (c *Crowdsale) WithEvents(sink token.EventSink) *Crowdsale {
	c.events = sink
	return c
}

// WithClock sets a custom clock for deterministic window checks.
func (c *Crowdsale) WithClock(clock func() time.Time) *Crowdsale {
	c.clock = clock
	return c
}

// Contribute accepts nativeAmount from buyer inside the sale window.
func (c *Crowdsale) Contribute(ctx context.Context, buyer domain.Address, nativeAmount *uint256.Int) error {
	if buyer.IsZero() {
		return ledger.ErrZeroAddress
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock().UnixMilli()
	if now < c.params.StartMs || now > c.params.EndMs {
		return ErrSaleClosed
	}
	if nativeAmount == nil || nativeAmount.Lt(c.params.MinContribution) {
		return ErrBelowMinContribution
	}

	prior := c.contributionLocked(buyer)
	cumulative, overflow := new(uint256.Int).AddOverflow(prior, nativeAmount)
	if overflow || cumulative.Gt(c.params.MaxContribution) {
		return ErrAboveMaxContribution
	}

	raised, overflow := new(uint256.Int).AddOverflow(c.totalRaised, nativeAmount)
	if overflow || raised.Gt(c.params.HardCap) {
		return ErrHardCapExceeded
	}

	if err := c.native.TransferNative(ctx, buyer, c.params.SaleAddr, nativeAmount); err != nil {
		return fmt.Errorf("collect contribution: %w", err)
	}

	c.contributions[buyer] = cumulative
	c.totalRaised = raised
	c.events.Emit(ctx, domain.ContributionEvent{
		Buyer:        buyer,
		NativeAmount: nativeAmount.Clone(),
		TimestampMs:  now,
	})
	observability.RecordContribution()
	return nil
}

// Claim pays out rate * contribution tokens to buyer after a successful
// sale. Each address claims once.
func (c *Crowdsale) Claim(ctx context.Context, buyer domain.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock().UnixMilli()
	if now <= c.params.EndMs {
		return ErrSaleNotEnded
	}
	if c.totalRaised.Lt(c.params.SoftCap) {
		return ErrSoftCapNotMet
	}

	contributed := c.contributionLocked(buyer)
	if contributed.IsZero() || c.claimed[buyer] {
		return ErrNothingToClaim
	}

	tokensDue, overflow := new(uint256.Int).MulOverflow(contributed, c.params.Rate)
	if overflow {
		return fmt.Errorf("claim amount overflow")
	}

	if err := c.tokens.Transfer(ctx, c.params.SaleAddr, buyer, tokensDue); err != nil {
		return fmt.Errorf("pay claim: %w", err)
	}

	c.claimed[buyer] = true
	c.events.Emit(ctx, domain.ClaimEvent{
		Buyer:       buyer,
		TokenAmount: tokensDue.Clone(),
		TimestampMs: now,
	})
	observability.RecordClaim()
	return nil
}

// Refund returns a buyer's contribution after the sale missed its soft cap.
func (c *Crowdsale) Refund(ctx context.Context, buyer domain.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock().UnixMilli()
	if now <= c.params.EndMs {
		return ErrSaleNotEnded
	}
	if !c.totalRaised.Lt(c.params.SoftCap) {
		return ErrSoftCapMet
	}

	contributed := c.contributionLocked(buyer)
	if contributed.IsZero() {
		return ErrNothingToClaim
	}

	if err := c.native.TransferNative(ctx, c.params.SaleAddr, buyer, contributed); err != nil {
		return fmt.Errorf("pay refund: %w", err)
	}

	delete(c.contributions, buyer)
	c.events.Emit(ctx, domain.RefundEvent{
		Buyer:        buyer,
		NativeAmount: contributed.Clone(),
		TimestampMs:  now,
	})
	observability.RecordRefund()
	return nil
}

// Withdraw moves the raised native to the treasury after a successful
// sale. Authority only, once.
func (c *Crowdsale) Withdraw(ctx context.Context, caller domain.Address) error {
	if caller != c.params.Authority {
		return ErrUnauthorized
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock().UnixMilli()
	if now <= c.params.EndMs {
		return ErrSaleNotEnded
	}
	if c.totalRaised.Lt(c.params.SoftCap) {
		return ErrSoftCapNotMet
	}
	if c.withdrawn {
		return ErrNothingToClaim
	}

	if err := c.native.TransferNative(ctx, c.params.SaleAddr, c.params.Treasury, c.totalRaised); err != nil {
		return fmt.Errorf("withdraw raised: %w", err)
	}
	c.withdrawn = true
	return nil
}

// SetWindow updates the sale dates. Rejected once the current window has
// opened; a rejected update leaves the prior window unchanged.
func (c *Crowdsale) SetWindow(caller domain.Address, startMs, endMs int64) error {
	if caller != c.params.Authority {
		return ErrUnauthorized
	}
	if startMs >= endMs {
		return ErrInvalidWindow
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clock().UnixMilli() >= c.params.StartMs {
		return ErrSaleStarted
	}
	c.params.StartMs = startMs
	c.params.EndMs = endMs
	return nil
}

// SetCaps updates the soft and hard caps. Rejected once the sale window
// has opened; a rejected update leaves the prior caps unchanged.
func (c *Crowdsale) SetCaps(caller domain.Address, softCap, hardCap *uint256.Int) error {
	if caller != c.params.Authority {
		return ErrUnauthorized
	}
	if softCap == nil || hardCap == nil || softCap.IsZero() || softCap.Gt(hardCap) {
		return ErrInvalidCaps
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clock().UnixMilli() >= c.params.StartMs {
		return ErrSaleStarted
	}
	c.params.SoftCap = softCap.Clone()
	c.params.HardCap = hardCap.Clone()
	return nil
}

// TotalRaised returns the native amount collected so far.
func (c *Crowdsale) TotalRaised() *uint256.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalRaised.Clone()
}

// ContributionOf returns the recorded contribution of buyer.
func (c *Crowdsale) ContributionOf(buyer domain.Address) *uint256.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contributionLocked(buyer).Clone()
}

// contributionLocked reads a contribution without copying. Caller holds mu.
func (c *Crowdsale) contributionLocked(buyer domain.Address) *uint256.Int {
	if v, ok := c.contributions[buyer]; ok {
		return v
	}
	return uint256.NewInt(0)
}
