package token

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/domain"
)

// Config holds all mutable token configuration: the fee schedule, the
// exemption sets, the anti-whale limits and the swap-and-liquify settings.
// Every mutation is gated on the configuration authority; a rejected
// update leaves prior state untouched. Reads are safe for concurrent use.
type Config struct {
	mu sync.RWMutex

	authority domain.Address

	fees domain.FeeSchedule

	feeExempt         map[domain.Address]bool
	txLimitExempt     map[domain.Address]bool
	walletLimitExempt map[domain.Address]bool
	blacklist         map[domain.Address]bool
	pairs             map[domain.Address]bool

	maxTxAmount     *uint256.Int
	maxWalletAmount *uint256.Int
	maxTxFloor      *uint256.Int
	maxWalletFloor  *uint256.Int

	swapThreshold *uint256.Int
	swapEnabled   bool

	marketingWallet domain.Address
	liquidityWallet domain.Address
}

// ConfigParams seeds a new Config.
type ConfigParams struct {
	Authority       domain.Address
	Fees            domain.FeeSchedule
	MaxTxAmount     *uint256.Int
	MaxWalletAmount *uint256.Int
	MaxTxFloor      *uint256.Int // lower bound for later SetMaxTxAmount calls
	MaxWalletFloor  *uint256.Int // lower bound for later SetMaxWalletAmount calls
	SwapThreshold   *uint256.Int
	SwapEnabled     bool
	MarketingWallet domain.Address
	LiquidityWallet domain.Address
}

// NewConfig validates params and builds a Config.
func NewConfig(p ConfigParams) (*Config, error) {
	if p.Authority.IsZero() || p.MarketingWallet.IsZero() || p.LiquidityWallet.IsZero() {
		return nil, ErrZeroAddress
	}
	for _, rates := range []domain.FeeRates{p.Fees.Transfer, p.Fees.Buy, p.Fees.Sell} {
		if err := validateRates(rates); err != nil {
			return nil, err
		}
	}
	if p.MaxTxAmount == nil || p.MaxWalletAmount == nil || p.SwapThreshold == nil {
		return nil, fmt.Errorf("limits and swap threshold are required")
	}
	if p.MaxTxFloor == nil {
		p.MaxTxFloor = uint256.NewInt(1)
	}
	if p.MaxWalletFloor == nil {
		p.MaxWalletFloor = uint256.NewInt(1)
	}
	if p.MaxTxAmount.Lt(p.MaxTxFloor) || p.MaxWalletAmount.Lt(p.MaxWalletFloor) {
		return nil, ErrLimitBelowFloor
	}

	return &Config{
		authority:         p.Authority,
		fees:              p.Fees,
		feeExempt:         make(map[domain.Address]bool),
		txLimitExempt:     make(map[domain.Address]bool),
		walletLimitExempt: make(map[domain.Address]bool),
		blacklist:         make(map[domain.Address]bool),
		pairs:             make(map[domain.Address]bool),
		maxTxAmount:       p.MaxTxAmount.Clone(),
		maxWalletAmount:   p.MaxWalletAmount.Clone(),
		maxTxFloor:        p.MaxTxFloor.Clone(),
		maxWalletFloor:    p.MaxWalletFloor.Clone(),
		swapThreshold:     p.SwapThreshold.Clone(),
		swapEnabled:       p.SwapEnabled,
		marketingWallet:   p.MarketingWallet,
		liquidityWallet:   p.LiquidityWallet,
	}, nil
}

// validateRates rejects any component above the 500 bps cap.
func validateRates(r domain.FeeRates) error {
	if r.LiquifyBps > domain.MaxFeeBps || r.MarketingBps > domain.MaxFeeBps || r.BurnBps > domain.MaxFeeBps {
		return fmt.Errorf("%w: cap is %d bps", ErrFeeTooHigh, domain.MaxFeeBps)
	}
	return nil
}

// requireAuthority checks the caller against the configuration authority.
func (c *Config) requireAuthority(caller domain.Address) error {
	if caller != c.authority {
		return fmt.Errorf("%s: %w", caller, ErrUnauthorized)
	}
	return nil
}

// SetFees replaces the fee rates for one transaction case.
func (c *Config) SetFees(caller domain.Address, txCase domain.TxCase, rates domain.FeeRates) error {
	if err := c.requireAuthority(caller); err != nil {
		return err
	}
	if err := validateRates(rates); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch txCase {
	case domain.TxCaseBuy:
		c.fees.Buy = rates
	case domain.TxCaseSell:
		c.fees.Sell = rates
	default:
		c.fees.Transfer = rates
	}
	return nil
}

// SetMaxTxAmount updates the max transaction limit. Rejected below the floor.
func (c *Config) SetMaxTxAmount(caller domain.Address, amount *uint256.Int) error {
	if err := c.requireAuthority(caller); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if amount.Lt(c.maxTxFloor) {
		return fmt.Errorf("max tx %s < floor %s: %w", amount, c.maxTxFloor, ErrLimitBelowFloor)
	}
	c.maxTxAmount = amount.Clone()
	return nil
}

// SetMaxWalletAmount updates the max wallet limit. Rejected below the floor.
func (c *Config) SetMaxWalletAmount(caller domain.Address, amount *uint256.Int) error {
	if err := c.requireAuthority(caller); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if amount.Lt(c.maxWalletFloor) {
		return fmt.Errorf("max wallet %s < floor %s: %w", amount, c.maxWalletFloor, ErrLimitBelowFloor)
	}
	c.maxWalletAmount = amount.Clone()
	return nil
}

// SetSwapThreshold updates the contract balance that triggers swap-and-liquify.
func (c *Config) SetSwapThreshold(caller domain.Address, amount *uint256.Int) error {
	if err := c.requireAuthority(caller); err != nil {
		return err
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.swapThreshold = amount.Clone()
	return nil
}

// SetSwapEnabled toggles the swap-and-liquify feature.
func (c *Config) SetSwapEnabled(caller domain.Address, enabled bool) error {
	if err := c.requireAuthority(caller); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.swapEnabled = enabled
	return nil
}

// SetMarketingWallet updates the marketing swap recipient.
func (c *Config) SetMarketingWallet(caller, wallet domain.Address) error {
	if err := c.requireAuthority(caller); err != nil {
		return err
	}
	if wallet.IsZero() {
		return ErrZeroAddress
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.marketingWallet = wallet
	return nil
}

// SetLiquidityWallet updates the LP token recipient for add-liquidity calls.
func (c *Config) SetLiquidityWallet(caller, wallet domain.Address) error {
	if err := c.requireAuthority(caller); err != nil {
		return err
	}
	if wallet.IsZero() {
		return ErrZeroAddress
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.liquidityWallet = wallet
	return nil
}

// SetFeeExempt toggles fee exemption for an address.
func (c *Config) SetFeeExempt(caller, addr domain.Address, exempt bool) error {
	return c.setMembership(caller, addr, exempt, c.feeExempt)
}

// SetTxLimitExempt toggles max-tx exemption for an address.
func (c *Config) SetTxLimitExempt(caller, addr domain.Address, exempt bool) error {
	return c.setMembership(caller, addr, exempt, c.txLimitExempt)
}

// SetWalletLimitExempt toggles max-wallet exemption for an address.
func (c *Config) SetWalletLimitExempt(caller, addr domain.Address, exempt bool) error {
	return c.setMembership(caller, addr, exempt, c.walletLimitExempt)
}

// SetBlacklisted toggles blacklist membership for an address.
func (c *Config) SetBlacklisted(caller, addr domain.Address, blacklisted bool) error {
	return c.setMembership(caller, addr, blacklisted, c.blacklist)
}

// SetPair toggles liquidity-pair registration for an address.
func (c *Config) SetPair(caller, addr domain.Address, isPair bool) error {
	return c.setMembership(caller, addr, isPair, c.pairs)
}

// setMembership is the shared gated toggle for all boolean sets. The set
// maps are allocated once at construction, so passing them by reference is
// safe; membership mutation still happens under the write lock.
func (c *Config) setMembership(caller, addr domain.Address, member bool, set map[domain.Address]bool) error {
	if err := c.requireAuthority(caller); err != nil {
		return err
	}
	if addr.IsZero() {
		return ErrZeroAddress
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if member {
		set[addr] = true
	} else {
		delete(set, addr)
	}
	return nil
}

// Fees returns a copy of the current fee schedule.
func (c *Config) Fees() domain.FeeSchedule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fees
}

// IsFeeExempt reports fee exemption for addr.
func (c *Config) IsFeeExempt(addr domain.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeExempt[addr]
}

// IsTxLimitExempt reports max-tx exemption for addr.
func (c *Config) IsTxLimitExempt(addr domain.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.txLimitExempt[addr]
}

// IsWalletLimitExempt reports max-wallet exemption for addr.
func (c *Config) IsWalletLimitExempt(addr domain.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.walletLimitExempt[addr]
}

// IsBlacklisted reports blacklist membership for addr.
func (c *Config) IsBlacklisted(addr domain.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blacklist[addr]
}

// IsPair reports whether addr is a registered liquidity pair.
func (c *Config) IsPair(addr domain.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pairs[addr]
}

// MaxTxAmount returns the current max transaction limit.
func (c *Config) MaxTxAmount() *uint256.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxTxAmount.Clone()
}

// MaxWalletAmount returns the current max wallet limit.
func (c *Config) MaxWalletAmount() *uint256.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxWalletAmount.Clone()
}

// SwapThreshold returns the current swap-and-liquify trigger threshold.
func (c *Config) SwapThreshold() *uint256.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.swapThreshold.Clone()
}

// SwapEnabled reports whether swap-and-liquify is enabled.
func (c *Config) SwapEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.swapEnabled
}

// MarketingWallet returns the marketing swap recipient.
func (c *Config) MarketingWallet() domain.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.marketingWallet
}

// LiquidityWallet returns the LP recipient for add-liquidity calls.
func (c *Config) LiquidityWallet() domain.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.liquidityWallet
}

// Authority returns the configuration authority address.
func (c *Config) Authority() domain.Address {
	return c.authority
}
