package ledger

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/domain"
)

// Memory is an in-memory account ledger implementing TokenLedger and
// NativeLedger over the same account space, mirroring the EVM model where
// token balances and native balances share addresses.
type Memory struct {
	mu          sync.RWMutex
	balances    map[domain.Address]*uint256.Int
	native      map[domain.Address]*uint256.Int
	allowances  map[allowanceKey]*uint256.Int
	totalSupply *uint256.Int
}

type allowanceKey struct {
	owner   domain.Address
	spender domain.Address
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		balances:    make(map[domain.Address]*uint256.Int),
		native:      make(map[domain.Address]*uint256.Int),
		allowances:  make(map[allowanceKey]*uint256.Int),
		totalSupply: uint256.NewInt(0),
	}
}

// BalanceOf returns the token balance of addr.
func (m *Memory) BalanceOf(_ context.Context, addr domain.Address) *uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[addr]; ok {
		return b.Clone()
	}
	return uint256.NewInt(0)
}

// Transfer moves amount from one account to another.
func (m *Memory) Transfer(_ context.Context, from, to domain.Address, amount *uint256.Int) error {
	if from.IsZero() || to.IsZero() {
		return ErrZeroAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveLocked(m.balances, from, to, amount)
}

// Approve sets spender's allowance over owner's tokens.
func (m *Memory) Approve(_ context.Context, owner, spender domain.Address, amount *uint256.Int) error {
	if owner.IsZero() || spender.IsZero() {
		return ErrZeroAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowances[allowanceKey{owner, spender}] = amount.Clone()
	return nil
}

// Allowance returns the remaining approval of spender over owner.
func (m *Memory) Allowance(_ context.Context, owner, spender domain.Address) *uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.allowances[allowanceKey{owner, spender}]; ok {
		return a.Clone()
	}
	return uint256.NewInt(0)
}

// TransferFrom moves amount from 'from' to 'to', consuming spender's allowance.
func (m *Memory) TransferFrom(_ context.Context, spender, from, to domain.Address, amount *uint256.Int) error {
	if spender.IsZero() || from.IsZero() || to.IsZero() {
		return ErrZeroAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := allowanceKey{from, spender}
	allowed, ok := m.allowances[key]
	if !ok || allowed.Lt(amount) {
		return ErrInsufficientAllowance
	}

	if err := m.moveLocked(m.balances, from, to, amount); err != nil {
		return err
	}

	m.allowances[key] = new(uint256.Int).Sub(allowed, amount)
	return nil
}

// Mint credits new tokens to an account and grows the total supply.
func (m *Memory) Mint(_ context.Context, to domain.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return ErrZeroAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	supply, overflow := new(uint256.Int).AddOverflow(m.totalSupply, amount)
	if overflow {
		return ErrSupplyOverflow
	}

	m.creditLocked(m.balances, to, amount)
	m.totalSupply = supply
	return nil
}

// Burn debits tokens from an account and shrinks the total supply.
func (m *Memory) Burn(_ context.Context, from domain.Address, amount *uint256.Int) error {
	if from.IsZero() {
		return ErrZeroAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bal := m.balanceLocked(m.balances, from)
	if bal.Lt(amount) {
		return ErrInsufficientBalance
	}

	m.balances[from] = new(uint256.Int).Sub(bal, amount)
	m.totalSupply = new(uint256.Int).Sub(m.totalSupply, amount)
	return nil
}

// TotalSupply returns the current total token supply.
func (m *Memory) TotalSupply(_ context.Context) *uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalSupply.Clone()
}

// NativeBalanceOf returns the native-currency balance of addr.
func (m *Memory) NativeBalanceOf(_ context.Context, addr domain.Address) *uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.native[addr]; ok {
		return b.Clone()
	}
	return uint256.NewInt(0)
}

// TransferNative moves native currency between accounts.
func (m *Memory) TransferNative(_ context.Context, from, to domain.Address, amount *uint256.Int) error {
	if from.IsZero() || to.IsZero() {
		return ErrZeroAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveLocked(m.native, from, to, amount)
}

// MintNative credits native currency to an account.
func (m *Memory) MintNative(_ context.Context, to domain.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return ErrZeroAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.creditLocked(m.native, to, amount)
	return nil
}

// balanceLocked reads a balance without copying. Caller holds mu.
func (m *Memory) balanceLocked(book map[domain.Address]*uint256.Int, addr domain.Address) *uint256.Int {
	if b, ok := book[addr]; ok {
		return b
	}
	return uint256.NewInt(0)
}

// moveLocked debits from and credits to within one book. Caller holds mu.
func (m *Memory) moveLocked(book map[domain.Address]*uint256.Int, from, to domain.Address, amount *uint256.Int) error {
	bal := m.balanceLocked(book, from)
	if bal.Lt(amount) {
		return ErrInsufficientBalance
	}

	book[from] = new(uint256.Int).Sub(bal, amount)
	m.creditLocked(book, to, amount)
	return nil
}

// creditLocked adds amount to an account. Caller holds mu. Credits cannot
// overflow: token credits are bounded by total supply, which Mint checks,
// and native credits are bounded by simulation funding.
func (m *Memory) creditLocked(book map[domain.Address]*uint256.Int, to domain.Address, amount *uint256.Int) {
	bal := m.balanceLocked(book, to)
	book[to] = new(uint256.Int).Add(bal, amount)
}

var _ TokenLedger = (*Memory)(nil)
var _ NativeLedger = (*Memory)(nil)
