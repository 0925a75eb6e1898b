package ledger

import (
	"context"
	"errors"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/domain"
)

// Ledger errors
var (
	// ErrInsufficientBalance is returned when an account cannot cover a debit.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance is returned when a spender exceeds its approval.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrZeroAddress is returned for operations involving the zero address.
	ErrZeroAddress = errors.New("zero address")

	// ErrSupplyOverflow is returned when a mint would overflow total supply.
	ErrSupplyOverflow = errors.New("total supply overflow")

	// ErrUnknownToken is returned for NFT operations on a nonexistent token ID.
	ErrUnknownToken = errors.New("unknown token id")

	// ErrNotTokenOwner is returned when an NFT operation is attempted by a
	// caller that does not own the token.
	ErrNotTokenOwner = errors.New("not token owner")
)

// TokenLedger is the ERC20-style balance/allowance ledger the transfer
// pipeline operates on. Implementations must be safe for concurrent use;
// within one pipeline invocation execution is serialized by the caller.
type TokenLedger interface {
	// BalanceOf returns the token balance of addr. Never nil.
	BalanceOf(ctx context.Context, addr domain.Address) *uint256.Int

	// Transfer moves amount from one account to another. Returns
	// ErrInsufficientBalance if from cannot cover it.
	Transfer(ctx context.Context, from, to domain.Address, amount *uint256.Int) error

	// Approve sets spender's allowance over owner's tokens.
	Approve(ctx context.Context, owner, spender domain.Address, amount *uint256.Int) error

	// Allowance returns the remaining approval of spender over owner. Never nil.
	Allowance(ctx context.Context, owner, spender domain.Address) *uint256.Int

	// TransferFrom moves amount from 'from' to 'to', consuming spender's
	// allowance. Returns ErrInsufficientAllowance if the approval is short.
	TransferFrom(ctx context.Context, spender, from, to domain.Address, amount *uint256.Int) error

	// Mint credits new tokens to an account and grows the total supply.
	Mint(ctx context.Context, to domain.Address, amount *uint256.Int) error

	// Burn debits tokens from an account and shrinks the total supply.
	Burn(ctx context.Context, from domain.Address, amount *uint256.Int) error

	// TotalSupply returns the current total token supply. Never nil.
	TotalSupply(ctx context.Context) *uint256.Int
}

// NativeLedger tracks native-currency balances on the same account space.
type NativeLedger interface {
	// NativeBalanceOf returns the native-currency balance of addr. Never nil.
	NativeBalanceOf(ctx context.Context, addr domain.Address) *uint256.Int

	// TransferNative moves native currency between accounts.
	TransferNative(ctx context.Context, from, to domain.Address, amount *uint256.Int) error

	// MintNative credits native currency to an account. Used to fund
	// simulated accounts and AMM pools.
	MintNative(ctx context.Context, to domain.Address, amount *uint256.Int) error
}

// NFTLedger is the ERC721-style ownership ledger backing the staking farm.
type NFTLedger interface {
	// OwnerOf returns the owner of tokenID. Returns ErrUnknownToken if the
	// token was never minted.
	OwnerOf(ctx context.Context, tokenID uint64) (domain.Address, error)

	// MintNFT creates tokenID owned by 'to'.
	MintNFT(ctx context.Context, to domain.Address, tokenID uint64) error

	// TransferNFT moves tokenID from its current owner to 'to'. The caller
	// must be the current owner.
	TransferNFT(ctx context.Context, caller, to domain.Address, tokenID uint64) error
}
