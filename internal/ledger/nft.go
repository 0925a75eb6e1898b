package ledger

import (
	"context"
	"fmt"
	"sync"

	"evm-token-lab/internal/domain"
)

// NFTMemory is an in-memory ERC721-style ownership ledger.
type NFTMemory struct {
	mu     sync.RWMutex
	owners map[uint64]domain.Address
}

// NewNFTMemory creates an empty NFT ledger.
func NewNFTMemory() *NFTMemory {
	return &NFTMemory{owners: make(map[uint64]domain.Address)}
}

// OwnerOf returns the owner of tokenID.
func (n *NFTMemory) OwnerOf(_ context.Context, tokenID uint64) (domain.Address, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	owner, ok := n.owners[tokenID]
	if !ok {
		return domain.ZeroAddress, fmt.Errorf("token %d: %w", tokenID, ErrUnknownToken)
	}
	return owner, nil
}

// MintNFT creates tokenID owned by 'to'.
func (n *NFTMemory) MintNFT(_ context.Context, to domain.Address, tokenID uint64) error {
	if to.IsZero() {
		return ErrZeroAddress
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.owners[tokenID]; exists {
		return fmt.Errorf("token %d already minted", tokenID)
	}
	n.owners[tokenID] = to
	return nil
}

// TransferNFT moves tokenID from its current owner to 'to'.
func (n *NFTMemory) TransferNFT(_ context.Context, caller, to domain.Address, tokenID uint64) error {
	if to.IsZero() {
		return ErrZeroAddress
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	owner, ok := n.owners[tokenID]
	if !ok {
		return fmt.Errorf("token %d: %w", tokenID, ErrUnknownToken)
	}
	if owner != caller {
		return fmt.Errorf("token %d owned by %s: %w", tokenID, owner, ErrNotTokenOwner)
	}
	n.owners[tokenID] = to
	return nil
}

var _ NFTLedger = (*NFTMemory)(nil)
