package token

import "evm-token-lab/internal/domain"

// Classify determines the transaction case of a transfer and whether fee
// applies to it. Pure function of current configuration; precedence order:
//
//  1. sender or recipient fee-exempt -> no fee
//  2. sender is a registered pair    -> BUY
//  3. recipient is a registered pair -> SELL
//  4. otherwise                      -> TRANSFER
//
// For cases 2-4, fee applies iff the case's fee components sum above zero.
func Classify(cfg *Config, from, to domain.Address) (feeApplied bool, txCase domain.TxCase) {
	if cfg.IsFeeExempt(from) || cfg.IsFeeExempt(to) {
		return false, domain.TxCaseTransfer
	}

	fees := cfg.Fees()
	switch {
	case cfg.IsPair(from):
		txCase = domain.TxCaseBuy
	case cfg.IsPair(to):
		txCase = domain.TxCaseSell
	default:
		txCase = domain.TxCaseTransfer
	}
	return fees.Rates(txCase).Total() > 0, txCase
}
