package token

import (
	"github.com/holiman/uint256"

	"evm-token-lab/internal/domain"
)

// SplitFee computes the burn / contract-held / net split of a taxed
// transfer amount. All math is unsigned with explicit overflow checks and
// floor division; any overflow aborts the whole operation.
//
// The burn deduction is computed before the liquify+marketing deduction,
// and both come off the amount before the net portion is derived, so
// downstream limit checks see the post-fee amount.
func SplitFee(amount *uint256.Int, rates domain.FeeRates) (domain.FeeBreakdown, error) {
	burnAmt, err := bpsPortion(amount, rates.BurnBps)
	if err != nil {
		return domain.FeeBreakdown{}, err
	}

	otherAmt, err := bpsPortion(amount, rates.LiquifyBps+rates.MarketingBps)
	if err != nil {
		return domain.FeeBreakdown{}, err
	}

	// Component sums are capped well below 10000 bps, so burn+other can
	// never exceed the original amount.
	net := new(uint256.Int).Sub(amount, burnAmt)
	net.Sub(net, otherAmt)

	return domain.FeeBreakdown{
		BurnAmount:     burnAmt,
		ContractAmount: otherAmt,
		NetAmount:      net,
	}, nil
}

// bpsPortion computes amount * bps / 10000 with overflow-checked
// multiplication and floor division.
func bpsPortion(amount *uint256.Int, bps uint64) (*uint256.Int, error) {
	if bps == 0 {
		return uint256.NewInt(0), nil
	}

	scaled, overflow := new(uint256.Int).MulOverflow(amount, uint256.NewInt(bps))
	if overflow {
		return nil, ErrAmountOverflow
	}
	return scaled.Div(scaled, uint256.NewInt(domain.BpsDenominator)), nil
}
