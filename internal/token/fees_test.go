package token

import (
	"testing"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/domain"
)

func TestSplitFee_BuySplit(t *testing.T) {
	// 10000 tokens at 100 bps burn and 400 bps liquify+marketing:
	// 100 burned, 400 to the contract, 9500 delivered.
	amount := uint256.NewInt(10000)
	rates := domain.FeeRates{LiquifyBps: 300, MarketingBps: 100, BurnBps: 100}

	b, err := SplitFee(amount, rates)
	if err != nil {
		t.Fatalf("SplitFee failed: %v", err)
	}

	if got := b.BurnAmount.Uint64(); got != 100 {
		t.Errorf("BurnAmount = %d, want 100", got)
	}
	if got := b.ContractAmount.Uint64(); got != 400 {
		t.Errorf("ContractAmount = %d, want 400", got)
	}
	if got := b.NetAmount.Uint64(); got != 9500 {
		t.Errorf("NetAmount = %d, want 9500", got)
	}
}

func TestSplitFee_Conservation(t *testing.T) {
	tests := []struct {
		name   string
		amount uint64
		rates  domain.FeeRates
	}{
		{"even split", 10000, domain.FeeRates{LiquifyBps: 200, MarketingBps: 200, BurnBps: 100}},
		{"rounding residue", 9999, domain.FeeRates{LiquifyBps: 333, MarketingBps: 111, BurnBps: 77}},
		{"tiny amount", 3, domain.FeeRates{LiquifyBps: 500, MarketingBps: 500, BurnBps: 500}},
		{"single token", 1, domain.FeeRates{LiquifyBps: 100, MarketingBps: 100, BurnBps: 100}},
		{"zero rates", 12345, domain.FeeRates{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := uint256.NewInt(tt.amount)
			b, err := SplitFee(amount, tt.rates)
			if err != nil {
				t.Fatalf("SplitFee failed: %v", err)
			}

			sum := new(uint256.Int).Add(b.BurnAmount, b.ContractAmount)
			sum.Add(sum, b.NetAmount)
			if !sum.Eq(amount) {
				t.Errorf("split does not conserve: %s + %s + %s = %s, want %s",
					b.BurnAmount, b.ContractAmount, b.NetAmount, sum, amount)
			}
		})
	}
}

func TestSplitFee_FloorDivision(t *testing.T) {
	// 99 * 100 / 10000 = 0 with floor division; the dust stays in the net.
	b, err := SplitFee(uint256.NewInt(99), domain.FeeRates{BurnBps: 100})
	if err != nil {
		t.Fatalf("SplitFee failed: %v", err)
	}
	if !b.BurnAmount.IsZero() {
		t.Errorf("BurnAmount = %s, want 0", b.BurnAmount)
	}
	if got := b.NetAmount.Uint64(); got != 99 {
		t.Errorf("NetAmount = %d, want 99", got)
	}
}

func TestSplitFee_ZeroRates(t *testing.T) {
	amount := uint256.NewInt(500)
	b, err := SplitFee(amount, domain.FeeRates{})
	if err != nil {
		t.Fatalf("SplitFee failed: %v", err)
	}
	if !b.NetAmount.Eq(amount) {
		t.Errorf("NetAmount = %s, want %s", b.NetAmount, amount)
	}
	if !b.BurnAmount.IsZero() || !b.ContractAmount.IsZero() {
		t.Errorf("expected zero fee portions, got burn=%s contract=%s", b.BurnAmount, b.ContractAmount)
	}
}

func TestSplitFee_Overflow(t *testing.T) {
	// A near-max amount times any bps overflows 256 bits and must abort.
	max := new(uint256.Int).SetAllOne()
	_, err := SplitFee(max, domain.FeeRates{BurnBps: 100})
	if err == nil {
		t.Fatal("expected overflow error, got nil")
	}
}
