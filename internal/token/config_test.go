package token

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/domain"
)

var (
	testAuthority = domain.MustParseAddress("0x0000000000000000000000000000000000000001")
	testIntruder  = domain.MustParseAddress("0x0000000000000000000000000000000000000099")
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := NewConfig(ConfigParams{
		Authority: testAuthority,
		Fees: domain.FeeSchedule{
			Buy: domain.FeeRates{LiquifyBps: 300, MarketingBps: 100, BurnBps: 100},
		},
		MaxTxAmount:     uint256.NewInt(1000),
		MaxWalletAmount: uint256.NewInt(2000),
		MaxTxFloor:      uint256.NewInt(100),
		MaxWalletFloor:  uint256.NewInt(200),
		SwapThreshold:   uint256.NewInt(50),
		SwapEnabled:     true,
		MarketingWallet: domain.MustParseAddress("0x0000000000000000000000000000000000000002"),
		LiquidityWallet: domain.MustParseAddress("0x0000000000000000000000000000000000000003"),
	})
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	return cfg
}

func TestConfig_UnauthorizedCallerRejected(t *testing.T) {
	cfg := newTestConfig(t)
	target := domain.MustParseAddress("0x00000000000000000000000000000000000000aa")

	calls := []struct {
		name string
		call func() error
	}{
		{"SetFees", func() error {
			return cfg.SetFees(testIntruder, domain.TxCaseBuy, domain.FeeRates{BurnBps: 1})
		}},
		{"SetMaxTxAmount", func() error { return cfg.SetMaxTxAmount(testIntruder, uint256.NewInt(500)) }},
		{"SetMaxWalletAmount", func() error { return cfg.SetMaxWalletAmount(testIntruder, uint256.NewInt(500)) }},
		{"SetSwapThreshold", func() error { return cfg.SetSwapThreshold(testIntruder, uint256.NewInt(10)) }},
		{"SetSwapEnabled", func() error { return cfg.SetSwapEnabled(testIntruder, false) }},
		{"SetFeeExempt", func() error { return cfg.SetFeeExempt(testIntruder, target, true) }},
		{"SetBlacklisted", func() error { return cfg.SetBlacklisted(testIntruder, target, true) }},
		{"SetPair", func() error { return cfg.SetPair(testIntruder, target, true) }},
		{"SetMarketingWallet", func() error { return cfg.SetMarketingWallet(testIntruder, target) }},
	}

	for _, tt := range calls {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrUnauthorized) {
				t.Errorf("%s by non-authority: err = %v, want ErrUnauthorized", tt.name, err)
			}
		})
	}

	// State unchanged after the rejected batch.
	if got := cfg.Fees().Buy; got.BurnBps != 100 {
		t.Errorf("buy rates changed after rejected updates: %+v", got)
	}
	if got := cfg.MaxTxAmount().Uint64(); got != 1000 {
		t.Errorf("maxTxAmount changed after rejected updates: %d", got)
	}
	if !cfg.SwapEnabled() {
		t.Error("swapEnabled changed after rejected updates")
	}
}

func TestConfig_FeeCapEnforced(t *testing.T) {
	cfg := newTestConfig(t)

	err := cfg.SetFees(testAuthority, domain.TxCaseSell, domain.FeeRates{LiquifyBps: 501})
	if !errors.Is(err, ErrFeeTooHigh) {
		t.Fatalf("err = %v, want ErrFeeTooHigh", err)
	}
	if got := cfg.Fees().Sell; got.LiquifyBps != 0 {
		t.Errorf("sell rates changed after rejected update: %+v", got)
	}

	// Exactly at the cap is valid.
	if err := cfg.SetFees(testAuthority, domain.TxCaseSell, domain.FeeRates{LiquifyBps: 500, MarketingBps: 500, BurnBps: 500}); err != nil {
		t.Fatalf("at-cap rates rejected: %v", err)
	}
}

func TestConfig_LimitFloors(t *testing.T) {
	cfg := newTestConfig(t)

	if err := cfg.SetMaxTxAmount(testAuthority, uint256.NewInt(99)); !errors.Is(err, ErrLimitBelowFloor) {
		t.Errorf("below-floor max tx: err = %v, want ErrLimitBelowFloor", err)
	}
	if got := cfg.MaxTxAmount().Uint64(); got != 1000 {
		t.Errorf("maxTxAmount = %d after rejected update, want 1000", got)
	}

	if err := cfg.SetMaxWalletAmount(testAuthority, uint256.NewInt(199)); !errors.Is(err, ErrLimitBelowFloor) {
		t.Errorf("below-floor max wallet: err = %v, want ErrLimitBelowFloor", err)
	}

	// At the floor is valid.
	if err := cfg.SetMaxTxAmount(testAuthority, uint256.NewInt(100)); err != nil {
		t.Fatalf("at-floor max tx rejected: %v", err)
	}
	if got := cfg.MaxTxAmount().Uint64(); got != 100 {
		t.Errorf("maxTxAmount = %d, want 100", got)
	}
}

func TestConfig_MembershipToggle(t *testing.T) {
	cfg := newTestConfig(t)
	addr := domain.MustParseAddress("0x00000000000000000000000000000000000000cc")

	if cfg.IsBlacklisted(addr) {
		t.Fatal("fresh address reported blacklisted")
	}
	if err := cfg.SetBlacklisted(testAuthority, addr, true); err != nil {
		t.Fatalf("SetBlacklisted failed: %v", err)
	}
	if !cfg.IsBlacklisted(addr) {
		t.Error("address not blacklisted after set")
	}
	if err := cfg.SetBlacklisted(testAuthority, addr, false); err != nil {
		t.Fatalf("SetBlacklisted clear failed: %v", err)
	}
	if cfg.IsBlacklisted(addr) {
		t.Error("address still blacklisted after clear")
	}

	if err := cfg.SetPair(testAuthority, domain.ZeroAddress, true); !errors.Is(err, ErrZeroAddress) {
		t.Errorf("zero-address pair: err = %v, want ErrZeroAddress", err)
	}
}

func TestConfig_SwapThresholdZeroRejected(t *testing.T) {
	cfg := newTestConfig(t)
	if err := cfg.SetSwapThreshold(testAuthority, uint256.NewInt(0)); !errors.Is(err, ErrZeroAmount) {
		t.Errorf("err = %v, want ErrZeroAmount", err)
	}
	if got := cfg.SwapThreshold().Uint64(); got != 50 {
		t.Errorf("swapThreshold = %d after rejected update, want 50", got)
	}
}

func TestNewConfig_Validation(t *testing.T) {
	base := ConfigParams{
		Authority:       testAuthority,
		MaxTxAmount:     uint256.NewInt(1000),
		MaxWalletAmount: uint256.NewInt(2000),
		SwapThreshold:   uint256.NewInt(50),
		MarketingWallet: domain.MustParseAddress("0x0000000000000000000000000000000000000002"),
		LiquidityWallet: domain.MustParseAddress("0x0000000000000000000000000000000000000003"),
	}

	t.Run("zero authority", func(t *testing.T) {
		p := base
		p.Authority = domain.ZeroAddress
		if _, err := NewConfig(p); !errors.Is(err, ErrZeroAddress) {
			t.Errorf("err = %v, want ErrZeroAddress", err)
		}
	})

	t.Run("over-cap seed fees", func(t *testing.T) {
		p := base
		p.Fees.Buy = domain.FeeRates{BurnBps: 501}
		if _, err := NewConfig(p); !errors.Is(err, ErrFeeTooHigh) {
			t.Errorf("err = %v, want ErrFeeTooHigh", err)
		}
	})

	t.Run("limit below floor", func(t *testing.T) {
		p := base
		p.MaxTxFloor = uint256.NewInt(5000)
		if _, err := NewConfig(p); !errors.Is(err, ErrLimitBelowFloor) {
			t.Errorf("err = %v, want ErrLimitBelowFloor", err)
		}
	})
}
