// Package main runs a deterministic transfer scenario against the full
// in-memory token suite: wallet-to-wallet transfers, pool buys and sells,
// and whatever swap-and-liquify rounds the accumulated fees trigger.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/amm"
	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/ledger"
	"evm-token-lab/internal/token"
)

const (
	authorityHex = "0x00000000000000000000000000000000000A0001"
	marketingHex = "0x00000000000000000000000000000000000A0002"
	liquidityHex = "0x00000000000000000000000000000000000A0003"
	contractHex  = "0x00000000000000000000000000000000000C0001"
	poolHex      = "0x00000000000000000000000000000000000C0002"
)

// SimStats holds scenario statistics.
type SimStats struct {
	Transfers       int    `json:"transfers"`
	Rejected        int    `json:"rejected"`
	SwapRounds      int    `json:"swap_rounds"`
	SwapFailures    int    `json:"swap_failures"`
	MarketingSwaps  int    `json:"marketing_swaps"`
	LiquidityAdds   int    `json:"liquidity_adds"`
	ContractBalance string `json:"contract_balance"`
	BurnedBalance   string `json:"burned_balance"`
	MarketingNative string `json:"marketing_native"`
	TotalSupply     string `json:"total_supply"`
}

func main() {
	steps := flag.Int("steps", 1000, "Number of scenario steps")
	wallets := flag.Int("wallets", 20, "Number of simulated wallets")
	seed := flag.Int64("seed", 42, "PRNG seed for a reproducible scenario")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	ctx := context.Background()
	rng := rand.New(rand.NewSource(*seed))

	authority := domain.MustParseAddress(authorityHex)
	contract := domain.MustParseAddress(contractHex)
	poolAddr := domain.MustParseAddress(poolHex)

	led := ledger.NewMemory()
	if err := led.Mint(ctx, authority, uint256.NewInt(1_000_000_000_000)); err != nil {
		logger.Fatalf("mint supply: %v", err)
	}

	cfg, err := token.NewConfig(token.ConfigParams{
		Authority: authority,
		Fees: domain.FeeSchedule{
			Buy:  domain.FeeRates{LiquifyBps: 300, MarketingBps: 100, BurnBps: 100},
			Sell: domain.FeeRates{LiquifyBps: 300, MarketingBps: 100, BurnBps: 100},
		},
		MaxTxAmount:     uint256.NewInt(10_000_000_000),
		MaxWalletAmount: uint256.NewInt(50_000_000_000),
		SwapThreshold:   uint256.NewInt(100_000_000),
		SwapEnabled:     true,
		MarketingWallet: domain.MustParseAddress(marketingHex),
		LiquidityWallet: domain.MustParseAddress(liquidityHex),
	})
	if err != nil {
		logger.Fatalf("build config: %v", err)
	}

	collector := token.NewCollector()
	pipe := token.NewPipeline(contract, cfg, led, led).WithEvents(collector)
	pool := amm.NewPool(poolAddr, contract, pipe, led)
	pipe.WithRouter(pool, pool.Address())

	for _, addr := range []domain.Address{authority, contract} {
		cfg.SetFeeExempt(authority, addr, true)
		cfg.SetTxLimitExempt(authority, addr, true)
		cfg.SetWalletLimitExempt(authority, addr, true)
	}
	cfg.SetPair(authority, poolAddr, true)

	// Seed the pool reserves directly through the ledger.
	if err := led.Transfer(ctx, authority, poolAddr, uint256.NewInt(100_000_000_000)); err != nil {
		logger.Fatalf("seed pool tokens: %v", err)
	}
	if err := led.MintNative(ctx, poolAddr, uint256.NewInt(100_000_000_000)); err != nil {
		logger.Fatalf("seed pool native: %v", err)
	}

	// Fund the wallets: tokens via the fee-exempt authority, native directly.
	addrs := make([]domain.Address, *wallets)
	for i := range addrs {
		addrs[i] = domain.MustParseAddress(fmt.Sprintf("0x%040x", 0xB0000+i))
		if err := pipe.Transfer(ctx, domain.TransferRequest{
			From: authority, To: addrs[i], Amount: uint256.NewInt(1_000_000_000),
		}); err != nil {
			logger.Fatalf("fund wallet %d: %v", i, err)
		}
		if err := led.MintNative(ctx, addrs[i], uint256.NewInt(1_000_000_000)); err != nil {
			logger.Fatalf("fund wallet %d native: %v", i, err)
		}
	}

	logger.Printf("Running %d steps over %d wallets (seed %d)", *steps, *wallets, *seed)
	var stats SimStats

	for i := 0; i < *steps; i++ {
		from := addrs[rng.Intn(len(addrs))]
		amount := uint256.NewInt(uint64(1_000_000 + rng.Intn(50_000_000)))

		var err error
		switch rng.Intn(3) {
		case 0: // wallet to wallet
			to := addrs[rng.Intn(len(addrs))]
			if to == from {
				continue
			}
			err = pipe.Transfer(ctx, domain.TransferRequest{From: from, To: to, Amount: amount})
		case 1: // sell into the pool
			err = pipe.Transfer(ctx, domain.TransferRequest{From: from, To: poolAddr, Amount: amount})
		default: // buy from the pool
			err = pipe.Transfer(ctx, domain.TransferRequest{From: poolAddr, To: from, Amount: amount})
		}

		if err != nil {
			stats.Rejected++
			continue
		}
		stats.Transfers++
	}

	stats.SwapRounds = len(collector.ByKind(domain.EventKindSwapAndLiquify))
	stats.SwapFailures = len(collector.ByKind(domain.EventKindSwapFailure))
	stats.MarketingSwaps = len(collector.ByKind(domain.EventKindMarketingSwap))
	stats.LiquidityAdds = len(collector.ByKind(domain.EventKindLiquidityAdded))
	stats.ContractBalance = led.BalanceOf(ctx, contract).Dec()
	stats.BurnedBalance = led.BalanceOf(ctx, domain.BurnSink).Dec()
	stats.MarketingNative = led.NativeBalanceOf(ctx, domain.MustParseAddress(marketingHex)).Dec()
	stats.TotalSupply = led.TotalSupply(ctx).Dec()

	if *outputJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Printf("\n=== Simulation Summary ===\n")
	fmt.Printf("Transfers:         %d\n", stats.Transfers)
	fmt.Printf("Rejected:          %d\n", stats.Rejected)
	fmt.Printf("Swap Rounds:       %d\n", stats.SwapRounds)
	fmt.Printf("Swap Failures:     %d\n", stats.SwapFailures)
	fmt.Printf("Marketing Swaps:   %d\n", stats.MarketingSwaps)
	fmt.Printf("Liquidity Adds:    %d\n", stats.LiquidityAdds)
	fmt.Printf("Contract Balance:  %s\n", stats.ContractBalance)
	fmt.Printf("Burned:            %s\n", stats.BurnedBalance)
	fmt.Printf("Marketing Native:  %s\n", stats.MarketingNative)
	fmt.Printf("Total Supply:      %s\n", stats.TotalSupply)
}
