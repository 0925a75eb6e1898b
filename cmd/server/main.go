// Package main runs the token suite as a single service:
// - Transfer pipeline: classification, fees, limits, swap-and-liquify
// - Crowdsale and NFT farm endpoints
// - Event persistence (PostgreSQL) and fee analytics (ClickHouse)
// - WebSocket event feed and Prometheus metrics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/holiman/uint256"

	"evm-token-lab/internal/amm"
	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/farm"
	"evm-token-lab/internal/feed"
	"evm-token-lab/internal/ico"
	"evm-token-lab/internal/ledger"
	"evm-token-lab/internal/observability"
	"evm-token-lab/internal/recorder"
	"evm-token-lab/internal/storage"
	chstore "evm-token-lab/internal/storage/clickhouse"
	"evm-token-lab/internal/storage/memory"
	"evm-token-lab/internal/storage/migrations"
	pgstore "evm-token-lab/internal/storage/postgres"
	"evm-token-lab/internal/token"
)

// Well-known accounts used when the corresponding flag is omitted.
const (
	defaultAuthority = "0x00000000000000000000000000000000000A0001"
	defaultMarketing = "0x00000000000000000000000000000000000A0002"
	defaultLiquidity = "0x00000000000000000000000000000000000A0003"
	contractAddrHex  = "0x00000000000000000000000000000000000C0001"
	poolAddrHex      = "0x00000000000000000000000000000000000C0002"
	saleAddrHex      = "0x00000000000000000000000000000000000C0003"
	farmAddrHex      = "0x00000000000000000000000000000000000C0004"
)

// Server holds the wired token suite and its HTTP surface.
type Server struct {
	logger *log.Logger

	ledger   *ledger.Memory
	pipeline *token.Pipeline
	cfg      *token.Config
	pool     *amm.Pool
	sale     *ico.Crowdsale
	farm     *farm.Farm
	nfts     *ledger.NFTMemory
	hub      *feed.Hub

	transferStore storage.TransferEventStore
	swapStore     storage.SwapEventStore
	feeStore      storage.FeeTimeseriesStore

	authority domain.Address
	contract  domain.Address

	// The pipeline requires serialized transfer execution.
	txMu sync.Mutex

	started   time.Time
	mu        sync.Mutex
	transfers int
	rejected  int
}

func main() {
	loadEnvFile()

	listenAddr := flag.String("listen-addr", ":8080", "HTTP API address")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")

	authorityHex := flag.String("authority", envOr("TOKEN_AUTHORITY", defaultAuthority), "Configuration authority address")
	marketingHex := flag.String("marketing-wallet", envOr("MARKETING_WALLET", defaultMarketing), "Marketing wallet address")
	liquidityHex := flag.String("liquidity-wallet", envOr("LIQUIDITY_WALLET", defaultLiquidity), "LP recipient address")

	totalSupply := flag.String("total-supply", "1000000000000", "Initial token supply minted to the authority")
	maxTx := flag.String("max-tx", "10000000000", "Max transaction amount")
	maxWallet := flag.String("max-wallet", "20000000000", "Max wallet amount")
	swapThreshold := flag.String("swap-threshold", "500000000", "Contract balance that triggers swap-and-liquify")
	poolTokens := flag.String("pool-tokens", "100000000000", "Token reserve seeded into the AMM pool")
	poolNative := flag.String("pool-native", "100000000000", "Native reserve seeded into the AMM pool")

	transferFees := flag.String("transfer-fees", "0,0,0", "Transfer fee bps as liquify,marketing,burn")
	buyFees := flag.String("buy-fees", "300,100,100", "Buy fee bps as liquify,marketing,burn")
	sellFees := flag.String("sell-fees", "300,100,100", "Sell fee bps as liquify,marketing,burn")

	saleRate := flag.String("sale-rate", "1000", "Crowdsale tokens per native unit")
	saleSoftCap := flag.String("sale-soft-cap", "1000000", "Crowdsale soft cap in native units")
	saleHardCap := flag.String("sale-hard-cap", "10000000", "Crowdsale hard cap in native units")
	saleDuration := flag.Duration("sale-duration", 72*time.Hour, "Crowdsale window length from startup")

	lockPeriod := flag.Duration("farm-lock", 24*time.Hour, "NFT farm lock period")
	rewardPerSecond := flag.String("farm-reward", "10", "NFT farm reward tokens per second per stake")

	feeBucket := flag.Duration("fee-bucket", time.Minute, "Fee timeseries bucket interval")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	server, err := buildServer(ctx, serverParams{
		logger:          logger,
		stores:          stores,
		authority:       mustAddr(logger, *authorityHex),
		marketing:       mustAddr(logger, *marketingHex),
		liquidity:       mustAddr(logger, *liquidityHex),
		totalSupply:     mustAmount(logger, *totalSupply),
		maxTx:           mustAmount(logger, *maxTx),
		maxWallet:       mustAmount(logger, *maxWallet),
		swapThreshold:   mustAmount(logger, *swapThreshold),
		poolTokens:      mustAmount(logger, *poolTokens),
		poolNative:      mustAmount(logger, *poolNative),
		transferFees:    mustFees(logger, *transferFees),
		buyFees:         mustFees(logger, *buyFees),
		sellFees:        mustFees(logger, *sellFees),
		saleRate:        mustAmount(logger, *saleRate),
		saleSoftCap:     mustAmount(logger, *saleSoftCap),
		saleHardCap:     mustAmount(logger, *saleHardCap),
		saleDuration:    *saleDuration,
		lockPeriod:      *lockPeriod,
		rewardPerSecond: mustAmount(logger, *rewardPerSecond),
		feeBucket:       *feeBucket,
	})
	if err != nil {
		logger.Fatalf("Failed to build server: %v", err)
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	go server.startMetricsServer(*metricsAddr)

	logger.Printf("Token suite listening on %s", *listenAddr)
	if err := server.serve(ctx, *listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// allStores holds all storage implementations.
type allStores struct {
	transferStore storage.TransferEventStore
	swapStore     storage.SwapEventStore
	feeStore      storage.FeeTimeseriesStore
}

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			transferStore: memory.NewTransferEventStore(),
			swapStore:     memory.NewSwapEventStore(),
			feeStore:      memory.NewFeeTimeseriesStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &allStores{
		transferStore: pgstore.NewTransferEventStore(pool),
		swapStore:     pgstore.NewSwapEventStore(pool),
	}
	cleanup := func() { pool.Close() }

	// ClickHouse is optional; without it the fee timeseries stays in memory.
	if clickhouseDSN != "" {
		chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		stores.feeStore = chstore.NewFeeTimeseriesStore(chConn)
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	} else {
		stores.feeStore = memory.NewFeeTimeseriesStore()
	}

	return stores, cleanup, nil
}

// serverParams seeds buildServer.
type serverParams struct {
	logger *log.Logger
	stores *allStores

	authority domain.Address
	marketing domain.Address
	liquidity domain.Address

	totalSupply   *uint256.Int
	maxTx         *uint256.Int
	maxWallet     *uint256.Int
	swapThreshold *uint256.Int
	poolTokens    *uint256.Int
	poolNative    *uint256.Int

	transferFees domain.FeeRates
	buyFees      domain.FeeRates
	sellFees     domain.FeeRates

	saleRate     *uint256.Int
	saleSoftCap  *uint256.Int
	saleHardCap  *uint256.Int
	saleDuration time.Duration

	lockPeriod      time.Duration
	rewardPerSecond *uint256.Int

	feeBucket time.Duration
}

// buildServer wires the full token suite: ledger, config, pipeline, AMM
// pool, crowdsale, farm, event sinks and stores.
func buildServer(ctx context.Context, p serverParams) (*Server, error) {
	contract := domain.MustParseAddress(contractAddrHex)
	poolAddr := domain.MustParseAddress(poolAddrHex)
	saleAddr := domain.MustParseAddress(saleAddrHex)
	farmAddr := domain.MustParseAddress(farmAddrHex)

	led := ledger.NewMemory()
	if err := led.Mint(ctx, p.authority, p.totalSupply); err != nil {
		return nil, fmt.Errorf("mint initial supply: %w", err)
	}

	cfg, err := token.NewConfig(token.ConfigParams{
		Authority: p.authority,
		Fees: domain.FeeSchedule{
			Transfer: p.transferFees,
			Buy:      p.buyFees,
			Sell:     p.sellFees,
		},
		MaxTxAmount:     p.maxTx,
		MaxWalletAmount: p.maxWallet,
		SwapThreshold:   p.swapThreshold,
		SwapEnabled:     true,
		MarketingWallet: p.marketing,
		LiquidityWallet: p.liquidity,
	})
	if err != nil {
		return nil, fmt.Errorf("build config: %w", err)
	}

	hub := feed.NewHub(p.logger)
	rec := recorder.New(p.stores.transferStore, p.stores.swapStore, p.logger)
	sampler := recorder.NewSampler(p.stores.feeStore, p.feeBucket, p.logger)
	go sampler.Run(ctx)

	pipe := token.NewPipeline(contract, cfg, led, led).
		WithEvents(token.MultiSink{rec, sampler, hub})

	pool := amm.NewPool(poolAddr, contract, pipe, led)
	pipe.WithRouter(pool, pool.Address())

	// Privileged accounts sit outside fees and limits; the pool is the
	// registered pair.
	for _, set := range []func(caller, addr domain.Address, v bool) error{
		cfg.SetFeeExempt, cfg.SetTxLimitExempt, cfg.SetWalletLimitExempt,
	} {
		for _, addr := range []domain.Address{p.authority, contract, saleAddr, farmAddr} {
			if err := set(p.authority, addr, true); err != nil {
				return nil, fmt.Errorf("seed exemptions: %w", err)
			}
		}
	}
	if err := cfg.SetPair(p.authority, poolAddr, true); err != nil {
		return nil, fmt.Errorf("register pair: %w", err)
	}

	// Seed the AMM reserves through the ledger directly, bypassing fees.
	if err := led.Transfer(ctx, p.authority, poolAddr, p.poolTokens); err != nil {
		return nil, fmt.Errorf("seed pool tokens: %w", err)
	}
	if err := led.MintNative(ctx, poolAddr, p.poolNative); err != nil {
		return nil, fmt.Errorf("seed pool native: %w", err)
	}

	now := time.Now().UTC()
	sale, err := ico.New(ico.Params{
		Authority: p.authority,
		Treasury:  p.marketing,
		SaleAddr:  saleAddr,
		StartMs:   now.UnixMilli(),
		EndMs:     now.Add(p.saleDuration).UnixMilli(),
		Rate:      p.saleRate,
		SoftCap:   p.saleSoftCap,
		HardCap:   p.saleHardCap,
	}, led, led)
	if err != nil {
		return nil, fmt.Errorf("build crowdsale: %w", err)
	}
	sale.WithEvents(hub)

	// Pre-fund the sale with enough tokens for a fully subscribed close.
	saleTokens, overflow := new(uint256.Int).MulOverflow(p.saleHardCap, p.saleRate)
	if overflow {
		return nil, fmt.Errorf("sale allocation overflows")
	}
	if err := led.Transfer(ctx, p.authority, saleAddr, saleTokens); err != nil {
		return nil, fmt.Errorf("fund crowdsale: %w", err)
	}

	nfts := ledger.NewNFTMemory()
	fm := farm.New(farmAddr, nfts, led, p.lockPeriod, p.rewardPerSecond)
	fm.WithEvents(hub)

	return &Server{
		logger:        p.logger,
		ledger:        led,
		pipeline:      pipe,
		cfg:           cfg,
		pool:          pool,
		sale:          sale,
		farm:          fm,
		nfts:          nfts,
		hub:           hub,
		transferStore: p.stores.transferStore,
		swapStore:     p.stores.swapStore,
		feeStore:      p.stores.feeStore,
		authority:     p.authority,
		contract:      contract,
		started:       now,
	}, nil
}

// serve runs the JSON API until ctx is cancelled.
func (s *Server) serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/ws", s.hub)

	mux.HandleFunc("/api/transfer", s.handleTransfer)
	mux.HandleFunc("/api/transfer-from", s.handleTransferFrom)
	mux.HandleFunc("/api/approve", s.handleApprove)
	mux.HandleFunc("/api/balance", s.handleBalance)
	mux.HandleFunc("/api/config", s.handleConfig)

	mux.HandleFunc("/api/admin/fees", s.handleSetFees)
	mux.HandleFunc("/api/admin/limits", s.handleSetLimits)
	mux.HandleFunc("/api/admin/swap", s.handleSetSwap)
	mux.HandleFunc("/api/admin/membership", s.handleSetMembership)

	mux.HandleFunc("/api/events/transfers", s.handleTransferEvents)
	mux.HandleFunc("/api/events/swaps", s.handleSwapEvents)
	mux.HandleFunc("/api/fees/timeseries", s.handleFeeTimeseries)

	mux.HandleFunc("/api/ico/contribute", s.handleContribute)
	mux.HandleFunc("/api/ico/claim", s.handleIcoClaim)
	mux.HandleFunc("/api/ico/refund", s.handleRefund)
	mux.HandleFunc("/api/ico/withdraw", s.handleWithdraw)
	mux.HandleFunc("/api/ico/status", s.handleIcoStatus)

	mux.HandleFunc("/api/nft/mint", s.handleNFTMint)
	mux.HandleFunc("/api/farm/stake", s.handleStake)
	mux.HandleFunc("/api/farm/unstake", s.handleUnstake)
	mux.HandleFunc("/api/farm/claim", s.handleFarmClaim)
	mux.HandleFunc("/api/farm/pending", s.handlePending)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	return srv.ListenAndServe()
}

// startMetricsServer serves Prometheus metrics on a separate address.
func (s *Server) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	s.logger.Printf("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Printf("Metrics server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	Transfers   int    `json:"transfers"`
	Rejected    int    `json:"rejected"`
	Subscribers int    `json:"ws_subscribers"`
	TotalSupply string `json:"total_supply"`
	SwapEnabled bool   `json:"swap_enabled"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	transfers, rejected := s.transfers, s.rejected
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.started).String(),
		Transfers:   transfers,
		Rejected:    rejected,
		Subscribers: s.hub.Subscribers(),
		TotalSupply: s.ledger.TotalSupply(r.Context()).Dec(),
		SwapEnabled: s.cfg.SwapEnabled(),
	})
}

type transferRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Spender string `json:"spender,omitempty"`
	Amount  string `json:"amount"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodePost(w, r, &req) {
		return
	}
	from, to, amount, ok := s.parseMovement(w, req)
	if !ok {
		return
	}

	s.txMu.Lock()
	err := s.pipeline.Transfer(r.Context(), domain.TransferRequest{From: from, To: to, Amount: amount})
	s.txMu.Unlock()

	s.finishTransfer(w, err)
}

func (s *Server) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodePost(w, r, &req) {
		return
	}
	spender, err := domain.ParseAddress(req.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("spender: %w", err))
		return
	}
	from, to, amount, ok := s.parseMovement(w, req)
	if !ok {
		return
	}

	s.txMu.Lock()
	err = s.pipeline.TransferFrom(r.Context(), spender, from, to, amount)
	s.txMu.Unlock()

	s.finishTransfer(w, err)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner   string `json:"owner"`
		Spender string `json:"spender"`
		Amount  string `json:"amount"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	owner, err := domain.ParseAddress(req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	spender, err := domain.ParseAddress(req.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ledger.Approve(r.Context(), owner, spender, amount); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseMovement validates the shared from/to/amount triple.
func (s *Server) parseMovement(w http.ResponseWriter, req transferRequest) (from, to domain.Address, amount *uint256.Int, ok bool) {
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("from: %w", err))
		return
	}
	to, err = domain.ParseAddress(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("to: %w", err))
		return
	}
	amount, err = uint256.FromDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("amount: %w", err))
		return
	}
	return from, to, amount, true
}

// finishTransfer maps pipeline outcomes to HTTP responses and counters.
func (s *Server) finishTransfer(w http.ResponseWriter, err error) {
	s.mu.Lock()
	if err != nil {
		s.rejected++
	} else {
		s.transfers++
	}
	s.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(r.URL.Query().Get("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address": addr.Hex(),
		"balance": s.ledger.BalanceOf(r.Context(), addr).Dec(),
		"native":  s.ledger.NativeBalanceOf(r.Context(), addr).Dec(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	fees := s.cfg.Fees()
	writeJSON(w, http.StatusOK, map[string]any{
		"authority":        s.cfg.Authority().Hex(),
		"fees":             fees,
		"max_tx":           s.cfg.MaxTxAmount().Dec(),
		"max_wallet":       s.cfg.MaxWalletAmount().Dec(),
		"swap_threshold":   s.cfg.SwapThreshold().Dec(),
		"swap_enabled":     s.cfg.SwapEnabled(),
		"marketing_wallet": s.cfg.MarketingWallet().Hex(),
		"liquidity_wallet": s.cfg.LiquidityWallet().Hex(),
	})
}

func (s *Server) handleSetFees(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller       string `json:"caller"`
		Case         string `json:"case"`
		LiquifyBps   uint64 `json:"liquify_bps"`
		MarketingBps uint64 `json:"marketing_bps"`
		BurnBps      uint64 `json:"burn_bps"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err = s.cfg.SetFees(caller, domain.TxCase(strings.ToUpper(req.Case)), domain.FeeRates{
		LiquifyBps:   req.LiquifyBps,
		MarketingBps: req.MarketingBps,
		BurnBps:      req.BurnBps,
	})
	writeAdminResult(w, err)
}

func (s *Server) handleSetLimits(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller    string `json:"caller"`
		MaxTx     string `json:"max_tx,omitempty"`
		MaxWallet string `json:"max_wallet,omitempty"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.MaxTx != "" {
		amount, err := uint256.FromDecimal(req.MaxTx)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.cfg.SetMaxTxAmount(caller, amount); err != nil {
			writeAdminResult(w, err)
			return
		}
	}
	if req.MaxWallet != "" {
		amount, err := uint256.FromDecimal(req.MaxWallet)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.cfg.SetMaxWalletAmount(caller, amount); err != nil {
			writeAdminResult(w, err)
			return
		}
	}
	writeAdminResult(w, nil)
}

func (s *Server) handleSetSwap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller    string `json:"caller"`
		Threshold string `json:"threshold,omitempty"`
		Enabled   *bool  `json:"enabled,omitempty"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Threshold != "" {
		amount, err := uint256.FromDecimal(req.Threshold)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.cfg.SetSwapThreshold(caller, amount); err != nil {
			writeAdminResult(w, err)
			return
		}
	}
	if req.Enabled != nil {
		if err := s.cfg.SetSwapEnabled(caller, *req.Enabled); err != nil {
			writeAdminResult(w, err)
			return
		}
	}
	writeAdminResult(w, nil)
}

func (s *Server) handleSetMembership(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		Set     string `json:"set"`
		Address string `json:"address"`
		Member  bool   `json:"member"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	addr, err := domain.ParseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch req.Set {
	case "fee_exempt":
		err = s.cfg.SetFeeExempt(caller, addr, req.Member)
	case "tx_limit_exempt":
		err = s.cfg.SetTxLimitExempt(caller, addr, req.Member)
	case "wallet_limit_exempt":
		err = s.cfg.SetWalletLimitExempt(caller, addr, req.Member)
	case "blacklist":
		err = s.cfg.SetBlacklisted(caller, addr, req.Member)
	case "pair":
		err = s.cfg.SetPair(caller, addr, req.Member)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown membership set %q", req.Set))
		return
	}
	writeAdminResult(w, err)
}

func (s *Server) handleTransferEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if addr := q.Get("address"); addr != "" {
		records, err := s.transferStore.GetByAddress(r.Context(), addr)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
		return
	}

	start, end, err := parseTimeRange(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	records, err := s.transferStore.GetByTimeRange(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSwapEvents(w http.ResponseWriter, r *http.Request) {
	var (
		records []*domain.SwapRecord
		err     error
	)
	if outcome := r.URL.Query().Get("outcome"); outcome != "" {
		records, err = s.swapStore.GetByOutcome(r.Context(), strings.ToUpper(outcome))
	} else {
		records, err = s.swapStore.GetAll(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleFeeTimeseries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := parseTimeRange(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	samples, err := s.feeStore.GetByTimeRange(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, samples)
}

type icoRequest struct {
	Buyer  string `json:"buyer"`
	Amount string `json:"amount,omitempty"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req icoRequest
	if !decodePost(w, r, &req) {
		return
	}
	buyer, err := domain.ParseAddress(req.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeAdminResult(w, s.sale.Contribute(r.Context(), buyer, amount))
}

func (s *Server) handleIcoClaim(w http.ResponseWriter, r *http.Request) {
	var req icoRequest
	if !decodePost(w, r, &req) {
		return
	}
	buyer, err := domain.ParseAddress(req.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeAdminResult(w, s.sale.Claim(r.Context(), buyer))
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req icoRequest
	if !decodePost(w, r, &req) {
		return
	}
	buyer, err := domain.ParseAddress(req.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeAdminResult(w, s.sale.Refund(r.Context(), buyer))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeAdminResult(w, s.sale.Withdraw(r.Context(), caller))
}

func (s *Server) handleIcoStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"total_raised": s.sale.TotalRaised().Dec()}
	if buyer := r.URL.Query().Get("buyer"); buyer != "" {
		addr, err := domain.ParseAddress(buyer)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp["contribution"] = s.sale.ContributionOf(addr).Dec()
	}
	writeJSON(w, http.StatusOK, resp)
}

type farmRequest struct {
	Owner   string `json:"owner"`
	TokenID uint64 `json:"token_id"`
}

func (s *Server) handleNFTMint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		To      string `json:"to"`
		TokenID uint64 `json:"token_id"`
	}
	if !decodePost(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if caller != s.authority {
		writeError(w, http.StatusForbidden, token.ErrUnauthorized)
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeAdminResult(w, s.nfts.MintNFT(r.Context(), to, req.TokenID))
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	var req farmRequest
	if !decodePost(w, r, &req) {
		return
	}
	owner, err := domain.ParseAddress(req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeAdminResult(w, s.farm.Stake(r.Context(), owner, req.TokenID))
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	var req farmRequest
	if !decodePost(w, r, &req) {
		return
	}
	owner, err := domain.ParseAddress(req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeAdminResult(w, s.farm.Unstake(r.Context(), owner, req.TokenID))
}

func (s *Server) handleFarmClaim(w http.ResponseWriter, r *http.Request) {
	var req farmRequest
	if !decodePost(w, r, &req) {
		return
	}
	owner, err := domain.ParseAddress(req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeAdminResult(w, s.farm.Claim(r.Context(), owner, req.TokenID))
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner, err := domain.ParseAddress(q.Get("owner"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tokenID, err := strconv.ParseUint(q.Get("token_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pending, err := s.farm.Pending(owner, tokenID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pending": pending.Dec()})
}

// decodePost enforces POST and decodes the JSON body.
func decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return false
	}
	return true
}

func writeAdminResult(w http.ResponseWriter, err error) {
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, token.ErrUnauthorized) || errors.Is(err, ico.ErrUnauthorized) {
			status = http.StatusForbidden
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func parseTimeRange(startStr, endStr string) (int64, int64, error) {
	start := int64(0)
	end := time.Now().UTC().UnixMilli()
	var err error
	if startStr != "" {
		start, err = strconv.ParseInt(startStr, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("start: %w", err)
		}
	}
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("end: %w", err)
		}
	}
	return start, end, nil
}

func mustAddr(logger *log.Logger, s string) domain.Address {
	addr, err := domain.ParseAddress(s)
	if err != nil {
		logger.Fatalf("invalid address %q: %v", s, err)
	}
	return addr
}

func mustAmount(logger *log.Logger, s string) *uint256.Int {
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		logger.Fatalf("invalid amount %q: %v", s, err)
	}
	return amount
}

// mustFees parses "liquify,marketing,burn" bps triples.
func mustFees(logger *log.Logger, s string) domain.FeeRates {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		logger.Fatalf("invalid fee triple %q: want liquify,marketing,burn", s)
	}
	vals := make([]uint64, 3)
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			logger.Fatalf("invalid fee triple %q: %v", s, err)
		}
		vals[i] = v
	}
	return domain.FeeRates{LiquifyBps: vals[0], MarketingBps: vals[1], BurnBps: vals[2]}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
