// Package main runs the drop client daemon:
// - Session refresh (scheduled): drop snapshot, balances, ownership scan
// - Eligibility (continuous): re-evaluated every tick for the countdown
// - Mint (on demand): POST /mint submits one attempt
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
	"strings"
	"sync"
	"syscall"
	"time"

	"solana-drop-client/internal/cooldown"
	cdmemory "solana-drop-client/internal/cooldown/memory"
	cdpebble "solana-drop-client/internal/cooldown/pebble"
	cdpostgres "solana-drop-client/internal/cooldown/postgres"
	"solana-drop-client/internal/domain"
	"solana-drop-client/internal/journal"
	chjournal "solana-drop-client/internal/journal/clickhouse"
	"solana-drop-client/internal/mint"
	"solana-drop-client/internal/observability"
	"solana-drop-client/internal/pricing"
	"solana-drop-client/internal/session"
	"solana-drop-client/internal/solana"
	"solana-drop-client/internal/wallet"
)

// Server holds all components of the drop client daemon.
type Server struct {
	orch    *mint.Orchestrator
	session *session.State
	pricing pricing.Config
	logger  *log.Logger

	refreshInterval time.Duration

	mu          sync.Mutex
	started     time.Time
	lastRefresh time.Time
	lastState   domain.WalletEligibilityState
	refreshes   int
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional)")
	dropID := flag.String("drop-id", os.Getenv("DROP_ID"), "Drop configuration account")
	dropProgram := flag.String("drop-program", os.Getenv("DROP_PROGRAM_ID"), "Drop program ID")
	walletSeed := flag.String("wallet-seed", os.Getenv("WALLET_SEED"), "Base58-encoded 32-byte wallet seed")
	cooldownPath := flag.String("cooldown-path", os.Getenv("COOLDOWN_PATH"), "Path for the local cooldown store")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL DSN for a shared cooldown store (optional)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse DSN for the attempt journal (optional)")
	deviceID := flag.String("device-id", os.Getenv("DEVICE_ID"), "Device identifier for the shared cooldown store")
	updateAuthority := flag.String("collection-authority", os.Getenv("COLLECTION_AUTHORITY"), "Collection update authority for ownership scans")
	namePrefix := flag.String("collection-prefix", os.Getenv("COLLECTION_PREFIX"), "Collection name prefix for ownership scans")
	tokenDecimals := flag.Int("token-decimals", 9, "Decimal scale of the SPL payment token")
	tokenSymbol := flag.String("token-symbol", "TOKEN", "Display symbol of the SPL payment token")
	refreshInterval := flag.Duration("refresh-interval", 30*time.Second, "Session refresh interval")
	cooldownWindow := flag.Duration("cooldown-window", 24*time.Hour, "Wait after a successful mint")
	ownershipCap := flag.Int("ownership-cap", 3, "Maximum collection items a wallet may hold and still mint")
	confirmTimeout := flag.Duration("confirm-timeout", 30*time.Second, "Transaction confirmation timeout")
	httpAddr := flag.String("http-addr", ":8080", "HTTP address for health/metrics/status/mint")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[dropd] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *dropID == "" || *dropProgram == "" {
		logger.Fatal("--drop-id and --drop-program are required")
	}
	if *walletSeed == "" {
		logger.Fatal("--wallet-seed is required")
	}

	payer, err := wallet.KeypairFromSeed(*walletSeed)
	if err != nil {
		logger.Fatalf("Failed to load wallet: %v", err)
	}
	logger.Printf("Wallet: %s", payer.Address())

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create cooldown store
	cooldowns, cleanupCooldown, err := createCooldownStore(ctx, *cooldownPath, *postgresDSN, *deviceID)
	if err != nil {
		logger.Fatalf("Failed to create cooldown store: %v", err)
	}
	defer cleanupCooldown()

	// Create attempt journal
	sink, cleanupJournal, err := createJournal(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Failed to create journal: %v", err)
	}
	defer cleanupJournal()

	rpc := solana.NewHTTPClient(*rpcEndpoint)

	sess := session.New()
	sess.SetWallet(payer.Address())

	var filters []domain.CollectionFilter
	if *updateAuthority != "" || *namePrefix != "" {
		filters = append(filters, domain.CollectionFilter{
			UpdateAuthority: *updateAuthority,
			NamePrefix:      *namePrefix,
		})
	}

	opts := []mint.Option{
		mint.WithJournal(sink),
		mint.WithLogger(logger),
		mint.WithCelebration(func(res mint.Result) {
			logger.Printf("Minted %s (%s)", res.Mint, res.Signature)
		}),
	}
	if *wsEndpoint != "" {
		ws, err := solana.NewWSClient(ctx, *wsEndpoint, nil)
		if err != nil {
			logger.Printf("WebSocket unavailable, confirmations poll only: %v", err)
		} else {
			defer ws.Close()
			opts = append(opts, mint.WithWSClient(ws))
		}
	}

	orch := mint.New(mint.Config{
		DropID:         *dropID,
		DropProgramID:  *dropProgram,
		CooldownWindow: *cooldownWindow,
		OwnershipCap:   *ownershipCap,
		ConfirmTimeout: *confirmTimeout,
		Filters:        filters,
	}, rpc, payer, cooldowns, sess, opts...)

	server := &Server{
		orch:            orch,
		session:         sess,
		pricing:         pricing.Config{TokenDecimals: *tokenDecimals, TokenSymbol: *tokenSymbol},
		logger:          logger,
		refreshInterval: *refreshInterval,
		started:         time.Now(),
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(*httpAddr)

	// Run the refresh loop
	err = server.Run(ctx)
	done <- err

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createCooldownStore picks the store backend: shared postgres when a DSN is
// given, the local durable store when a path is given, memory otherwise.
func createCooldownStore(ctx context.Context, path, postgresDSN, deviceID string) (cooldown.Store, func(), error) {
	if postgresDSN != "" {
		if deviceID == "" {
			return nil, nil, fmt.Errorf("--device-id is required with --postgres-dsn")
		}
		pool, err := cdpostgres.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, err
		}
		store, err := cdpostgres.NewStore(ctx, pool, deviceID)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	}

	if path != "" {
		store, err := cdpebble.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}

	return cdmemory.NewStore(), func() {}, nil
}

// createJournal picks the attempt journal sink.
func createJournal(ctx context.Context, clickhouseDSN string) (journal.Journal, func(), error) {
	if clickhouseDSN == "" {
		return journal.NewMemory(), func() {}, nil
	}

	conn, err := chjournal.NewConn(ctx, clickhouseDSN)
	if err != nil {
		return nil, nil, err
	}
	sink, err := chjournal.NewJournal(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return sink, func() { conn.Close() }, nil
}

// Run drives the refresh and evaluation loops until the context ends.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting drop client...")

	if err := s.refresh(ctx); err != nil {
		s.logger.Printf("Initial refresh failed: %v", err)
	}

	refreshTicker := time.NewTicker(s.refreshInterval)
	defer refreshTicker.Stop()

	// The eligibility tick is deliberately fast so the countdown and
	// cooldown displays move every second.
	evalTicker := time.NewTicker(1 * time.Second)
	defer evalTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-refreshTicker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.Printf("Refresh failed: %v", err)
			}
		case <-evalTicker.C:
			state := s.orch.Evaluate(ctx, time.Now())
			s.mu.Lock()
			s.lastState = state
			s.mu.Unlock()
			observability.DefaultMetrics.UptimeSeconds.Inc()
		}
	}
}

func (s *Server) refresh(ctx context.Context) error {
	if err := s.orch.Refresh(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.refreshes++
	s.mu.Unlock()
	return nil
}

// startHTTPServer starts the HTTP server for health/metrics/status/mint.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	// Mint endpoint
	mux.HandleFunc("/mint", s.handleMint)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status            string    `json:"status"`
	Uptime            string    `json:"uptime"`
	Wallet            string    `json:"wallet"`
	Phase             string    `json:"phase"`
	LastRefresh       time.Time `json:"last_refresh,omitempty"`
	Refreshes         int       `json:"refreshes"`
	Eligible          bool      `json:"eligible"`
	BlockReason       string    `json:"block_reason,omitempty"`
	SaleLive          bool      `json:"sale_live"`
	SoldOut           bool      `json:"sold_out"`
	CooldownRemaining string    `json:"cooldown_remaining,omitempty"`
	ItemsRemaining    uint64    `json:"items_remaining"`
	ItemsRedeemed     uint64    `json:"items_redeemed"`
	UnitPrice         string    `json:"unit_price,omitempty"`
	PriceLabel        string    `json:"price_label,omitempty"`
}

// handleStatus returns client status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := s.lastState
	lastRefresh := s.lastRefresh
	refreshes := s.refreshes
	started := s.started
	s.mu.Unlock()

	v := s.session.View()

	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(started).String(),
		Wallet:      v.Wallet,
		Phase:       string(s.orch.Phase()),
		LastRefresh: lastRefresh,
		Refreshes:   refreshes,
		Eligible:    state.Eligible,
		BlockReason: string(state.Reason),
		SaleLive:    state.SaleLive,
		SoldOut:     state.SoldOut,
	}
	if state.CooldownRemaining > 0 {
		resp.CooldownRemaining = state.CooldownRemaining.Round(time.Second).String()
	}
	if v.Snapshot != nil {
		resp.ItemsRemaining = v.Snapshot.Remaining
		resp.ItemsRedeemed = v.Snapshot.Redeemed
		resolved := pricing.Resolve(v.Snapshot, s.pricing)
		resp.UnitPrice = resolved.UnitPrice.String()
		resp.PriceLabel = resolved.Label
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// MintResponse is the JSON response for /mint endpoint.
type MintResponse struct {
	Mint      string `json:"mint,omitempty"`
	Signature string `json:"signature,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// handleMint submits one mint attempt and waits for settlement.
func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res, err := s.orch.Mint(r.Context())
	w.Header().Set("Content-Type", "application/json")

	resp := MintResponse{
		Mint:      res.Mint,
		Signature: res.Signature,
		Status:    string(res.Status),
		Message:   res.Message,
	}
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, mint.ErrAttemptInFlight):
		resp.Status = "in_flight"
		resp.Message = "A mint attempt is already in progress."
		w.WriteHeader(http.StatusConflict)
	case errors.Is(err, mint.ErrNotEligible):
		resp.Status = "blocked"
		resp.Message = err.Error()
		w.WriteHeader(http.StatusForbidden)
	default:
		w.WriteHeader(http.StatusBadGateway)
	}

	json.NewEncoder(w).Encode(resp)

	if err != nil {
		s.logger.Printf("Mint request failed: %v", err)
	}
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
