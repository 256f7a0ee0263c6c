// Package mint submits drop mint transactions and tracks each attempt from
// submission to settlement.
package mint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"solana-drop-client/internal/cooldown"
	"solana-drop-client/internal/domain"
	"solana-drop-client/internal/drop"
	"solana-drop-client/internal/eligibility"
	"solana-drop-client/internal/journal"
	"solana-drop-client/internal/observability"
	"solana-drop-client/internal/scanner"
	"solana-drop-client/internal/session"
	"solana-drop-client/internal/solana"
	"solana-drop-client/internal/wallet"
)

// Phase is the orchestrator's position in the attempt lifecycle.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseSubmitting           Phase = "submitting"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
)

// Config carries the orchestrator's fixed parameters.
type Config struct {
	DropID        string
	DropProgramID string

	CooldownWindow time.Duration
	OwnershipCap   int

	// ConfirmTimeout bounds the wait for a submitted transaction to settle.
	ConfirmTimeout time.Duration
	// PollInterval is the signature status polling cadence, used alongside
	// the subscription as a fallback.
	PollInterval time.Duration

	// Filters identify collection items during ownership scans.
	Filters []domain.CollectionFilter
}

// Result is the terminal outcome of one attempt.
type Result struct {
	Mint      string
	Signature string
	Status    domain.AttemptStatus
	Kind      ErrorKind
	Message   string
}

// Orchestrator drives the full mint flow: refresh, admission, submission,
// confirmation, settlement. At most one attempt is in flight at a time.
type Orchestrator struct {
	cfg       Config
	rpc       solana.RPCClient
	ws        solana.WSClient // nil disables the subscription path
	reader    *drop.Reader
	scanner   *scanner.Scanner
	payer     wallet.Wallet
	cooldowns cooldown.Store
	session   *session.State
	journal   journal.Journal
	verified  func() bool // identity gate probe, nil means no gate client
	celebrate func(Result)
	logger    *log.Logger

	mu      sync.Mutex
	phase   Phase
	attempt *domain.MintAttempt
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWSClient enables subscription-based confirmation.
func WithWSClient(ws solana.WSClient) Option {
	return func(o *Orchestrator) { o.ws = ws }
}

// WithJournal records terminal attempts to the given sink.
func WithJournal(j journal.Journal) Option {
	return func(o *Orchestrator) { o.journal = j }
}

// WithVerifier wires the identity gate probe.
func WithVerifier(verified func() bool) Option {
	return func(o *Orchestrator) { o.verified = verified }
}

// WithCelebration registers a callback invoked on confirmed mints.
func WithCelebration(fn func(Result)) Option {
	return func(o *Orchestrator) { o.celebrate = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New creates an orchestrator.
func New(cfg Config, rpc solana.RPCClient, payer wallet.Wallet, cooldowns cooldown.Store, sess *session.State, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		rpc:       rpc,
		reader:    drop.NewReader(rpc),
		payer:     payer,
		cooldowns: cooldowns,
		session:   sess,
		journal:   journal.NewMemory(),
		logger:    log.Default(),
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.scanner = scanner.NewScanner(rpc, o.logger)
	return o
}

// Phase returns the current attempt phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Refresh fetches the drop snapshot, balances and ownership count, and
// installs them in the session. Stale results for a superseded wallet are
// discarded.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	gen := o.session.BeginRefresh()
	addr := o.session.View().Wallet

	snap, err := o.reader.FetchSnapshot(ctx, o.cfg.DropID)
	if err != nil {
		observability.RecordRefresh("error")
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	v := session.View{Snapshot: snap}

	if addr != "" {
		v.NativeBalance, err = o.reader.FetchNativeBalance(ctx, addr)
		if err != nil {
			observability.RecordRefresh("error")
			return fmt.Errorf("refresh balance: %w", err)
		}

		if snap.TokenMint != nil {
			v.TokenBalance, err = o.reader.FetchTokenBalance(ctx, addr, *snap.TokenMint)
			if err != nil {
				observability.RecordRefresh("error")
				return fmt.Errorf("refresh token balance: %w", err)
			}
		}
		if snap.Whitelist != nil {
			v.WhitelistBalance, err = o.reader.FetchTokenBalance(ctx, addr, snap.Whitelist.Mint)
			if err != nil {
				observability.RecordRefresh("error")
				return fmt.Errorf("refresh whitelist balance: %w", err)
			}
		}

		scanStart := time.Now()
		counts := o.scanner.CountHoldings(ctx, []string{addr}, o.cfg.Filters)
		v.OwnershipCount = counts[0]
		observability.RecordScan(time.Since(scanStart).Seconds(), v.OwnershipCount == scanner.SentinelCount)
	}

	if !o.session.ApplyRefresh(gen, v) {
		observability.RecordRefresh("stale")
		return nil
	}

	observability.RecordRefresh("ok")
	observability.UpdateDropGauges(snap.Remaining, snap.Redeemed)
	observability.DefaultMetrics.LastSuccessfulRefresh.SetToCurrentTime()
	return nil
}

// Evaluate recomputes the wallet's eligibility from the current session view.
func (o *Orchestrator) Evaluate(ctx context.Context, now time.Time) domain.WalletEligibilityState {
	v := o.session.View()

	rec, err := o.cooldowns.Get(ctx)
	if err != nil && !errors.Is(err, cooldown.ErrNoRecord) {
		o.logger.Printf("[mint] read cooldown record: %v", err)
	}

	state := eligibility.Evaluate(eligibility.Inputs{
		Snapshot:         v.Snapshot,
		Wallet:           v.Wallet,
		WhitelistBalance: v.WhitelistBalance,
		OwnershipCount:   v.OwnershipCount,
		Cooldown:         rec,
		Verified:         o.verified == nil || o.verified(),
	}, eligibility.Config{
		CooldownWindow: o.cfg.CooldownWindow,
		OwnershipCap:   o.cfg.OwnershipCap,
	}, now)

	observability.RecordEvaluation(string(state.Reason))
	return state
}

// Mint runs one full attempt. It re-checks eligibility at entry, submits the
// transaction, waits for settlement and applies the local success update.
// Concurrent calls fail fast with ErrAttemptInFlight.
func (o *Orchestrator) Mint(ctx context.Context) (Result, error) {
	o.mu.Lock()
	if o.phase != PhaseIdle {
		o.mu.Unlock()
		return Result{}, ErrAttemptInFlight
	}
	o.phase = PhaseSubmitting
	o.mu.Unlock()

	res, err := o.run(ctx)

	o.mu.Lock()
	o.phase = PhaseIdle
	o.attempt = nil
	o.mu.Unlock()

	return res, err
}

func (o *Orchestrator) run(ctx context.Context) (Result, error) {
	state := o.Evaluate(ctx, time.Now())
	if !state.Eligible {
		return Result{}, fmt.Errorf("%w: %s", ErrNotEligible, state.Reason)
	}

	v := o.session.View()
	snap := v.Snapshot

	asset, err := wallet.NewKeypair()
	if err != nil {
		return Result{}, fmt.Errorf("generate item keypair: %w", err)
	}

	blockhash, err := o.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return o.settleFailed(ctx, nil, state.UnitPrice, fmt.Errorf("%w: fetch blockhash: %v", drop.ErrUnreachable, err))
	}

	params := TxParams{
		Payer:         o.payer,
		Asset:         asset,
		DropID:        o.cfg.DropID,
		DropProgramID: o.cfg.DropProgramID,
		Blockhash:     blockhash,
	}
	usedWhitelist := false
	if snap.Whitelist != nil && v.WhitelistBalance > 0 {
		params.WhitelistTokenAccount, err = solana.AssociatedTokenAddress(v.Wallet, snap.Whitelist.Mint)
		if err != nil {
			return Result{}, fmt.Errorf("derive whitelist token account: %w", err)
		}
		usedWhitelist = snap.Whitelist.DiscountPrice != nil
	}
	if snap.TokenMint != nil {
		params.PaymentTokenAccount, err = solana.AssociatedTokenAddress(v.Wallet, *snap.TokenMint)
		if err != nil {
			return Result{}, fmt.Errorf("derive payment token account: %w", err)
		}
	}

	tx, err := BuildTransaction(params)
	if err != nil {
		return Result{}, fmt.Errorf("build transaction: %w", err)
	}

	attempt := &domain.MintAttempt{
		Mint:        asset.Address(),
		Wallet:      v.Wallet,
		SubmittedAt: time.Now(),
		Status:      domain.AttemptPending,
	}
	o.mu.Lock()
	o.attempt = attempt
	o.mu.Unlock()
	observability.RecordAttemptStarted()

	sig, err := o.rpc.SendTransaction(ctx, tx)
	if err != nil {
		// No signature means nothing landed on chain.
		return o.settleFailed(ctx, attempt, state.UnitPrice, err)
	}
	attempt.Signature = &sig

	o.mu.Lock()
	o.phase = PhaseAwaitingConfirmation
	o.mu.Unlock()
	o.logger.Printf("[mint] submitted %s for item %s", sig, attempt.Mint)

	if err := o.awaitConfirmation(ctx, sig); err != nil {
		return o.settleFailed(ctx, attempt, state.UnitPrice, err)
	}

	return o.settleConfirmed(ctx, attempt, state.UnitPrice, usedWhitelist)
}

// awaitConfirmation waits for the signature to reach confirmed commitment.
// The subscription is the fast path; status polling runs regardless so a
// notification lost across a reconnect cannot strand the attempt.
func (o *Orchestrator) awaitConfirmation(ctx context.Context, sig string) error {
	timeout := o.cfg.ConfirmTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	poll := o.cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var notifyCh <-chan solana.SignatureResult
	if o.ws != nil {
		ch, err := o.ws.SubscribeSignature(waitCtx, sig)
		if err != nil {
			o.logger.Printf("[mint] signature subscription failed, polling only: %v", err)
		} else {
			notifyCh = ch
		}
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			if waitCtx.Err() == context.DeadlineExceeded {
				return context.DeadlineExceeded
			}
			return waitCtx.Err()

		case res, ok := <-notifyCh:
			if !ok {
				notifyCh = nil
				continue
			}
			if res.Err != nil {
				return o.transactionError(waitCtx, sig, res.Err)
			}
			return nil

		case <-ticker.C:
			statuses, err := o.rpc.GetSignatureStatuses(waitCtx, []string{sig})
			if err != nil || len(statuses) == 0 {
				continue
			}
			status := statuses[0]
			if status.Confirmed() {
				return nil
			}
			if status.Failed() {
				return o.transactionError(waitCtx, sig, status.Err)
			}
		}
	}
}

// transactionError recovers the structured program error for a failed
// signature by resending the classification through the RPC error type.
func (o *Orchestrator) transactionError(ctx context.Context, sig string, txErr interface{}) error {
	if rpcErr := solana.TransactionRPCError(txErr); rpcErr != nil {
		return rpcErr
	}
	return fmt.Errorf("transaction %s failed: %v", sig, txErr)
}

func (o *Orchestrator) settleConfirmed(ctx context.Context, attempt *domain.MintAttempt, unitPrice uint64, usedWhitelist bool) (Result, error) {
	attempt.Status = domain.AttemptConfirmed
	settledAt := time.Now()

	if err := o.cooldowns.Put(ctx, &cooldown.Record{
		LastMintTime:    settledAt,
		LastMintAccount: attempt.Wallet,
	}); err != nil {
		o.logger.Printf("[mint] write cooldown record: %v", err)
	}

	o.session.ApplyMintSuccess(unitPrice, FeeEstimateLamports, usedWhitelist)

	res := Result{
		Mint:      attempt.Mint,
		Signature: *attempt.Signature,
		Status:    domain.AttemptConfirmed,
		Message:   "Congratulations! Mint succeeded!",
	}

	o.record(ctx, attempt, unitPrice, "", settledAt)
	observability.RecordAttemptSettled(string(attempt.Status), "", settledAt.Sub(attempt.SubmittedAt).Seconds())
	o.logger.Printf("[mint] confirmed %s", res.Signature)

	if o.celebrate != nil {
		o.celebrate(res)
	}
	return res, nil
}

func (o *Orchestrator) settleFailed(ctx context.Context, attempt *domain.MintAttempt, unitPrice uint64, cause error) (Result, error) {
	kind := Classify(cause)

	res := Result{Kind: kind, Message: Describe(kind)}
	if attempt == nil {
		return res, cause
	}

	attempt.Status = domain.AttemptFailed
	if kind == KindTimeout {
		attempt.Status = domain.AttemptTimedOut
	}
	settledAt := time.Now()

	res.Mint = attempt.Mint
	res.Status = attempt.Status
	if attempt.Signature != nil {
		res.Signature = *attempt.Signature
	}

	o.record(ctx, attempt, unitPrice, string(kind), settledAt)
	observability.RecordAttemptSettled(string(attempt.Status), string(kind), settledAt.Sub(attempt.SubmittedAt).Seconds())
	o.logger.Printf("[mint] attempt for item %s settled %s (%s): %v", attempt.Mint, attempt.Status, kind, cause)

	return res, cause
}

func (o *Orchestrator) record(ctx context.Context, attempt *domain.MintAttempt, unitPrice uint64, kind string, settledAt time.Time) {
	sig := ""
	if attempt.Signature != nil {
		sig = *attempt.Signature
	}
	rec := &domain.AttemptRecord{
		DropID:      o.cfg.DropID,
		Wallet:      attempt.Wallet,
		Mint:        attempt.Mint,
		Signature:   sig,
		Status:      attempt.Status,
		Kind:        kind,
		UnitPrice:   unitPrice,
		SubmittedAt: attempt.SubmittedAt,
		SettledAt:   settledAt,
	}
	if err := o.journal.Append(ctx, rec); err != nil {
		o.logger.Printf("[mint] journal append: %v", err)
	}
}
