// Package eligibility decides whether a wallet may mint right now, and why
// not when it may not.
package eligibility

import (
	"time"

	"solana-drop-client/internal/cooldown"
	"solana-drop-client/internal/domain"
	"solana-drop-client/internal/pricing"
)

// Config carries the fixed admission policy parameters.
type Config struct {
	// CooldownWindow is the mandatory wait after a successful mint.
	CooldownWindow time.Duration
	// OwnershipCap is the maximum number of collection items a wallet may
	// hold and still mint.
	OwnershipCap int
}

// Inputs are the signals an evaluation is computed from. The engine never
// fetches anything itself; callers refresh these and re-evaluate.
type Inputs struct {
	Snapshot         *domain.DropSnapshot
	Wallet           string
	WhitelistBalance uint64
	OwnershipCount   int
	Cooldown         *cooldown.Record // nil when no mint recorded
	Verified         bool             // identity gate satisfied
}

// Evaluate rebuilds the wallet's eligibility state from current inputs.
/// It is a pure function of (Inputs, Config, now): rules are checked in
// precedence order and the first failing rule is the reported reason.
func Evaluate(in Inputs, cfg Config, now time.Time) domain.WalletEligibilityState {
	state := domain.WalletEligibilityState{
		WhitelistBalance: in.WhitelistBalance,
		OwnershipCount:   in.OwnershipCount,
	}

	if in.Wallet == "" {
		state.Reason = domain.BlockNoWallet
		return state
	}

	snap := in.Snapshot
	if snap == nil {
		// Missing data degrades to not-eligible, never to a crash.
		state.Reason = domain.BlockNotLive
		return state
	}

	state.SoldOut = snap.SoldOut
	state.UnitPrice = pricing.EffectiveRawPrice(snap, in.WhitelistBalance)

	// Holding whitelist tokens is itself an activation signal: it bypasses
	// the countdown entirely.
	countdownDone := snap.GoLiveAt != nil && !now.Before(*snap.GoLiveAt)
	state.SaleLive = countdownDone || in.WhitelistBalance > 0

	state.Verified = snap.Gatekeeper == nil || in.Verified

	if snap.SoldOut {
		state.Reason = domain.BlockSoldOut
		return state
	}

	if !state.SaleLive {
		state.Reason = domain.BlockNotLive
		return state
	}

	if remaining := in.Cooldown.Remaining(in.Wallet, cfg.CooldownWindow, now); remaining > 0 {
		state.Reason = domain.BlockCooldown
		state.CooldownRemaining = remaining
		return state
	}

	if in.OwnershipCount >= cfg.OwnershipCap {
		state.Reason = domain.BlockOwnershipCap
		return state
	}

	if !state.Verified {
		state.Reason = domain.BlockUnverified
		return state
	}

	state.Eligible = true
	return state
}
