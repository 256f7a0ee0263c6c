// Package session owns the locally cached view of the drop and the connected
// wallet. All writes go through the refresh and settle paths here; every
// other component works from read-only copies.
package session

import (
	"sync"

	"solana-drop-client/internal/domain"
)

// View is a read-only copy of the session state.
type View struct {
	Wallet           string
	Snapshot         *domain.DropSnapshot
	NativeBalance    uint64
	TokenBalance     uint64
	WhitelistBalance uint64
	OwnershipCount   int
}

// State is the single owned session structure. Refreshes are keyed by a
// generation counter so a fetch issued for a superseded wallet is discarded
// instead of clobbering newer data.
type State struct {
	mu         sync.RWMutex
	generation uint64

	wallet           string
	snapshot         *domain.DropSnapshot
	nativeBalance    uint64
	tokenBalance     uint64
	whitelistBalance uint64
	ownershipCount   int
}

// New creates an empty session state.
func New() *State {
	return &State{}
}

// SetWallet switches the connected wallet, clearing wallet-derived fields
// and invalidating in-flight refreshes.
func (s *State) SetWallet(wallet string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == wallet {
		return
	}
	s.generation++
	s.wallet = wallet
	s.nativeBalance = 0
	s.tokenBalance = 0
	s.whitelistBalance = 0
	s.ownershipCount = 0
}

// BeginRefresh marks the start of a fetch cycle and returns the generation
// it belongs to.
func (s *State) BeginRefresh() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// ApplyRefresh installs fetched data. Returns false (discarding the data)
// when the session moved on while the fetch was in flight.
func (s *State) ApplyRefresh(generation uint64, v View) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return false
	}

	if v.Snapshot != nil {
		snap := *v.Snapshot
		s.snapshot = &snap
	}
	s.nativeBalance = v.NativeBalance
	s.tokenBalance = v.TokenBalance
	s.whitelistBalance = v.WhitelistBalance
	s.ownershipCount = v.OwnershipCount
	return true
}

// View returns a read-only copy of the current state.
func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Wallet:           s.wallet,
		NativeBalance:    s.nativeBalance,
		TokenBalance:     s.tokenBalance,
		WhitelistBalance: s.whitelistBalance,
		OwnershipCount:   s.ownershipCount,
	}
	if s.snapshot != nil {
		snap := *s.snapshot
		v.Snapshot = &snap
	}
	return v
}

// ApplyMintSuccess applies the optimistic local update for one confirmed
// mint: supply counters move by exactly one, the payer balance drops by
// price plus fee, and the whitelist balance shrinks when the discount path
// was used.
func (s *State) ApplyMintSuccess(unitPrice, feeEstimate uint64, usedWhitelist bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil {
		snap := *s.snapshot
		if snap.Remaining > 0 {
			snap.Remaining--
			snap.Redeemed++
		}
		snap.SoldOut = snap.Remaining == 0
		s.snapshot = &snap
	}

	if usedWhitelist && s.whitelistBalance > 0 {
		s.whitelistBalance--
	}

	cost := unitPrice + feeEstimate
	paysInToken := s.snapshot != nil && s.snapshot.TokenMint != nil
	if paysInToken {
		if s.tokenBalance >= unitPrice {
			s.tokenBalance -= unitPrice
		} else {
			s.tokenBalance = 0
		}
		// Fees are still paid in lamports.
		if s.nativeBalance >= feeEstimate {
			s.nativeBalance -= feeEstimate
		} else {
			s.nativeBalance = 0
		}
	} else {
		if s.nativeBalance >= cost {
			s.nativeBalance -= cost
		} else {
			s.nativeBalance = 0
		}
	}

	s.ownershipCount++
}
