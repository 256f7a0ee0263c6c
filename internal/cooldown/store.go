// Package cooldown persists the per-device record of the last successful
// mint, consulted by the eligibility engine and written by the orchestrator.
package cooldown

import (
	"context"
	"errors"
	"time"
)

// Storage keys are namespaced to avoid clashing with other tools sharing the
// same device store.
const (
	KeyLastMintTime    = "dropclient:last_mint_time"
	KeyLastMintAccount = "dropclient:last_mint_account"
)

// ErrNoRecord is returned when no mint has been recorded on this device.
var ErrNoRecord = errors.New("no cooldown record")

// Record is the last successful mint on this device.
type Record struct {
	LastMintTime    time.Time
	LastMintAccount string
}

// Remaining returns how long the wallet must still wait under the given
// window. Zero when the record belongs to a different wallet or the window
// has elapsed.
func (r *Record) Remaining(wallet string, window time.Duration, now time.Time) time.Duration {
	if r == nil || r.LastMintAccount != wallet {
		return 0
	}
	elapsed := now.Sub(r.LastMintTime)
	if elapsed >= window {
		return 0
	}
	return window - elapsed
}

// Store reads and writes the device cooldown record.
type Store interface {
	// Get retrieves the record. Returns ErrNoRecord when absent.
	Get(ctx context.Context) (*Record, error)

	// Put overwrites the record.
	Put(ctx context.Context, r *Record) error
}
