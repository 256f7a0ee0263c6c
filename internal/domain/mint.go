package domain

import "time"

// AttemptStatus is the lifecycle state of a single mint attempt.
type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptConfirmed AttemptStatus = "confirmed"
	AttemptFailed    AttemptStatus = "failed"
	AttemptTimedOut  AttemptStatus = "timed_out"
)

// MintAttempt is the ephemeral record of one submission. At most one attempt
// is live at a time; the orchestrator discards it once terminal.
type MintAttempt struct {
	Mint        string // freshly generated asset mint address
	Wallet      string
	Signature   *string // nil until the transaction was accepted
	SubmittedAt time.Time
	Status      AttemptStatus
}

// AttemptRecord is the journal row written for every terminal attempt.
type AttemptRecord struct {
	DropID      string
	Wallet      string
	Mint        string
	Signature   string
	Status      AttemptStatus
	Kind        string // error kind for failures, empty on success
	UnitPrice   uint64
	SubmittedAt time.Time
	SettledAt   time.Time
}
