package journal

import (
	"context"
	"testing"
	"time"

	"solana-drop-client/internal/domain"
)

func TestMemory_AppendAndRecords(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rec := &domain.AttemptRecord{
		DropID:      "drop1",
		Wallet:      "wallet1",
		Mint:        "mint1",
		Signature:   "sig1",
		Status:      domain.AttemptConfirmed,
		UnitPrice:   500_000_000,
		SubmittedAt: time.Now(),
		SettledAt:   time.Now(),
	}
	if err := m.Append(ctx, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Later mutation of the input must not change what was recorded.
	rec.Wallet = "other"

	records := m.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Wallet != "wallet1" {
		t.Error("journal stored a reference instead of a copy")
	}
}
