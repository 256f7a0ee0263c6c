package cooldown

import (
	"testing"
	"time"
)

func TestRecord_Remaining(t *testing.T) {
	now := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	window := time.Hour

	rec := &Record{
		LastMintTime:    now.Add(-30 * time.Minute),
		LastMintAccount: "wallet1",
	}

	if got := rec.Remaining("wallet1", window, now); got != 30*time.Minute {
		t.Errorf("expected 30m remaining, got %v", got)
	}

	// Different wallet is not throttled.
	if got := rec.Remaining("wallet2", window, now); got != 0 {
		t.Errorf("different wallet should not be throttled, got %v", got)
	}

	// Window elapsed.
	later := now.Add(time.Hour)
	if got := rec.Remaining("wallet1", window, later); got != 0 {
		t.Errorf("expired window should report zero, got %v", got)
	}
}

func TestRecord_Remaining_NilRecord(t *testing.T) {
	var rec *Record
	if got := rec.Remaining("wallet1", time.Hour, time.Now()); got != 0 {
		t.Errorf("nil record should report zero, got %v", got)
	}
}
