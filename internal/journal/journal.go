// Package journal records terminal mint attempts for later analysis.
package journal

import (
	"context"
	"sync"

	"solana-drop-client/internal/domain"
)

// Journal appends attempt records. Appends are best effort from the
// orchestrator's point of view; a journal failure never fails a mint.
type Journal interface {
	Append(ctx context.Context, rec *domain.AttemptRecord) error
}

// Memory is an in-process journal, used in tests and when no sink is
// configured.
type Memory struct {
	mu      sync.Mutex
	records []domain.AttemptRecord
}

// NewMemory creates an empty in-process journal.
func NewMemory() *Memory {
	return &Memory{}
}

var _ Journal = (*Memory)(nil)

// Append stores a copy of the record.
func (m *Memory) Append(_ context.Context, rec *domain.AttemptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *rec)
	return nil
}

// Records returns a copy of everything appended so far.
func (m *Memory) Records() []domain.AttemptRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AttemptRecord, len(m.records))
	copy(out, m.records)
	return out
}
