// Package memory provides an in-memory cooldown store for tests.
package memory

import (
	"context"
	"sync"

	"solana-drop-client/internal/cooldown"
)

// Store is an in-memory implementation of cooldown.Store.
type Store struct {
	mu     sync.RWMutex
	record *cooldown.Record
}

// NewStore creates a new in-memory cooldown store.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the record. Returns ErrNoRecord when absent.
func (s *Store) Get(_ context.Context) (*cooldown.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.record == nil {
		return nil, cooldown.ErrNoRecord
	}

	// Return a copy to prevent external mutation
	recordCopy := *s.record
	return &recordCopy, nil
}

// Put overwrites the record.
func (s *Store) Put(_ context.Context, r *cooldown.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *r
	s.record = &recordCopy
	return nil
}
