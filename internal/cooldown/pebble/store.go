// Package pebble provides the durable per-device cooldown store.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/pebble"

	"solana-drop-client/internal/cooldown"
)

// Store is a pebble-backed implementation of cooldown.Store. Values are
// stored as strings (epoch milliseconds and the wallet address) so they stay
// readable by other processes on the same device.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open cooldown store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the record. Returns ErrNoRecord when absent.
func (s *Store) Get(_ context.Context) (*cooldown.Record, error) {
	millis, err := s.get(cooldown.KeyLastMintTime)
	if err != nil {
		return nil, err
	}
	account, err := s.get(cooldown.KeyLastMintAccount)
	if err != nil {
		return nil, err
	}

	ts, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse last mint time %q: %w", millis, err)
	}

	return &cooldown.Record{
		LastMintTime:    time.UnixMilli(ts),
		LastMintAccount: account,
	}, nil
}

// Put overwrites the record. Both keys are written atomically.
func (s *Store) Put(_ context.Context, r *cooldown.Record) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	millis := strconv.FormatInt(r.LastMintTime.UnixMilli(), 10)
	if err := batch.Set([]byte(cooldown.KeyLastMintTime), []byte(millis), nil); err != nil {
		return fmt.Errorf("set last mint time: %w", err)
	}
	if err := batch.Set([]byte(cooldown.KeyLastMintAccount), []byte(r.LastMintAccount), nil); err != nil {
		return fmt.Errorf("set last mint account: %w", err)
	}

	if err := s.db.Apply(batch, pebble.Sync); err != nil {
		return fmt.Errorf("write cooldown record: %w", err)
	}
	return nil
}

func (s *Store) get(key string) (string, error) {
	value, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", cooldown.ErrNoRecord
		}
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	defer closer.Close()

	return string(value), nil
}
