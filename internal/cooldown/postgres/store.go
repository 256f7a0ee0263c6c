// Package postgres provides a cooldown store for deployments where several
// devices share one throttling record.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"solana-drop-client/internal/cooldown"
)

// Store is a postgres-backed implementation of cooldown.Store. The table
// holds one row per device identifier.
type Store struct {
	pool     *pgxpool.Pool
	deviceID string
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// NewStore creates the store and ensures its schema exists.
func NewStore(ctx context.Context, pool *pgxpool.Pool, deviceID string) (*Store, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cooldown_records (
			device_id         TEXT PRIMARY KEY,
			last_mint_time    TIMESTAMPTZ NOT NULL,
			last_mint_account TEXT NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("create cooldown table: %w", err)
	}

	return &Store{pool: pool, deviceID: deviceID}, nil
}

// Get retrieves the record. Returns ErrNoRecord when absent.
func (s *Store) Get(ctx context.Context) (*cooldown.Record, error) {
	var r cooldown.Record
	err := s.pool.QueryRow(ctx, `
		SELECT last_mint_time, last_mint_account
		FROM cooldown_records
		WHERE device_id = $1`, s.deviceID,
	).Scan(&r.LastMintTime, &r.LastMintAccount)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cooldown.ErrNoRecord
		}
		return nil, fmt.Errorf("query cooldown record: %w", err)
	}

	r.LastMintTime = r.LastMintTime.UTC()
	return &r, nil
}

// Put overwrites the record.
func (s *Store) Put(ctx context.Context, r *cooldown.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cooldown_records (device_id, last_mint_time, last_mint_account)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id) DO UPDATE
		SET last_mint_time = EXCLUDED.last_mint_time,
		    last_mint_account = EXCLUDED.last_mint_account`,
		s.deviceID, r.LastMintTime.UTC(), r.LastMintAccount)
	if err != nil {
		return fmt.Errorf("write cooldown record: %w", err)
	}
	return nil
}
