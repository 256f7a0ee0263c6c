package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"solana-drop-client/internal/cooldown"
)

// setupTestDB creates a PostgreSQL container for testing.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := pgcontainer.Run(ctx, "postgres:15-alpine",
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

func TestStore_GetEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store, err := NewStore(ctx, pool, "device-1")
	require.NoError(t, err)

	_, err = store.Get(ctx)
	assert.True(t, errors.Is(err, cooldown.ErrNoRecord))
}

func TestStore_PutAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store, err := NewStore(ctx, pool, "device-1")
	require.NoError(t, err)

	rec := &cooldown.Record{
		LastMintTime:    time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC),
		LastMintAccount: "wallet1",
	}
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.LastMintTime.Equal(rec.LastMintTime))
	assert.Equal(t, "wallet1", got.LastMintAccount)
}

func TestStore_UpsertAndIsolation(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store1, err := NewStore(ctx, pool, "device-1")
	require.NoError(t, err)
	store2, err := NewStore(ctx, pool, "device-2")
	require.NoError(t, err)

	require.NoError(t, store1.Put(ctx, &cooldown.Record{
		LastMintTime:    time.UnixMilli(1000).UTC(),
		LastMintAccount: "a",
	}))
	require.NoError(t, store1.Put(ctx, &cooldown.Record{
		LastMintTime:    time.UnixMilli(2000).UTC(),
		LastMintAccount: "b",
	}))

	got, err := store1.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", got.LastMintAccount)

	// Devices do not see each other's records.
	_, err = store2.Get(ctx)
	assert.True(t, errors.Is(err, cooldown.ErrNoRecord))
}
