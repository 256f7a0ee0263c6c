// Package drop fetches the authoritative drop configuration and
// wallet-specific balances from the ledger.
package drop

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"solana-drop-client/internal/domain"
	"solana-drop-client/internal/solana"
)

var (
	// ErrUnreachable indicates a transport-level failure.
	ErrUnreachable = errors.New("network unreachable")

	// ErrMalformedAccount indicates the drop account could not be parsed
	// into the expected layout.
	ErrMalformedAccount = errors.New("malformed drop account")

	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")
)

// Reader fetches drop snapshots and balances.
type Reader struct {
	rpc solana.RPCClient
}

// NewReader creates a new Reader.
func NewReader(rpc solana.RPCClient) *Reader {
	return &Reader{rpc: rpc}
}

// FetchSnapshot retrieves and decodes the drop account.
func (r *Reader) FetchSnapshot(ctx context.Context, dropID string) (*domain.DropSnapshot, error) {
	info, err := r.rpc.GetAccountInfo(ctx, dropID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch drop account: %v", ErrUnreachable, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: drop %s", ErrAccountNotFound, dropID)
	}

	return decodeSnapshot(dropID, info.Data, time.Now())
}

// FetchNativeBalance retrieves a wallet's lamport balance.
func (r *Reader) FetchNativeBalance(ctx context.Context, wallet string) (uint64, error) {
	balance, err := r.rpc.GetBalance(ctx, wallet)
	if err != nil {
		return 0, fmt.Errorf("%w: fetch balance: %v", ErrUnreachable, err)
	}
	return balance, nil
}

// FetchTokenBalance retrieves the wallet's balance of the given SPL mint via
// its associated token account. A missing account means zero, not an error.
func (r *Reader) FetchTokenBalance(ctx context.Context, wallet, mint string) (uint64, error) {
	ata, err := solana.AssociatedTokenAddress(wallet, mint)
	if err != nil {
		return 0, fmt.Errorf("derive token account: %w", err)
	}

	amount, err := r.rpc.GetTokenAccountBalance(ctx, ata)
	if err != nil {
		return 0, fmt.Errorf("%w: fetch token balance: %v", ErrUnreachable, err)
	}
	if amount == nil {
		return 0, nil
	}

	raw, err := strconv.ParseUint(amount.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token amount %q: %w", amount.Amount, err)
	}
	return raw, nil
}
