package solana

import "context"

// RPCClient defines the ledger read/submit interface the drop client consumes.
type RPCClient interface {
	// GetAccountInfo retrieves account info by public key. Returns nil when
	// the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetMultipleAccounts retrieves up to 100 accounts in one request.
	// Missing accounts are returned as nil entries at their input position.
	GetMultipleAccounts(ctx context.Context, pubkeys []string) ([]*AccountInfo, error)

	// GetTokenAccountsByOwner enumerates SPL token accounts held by owner.
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error)

	// GetTokenAccountBalance retrieves the balance of a token account.
	// Returns nil when the account does not exist.
	GetTokenAccountBalance(ctx context.Context, account string) (*TokenAmount, error)

	// GetBalance retrieves the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetLatestBlockhash retrieves a recent blockhash for transaction building.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a signed, serialized transaction and returns
	// its signature.
	SendTransaction(ctx context.Context, signedTx []byte) (string, error)

	// GetSignatureStatuses retrieves confirmation statuses for signatures.
	// Unknown signatures are returned as nil entries.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}
