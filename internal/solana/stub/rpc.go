package stub

import (
	"context"
	"fmt"
	"sync"

	"solana-drop-client/internal/solana"
)

// RPCClient implements solana.RPCClient for testing. Map fields seed the
// ledger view; Err forces every call to fail with it.
type RPCClient struct {
	mu sync.Mutex

	Accounts      map[string]*solana.AccountInfo
	TokenAccounts map[string][]solana.TokenAccount // keyed by owner
	TokenBalances map[string]*solana.TokenAmount   // keyed by token account
	Balances      map[string]uint64
	Statuses      map[string]*solana.SignatureStatus
	Blockhash     string

	// Err, when set, is returned by every method.
	Err error

	// SendErr, when set, is returned by SendTransaction only.
	SendErr error

	// SentTransactions records every submitted payload.
	SentTransactions [][]byte

	sendCount int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:      make(map[string]*solana.AccountInfo),
		TokenAccounts: make(map[string][]solana.TokenAccount),
		TokenBalances: make(map[string]*solana.TokenAmount),
		Balances:      make(map[string]uint64),
		Statuses:      make(map[string]*solana.SignatureStatus),
		Blockhash:     "9SfQzpFYCLEGQ2bqAgdChJfEXkbcGYvCNhGdXY8nbeqh",
	}
}

func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Accounts[pubkey], nil
}

func (c *RPCClient) GetMultipleAccounts(_ context.Context, pubkeys []string) ([]*solana.AccountInfo, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if len(pubkeys) > 100 {
		return nil, fmt.Errorf("too many accounts requested: %d (max 100)", len(pubkeys))
	}
	infos := make([]*solana.AccountInfo, len(pubkeys))
	for i, pk := range pubkeys {
		infos[i] = c.Accounts[pk]
	}
	return infos, nil
}

func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner string) ([]solana.TokenAccount, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.TokenAccounts[owner], nil
}

func (c *RPCClient) GetTokenAccountBalance(_ context.Context, account string) (*solana.TokenAmount, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.TokenBalances[account], nil
}

func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	if c.Err != nil {
		return 0, c.Err
	}
	return c.Balances[pubkey], nil
}

func (c *RPCClient) GetLatestBlockhash(_ context.Context) (string, error) {
	if c.Err != nil {
		return "", c.Err
	}
	return c.Blockhash, nil
}

func (c *RPCClient) SendTransaction(_ context.Context, signedTx []byte) (string, error) {
	if c.Err != nil {
		return "", c.Err
	}
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SentTransactions = append(c.SentTransactions, signedTx)
	c.sendCount++
	return fmt.Sprintf("stubsig%d", c.sendCount), nil
}

func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	statuses := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		statuses[i] = c.Statuses[sig]
	}
	return statuses, nil
}
