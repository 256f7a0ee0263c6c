// Package scanner counts how many items of a collection a wallet already
// holds, by enumerating token accounts and decoding their metadata.
package scanner

import (
	"context"
	"log"

	"solana-drop-client/internal/domain"
	"solana-drop-client/internal/solana"
)

// metadataBatchSize is the getMultipleAccounts request cap.
const metadataBatchSize = 100

// SentinelCount is returned for every wallet when a scan fails outright.
// It must stay at or above any configured ownership cap: undercounting on
// error could let a wallet mint past its limit, so an unreadable wallet is
// treated as already at the cap. Do not change this to zero.
const SentinelCount = 3

// Scanner enumerates collection holdings per wallet.
type Scanner struct {
	rpc    solana.RPCClient
	logger *log.Logger
}

// NewScanner creates a new Scanner.
func NewScanner(rpc solana.RPCClient, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{rpc: rpc, logger: logger}
}

// CountHoldings returns, per input wallet, the number of held items matching
// any of the collection filters. On any fetch or derivation failure the whole
// scan degrades to SentinelCount for every wallet.
func (s *Scanner) CountHoldings(ctx context.Context, wallets []string, filters []domain.CollectionFilter) []int {
	counts, err := s.countHoldings(ctx, wallets, filters)
	if err != nil {
		s.logger.Printf("[scanner] scan failed, assuming ownership cap reached: %v", err)
		counts = make([]int, len(wallets))
		for i := range counts {
			counts[i] = SentinelCount
		}
	}
	return counts
}

func (s *Scanner) countHoldings(ctx context.Context, wallets []string, filters []domain.CollectionFilter) ([]int, error) {
	counts := make([]int, len(wallets))

	for i, wallet := range wallets {
		accounts, err := s.rpc.GetTokenAccountsByOwner(ctx, wallet)
		if err != nil {
			return nil, err
		}

		// NFT-ness heuristic: nonzero balance, zero decimal places.
		var mints []string
		for _, acct := range accounts {
			if acct.Amount.Amount != "0" && acct.Amount.Decimals == 0 {
				mints = append(mints, acct.Mint)
			}
		}

		metadataAddrs := make([]string, 0, len(mints))
		for _, mint := range mints {
			addr, err := solana.MetadataAddress(mint)
			if err != nil {
				return nil, err
			}
			metadataAddrs = append(metadataAddrs, addr)
		}

		matched, err := s.countMatches(ctx, metadataAddrs, filters)
		if err != nil {
			return nil, err
		}
		counts[i] = matched
	}

	return counts, nil
}

// countMatches batch-fetches metadata accounts and counts filter matches.
func (s *Scanner) countMatches(ctx context.Context, addrs []string, filters []domain.CollectionFilter) (int, error) {
	matched := 0

	for cur := 0; cur < len(addrs); cur += metadataBatchSize {
		end := cur + metadataBatchSize
		if end > len(addrs) {
			end = len(addrs)
		}

		infos, err := s.rpc.GetMultipleAccounts(ctx, addrs[cur:end])
		if err != nil {
			return 0, err
		}

		for _, info := range infos {
			if info == nil || len(info.Data) == 0 {
				continue
			}
			meta, err := decodeMetadata(info.Data)
			if err != nil {
				return 0, err
			}
			for _, filter := range filters {
				if filter.Matches(meta) {
					matched++
					break
				}
			}
		}
	}

	return matched, nil
}
