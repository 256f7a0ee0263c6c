package mint

import (
	"context"
	"errors"

	"solana-drop-client/internal/drop"
	"solana-drop-client/internal/solana"
)

// Program custom error codes surfaced by failed mint transactions.
const (
	codeInsufficientFunds = 309 // 0x135
	codeSoldOut           = 311 // 0x137
	codeNotLive           = 312 // 0x138
)

// ErrorKind classifies a failed attempt for callers. Classification uses
// structured error codes only, never message text.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindUnreachable       ErrorKind = "unreachable"
	KindTimeout           ErrorKind = "timeout"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindSoldOut           ErrorKind = "sold_out"
	KindNotLive           ErrorKind = "not_live"
	KindRejected          ErrorKind = "rejected"
	KindUnknown           ErrorKind = "unknown"
)

// ErrAttemptInFlight is returned when a mint is requested while another
// attempt has not settled yet.
var ErrAttemptInFlight = errors.New("mint attempt already in flight")

// ErrNotEligible is returned when the wallet fails the admission check at
// submission time.
var ErrNotEligible = errors.New("wallet is not eligible to mint")

// Classify maps a failed attempt error to its kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var rpcErr *solana.RPCError
	if errors.As(err, &rpcErr) {
		if code, ok := rpcErr.CustomErrorCode(); ok {
			switch code {
			case codeInsufficientFunds:
				return KindInsufficientFunds
			case codeSoldOut:
				return KindSoldOut
			case codeNotLive:
				return KindNotLive
			}
		}
		return KindRejected
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, drop.ErrUnreachable):
		return KindUnreachable
	}
	return KindUnknown
}

// Describe renders a kind as a user-facing message. This is the only place
// attempt failures become prose.
func Describe(kind ErrorKind) string {
	switch kind {
	case KindInsufficientFunds:
		return "Insufficient funds to mint. Please fund your wallet."
	case KindSoldOut:
		return "SOLD OUT!"
	case KindNotLive:
		return "Mint is not live yet."
	case KindTimeout:
		return "Mint timed out! Please try again."
	case KindUnreachable:
		return "Network error. Please check your connection and try again."
	default:
		return "Minting failed! Please try again."
	}
}
