package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface used for
// transaction confirmation.
type WSClient interface {
	// SubscribeSignature subscribes to the confirmation notification for a
	// transaction signature. The channel delivers at most one result and is
	// closed afterwards.
	SubscribeSignature(ctx context.Context, signature string) (<-chan SignatureResult, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureResult is a signature subscription notification.
type SignatureResult struct {
	Signature string
	Slot      int64
	Err       interface{}
}
