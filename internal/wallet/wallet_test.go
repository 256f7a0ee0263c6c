package wallet

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
)

func TestNewKeypair(t *testing.T) {
	k, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}

	raw, err := base58.Decode(k.Address())
	if err != nil || len(raw) != 32 {
		t.Fatalf("invalid address %q", k.Address())
	}

	msg := []byte("message to sign")
	sig, err := k.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !ed25519.Verify(k.PublicKey(), msg, sig) {
		t.Error("signature does not verify")
	}
}

func TestKeypairFromSeed(t *testing.T) {
	seed := base58.Encode(make([]byte, ed25519.SeedSize))

	k1, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}
	k2, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}

	if k1.Address() != k2.Address() {
		t.Error("same seed must restore the same keypair")
	}
}

func TestKeypairFromSeed_BadInput(t *testing.T) {
	if _, err := KeypairFromSeed("0OIl"); err == nil {
		t.Error("expected error for invalid base58")
	}
	if _, err := KeypairFromSeed(base58.Encode([]byte{1, 2, 3})); err == nil {
		t.Error("expected error for short seed")
	}
}
