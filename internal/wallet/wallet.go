// Package wallet abstracts transaction signing.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// Wallet signs transaction messages on behalf of one public key.
type Wallet interface {
	// Address returns the base58-encoded public key.
	Address() string

	// Sign signs a serialized transaction message.
	Sign(message []byte) ([]byte, error)
}

// Keypair is an in-process ed25519 wallet.
type Keypair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// NewKeypair generates a fresh random keypair.
func NewKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Keypair{pub: pub, priv: priv}, nil
}

// KeypairFromSeed restores a keypair from a 32-byte base58-encoded seed.
func KeypairFromSeed(seed string) (*Keypair, error) {
	raw, err := base58.Decode(seed)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(raw))
	}

	priv := ed25519.NewKeyFromSeed(raw)
	return &Keypair{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

// Address returns the base58-encoded public key.
func (k *Keypair) Address() string {
	return base58.Encode(k.pub)
}

// PublicKey returns the raw 32-byte public key.
func (k *Keypair) PublicKey() []byte {
	out := make([]byte, len(k.pub))
	copy(out, k.pub)
	return out
}

// Sign signs a serialized transaction message.
func (k *Keypair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, message), nil
}
