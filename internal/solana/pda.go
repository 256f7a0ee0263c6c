package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known program IDs.
const (
	SystemProgramID        = "11111111111111111111111111111111"
	AssociatedTokenProgram = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	MetadataProgramID      = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	RentSysvarID           = "SysvarRent111111111111111111111111111111111"
)

// FindProgramAddress derives a Program Derived Address using the Solana
// algorithm: append a bump seed, the program ID and the PDA marker, SHA256,
// and take the first bump that lands off the ed25519 curve.
func FindProgramAddress(seeds [][]byte, programID string) (string, error) {
	program, err := base58.Decode(programID)
	if err != nil {
		return "", fmt.Errorf("decode program id: %w", err)
	}

	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, program...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)

		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), nil
		}
	}

	return "", fmt.Errorf("no valid bump seed found")
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// AssociatedTokenAddress derives the associated token account for a wallet
// and mint. Seeds: wallet | token program | mint, under the ATA program.
func AssociatedTokenAddress(wallet, mint string) (string, error) {
	walletKey, err := base58.Decode(wallet)
	if err != nil {
		return "", fmt.Errorf("decode wallet: %w", err)
	}
	mintKey, err := base58.Decode(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}
	programKey, err := base58.Decode(TokenProgramID)
	if err != nil {
		return "", fmt.Errorf("decode token program: %w", err)
	}

	return FindProgramAddress([][]byte{walletKey, programKey, mintKey}, AssociatedTokenProgram)
}

// MetadataAddress derives the metadata account for a mint.
// Seeds: "metadata" | metadata program | mint, under the metadata program.
func MetadataAddress(mint string) (string, error) {
	mintKey, err := base58.Decode(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}
	programKey, err := base58.Decode(MetadataProgramID)
	if err != nil {
		return "", fmt.Errorf("decode metadata program: %w", err)
	}

	return FindProgramAddress([][]byte{[]byte("metadata"), programKey, mintKey}, MetadataProgramID)
}
