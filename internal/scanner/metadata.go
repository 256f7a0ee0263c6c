package scanner

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"solana-drop-client/internal/domain"
)

// Metaplex Metadata layout:
// - key: u8 (1 byte, should be 4 for MetadataV1)
// - updateAuthority: Pubkey (32 bytes)
// - mint: Pubkey (32 bytes)
// - name: String (4 + length bytes, max 32 chars)
// - symbol: String (4 + length bytes, max 10 chars)
// - uri: String (4 + length bytes, max 200 chars)
// ...and more fields
const metadataV1Key = 4

// decodeMetadata parses a Metaplex metadata account payload. Fixed-width
// string fields carry NUL padding which is stripped here.
func decodeMetadata(data []byte) (*domain.TokenMetadata, error) {
	if len(data) < 100 {
		return nil, fmt.Errorf("metadata account too short: %d bytes", len(data))
	}

	if data[0] != metadataV1Key {
		return nil, fmt.Errorf("unexpected metadata key %d", data[0])
	}

	meta := &domain.TokenMetadata{
		UpdateAuthority: base58.Encode(data[1:33]),
		Mint:            base58.Encode(data[33:65]),
	}

	offset := 65

	name, offset, err := readBorshString(data, offset, 100)
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	meta.Name = name

	symbol, offset, err := readBorshString(data, offset, 20)
	if err != nil {
		return nil, fmt.Errorf("symbol: %w", err)
	}
	meta.Symbol = symbol

	uri, _, err := readBorshString(data, offset, 300)
	if err != nil {
		return nil, fmt.Errorf("uri: %w", err)
	}
	meta.URI = uri

	return meta, nil
}

// readBorshString reads a borsh string (4-byte LE length + data) and strips
// NUL padding.
func readBorshString(data []byte, offset, maxLen int) (string, int, error) {
	if offset+4 > len(data) {
		return "", offset, fmt.Errorf("truncated length at offset %d", offset)
	}
	length := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4

	if length > maxLen || offset+length > len(data) {
		return "", offset, fmt.Errorf("invalid string length %d at offset %d", length, offset-4)
	}

	s := strings.TrimRight(string(data[offset:offset+length]), "\x00")
	return s, offset + length, nil
}
