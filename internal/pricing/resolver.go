// Package pricing derives display prices from a drop snapshot.
package pricing

import (
	"github.com/shopspring/decimal"

	"solana-drop-client/internal/domain"
)

// LamportsPerSol is the native currency subunit scale.
const LamportsPerSol = 9

// NativeLabel is the display denomination when no SPL mint is configured.
const NativeLabel = "SOL"

// Config carries the externally supplied SPL denomination parameters.
type Config struct {
	// TokenDecimals is the decimal scale of the alternate SPL denomination.
	TokenDecimals int
	// TokenSymbol is its display label.
	TokenSymbol string
}

// DefaultConfig returns the default SPL denomination parameters.
func DefaultConfig() Config {
	return Config{TokenDecimals: 9, TokenSymbol: "TOKEN"}
}

// Resolved is the effective unit price and its display denomination.
type Resolved struct {
	UnitPrice decimal.Decimal
	Label     string

	// WhitelistUnitPrice is set only when the drop carries a discount price
	// that differs from the base price.
	WhitelistUnitPrice *decimal.Decimal
}

// Resolve computes display prices for a snapshot.
func Resolve(snap *domain.DropSnapshot, cfg Config) Resolved {
	scale := int32(LamportsPerSol)
	label := NativeLabel

	if snap.TokenMint != nil {
		scale = int32(cfg.TokenDecimals)
		label = cfg.TokenSymbol
	}

	resolved := Resolved{
		UnitPrice: scaled(snap.Price, scale),
		Label:     label,
	}

	if wl := snap.Whitelist; wl != nil && wl.DiscountPrice != nil && *wl.DiscountPrice != snap.Price {
		discount := scaled(*wl.DiscountPrice, scale)
		resolved.WhitelistUnitPrice = &discount
	}

	return resolved
}

// EffectiveRawPrice returns the raw smallest-denomination price a wallet
// pays: the discount when it holds whitelist tokens and a discount exists.
func EffectiveRawPrice(snap *domain.DropSnapshot, whitelistBalance uint64) uint64 {
	if wl := snap.Whitelist; wl != nil && wl.DiscountPrice != nil && whitelistBalance > 0 {
		return *wl.DiscountPrice
	}
	return snap.Price
}

func scaled(raw uint64, decimals int32) decimal.Decimal {
	return decimal.New(int64(raw), 0).Shift(-decimals)
}
