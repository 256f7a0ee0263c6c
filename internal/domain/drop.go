package domain

import "time"

// DropSnapshot is an immutable-per-fetch view of a drop's on-chain
// configuration. Refetched on wallet change, connection change and after a
// confirmed mint; the only in-place mutation happens through the session's
// mint-success update.
type DropSnapshot struct {
	DropID     string
	Available  uint64 // total supply
	Redeemed   uint64
	Remaining  uint64 // Available - Redeemed, always >= 0
	Price      uint64 // smallest denomination (lamports or SPL base units)
	GoLiveAt   *time.Time
	TokenMint  *string // alternate SPL denomination, nil = pay in SOL
	Whitelist  *WhitelistSettings
	Gatekeeper *GatekeeperSettings
	SoldOut    bool
	FetchedAt  time.Time
}

// WhitelistSettings describes the allow-list marker token and an optional
// discounted price.
type WhitelistSettings struct {
	Mint          string
	DiscountPrice *uint64
}

// GatekeeperSettings describes the identity verification network required
// before minting.
type GatekeeperSettings struct {
	Network     string
	ExpireOnUse bool
}
