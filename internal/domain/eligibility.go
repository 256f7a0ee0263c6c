package domain

import "time"

// BlockReason explains why a wallet may not mint right now.
type BlockReason string

const (
	BlockNone         BlockReason = ""
	BlockNoWallet     BlockReason = "no wallet"
	BlockSoldOut      BlockReason = "sold out"
	BlockNotLive      BlockReason = "not yet live"
	BlockCooldown     BlockReason = "cooldown"
	BlockOwnershipCap BlockReason = "ownership limit"
	BlockUnverified   BlockReason = "verification required"
)

// WalletEligibilityState is the per-wallet admission decision. It is derived:
// rebuilt in full from current inputs on every evaluation, never patched.
type WalletEligibilityState struct {
	Eligible bool
	Reason   BlockReason

	SaleLive          bool
	SoldOut           bool
	WhitelistBalance  uint64
	OwnershipCount    int
	CooldownRemaining time.Duration
	Verified          bool

	// UnitPrice is the raw price the wallet would pay (discount applied when
	// the whitelist path is active).
	UnitPrice uint64
}
