package drop

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/mr-tron/base58"

	"solana-drop-client/internal/domain"
)

// Drop account layout (borsh-style, little endian):
//   available: u64
//   redeemed:  u64
//   price:     u64
//   goLiveDate: option<i64>         (1-byte tag)
//   tokenMint:  option<pubkey(32)>
//   whitelist:  option<{mint: pubkey(32), discountPrice: option<u64>}>
//   gatekeeper: option<{network: pubkey(32), expireOnUse: u8}>
const minAccountSize = 8 + 8 + 8 + 1 + 1 + 1 + 1

// decodeSnapshot parses the raw drop account payload.
func decodeSnapshot(dropID string, data []byte, now time.Time) (*domain.DropSnapshot, error) {
	if len(data) < minAccountSize {
		return nil, fmt.Errorf("%w: account data too short: %d", ErrMalformedAccount, len(data))
	}

	d := &decoder{data: data}

	snap := &domain.DropSnapshot{
		DropID:    dropID,
		FetchedAt: now,
	}

	snap.Available = d.u64()
	snap.Redeemed = d.u64()
	snap.Price = d.u64()

	if d.option() {
		ts := int64(d.u64())
		t := time.Unix(ts, 0).UTC()
		snap.GoLiveAt = &t
	}

	if d.option() {
		mint := d.pubkey()
		snap.TokenMint = &mint
	}

	if d.option() {
		wl := &domain.WhitelistSettings{Mint: d.pubkey()}
		if d.option() {
			price := d.u64()
			wl.DiscountPrice = &price
		}
		snap.Whitelist = wl
	}

	if d.option() {
		snap.Gatekeeper = &domain.GatekeeperSettings{
			Network:     d.pubkey(),
			ExpireOnUse: d.u8() != 0,
		}
	}

	if d.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAccount, d.err)
	}

	if snap.Redeemed > snap.Available {
		return nil, fmt.Errorf("%w: redeemed %d exceeds available %d",
			ErrMalformedAccount, snap.Redeemed, snap.Available)
	}

	snap.Remaining = snap.Available - snap.Redeemed
	snap.SoldOut = snap.Remaining == 0

	return snap, nil
}

// decoder walks the account payload, recording the first failure.
type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if d.off+n > len(d.data) {
		d.err = fmt.Errorf("truncated at offset %d (need %d bytes)", d.off, n)
		return false
	}
	return true
}

func (d *decoder) u8() byte {
	if !d.need(1) {
		return 0
	}
	v := d.data[d.off]
	d.off++
	return v
}

func (d *decoder) u64() uint64 {
	if !d.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return v
}

// option reads a 1-byte presence tag.
func (d *decoder) option() bool {
	tag := d.u8()
	if tag > 1 {
		d.err = fmt.Errorf("invalid option tag %d at offset %d", tag, d.off-1)
		return false
	}
	return d.err == nil && tag == 1
}

func (d *decoder) pubkey() string {
	if !d.need(32) {
		return ""
	}
	key := base58.Encode(d.data[d.off : d.off+32])
	d.off += 32
	return key
}
