package mint

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	"solana-drop-client/internal/solana"
	"solana-drop-client/internal/wallet"
)

// FeeEstimateLamports is the flat network cost budgeted per attempt, on top
// of the unit price.
const FeeEstimateLamports = 12_000_000

// mintDiscriminator identifies the mint instruction to the drop program.
var mintDiscriminator = instructionTag("global:mint_item")

func instructionTag(name string) []byte {
	sum := sha256.Sum256([]byte(name))
	return sum[:8]
}

// TxParams collects everything needed to build one mint transaction.
type TxParams struct {
	Payer         wallet.Wallet
	Asset         *wallet.Keypair // fresh keypair for the item being minted
	DropID        string
	DropProgramID string
	Blockhash     string

	// WhitelistTokenAccount, when set, is burned or debited by the program
	// for the discount path.
	WhitelistTokenAccount string

	// PaymentTokenAccount, when set, pays the price in an SPL token instead
	// of lamports.
	PaymentTokenAccount string
}

type accountMeta struct {
	pubkey   string
	signer   bool
	writable bool
}

// BuildTransaction assembles and signs a legacy-format mint transaction.
// The payer and the fresh asset keypair both sign.
func BuildTransaction(p TxParams) ([]byte, error) {
	assetAddr := p.Asset.Address()
	ata, err := solana.AssociatedTokenAddress(p.Payer.Address(), assetAddr)
	if err != nil {
		return nil, fmt.Errorf("derive item token account: %w", err)
	}
	metadata, err := solana.MetadataAddress(assetAddr)
	if err != nil {
		return nil, fmt.Errorf("derive item metadata account: %w", err)
	}

	metas := []accountMeta{
		{p.Payer.Address(), true, true},
		{assetAddr, true, true},
		{p.DropID, false, true},
		{ata, false, true},
		{metadata, false, true},
	}
	if p.WhitelistTokenAccount != "" {
		metas = append(metas, accountMeta{p.WhitelistTokenAccount, false, true})
	}
	if p.PaymentTokenAccount != "" {
		metas = append(metas, accountMeta{p.PaymentTokenAccount, false, true})
	}
	metas = append(metas,
		accountMeta{solana.TokenProgramID, false, false},
		accountMeta{solana.AssociatedTokenProgram, false, false},
		accountMeta{solana.SystemProgramID, false, false},
		accountMeta{solana.RentSysvarID, false, false},
		accountMeta{p.DropProgramID, false, false},
	)

	msg, signerCount, err := buildMessage(metas, p.DropProgramID, mintDiscriminator, p.Blockhash)
	if err != nil {
		return nil, err
	}

	payerSig, err := p.Payer.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	assetSig, err := p.Asset.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("sign transaction with item keypair: %w", err)
	}
	if signerCount != 2 {
		return nil, fmt.Errorf("expected 2 signers, message has %d", signerCount)
	}

	tx := make([]byte, 0, 2+2*64+len(msg))
	tx = appendCompactU16(tx, 2)
	tx = append(tx, payerSig...)
	tx = append(tx, assetSig...)
	tx = append(tx, msg...)
	return tx, nil
}

// buildMessage serializes a legacy message: header, account keys, blockhash,
// then a single instruction referencing the accounts in order.
func buildMessage(metas []accountMeta, programID string, data []byte, blockhash string) ([]byte, int, error) {
	var signers, readonly int
	for _, m := range metas {
		if m.signer {
			signers++
		}
		if !m.writable {
			readonly++
		}
	}

	programIdx := -1
	keys := make([]byte, 0, 32*len(metas))
	for i, m := range metas {
		raw, err := base58.Decode(m.pubkey)
		if err != nil {
			return nil, 0, fmt.Errorf("decode account %s: %w", m.pubkey, err)
		}
		if len(raw) != 32 {
			return nil, 0, fmt.Errorf("account %s is not 32 bytes", m.pubkey)
		}
		keys = append(keys, raw...)
		if m.pubkey == programID {
			programIdx = i
		}
	}
	if programIdx < 0 {
		return nil, 0, fmt.Errorf("program %s not in account list", programID)
	}

	hash, err := base58.Decode(blockhash)
	if err != nil {
		return nil, 0, fmt.Errorf("decode blockhash: %w", err)
	}
	if len(hash) != 32 {
		return nil, 0, fmt.Errorf("blockhash is not 32 bytes")
	}

	msg := make([]byte, 0, 3+2+len(keys)+32+64)
	msg = append(msg, byte(signers), 0, byte(readonly))
	msg = appendCompactU16(msg, len(metas))
	msg = append(msg, keys...)
	msg = append(msg, hash...)

	// One instruction; it references every account except the program itself.
	msg = appendCompactU16(msg, 1)
	msg = append(msg, byte(programIdx))
	msg = appendCompactU16(msg, len(metas)-1)
	for i := range metas {
		if i != programIdx {
			msg = append(msg, byte(i))
		}
	}
	msg = appendCompactU16(msg, len(data))
	msg = append(msg, data...)

	return msg, signers, nil
}

// appendCompactU16 appends the shortvec encoding used by the wire format.
func appendCompactU16(dst []byte, n int) []byte {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}
