package solana

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte // decoded account payload
	Executable bool
	RentEpoch  uint64
}

// TokenAmount is a token balance with its decimal scale.
type TokenAmount struct {
	Amount   string // raw integer amount as string
	Decimals int
	UIAmount float64
}

// TokenAccount is one entry from getTokenAccountsByOwner (jsonParsed).
type TokenAccount struct {
	Address string
	Mint    string
	Amount  TokenAmount
}

// SignatureStatus is one entry from getSignatureStatuses.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int
	ConfirmationStatus string // processed | confirmed | finalized
	Err                interface{}
}

// Confirmed reports whether the signature reached at least confirmed
// commitment without a transaction error.
func (s *SignatureStatus) Confirmed() bool {
	if s == nil || s.Err != nil {
		return false
	}
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}

// Failed reports whether the transaction landed with an error.
func (s *SignatureStatus) Failed() bool {
	return s != nil && s.Err != nil
}
