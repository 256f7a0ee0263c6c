package domain

import "strings"

// TokenMetadata is the decoded Metaplex-style metadata record for a minted
// item. Text fields are stored with NUL padding stripped.
type TokenMetadata struct {
	UpdateAuthority string
	Mint            string
	Name            string
	Symbol          string
	URI             string
}

// CollectionFilter selects holdings that belong to a collection: the issuing
// authority must match exactly and the item name must contain the prefix.
type CollectionFilter struct {
	UpdateAuthority string
	NamePrefix      string
}

// Matches reports whether the metadata record belongs to the collection.
func (f CollectionFilter) Matches(m *TokenMetadata) bool {
	if m == nil || m.UpdateAuthority != f.UpdateAuthority {
		return false
	}
	return f.NamePrefix == "" || strings.Contains(m.Name, f.NamePrefix)
}
