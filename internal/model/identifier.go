package model

// AddressInfo holds the hashed name and plain-text geo components of an
// address identifier. Name hashes are optional; postal and country codes are
// required for the identifier to exist at all.
type AddressInfo struct {
	HashedFirstName string `json:"hashed_first_name,omitempty"`
	HashedLastName  string `json:"hashed_last_name,omitempty"`
	CountryCode     string `json:"country_code"`
	PostalCode      string `json:"postal_code"`
}

// UserIdentifier is one hashed identity signal for a customer. Exactly one of
// the three fields is set.
type UserIdentifier struct {
	HashedEmail string       `json:"hashed_email,omitempty"`
	HashedPhone string       `json:"hashed_phone_number,omitempty"`
	Address     *AddressInfo `json:"address_info,omitempty"`
}

// Operation is one platform-bound create request built from a record's
// identifiers. Operations are immutable once built and may be shared across
// segments. NewOperation is the only constructor; it refuses an empty
// identifier set, so an Operation always carries at least one identifier.
type Operation struct {
	identifiers []UserIdentifier
}

// NewOperation builds an Operation from a non-empty ordered identifier set.
// Returns nil when ids is empty.
func NewOperation(ids []UserIdentifier) *Operation {
	if len(ids) == 0 {
		return nil
	}
	cp := make([]UserIdentifier, len(ids))
	copy(cp, ids)
	return &Operation{identifiers: cp}
}

// Identifiers returns the ordered identifier set. Callers must not mutate the
// returned slice.
func (o *Operation) Identifiers() []UserIdentifier {
	return o.identifiers
}
