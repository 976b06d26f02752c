// Package normalize turns raw customer fields into canonical SHA-256 hashed
// identifiers. Malformed fields are skipped silently; a record can yield
// anywhere from zero to three identifiers.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/audience-sync/internal/model"
)

// DefaultRegion is the phone-parsing and address country fallback.
const DefaultRegion = "US"

// problemChars disqualify name components from the address identifier. The
// upstream platform rejects identifiers whose hashed names were built from
// strings containing these.
const problemChars = `/&";:#*`

// Counts tallies identifiers produced by a single BuildIdentifiers call.
type Counts struct {
	Email   bool
	Phone   bool
	Address bool
}

// Normalizer builds hashed identifiers from raw records.
type Normalizer struct {
	region string
}

// New creates a Normalizer with the given default phone/address region.
// An empty region falls back to DefaultRegion.
func New(region string) *Normalizer {
	if region == "" {
		region = DefaultRegion
	}
	return &Normalizer{region: region}
}

// BuildIdentifiers produces the record's identifiers in deterministic order:
// email, then phone, then address. It never fails; invalid fields are
// omitted.
func (n *Normalizer) BuildIdentifiers(rec model.CustomerRecord) ([]model.UserIdentifier, Counts) {
	var ids []model.UserIdentifier
	var counts Counts

	if h, ok := n.hashEmail(rec.Email); ok {
		ids = append(ids, model.UserIdentifier{HashedEmail: h})
		counts.Email = true
	}
	if h, ok := n.hashPhone(rec.Phone); ok {
		ids = append(ids, model.UserIdentifier{HashedPhone: h})
		counts.Phone = true
	}
	if addr, ok := n.addressInfo(rec); ok {
		ids = append(ids, model.UserIdentifier{Address: addr})
		counts.Address = true
	}
	return ids, counts
}

// hashSHA256 returns the lowercase hex digest of the NFC-normalized input.
func hashSHA256(s string) string {
	sum := sha256.Sum256([]byte(norm.NFC.String(s)))
	return hex.EncodeToString(sum[:])
}

func hasProblemChars(s string) bool {
	return strings.ContainsAny(s, problemChars)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
