package normalize

import (
	"strings"

	"github.com/sells-group/audience-sync/internal/model"
)

// addressInfo builds the address identifier. A usable postal code (raw length
// >= 5, five digits after cleaning) and a country code are required. Hashed
// first/last names are attached only when both are present, at least two
// characters each, and free of the disallowed character set; otherwise the
// identifier is emitted with geo components alone.
func (n *Normalizer) addressInfo(rec model.CustomerRecord) (*model.AddressInfo, bool) {
	zipRaw := strings.TrimSpace(rec.ZipCode)
	if len(zipRaw) < 5 {
		return nil, false
	}
	zip := digitsOnly(zipRaw)
	if len(zip) > 5 {
		zip = zip[:5]
	}
	if len(zip) != 5 {
		return nil, false
	}

	addr := &model.AddressInfo{
		CountryCode: n.region,
		PostalCode:  zip,
	}

	first := strings.ToLower(strings.TrimSpace(rec.FirstName))
	last := strings.ToLower(strings.TrimSpace(rec.LastName))
	if first != "" && last != "" &&
		len(first) >= 2 && len(last) >= 2 &&
		!hasProblemChars(first) && !hasProblemChars(last) {
		addr.HashedFirstName = hashSHA256(first)
		addr.HashedLastName = hashSHA256(last)
	}

	return addr, true
}
