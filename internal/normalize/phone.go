package normalize

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// hashPhone canonicalizes a phone number to E.164 and hashes it. Structured
// parsing via libphonenumber is tried first; when that fails, a digit-count
// fallback handles the common bare NANP forms. Anything else is omitted.
func (n *Normalizer) hashPhone(raw string) (string, bool) {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return "", false
	}

	if e164, ok := n.parseE164(phone); ok {
		return hashSHA256(e164), true
	}

	digits := digitsOnly(phone)
	switch {
	case len(digits) == 10:
		return hashSHA256("+1" + digits), true
	case len(digits) > 10:
		return hashSHA256("+" + digits), true
	}
	return "", false
}

// parseE164 attempts structured parsing against the default region.
func (n *Normalizer) parseE164(phone string) (string, bool) {
	num, err := phonenumbers.Parse(phone, n.region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}
