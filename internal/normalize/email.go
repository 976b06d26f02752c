package normalize

import "strings"

// hashEmail normalizes and hashes an email address. Accepts only values that
// contain exactly one @, look minimally like an address (length >= 6), and
// hashes the lowercased, trimmed form so matching is case-insensitive.
func (n *Normalizer) hashEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if len(email) < 6 {
		return "", false
	}
	if strings.Count(email, "@") != 1 {
		return "", false
	}
	return hashSHA256(email), true
}
