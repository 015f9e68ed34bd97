package identity

import (
	"regexp"
	"strings"
)

const maxEmailLen = 254

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail is a shape check only; deliverability is proven by verification.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) <= maxEmailLen && emailRe.MatchString(s)
}
