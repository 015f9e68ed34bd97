package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validate checks the length range and, when enabled, the weak-pattern
// filter. Length is counted in runes.
func (c Config) Validate(password string) error {
	switch n := utf8.RuneCountInString(password); {
	case n < c.Policy.MinLength:
		return ErrPasswordTooShort
	case n > c.Policy.MaxLength:
		return ErrPasswordTooLong
	}
	if c.Policy.RejectVeryWeak && isTrivial(password) {
		return ErrWeakPassword
	}
	return nil
}

// ValidateFor is Validate plus a check that the password does not embed the
// local part of the account email.
func (c Config) ValidateFor(email, password string) error {
	if err := c.Validate(password); err != nil {
		return err
	}
	if !c.Policy.RejectVeryWeak {
		return nil
	}
	local, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	if utf8.RuneCountInString(local) >= 4 && strings.Contains(strings.ToLower(password), local) {
		return ErrWeakPassword
	}
	return nil
}

var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"passw0rd":    {},
	"123456":      {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty":      {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"letmein":     {},
	"iloveyou":    {},
	"welcome":     {},
	"admin123":    {},
	"11111111":    {},
}

// isTrivial is a small blocklist plus a few shape checks. It is not an
// entropy estimator.
func isTrivial(pw string) bool {
	s := strings.ToLower(strings.TrimSpace(pw))
	if s == "" {
		return true
	}
	if _, ok := commonPasswords[s]; ok {
		return true
	}
	if distinctRunes(s) == 1 {
		return true
	}
	if allDigits(s) && utf8.RuneCountInString(s) < 12 {
		return true
	}
	return isRun(s)
}

func distinctRunes(s string) int {
	seen := make(map[rune]struct{}, 8)
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return len(seen)
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isRun reports strictly ascending or descending sequences like "abcdefgh".
func isRun(s string) bool {
	rs := []rune(s)
	if len(rs) < 4 {
		return false
	}
	step := rs[1] - rs[0]
	if step != 1 && step != -1 {
		return false
	}
	for i := 2; i < len(rs); i++ {
		if rs[i]-rs[i-1] != step {
			return false
		}
	}
	return true
}
