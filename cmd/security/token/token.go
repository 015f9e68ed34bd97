package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// HMACEnvKey is the env var name for the identifier HMAC secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	HMACEnvKey = "AUTHD_TOKEN_HMAC_KEY"

	// RandomBytes is the raw length of a session bearer token.
	RandomBytes = 20

	// EncodedLen is the text length of a session bearer token.
	EncodedLen = 32

	// IDLen is the length of a derived identifier (hex SHA-256).
	IDLen = sha256.Size * 2
)

var encoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// Generate returns a new session bearer token.
func Generate() (string, error) {
	return GenerateN(RandomBytes)
}

// GenerateN returns a base32 token built from n random bytes (n >= RandomBytes).
func GenerateN(n int) (string, error) {
	if n < RandomBytes {
		return "", ErrTooShort
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return encoding.EncodeToString(b), nil
}

// DeriveID returns hex(sha256(token)).
func DeriveID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// deriveHMAC returns hex(hmac-sha256(token, key)).
func deriveHMAC(token string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(token))
	return hex.EncodeToString(m.Sum(nil))
}

// Codec derives identifiers, optionally keyed.
// The zero value is the plain SHA-256 codec.
type Codec struct {
	key []byte
}

// NewCodec returns a Codec. An empty key selects plain SHA-256.
func NewCodec(key []byte) Codec {
	if len(key) == 0 {
		return Codec{}
	}
	return Codec{key: append([]byte(nil), key...)}
}

// DeriveID maps a bearer token to its storable identifier.
func (c Codec) DeriveID(token string) string {
	if len(c.key) == 0 {
		return DeriveID(token)
	}
	return deriveHMAC(token, c.key)
}

// Keyed reports whether the codec is in HMAC mode.
func (c Codec) Keyed() bool { return len(c.key) > 0 }

// CodecFromEnv builds a Codec from AUTHD_TOKEN_HMAC_KEY.
// With require=false a missing key yields the plain codec.
func CodecFromEnv(require bool, minBytes int) (Codec, error) {
	key, err := HMACKeyFromEnv(minBytes)
	switch {
	case err == nil:
		return NewCodec(key), nil
	case err == ErrHMACKeyMissing && !require:
		return Codec{}, nil
	default:
		return Codec{}, err
	}
}

// HMACKeyFromEnv returns the configured HMAC key bytes (trimmed), enforcing a minimum byte length.
// If the env var is missing/blank -> ErrHMACKeyMissing.
// If too short -> ErrHMACKeyTooShort.
func HMACKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if raw == "" {
		return nil, ErrHMACKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrHMACKeyTooShort
	}
	return b, nil
}

// EqualID compares two identifiers in constant time.
// Anything that is not IDLen long never matches.
func EqualID(a, b string) bool {
	if len(a) != IDLen || len(b) != IDLen {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// EqualString compares two non-empty strings in constant time.
func EqualString(a, b string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
