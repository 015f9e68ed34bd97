package app

import (
	"errors"

	"authd/cmd/security/token"
)

// minHMACKeyBytes is the floor for an HMAC-SHA256 key, measured in raw bytes.
const minHMACKeyBytes = 32

// ValidateSecurityConfig enforces the token policy at startup and returns the
// identifier codec the session service must use.
//
// With AUTHD_REQUIRE_TOKEN_HMAC=false a configured key is still honored; an
// absent key selects plain SHA-256.
func ValidateSecurityConfig(cfg Config) (token.Codec, error) {
	codec, err := token.CodecFromEnv(cfg.RequireTokenHMAC, minHMACKeyBytes)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return token.Codec{}, errors.New("security policy: AUTHD_REQUIRE_TOKEN_HMAC=true but AUTHD_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return token.Codec{}, errors.New("security policy: AUTHD_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return token.Codec{}, err
		}
	}

	if cfg.RequireTokenHMAC && !codec.Keyed() {
		return token.Codec{}, errors.New("security policy: AUTHD_REQUIRE_TOKEN_HMAC=true but token codec is not in HMAC mode")
	}
	return codec, nil
}
