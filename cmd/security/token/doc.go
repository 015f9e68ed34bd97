// Package token is the session token codec.
//
// It generates opaque bearer tokens and derives the storable session
// identifier from them. The server only ever persists the identifier.
//
// Encoding:
// - Bearer token: 20 random bytes, lowercase base32 without padding (32 chars).
// - Identifier: lowercase hex SHA-256 of the token text (64 chars).
//
// Environment:
//   - AUTHD_TOKEN_HMAC_KEY: when set, identifiers are HMAC-SHA256(token, key).
//     Output length and alphabet are unchanged, so stores are agnostic.
package token
