// Package password is the Argon2id password-hashing collaborator.
//
// Hashes use the PHC string format. Verify treats hash strings as untrusted
// input and refuses parameters far above the configured cost. Policy checks
// count runes, not bytes.
package password
