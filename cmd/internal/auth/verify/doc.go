// Package verify issues and consumes single-use email verification tokens.
//
// A token is stored raw on the user record with an expiry (12h by default).
// Issuing replaces any pending token, so each user has at most one.
// Consumption flips the verified flag and clears the token in a single
// conditional store update; of two concurrent consumers one wins and the
// other observes autherr.ErrInvalidVerificationToken.
//
// An expired token is reported as autherr.ErrExpiredVerificationToken and the
// record is left in place, so a resend can replace it.
package verify
