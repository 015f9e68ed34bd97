// Package autherr holds the error taxonomy shared by the session and
// verification managers. Callers match with errors.Is and translate the kinds
// into transport responses; nothing here formats user-facing text.
package autherr

import "errors"

// Sentinel error kinds returned by the auth core.
var (
	// ErrNoSession covers both unknown and expired session tokens.
	ErrNoSession = errors.New("no_session")
	// ErrStoreUnavailable marks an infrastructure fault in the backing store.
	ErrStoreUnavailable = errors.New("store_unavailable")

	ErrInvalidVerificationToken = errors.New("invalid_verification_token")
	ErrExpiredVerificationToken = errors.New("expired_verification_token")

	// ErrMailDeliveryFailed is non-fatal for the operation that triggered it.
	ErrMailDeliveryFailed = errors.New("mail_delivery_failed")
)
