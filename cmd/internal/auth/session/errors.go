package session

import "errors"

var (
	// ErrSessionNotFound is returned by Store implementations for a missing record.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")

	// ErrInvalidInput is returned for empty owner ids and similar caller bugs.
	ErrInvalidInput = errors.New("invalid session input")
)
