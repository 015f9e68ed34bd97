package verify

import "errors"

var (
	// ErrConfig reports an invalid manager configuration.
	ErrConfig = errors.New("verify: invalid config")
	// ErrInvalidInput reports a malformed call (for example an empty user id).
	ErrInvalidInput = errors.New("verify: invalid input")
)
