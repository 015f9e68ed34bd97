package autherr

import (
	"errors"
	"fmt"
)

// StoreError wraps an infrastructure failure from a store call.
// It matches ErrStoreUnavailable and unwraps to the cause.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrStoreUnavailable)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStoreUnavailable, e.Err)
}

func (e StoreError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStoreUnavailable) hold for every StoreError.
func (e StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// Unavailable wraps err as a StoreError for op. A nil err stays nil.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var se StoreError
	if errors.As(err, &se) {
		return err
	}
	return StoreError{Op: op, Err: err}
}

// MailError reports a failed delivery to the mail collaborator.
type MailError struct {
	To  string
	Err error
}

func (e MailError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrMailDeliveryFailed, e.To, e.Err)
}

func (e MailError) Unwrap() error { return e.Err }

func (e MailError) Is(target error) bool { return target == ErrMailDeliveryFailed }

// IsNoSession reports whether err is ErrNoSession.
func IsNoSession(err error) bool { return errors.Is(err, ErrNoSession) }

// IsStoreUnavailable reports whether err is an infrastructure fault.
func IsStoreUnavailable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }
