package session

import (
	"context"
	"time"

	"authd/cmd/identity"
)

// Session is a persisted session record. ID is the derived identifier.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Store is the persistence boundary for sessions.
//
// Contract:
//   - FindWithOwner resolves session and owner in one fetch and returns
//     ErrSessionNotFound when either is missing.
//   - UpdateExpiry returns ErrSessionNotFound if the record vanished.
//   - Delete of a missing record is not an error.
//   - Create returns an identity.NotFoundError when the owner does not exist.
//
// Any other error is an infrastructure failure.
type Store interface {
	Create(ctx context.Context, s Session) error
	FindWithOwner(ctx context.Context, id string) (Session, identity.User, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every session with expires_at <= now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
