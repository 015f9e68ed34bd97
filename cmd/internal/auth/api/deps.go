package authapi

import (
	"context"

	"authd/cmd/identity"
	"authd/cmd/internal/auth/session"
	"authd/cmd/internal/auth/verify"
)

// UserStore is the identity surface the handler needs.
type UserStore interface {
	CreateUser(ctx context.Context, in identity.CreateUserInput) (identity.User, error)
	GetUserAuthByEmail(ctx context.Context, email string) (identity.UserAuth, error)
}

// Sessions is satisfied by *session.Service.
type Sessions interface {
	Issue(ctx context.Context, ownerID string) (session.Issued, error)
	Validate(ctx context.Context, tok string) (session.Validated, error)
	// InvalidateToken deletes the session tok resolves to. Unknown tokens are fine.
	InvalidateToken(ctx context.Context, tok string) error
}

// Verifier is satisfied by *verify.Manager.
type Verifier interface {
	IssueAndSend(ctx context.Context, user identity.User) (verify.Token, error)
	Consume(ctx context.Context, tok string) (identity.User, error)
}

// PasswordHasher is satisfied by *password.Hasher.
type PasswordHasher interface {
	// ValidateFor checks policy for a password chosen by the account email.
	ValidateFor(email, password string) error
	Hash(password string) (string, error)
	Verify(encoded, password string) bool
	// VerifyDummy burns the cost of one verify for unknown accounts.
	VerifyDummy(password string)
}

// Deps groups the collaborators a Handler is built from.
type Deps struct {
	Users     UserStore
	Sessions  Sessions
	Verifier  Verifier
	Passwords PasswordHasher
}
