package identity

import (
	"context"
	"strings"
	"time"
)

// User is the account that owns sessions.
type User struct {
	ID        string
	Email     string
	EmailNorm string

	EmailVerified   bool
	EmailVerifiedAt *time.Time

	// Pending verification token. Both are nil or both are set.
	VerificationToken     *string
	VerificationExpiresAt *time.Time

	CreatedAt time.Time
}

// UserAuth pairs a user with its stored password hash for login.
type UserAuth struct {
	User         User
	PasswordHash string
}

// CreateUserInput describes a signup. PasswordHash is already encoded.
type CreateUserInput struct {
	Email        string
	PasswordHash string
	Now          time.Time
}

// Reader resolves users by id. Session stores use it to attach owners.
type Reader interface {
	GetUserByID(ctx context.Context, id string) (User, error)
}

// Store is the identity persistence boundary.
type Store interface {
	Reader

	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error)

	// SetVerificationToken replaces any pending token on the user.
	SetVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error

	// GetUserByVerificationToken looks a user up by raw token value.
	GetUserByVerificationToken(ctx context.Context, token string) (User, error)

	// ConsumeVerificationToken marks the user verified and clears the token
	// and its expiry in one write, only while token is still the pending one.
	// A token that is no longer pending yields ErrNotFound.
	ConsumeVerificationToken(ctx context.Context, userID, token string, now time.Time) (User, error)
}

func checkCreateInput(op string, in CreateUserInput) (email, emailNorm string, now time.Time, err error) {
	email = in.Email
	if !ValidEmail(email) {
		return "", "", time.Time{}, invalid(op, "valid email is required")
	}
	if in.PasswordHash == "" {
		return "", "", time.Time{}, invalid(op, "password hash is required")
	}
	now = in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	email = strings.TrimSpace(email)
	return email, NormalizeEmail(email), now, nil
}
