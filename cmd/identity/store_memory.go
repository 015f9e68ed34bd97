package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	users   map[string]*memUser
	byEmail map[string]string
	byToken map[string]string
}

type memUser struct {
	user User
	hash string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*memUser),
		byEmail: make(map[string]string),
		byToken: make(map[string]string),
	}
}

// CreateUser stores a new user.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	email, emailNorm, now, err := checkCreateInput(op, in)
	if err != nil {
		return User{}, err
	}
	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[emailNorm]; taken {
		return User{}, ConflictError{Op: op, Field: "email"}
	}
	u := User{ID: id, Email: email, EmailNorm: emailNorm, CreatedAt: now}
	s.users[id] = &memUser{user: u, hash: in.PasswordHash}
	s.byEmail[emailNorm] = id
	return u, nil
}

// GetUserByID returns a copy of the user.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.users[strings.TrimSpace(id)]
	if !ok {
		return User{}, NotFoundError{Op: "identity.GetUserByID", Resource: "user"}
	}
	return cloneUser(m.user), nil
}

// GetUserAuthByEmail returns the user and password hash.
func (s *MemoryStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return UserAuth{}, NotFoundError{Op: "identity.GetUserAuthByEmail", Resource: "user"}
	}
	m := s.users[id]
	return UserAuth{User: cloneUser(m.user), PasswordHash: m.hash}, nil
}

// SetVerificationToken replaces the pending token.
func (s *MemoryStore) SetVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const op = "identity.SetVerificationToken"

	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" || token == "" || expiresAt.IsZero() {
		return invalid(op, "user id, token and expiry are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.users[userID]
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}
	if owner, taken := s.byToken[token]; taken && owner != userID {
		return ConflictError{Op: op, Field: "verification_token"}
	}
	if m.user.VerificationToken != nil {
		delete(s.byToken, *m.user.VerificationToken)
	}
	tok, exp := token, expiresAt
	m.user.VerificationToken = &tok
	m.user.VerificationExpiresAt = &exp
	s.byToken[token] = userID
	return nil
}

// GetUserByVerificationToken looks up by pending token.
func (s *MemoryStore) GetUserByVerificationToken(ctx context.Context, token string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byToken[token]
	if !ok {
		return User{}, NotFoundError{Op: "identity.GetUserByVerificationToken", Resource: "verification_token"}
	}
	return cloneUser(s.users[id].user), nil
}

// ConsumeVerificationToken verifies the user if token is still pending.
func (s *MemoryStore) ConsumeVerificationToken(ctx context.Context, userID, token string, now time.Time) (User, error) {
	const op = "identity.ConsumeVerificationToken"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byToken[token]; !ok || id != userID {
		return User{}, NotFoundError{Op: op, Resource: "verification_token"}
	}
	m := s.users[userID]
	delete(s.byToken, token)
	m.user.VerificationToken = nil
	m.user.VerificationExpiresAt = nil
	m.user.EmailVerified = true
	if m.user.EmailVerifiedAt == nil {
		at := now
		m.user.EmailVerifiedAt = &at
	}
	return cloneUser(m.user), nil
}

func cloneUser(u User) User {
	out := u
	if u.EmailVerifiedAt != nil {
		t := *u.EmailVerifiedAt
		out.EmailVerifiedAt = &t
	}
	if u.VerificationToken != nil {
		v := *u.VerificationToken
		out.VerificationToken = &v
	}
	if u.VerificationExpiresAt != nil {
		t := *u.VerificationExpiresAt
		out.VerificationExpiresAt = &t
	}
	return out
}
