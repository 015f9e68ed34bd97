package session

import (
	"context"
	"sync"
	"time"

	"authd/cmd/identity"
)

// MemoryStore is a process-local Store. Owners are resolved through an
// identity.Reader, so a deleted owner hides its sessions like a cascade would.
type MemoryStore struct {
	owners identity.Reader

	mu       sync.Mutex
	sessions map[string]Session
}

// NewMemoryStore returns an empty MemoryStore backed by owners.
func NewMemoryStore(owners identity.Reader) *MemoryStore {
	return &MemoryStore{owners: owners, sessions: make(map[string]Session)}
}

// Create stores sess after checking the owner exists.
func (s *MemoryStore) Create(ctx context.Context, sess Session) error {
	if _, err := s.owners.GetUserByID(ctx, sess.UserID); err != nil {
		if identity.IsNotFound(err) {
			return identity.NotFoundError{Op: "session.Create", Resource: "user"}
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// FindWithOwner returns the session and its owner.
func (s *MemoryStore) FindWithOwner(ctx context.Context, id string) (Session, identity.User, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, identity.User{}, err
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return Session{}, identity.User{}, ErrSessionNotFound
	}

	owner, err := s.owners.GetUserByID(ctx, sess.UserID)
	if err != nil {
		// The orphan stays until it expires; DeleteExpired removes it.
		if identity.IsNotFound(err) {
			return Session{}, identity.User{}, ErrSessionNotFound
		}
		return Session{}, identity.User{}, err
	}
	return sess, owner, nil
}

// UpdateExpiry sets a new expiry.
func (s *MemoryStore) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.ExpiresAt = expiresAt
	s.sessions[id] = sess
	return nil
}

// Delete removes a session if present.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// DeleteExpired removes sessions with expiry <= now.
func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
