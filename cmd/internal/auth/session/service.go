package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"authd/cmd/identity"
	"authd/cmd/internal/auth/autherr"
	"authd/cmd/security/token"
)

// maxTokenLen bounds presented tokens before hashing.
const maxTokenLen = 256

// Issued is the result of Issue. Token goes to the client exactly once.
type Issued struct {
	Token   string
	Session Session
}

// Validated is the result of Validate.
type Validated struct {
	Session Session
	Owner   identity.User
	// Renewed is true when this call slid the expiry forward.
	Renewed bool
}

// Service owns session issuance, validation/renewal and invalidation.
type Service struct {
	cfg     Config
	store   Store
	codec   token.Codec
	now     func() time.Time
	metrics *Metrics
}

// Option configures the Service.
type Option func(*Service) error

// WithClock injects the time source used for expiry arithmetic.
func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		if now == nil {
			return fmt.Errorf("%w: nil clock", ErrConfig)
		}
		s.now = now
		return nil
	}
}

// WithCodec sets the identifier codec (default plain SHA-256).
func WithCodec(c token.Codec) Option {
	return func(s *Service) error {
		s.codec = c
		return nil
	}
}

// WithMetrics attaches lifecycle counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) error {
		s.metrics = m
		return nil
	}
}

// NewService constructs a Service.
func NewService(store Store, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		cfg:   cfg,
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Config returns the active policy.
func (s *Service) Config() Config { return s.cfg }

// Issue creates a session for ownerID and returns the raw token with the record.
func (s *Service) Issue(ctx context.Context, ownerID string) (Issued, error) {
	const op = "session.Issue"

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Issued{}, fmt.Errorf("%s: %w: empty owner id", op, ErrInvalidInput)
	}

	tok, err := token.Generate()
	if err != nil {
		return Issued{}, fmt.Errorf("%s: generate token: %w", op, err)
	}

	now := s.now()
	sess := Session{
		ID:        s.codec.DeriveID(tok),
		UserID:    ownerID,
		ExpiresAt: now.Add(s.cfg.TTL),
		CreatedAt: now,
	}

	if err := s.store.Create(ctx, sess); err != nil {
		if identity.IsNotFound(err) {
			return Issued{}, err
		}
		s.metrics.inc(eventStoreError)
		return Issued{}, autherr.Unavailable(op, err)
	}

	s.metrics.inc(eventIssued)
	return Issued{Token: tok, Session: sess}, nil
}

// Validate resolves a bearer token.
//
// Unknown and expired tokens both return autherr.ErrNoSession; an expired
// record is deleted on the way out. Inside the renewal window the expiry is
// moved to now+TTL before returning.
func (s *Service) Validate(ctx context.Context, tok string) (Validated, error) {
	const op = "session.Validate"

	tok = strings.TrimSpace(tok)
	if tok == "" || len(tok) > maxTokenLen {
		s.metrics.inc(eventMissing)
		return Validated{}, autherr.ErrNoSession
	}
	id := s.codec.DeriveID(tok)

	sess, owner, err := s.store.FindWithOwner(ctx, id)
	if err != nil {
		return Validated{}, s.lookupErr(op, err)
	}
	if !token.EqualID(sess.ID, id) {
		s.metrics.inc(eventMissing)
		return Validated{}, autherr.ErrNoSession
	}

	now := s.now()
	if !now.Before(sess.ExpiresAt) {
		if err := s.store.Delete(ctx, id); err != nil {
			s.metrics.inc(eventStoreError)
			return Validated{}, autherr.Unavailable(op, err)
		}
		s.metrics.inc(eventExpired)
		return Validated{}, autherr.ErrNoSession
	}

	out := Validated{Session: sess, Owner: owner}
	if sess.ExpiresAt.Sub(now) <= s.cfg.RenewWithin {
		next := now.Add(s.cfg.TTL)
		if err := s.store.UpdateExpiry(ctx, id, next); err != nil {
			return Validated{}, s.lookupErr(op, err)
		}
		out.Session.ExpiresAt = next
		out.Renewed = true
		s.metrics.inc(eventRenewed)
	}

	s.metrics.inc(eventValidated)
	return out, nil
}

// Invalidate deletes the session with identifier id. Missing is fine.
func (s *Service) Invalidate(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.metrics.inc(eventStoreError)
		return autherr.Unavailable("session.Invalidate", err)
	}
	s.metrics.inc(eventInvalidated)
	return nil
}

// InvalidateToken derives the identifier of tok and deletes it.
func (s *Service) InvalidateToken(ctx context.Context, tok string) error {
	tok = strings.TrimSpace(tok)
	if tok == "" || len(tok) > maxTokenLen {
		return nil
	}
	return s.Invalidate(ctx, s.codec.DeriveID(tok))
}

// lookupErr maps a vanished record to ErrNoSession and anything else to a store fault.
func (s *Service) lookupErr(op string, err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		s.metrics.inc(eventMissing)
		return autherr.ErrNoSession
	}
	s.metrics.inc(eventStoreError)
	return autherr.Unavailable(op, err)
}
