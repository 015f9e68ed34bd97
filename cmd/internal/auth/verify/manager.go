package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"authd/cmd/identity"
	"authd/cmd/internal/auth/autherr"
	"authd/cmd/internal/mail"
	"authd/cmd/security/token"
)

// maxTokenLen bounds presented tokens before any store lookup.
const maxTokenLen = 256

// issueAttempts bounds retries on a unique-index collision.
const issueAttempts = 3

// UserStore is the slice of identity storage the manager needs.
// *identity.PostgresStore and *identity.MemoryStore satisfy it.
type UserStore interface {
	SetVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	GetUserByVerificationToken(ctx context.Context, token string) (identity.User, error)
	ConsumeVerificationToken(ctx context.Context, userID, token string, now time.Time) (identity.User, error)
}

// Token is an issued verification token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Manager issues, delivers and consumes verification tokens.
type Manager struct {
	cfg     Config
	store   UserStore
	mailer  mail.Sender
	now     func() time.Time
	metrics *Metrics
}

// Option configures the Manager.
type Option func(*Manager) error

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) error {
		if now == nil {
			return fmt.Errorf("%w: nil clock", ErrConfig)
		}
		m.now = now
		return nil
	}
}

// WithMailer sets the delivery collaborator (default mail.NoopSender).
func WithMailer(s mail.Sender) Option {
	return func(m *Manager) error {
		if s == nil {
			return fmt.Errorf("%w: nil mailer", ErrConfig)
		}
		m.mailer = s
		return nil
	}
}

// WithMetrics attaches outcome counters.
func WithMetrics(mt *Metrics) Option {
	return func(m *Manager) error {
		m.metrics = mt
		return nil
	}
}

// NewManager constructs a Manager.
func NewManager(store UserStore, cfg Config, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:    cfg,
		store:  store,
		mailer: mail.NoopSender{},
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// IssueFor generates a token for user and persists it, replacing any pending one.
func (m *Manager) IssueFor(ctx context.Context, user identity.User) (Token, error) {
	const op = "verify.IssueFor"

	if strings.TrimSpace(user.ID) == "" {
		return Token{}, fmt.Errorf("%s: %w: empty user id", op, ErrInvalidInput)
	}

	for attempt := 1; ; attempt++ {
		val, err := token.GenerateN(m.cfg.TokenBytes)
		if err != nil {
			return Token{}, fmt.Errorf("%s: generate token: %w", op, err)
		}
		tok := Token{Value: val, ExpiresAt: m.now().Add(m.cfg.TTL)}

		err = m.store.SetVerificationToken(ctx, user.ID, tok.Value, tok.ExpiresAt)
		switch {
		case err == nil:
			m.metrics.inc(eventIssued)
			return tok, nil
		case identity.IsNotFound(err):
			return Token{}, err
		case identity.IsConflict(err) && attempt < issueAttempts:
			continue
		default:
			m.metrics.inc(eventStoreError)
			return Token{}, autherr.Unavailable(op, err)
		}
	}
}

// Consume redeems tok and returns the now verified user.
func (m *Manager) Consume(ctx context.Context, tok string) (identity.User, error) {
	const op = "verify.Consume"

	tok = strings.TrimSpace(tok)
	if tok == "" || len(tok) > maxTokenLen {
		m.metrics.inc(eventInvalid)
		return identity.User{}, autherr.ErrInvalidVerificationToken
	}

	u, err := m.store.GetUserByVerificationToken(ctx, tok)
	if err != nil {
		return identity.User{}, m.lookupErr(op, err)
	}
	if u.VerificationToken == nil || u.VerificationExpiresAt == nil ||
		!token.EqualString(*u.VerificationToken, tok) {
		m.metrics.inc(eventInvalid)
		return identity.User{}, autherr.ErrInvalidVerificationToken
	}

	now := m.now()
	if now.After(*u.VerificationExpiresAt) {
		m.metrics.inc(eventExpired)
		return identity.User{}, autherr.ErrExpiredVerificationToken
	}

	out, err := m.store.ConsumeVerificationToken(ctx, u.ID, tok, now)
	if err != nil {
		return identity.User{}, m.lookupErr(op, err)
	}
	m.metrics.inc(eventConsumed)
	return out, nil
}

// Send renders the verification message for tok and hands it to the mailer.
func (m *Manager) Send(ctx context.Context, user identity.User, tok Token) error {
	link, err := verificationLink(m.cfg.LinkBase, tok.Value)
	if err != nil {
		return fmt.Errorf("verify.Send: build link: %w", err)
	}
	body, err := renderMessage(messageData{
		Email:     user.Email,
		Link:      link,
		ExpiresAt: tok.ExpiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return fmt.Errorf("verify.Send: render: %w", err)
	}

	err = m.mailer.Send(ctx, mail.Message{
		To:       user.Email,
		Subject:  m.cfg.Subject,
		HTMLBody: body,
		Tag:      "email-verification",
	})
	if err != nil {
		m.metrics.inc(eventMailFailed)
		return autherr.MailError{To: user.Email, Err: err}
	}
	return nil
}

// IssueAndSend issues a token and mails it. When only delivery fails the
// issued token is returned with an error matching autherr.ErrMailDeliveryFailed;
// the pending record stays in place.
func (m *Manager) IssueAndSend(ctx context.Context, user identity.User) (Token, error) {
	tok, err := m.IssueFor(ctx, user)
	if err != nil {
		return Token{}, err
	}
	if err := m.Send(ctx, user, tok); err != nil {
		return tok, err
	}
	return tok, nil
}

func (m *Manager) lookupErr(op string, err error) error {
	if identity.IsNotFound(err) {
		m.metrics.inc(eventInvalid)
		return autherr.ErrInvalidVerificationToken
	}
	m.metrics.inc(eventStoreError)
	return autherr.Unavailable(op, err)
}
