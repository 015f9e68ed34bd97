package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"authd/cmd/identity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over the sessions table.
// The pool is owned by the caller.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the Postgres schema (default identity.DefaultSchema).
// The tables must already exist there, as pgtest.UpSQL arranges in tests.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if !identity.PGIdentIsValid(schema) {
			return fmt.Errorf("session: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: identity.DefaultSchema}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("session: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) table() string { return identity.PGIdent(s.schema, "sessions") }

// Create inserts a session row.
func (s *PostgresStore) Create(ctx context.Context, sess Session) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (id, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		sess.ID, sess.UserID, sess.ExpiresAt, sess.CreatedAt,
	)
	if err != nil && identity.PGIsForeignKeyViolation(err) {
		return identity.NotFoundError{Op: "session.Create", Resource: "user"}
	}
	return err
}

// FindWithOwner joins the session with its owning user.
func (s *PostgresStore) FindWithOwner(ctx context.Context, id string) (Session, identity.User, error) {
	var sess Session

	row := s.pool.QueryRow(ctx,
		`SELECT s.id, s.user_id, s.expires_at, s.created_at, `+identity.UserColumns+`
		   FROM `+s.table()+` s
		   JOIN `+identity.PGIdent(s.schema, "users")+` u ON u.id = s.user_id
		  WHERE s.id = $1`,
		id,
	)
	owner, err := identity.ScanUser(row, &sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, identity.User{}, ErrSessionNotFound
		}
		return Session{}, identity.User{}, err
	}
	return sess, owner, nil
}

// UpdateExpiry sets a new expiry on an existing session.
func (s *PostgresStore) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.table()+` SET expires_at = $2 WHERE id = $1`,
		id, expiresAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session; missing rows are fine.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE id = $1`, id)
	return err
}

// DeleteExpired removes sessions whose expiry has passed.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
