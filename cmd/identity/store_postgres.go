package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements identity persistence over PostgreSQL.
//
// The pgx pool is owned by the caller and is never closed here.
// Schema and table identifiers are quoted via pgx.Identifier.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultSchema is the schema the migrations create.
const DefaultSchema = "authd"

// WithSchema sets the Postgres schema used by the identity store (default "authd").
// The embedded migrations only create the default; see pgtest.UpSQL for others.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !PGIdentIsValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: DefaultSchema,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

const userColumns = `u.id, u.email, u.email_norm, u.email_verified, u.email_verified_at,
	u.verification_token, u.verification_expires_at, u.created_at`

// UserColumns is the select list ScanUser expects, for stores that join users.
const UserColumns = userColumns

// ScanUser scans a row selected with UserColumns.
func ScanUser(row pgx.Row, extra ...any) (User, error) {
	var u User
	dest := append(extra,
		&u.ID, &u.Email, &u.EmailNorm, &u.EmailVerified, &u.EmailVerifiedAt,
		&u.VerificationToken, &u.VerificationExpiresAt, &u.CreatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return User{}, err
	}
	return u, nil
}

// CreateUser inserts a user and its credentials transactionally.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	email, emailNorm, now, err := checkCreateInput(op, in)
	if err != nil {
		return User{}, err
	}

	userID, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	users := PGIdent(s.schema, "users")
	creds := PGIdent(s.schema, "user_credentials")

	_, err = tx.Exec(ctx,
		`INSERT INTO `+users+` (id, email, email_norm, email_verified, created_at)
		 VALUES ($1, $2, $3, false, $4)`,
		userID, email, emailNorm, now,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO `+creds+` (user_id, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $3)`,
		userID, in.PasswordHash, now,
	)
	if err != nil {
		return User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}

	return User{
		ID:        userID,
		Email:     email,
		EmailNorm: emailNorm,
		CreatedAt: now,
	}, nil
}

// GetUserByID returns a user by id.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, invalid(op, "id is required")
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+PGIdent(s.schema, "users")+` u WHERE u.id = $1`,
		id,
	)
	u, err := ScanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return u, nil
}

// GetUserAuthByEmail returns a user and its password hash by normalized email.
func (s *PostgresStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	norm := NormalizeEmail(email)
	if norm == "" {
		return UserAuth{}, invalid(op, "email is required")
	}

	row := s.pool.QueryRow(ctx,
		`SELECT c.password_hash, `+userColumns+`
		   FROM `+PGIdent(s.schema, "users")+` u
		   JOIN `+PGIdent(s.schema, "user_credentials")+` c ON c.user_id = u.id
		  WHERE u.email_norm = $1`,
		norm,
	)
	var hash string
	u, err := ScanUser(row, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
		}
		return UserAuth{}, err
	}
	return UserAuth{User: u, PasswordHash: hash}, nil
}

// SetVerificationToken stores a pending verification token on the user.
func (s *PostgresStore) SetVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const op = "identity.SetVerificationToken"

	if strings.TrimSpace(userID) == "" || token == "" || expiresAt.IsZero() {
		return invalid(op, "user id, token and expiry are required")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+PGIdent(s.schema, "users")+`
		    SET verification_token = $2, verification_expires_at = $3
		  WHERE id = $1`,
		userID, token, expiresAt,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return ConflictError{Op: op, Field: field}
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// GetUserByVerificationToken looks up a user by pending token value.
func (s *PostgresStore) GetUserByVerificationToken(ctx context.Context, token string) (User, error) {
	const op = "identity.GetUserByVerificationToken"

	if token == "" {
		return User{}, NotFoundError{Op: op, Resource: "verification_token"}
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+PGIdent(s.schema, "users")+` u
		  WHERE u.verification_token = $1`,
		token,
	)
	u, err := ScanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "verification_token"}
		}
		return User{}, err
	}
	return u, nil
}

// ConsumeVerificationToken flips the verified flag and clears the token in one
// conditional UPDATE, so a concurrent second consumer matches zero rows.
func (s *PostgresStore) ConsumeVerificationToken(ctx context.Context, userID, token string, now time.Time) (User, error) {
	const op = "identity.ConsumeVerificationToken"

	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE `+PGIdent(s.schema, "users")+` u
		    SET email_verified = true,
		        email_verified_at = COALESCE(u.email_verified_at, $3),
		        verification_token = NULL,
		        verification_expires_at = NULL
		  WHERE u.id = $1 AND u.verification_token = $2
		  RETURNING `+userColumns,
		userID, token, now,
	)
	u, err := ScanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "verification_token"}
		}
		return User{}, err
	}
	return u, nil
}

// PGIdentIsValid checks if a string is a safe Postgres identifier.
func PGIdentIsValid(s string) bool {
	return pgIdentRe.MatchString(s)
}

// PGIdent safely quotes a schema-qualified identifier: "schema"."name".
func PGIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

// PGIsForeignKeyViolation reports SQLSTATE 23503.
func PGIsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23503"
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable constraint names, fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch c {
	case "uq_users_email_norm":
		return "email", true
	case "uq_users_verification_token":
		return "verification_token", true
	default:
		switch {
		case strings.Contains(c, "email"):
			return "email", true
		case strings.Contains(c, "verification"):
			return "verification_token", true
		default:
			return "unknown", true
		}
	}
}
