package identity

import (
	"context"
	"testing"
	"time"
)

// runStoreContract exercises behavior every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("create_and_lookup", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)
		now := time.Now().UTC().Truncate(time.Microsecond)

		u, err := s.CreateUser(ctx, CreateUserInput{Email: " Ada@Example.com ", PasswordHash: "h1", Now: now})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if u.Email != "Ada@Example.com" || u.EmailNorm != "ada@example.com" || u.EmailVerified {
			t.Fatalf("unexpected user: %+v", u)
		}

		got, err := s.GetUserByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("GetUserByID: %v", err)
		}
		if got.ID != u.ID || got.EmailNorm != u.EmailNorm {
			t.Fatalf("GetUserByID mismatch: %+v", got)
		}

		auth, err := s.GetUserAuthByEmail(ctx, "ADA@example.COM")
		if err != nil {
			t.Fatalf("GetUserAuthByEmail: %v", err)
		}
		if auth.PasswordHash != "h1" || auth.User.ID != u.ID {
			t.Fatalf("unexpected auth: %+v", auth)
		}
	})

	t.Run("email_conflict_case_insensitive", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)

		if _, err := s.CreateUser(ctx, CreateUserInput{Email: "user@example.com", PasswordHash: "h"}); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		_, err := s.CreateUser(ctx, CreateUserInput{Email: "USER@example.com", PasswordHash: "h"})
		if !IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("invalid_input", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)

		if _, err := s.CreateUser(ctx, CreateUserInput{Email: "nope", PasswordHash: "h"}); !IsInvalidInput(err) {
			t.Fatalf("expected invalid input for email, got %v", err)
		}
		if _, err := s.CreateUser(ctx, CreateUserInput{Email: "a@example.com"}); !IsInvalidInput(err) {
			t.Fatalf("expected invalid input for hash, got %v", err)
		}
	})

	t.Run("missing_user", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)

		if _, err := s.GetUserByID(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ"); !IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
		if _, err := s.GetUserAuthByEmail(ctx, "ghost@example.com"); !IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
		err := s.SetVerificationToken(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ", "tok", time.Now().Add(time.Hour))
		if !IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("verification_token_single_use", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)
		now := time.Now().UTC().Truncate(time.Microsecond)

		u, err := s.CreateUser(ctx, CreateUserInput{Email: "v@example.com", PasswordHash: "h", Now: now})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		exp := now.Add(12 * time.Hour)
		if err := s.SetVerificationToken(ctx, u.ID, "tok-1", exp); err != nil {
			t.Fatalf("SetVerificationToken: %v", err)
		}
		// Re-issuing replaces the pending token.
		if err := s.SetVerificationToken(ctx, u.ID, "tok-2", exp); err != nil {
			t.Fatalf("SetVerificationToken: %v", err)
		}
		if _, err := s.GetUserByVerificationToken(ctx, "tok-1"); !IsNotFound(err) {
			t.Fatalf("replaced token must be gone, got %v", err)
		}

		pending, err := s.GetUserByVerificationToken(ctx, "tok-2")
		if err != nil {
			t.Fatalf("GetUserByVerificationToken: %v", err)
		}
		if pending.ID != u.ID || pending.VerificationExpiresAt == nil || !pending.VerificationExpiresAt.Equal(exp) {
			t.Fatalf("unexpected pending user: %+v", pending)
		}

		verified, err := s.ConsumeVerificationToken(ctx, u.ID, "tok-2", now.Add(time.Minute))
		if err != nil {
			t.Fatalf("ConsumeVerificationToken: %v", err)
		}
		if !verified.EmailVerified || verified.VerificationToken != nil || verified.VerificationExpiresAt != nil {
			t.Fatalf("consume did not clear token: %+v", verified)
		}
		if verified.EmailVerifiedAt == nil {
			t.Fatalf("expected verified_at")
		}

		if _, err := s.ConsumeVerificationToken(ctx, u.ID, "tok-2", now.Add(2*time.Minute)); !IsNotFound(err) {
			t.Fatalf("second consume must fail, got %v", err)
		}
		if _, err := s.GetUserByVerificationToken(ctx, "tok-2"); !IsNotFound(err) {
			t.Fatalf("consumed token must not resolve, got %v", err)
		}
	})
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	t.Cleanup(cancel)
	return ctx
}
