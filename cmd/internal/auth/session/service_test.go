package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"authd/cmd/identity"
	"authd/cmd/internal/auth/autherr"
	"authd/cmd/security/token"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const day = 24 * time.Hour

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc   *Service
	store *MemoryStore
	clock *fakeClock
	user  identity.User
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()

	users := identity.NewMemoryStore()
	u, err := users.CreateUser(context.Background(), identity.CreateUserInput{Email: "u1@example.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(users)
	svc, err := NewService(store, DefaultConfig(), append([]Option{WithClock(clock.Now)}, opts...)...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return fixture{svc: svc, store: store, clock: clock, user: u}
}

func TestIssue_SetsSevenDayExpiryAndStoresOnlyIdentifier(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	iss, err := f.svc.Issue(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(iss.Token) != token.EncodedLen {
		t.Fatalf("token len=%d", len(iss.Token))
	}
	if iss.Session.ID != token.DeriveID(iss.Token) {
		t.Fatalf("session id is not the derived identifier")
	}
	if iss.Session.ID == iss.Token {
		t.Fatalf("raw token stored as id")
	}
	if want := f.clock.Now().Add(7 * day); !iss.Session.ExpiresAt.Equal(want) {
		t.Fatalf("expiry=%v want %v", iss.Session.ExpiresAt, want)
	}
}

func TestIssue_UnknownOwner(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Issue(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	if !identity.IsNotFound(err) {
		t.Fatalf("expected identity not found, got %v", err)
	}
	if _, err := f.svc.Issue(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestValidate_FreshSessionUnchanged(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	iss, _ := f.svc.Issue(ctx, f.user.ID)

	f.clock.Advance(2 * day)
	v, err := f.svc.Validate(ctx, iss.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if v.Renewed || !v.Session.ExpiresAt.Equal(iss.Session.ExpiresAt) {
		t.Fatalf("unexpected renewal: %+v", v)
	}
	if v.Owner.ID != f.user.ID {
		t.Fatalf("owner=%q want %q", v.Owner.ID, f.user.ID)
	}
}

func TestValidate_RenewsInsideWindow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	t0 := f.clock.Now()
	iss, _ := f.svc.Issue(ctx, f.user.ID)

	f.clock.Advance(6 * day)
	v, err := f.svc.Validate(ctx, iss.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := t0.Add(13 * day)
	if !v.Renewed || !v.Session.ExpiresAt.Equal(want) {
		t.Fatalf("expiry=%v renewed=%v want %v", v.Session.ExpiresAt, v.Renewed, want)
	}

	stored, _, err := f.store.FindWithOwner(ctx, iss.Session.ID)
	if err != nil {
		t.Fatalf("FindWithOwner: %v", err)
	}
	if !stored.ExpiresAt.Equal(want) {
		t.Fatalf("store expiry=%v want %v", stored.ExpiresAt, want)
	}
}

func TestValidate_RenewalBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		elapsed   time.Duration
		wantRenew bool
	}{
		{name: "just_outside_window", elapsed: 3*day - time.Second, wantRenew: false},
		{name: "exactly_four_days_left", elapsed: 3 * day, wantRenew: true},
		{name: "one_second_left", elapsed: 7*day - time.Second, wantRenew: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			ctx := context.Background()

			iss, _ := f.svc.Issue(ctx, f.user.ID)
			f.clock.Advance(tc.elapsed)

			v, err := f.svc.Validate(ctx, iss.Token)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if v.Renewed != tc.wantRenew {
				t.Fatalf("renewed=%v want %v", v.Renewed, tc.wantRenew)
			}
			if tc.wantRenew && !v.Session.ExpiresAt.Equal(f.clock.Now().Add(7*day)) {
				t.Fatalf("renewed to %v, want now+7d", v.Session.ExpiresAt)
			}
		})
	}
}

func TestValidate_ExpiredIsDeleted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	iss, _ := f.svc.Issue(ctx, f.user.ID)

	f.clock.Advance(8 * day)
	if _, err := f.svc.Validate(ctx, iss.Token); !errors.Is(err, autherr.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, _, err := f.store.FindWithOwner(ctx, iss.Session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expired record still present: %v", err)
	}
}

func TestValidate_ExactExpiryIsExpired(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	iss, _ := f.svc.Issue(ctx, f.user.ID)
	f.clock.Advance(7 * day)

	if _, err := f.svc.Validate(ctx, iss.Token); !errors.Is(err, autherr.ErrNoSession) {
		t.Fatalf("expected ErrNoSession at expiry, got %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected lazy delete")
	}
}

func TestValidate_UnknownAndMalformedTokens(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	long := make([]byte, maxTokenLen+1)
	for i := range long {
		long[i] = 'a'
	}
	for _, tok := range []string{"", "   ", "unknowntokenunknowntokenunknownt", string(long)} {
		if _, err := f.svc.Validate(ctx, tok); !errors.Is(err, autherr.ErrNoSession) {
			t.Fatalf("Validate(%q): expected ErrNoSession, got %v", tok, err)
		}
	}
}

func TestInvalidate_Idempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	iss, _ := f.svc.Issue(ctx, f.user.ID)
	if err := f.svc.Invalidate(ctx, iss.Session.ID); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if err := f.svc.Invalidate(ctx, iss.Session.ID); err != nil {
		t.Fatalf("second Invalidate: %v", err)
	}
	if err := f.svc.Invalidate(ctx, token.DeriveID("never-issued")); err != nil {
		t.Fatalf("Invalidate unknown: %v", err)
	}
	if _, err := f.svc.Validate(ctx, iss.Token); !errors.Is(err, autherr.ErrNoSession) {
		t.Fatalf("expected ErrNoSession after invalidate, got %v", err)
	}
}

func TestInvalidateToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	iss, _ := f.svc.Issue(ctx, f.user.ID)
	if err := f.svc.InvalidateToken(ctx, iss.Token); err != nil {
		t.Fatalf("InvalidateToken: %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("session not removed")
	}
	if err := f.svc.InvalidateToken(ctx, ""); err != nil {
		t.Fatalf("empty token: %v", err)
	}
}

func TestKeyedCodec_RoundTrip(t *testing.T) {
	t.Parallel()
	codec := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	f := newFixture(t, WithCodec(codec))
	ctx := context.Background()

	iss, _ := f.svc.Issue(ctx, f.user.ID)
	if iss.Session.ID != codec.DeriveID(iss.Token) {
		t.Fatalf("keyed identifier not used")
	}
	if _, err := f.svc.Validate(ctx, iss.Token); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

// flakyStore fails selected operations to exercise error mapping.
type flakyStore struct {
	Store
	findErr   error
	updateErr error
	deleteErr error
}

func (s flakyStore) FindWithOwner(ctx context.Context, id string) (Session, identity.User, error) {
	if s.findErr != nil {
		return Session{}, identity.User{}, s.findErr
	}
	return s.Store.FindWithOwner(ctx, id)
}

func (s flakyStore) UpdateExpiry(ctx context.Context, id string, exp time.Time) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.UpdateExpiry(ctx, id, exp)
}

func (s flakyStore) Delete(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.Delete(ctx, id)
}

func TestValidate_ErrorMapping(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	cases := []struct {
		name    string
		store   func(Store) Store
		elapsed time.Duration
		want    error
	}{
		{name: "find_fault", store: func(s Store) Store { return flakyStore{Store: s, findErr: boom} }, want: autherr.ErrStoreUnavailable},
		{name: "find_timeout", store: func(s Store) Store { return flakyStore{Store: s, findErr: context.DeadlineExceeded} }, want: autherr.ErrStoreUnavailable},
		{name: "vanished_before_renew", store: func(s Store) Store { return flakyStore{Store: s, updateErr: ErrSessionNotFound} }, elapsed: 5 * day, want: autherr.ErrNoSession},
		{name: "renew_fault", store: func(s Store) Store { return flakyStore{Store: s, updateErr: boom} }, elapsed: 5 * day, want: autherr.ErrStoreUnavailable},
		{name: "lazy_delete_fault", store: func(s Store) Store { return flakyStore{Store: s, deleteErr: boom} }, elapsed: 9 * day, want: autherr.ErrStoreUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			ctx := context.Background()

			iss, err := f.svc.Issue(ctx, f.user.ID)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			svc, err := NewService(tc.store(f.store), DefaultConfig(), WithClock(f.clock.Now))
			if err != nil {
				t.Fatalf("NewService: %v", err)
			}
			f.clock.Advance(tc.elapsed)

			_, err = svc.Validate(ctx, iss.Token)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
			if tc.want == autherr.ErrStoreUnavailable && errors.Is(err, autherr.ErrNoSession) {
				t.Fatalf("store fault reported as no session")
			}
		})
	}
}

func TestMetrics_CountOutcomes(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	f := newFixture(t, WithMetrics(m))
	ctx := context.Background()

	iss, _ := f.svc.Issue(ctx, f.user.ID)
	f.clock.Advance(5 * day)
	_, _ = f.svc.Validate(ctx, iss.Token)
	f.clock.Advance(8 * day)
	_, _ = f.svc.Validate(ctx, iss.Token)

	checks := map[string]float64{eventIssued: 1, eventRenewed: 1, eventValidated: 1, eventExpired: 1}
	for event, want := range checks {
		if got := testutil.ToFloat64(m.events.WithLabelValues(event)); got != want {
			t.Fatalf("%s=%v want %v", event, got, want)
		}
	}
}

func TestNewService_RejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := NewService(nil, DefaultConfig()); !errors.Is(err, ErrConfig) {
		t.Fatalf("nil store: %v", err)
	}
	bad := DefaultConfig()
	bad.RenewWithin = bad.TTL
	if _, err := NewService(NewMemoryStore(identity.NewMemoryStore()), bad); !errors.Is(err, ErrConfig) {
		t.Fatalf("bad window: %v", err)
	}
	if _, err := NewService(NewMemoryStore(identity.NewMemoryStore()), DefaultConfig(), WithClock(nil)); !errors.Is(err, ErrConfig) {
		t.Fatalf("nil clock: %v", err)
	}
}
