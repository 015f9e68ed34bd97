package session

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"authd/cmd/internal/pgtest"
	"authd/cmd/security/token"

	"github.com/redis/go-redis/v9"
)

// Requires AUTHD_REDIS_URL.
func TestRedisLocker_ExclusiveLease(t *testing.T) {
	raw := strings.TrimSpace(os.Getenv("AUTHD_REDIS_URL"))
	if raw == "" {
		t.Skip("integration test skipped: AUTHD_REDIS_URL is not set")
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		t.Fatalf("parse AUTHD_REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if pgtest.ShouldSkip(err) {
			t.Skipf("integration test skipped: redis unreachable: %v", err)
		}
		t.Fatalf("ping: %v", err)
	}

	key := "authd:test:sweep:" + token.DeriveID(time.Now().String())[:12]
	t.Cleanup(func() { _ = client.Del(context.Background(), key).Err() })

	a, _ := NewRedisLocker(client, key, 10*time.Second)
	b, _ := NewRedisLocker(client, key, 10*time.Second)

	release, ok, err := a.TryLock(ctx)
	if err != nil || !ok {
		t.Fatalf("first TryLock: ok=%v err=%v", ok, err)
	}
	if _, ok, err := b.TryLock(ctx); err != nil || ok {
		t.Fatalf("second TryLock must fail: ok=%v err=%v", ok, err)
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	release2, ok, err := b.TryLock(ctx)
	if err != nil || !ok {
		t.Fatalf("TryLock after release: ok=%v err=%v", ok, err)
	}
	_ = release2(ctx)
}

func TestNewRedisLocker_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisLocker(nil, "", time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer func() { _ = client.Close() }()
	if _, err := NewRedisLocker(client, "", 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
	l, err := NewRedisLocker(client, "", time.Second)
	if err != nil || l.key != DefaultSweepLockKey {
		t.Fatalf("default key not applied: %v", err)
	}
}
