package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSweepLockKey is the Redis key of the sweep lease.
const DefaultSweepLockKey = "authd:session:sweep"

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker backed by SET NX PX.
type RedisLocker struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedisLocker returns a lease on key that expires after ttl if never released.
func NewRedisLocker(client redis.UniversalClient, key string, ttl time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("session: nil redis client")
	}
	if ttl <= 0 {
		return nil, errors.New("session: lock ttl must be positive")
	}
	if key == "" {
		key = DefaultSweepLockKey
	}
	return &RedisLocker{client: client, key: key, ttl: ttl}, nil
}

// TryLock attempts to take the lease.
func (l *RedisLocker) TryLock(ctx context.Context) (func(context.Context) error, bool, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, false, err
	}
	owner := hex.EncodeToString(b)

	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{l.key}, owner).Err()
	}
	return release, true, nil
}
