package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultLockKeyPrefix = "cartlock:"
	defaultLockTTL       = 30 * time.Second
	defaultLockWait      = 5 * time.Second
	minLockPoll          = 10 * time.Millisecond
	maxLockPoll          = 200 * time.Millisecond
)

// releaseScript deletes the lock only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSessionLocker serializes cart work per session across processes
// with SET NX PX. A holder that dies loses the lock after the TTL.
type RedisSessionLocker struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	wait      time.Duration
	logger    *zap.Logger
}

// NewRedisSessionLocker creates a locker. ttl bounds how long a crashed
// holder can block a session; wait bounds how long Lock polls.
func NewRedisSessionLocker(client redis.UniversalClient, ttl, wait time.Duration, logger *zap.Logger) *RedisSessionLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSessionLocker{
		client:    client,
		keyPrefix: defaultLockKeyPrefix,
		ttl:       ttl,
		wait:      wait,
		logger:    logger,
	}
}

// Lock polls until the session lock is acquired. It fails with
// cart.ErrCartBusy once the wait budget is spent.
func (l *RedisSessionLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := l.keyPrefix + sessionID
	token, err := newLockToken()
	if err != nil {
		return nil, shared.NewStorageUnavailable(err)
	}

	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()
	poll := minLockPoll

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, shared.NewStorageUnavailable(err)
		}
		if ok {
			return l.releaser(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, cart.ErrCartBusy
		case <-time.After(poll):
		}
		poll = min(poll*2, maxLockPoll)
	}
}

func (l *RedisSessionLocker) releaser(key, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		// the request context may already be cancelled; release regardless
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release cart lock", zap.String("key", key), zap.Error(err))
		}
	}
}

func newLockToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var _ cart.Locker = (*RedisSessionLocker)(nil)
