package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// lockKeyPrefix namespaces schedule locks in redis.
const lockKeyPrefix = "scheduled_reports:"

// releaseScript deletes the lock only while this holder still owns it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// redisCmdable is the slice of the redis client the lock needs.
// *redis.Client satisfies it.
type redisCmdable interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Lock is a per-schedule named lock backed by redis. Holding the lock for
// the duration of one build-and-send keeps delivery at-most-once per tick
// across runner replicas.
type Lock struct {
	client redisCmdable
	ttl    time.Duration
}

// NewLock creates a schedule lock with the given expiry.
func NewLock(client redisCmdable, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Lock{client: client, ttl: ttl}
}

// Acquire tries to take the lock for one schedule. It returns a release
// token and whether the lock was obtained.
func (l *Lock) Acquire(ctx context.Context, scheduleID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKeyPrefix+scheduleID, token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire schedule lock: %w", err)
	}
	return token, ok, nil
}

// Release frees the lock if the token still owns it. An expired or stolen
// lock is left alone.
func (l *Lock) Release(ctx context.Context, scheduleID, token string) error {
	if err := l.client.Eval(ctx, releaseScript, []string{lockKeyPrefix + scheduleID}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release schedule lock: %w", err)
	}
	return nil
}
