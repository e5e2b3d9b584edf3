package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"p2p-lending/pkg/id"
)

var ErrNotAcquired = errors.New("lock not acquired")

// release deletes the key only if we still own it.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a SET NX PX lock shared by every process talking to the same
// Redis. TTL bounds how long a crashed holder can block others.
type Redis struct {
	rdb     *redis.Client
	ttl     time.Duration
	wait    time.Duration
	backoff time.Duration
}

type RedisOption func(*Redis)

// WithWait bounds how long WithLock retries before ErrNotAcquired.
func WithWait(d time.Duration) RedisOption { return func(r *Redis) { r.wait = d } }

func WithBackoff(d time.Duration) RedisOption { return func(r *Redis) { r.backoff = d } }

func NewRedis(rdb *redis.Client, ttl time.Duration, opts ...RedisOption) *Redis {
	r := &Redis{rdb: rdb, ttl: ttl, wait: 5 * time.Second, backoff: 20 * time.Millisecond}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := id.Hex32()
	if err := r.acquire(ctx, key, token); err != nil {
		return err
	}
	defer func() {
		// release must run even if ctx was cancelled by fn
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := release.Run(rctx, r.rdb, []string{key}, token).Err(); err != nil {
			slog.WarnContext(ctx, "lock release failed", "key", key, "err", err)
		}
	}()
	return fn(ctx)
}

func (r *Redis) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(r.wait)
	for {
		ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff):
		}
	}
}
