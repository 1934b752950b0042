package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/grammarquiz/internal/errors"
)

const (
	DefaultLockWait = 10 * time.Second

	lockLease    = 30 * time.Second
	lockInterval = 50 * time.Millisecond
)

// Locker guards the report critical section. Acquire waits at most wait and
// returns the function that releases the lock.
type Locker interface {
	Acquire(ctx context.Context, wait time.Duration) (release func(), err error)
}

// LocalLocker serializes reports within the process.
type LocalLocker struct {
	ch chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{ch: make(chan struct{}, 1)}
}

func (l *LocalLocker) Acquire(ctx context.Context, wait time.Duration) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-l.ch }) }, nil
	case <-ctx.Done():
		return nil, errors.Unavailable(ctx.Err(), "report lock not acquired within %s", wait)
	}
}

// RedisLocker serializes reports across processes with a leased key.
// The lease bounds how long a crashed holder can block others.
type RedisLocker struct {
	redis redis.UniversalClient
	key   string
	lease time.Duration
}

func NewRedisLocker(r redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{
		redis: r,
		key:   fmt.Sprintf("%s:report:lock", prefix),
		lease: lockLease,
	}
}

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RedisLocker) Acquire(ctx context.Context, wait time.Duration) (func(), error) {
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	t := time.NewTicker(lockInterval)
	defer t.Stop()

	for {
		ok, err := l.redis.SetNX(ctx, l.key, token, l.lease).Result()
		if err == nil && ok {
			return l.releaser(token), nil
		}

		select {
		case <-ctx.Done():
			if err == nil {
				err = ctx.Err()
			}
			return nil, errors.Unavailable(err, "report lock not acquired within %s", wait)
		case <-t.C:
		}
	}
}

func (l *RedisLocker) releaser(token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := releaseScript.Run(ctx, l.redis, []string{l.key}, token).Err(); err != nil {
				slog.ErrorContext(ctx, "report: release lock failed", "error", err)
			}
		})
	}
}
