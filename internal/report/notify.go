package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/victornm/grammarquiz/internal/domain"
)

const maxConcurrent = 100

// Notifier delivers a finished report to the student.
type Notifier interface {
	Notify(ctx context.Context, p Payload) error
}

// Notification is the message published for the mail worker.
type Notification struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Publisher is the subset of the Redis client used to publish notifications.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes the report on the shared reports channel and on the
// student's own channel, where the mail worker picks it up.
type RedisNotifier struct {
	redis  Publisher
	prefix string
}

func NewRedisNotifier(r Publisher, prefix string) *RedisNotifier {
	return &RedisNotifier{redis: r, prefix: prefix}
}

func (n *RedisNotifier) Notify(ctx context.Context, p Payload) error {
	b, err := json.Marshal(Notification{
		Event: domain.EventNameReportSubmitted,
		Data:  p,
	})
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %w", domain.EventNameReportSubmitted, err)
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, ch := range n.Channels(p.Student.Email) {
		eg.Go(func() error {
			if err := n.redis.Publish(ctx, ch, b).Err(); err != nil {
				return fmt.Errorf("pubsub: publish %s: %w", ch, err)
			}
			return nil
		})
	}

	return eg.Wait()
}

// Channels lists the channels a report for email is published on.
func (n *RedisNotifier) Channels(email string) []string {
	return []string{
		fmt.Sprintf("%s:reports", n.prefix),
		fmt.Sprintf("%s:student:%s", n.prefix, foldEmail(email)),
	}
}

// RedisUnsubscribes keeps the unsubscribe list as a Redis set of folded addresses.
type RedisUnsubscribes struct {
	redis redis.UniversalClient
	key   string
}

func NewRedisUnsubscribes(r redis.UniversalClient, prefix string) *RedisUnsubscribes {
	return &RedisUnsubscribes{redis: r, key: fmt.Sprintf("%s:unsubscribes", prefix)}
}

func (u *RedisUnsubscribes) Unsubscribe(ctx context.Context, email string) error {
	if err := u.redis.SAdd(ctx, u.key, foldEmail(email)).Err(); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (u *RedisUnsubscribes) IsUnsubscribed(ctx context.Context, email string) (bool, error) {
	ok, err := u.redis.SIsMember(ctx, u.key, foldEmail(email)).Result()
	if err != nil {
		return false, fmt.Errorf("check unsubscribe: %w", err)
	}
	return ok, nil
}

// MemoryUnsubscribes is an in-process unsubscribe list.
type MemoryUnsubscribes struct {
	mu     sync.RWMutex
	emails map[string]struct{}
}

func NewMemoryUnsubscribes() *MemoryUnsubscribes {
	return &MemoryUnsubscribes{emails: make(map[string]struct{})}
}

func (u *MemoryUnsubscribes) Unsubscribe(_ context.Context, email string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.emails[foldEmail(email)] = struct{}{}
	return nil
}

func (u *MemoryUnsubscribes) IsUnsubscribed(_ context.Context, email string) (bool, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	_, ok := u.emails[foldEmail(email)]
	return ok, nil
}
