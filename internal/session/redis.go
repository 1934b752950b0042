package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/grammarquiz/internal/domain"
)

const defaultTTL = 24 * time.Hour

type RedisConfig struct {
	Redis  redis.UniversalClient
	Prefix string
	// TTL bounds how long an unfinished or finished session is kept. Defaults to 24h.
	TTL time.Duration
}

// RedisStore keeps sessions as JSON values so several API instances can share them.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(c RedisConfig) *RedisStore {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &RedisStore{
		redis:  c.Redis,
		prefix: c.Prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStore) Create(ctx context.Context, questions []domain.Question) (*domain.Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	ss := &domain.Session{
		SessionID:  id,
		Questions:  questions,
		CreateTime: s.now().UTC(),
	}

	b, err := json.Marshal(ss)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, s.key(id), b, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("store session: id collision: %s", id)
	}

	return copySession(ss), nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.get(ctx, s.redis, id)
}

// AttachResult rewrites the session under WATCH so concurrent writers to the same session cannot interleave.
func (s *RedisStore) AttachResult(ctx context.Context, id string, r domain.Result) error {
	key := s.key(id)

	return s.redis.Watch(ctx, func(tx *redis.Tx) error {
		ss, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}

		ss.Result = &r
		b, err := json.Marshal(ss)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return fmt.Errorf("attach result: %w", err)
		}

		return nil
	}, key)
}

func (s *RedisStore) get(ctx context.Context, c getter, id string) (*domain.Session, error) {
	b, err := c.Get(ctx, s.key(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var ss domain.Session
	if err := json.Unmarshal(b, &ss); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}

	return &ss, nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}
