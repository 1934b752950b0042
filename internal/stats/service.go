// Package stats keeps the topic error board: how often each grammar topic was
// missed across every scored attempt.
package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/event"
)

const (
	publishInterval = 200 * time.Millisecond
)

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
}

type Service struct {
	eb     *event.Bus
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		eb:     c.EventBus,
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	s.eb.Subscribe(domain.EventNameResultScored, func(ctx context.Context, e event.Event) error {
		return s.RecordResult(ctx, e.(domain.EventResultScored))
	})

	return s
}

type GetTopicStatsRequest struct {
	// Limit of zero returns every topic.
	Limit int
}

// GetTopicStats returns the topics ordered by error count, most missed first.
func (s *Service) GetTopicStats(ctx context.Context, req GetTopicStatsRequest) ([]domain.TopicStat, error) {
	stop := int64(-1)
	if req.Limit > 0 {
		stop = int64(req.Limit) - 1
	}

	res, err := s.redis.ZRevRangeWithScores(ctx, s.errorsKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("get topic errors: %w", err)
	}

	attempts, err := s.redis.HGetAll(ctx, s.attemptsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("get topic attempts: %w", err)
	}

	out := make([]domain.TopicStat, 0, len(res))
	for _, z := range res {
		name := z.Member.(string)
		total, _ := strconv.ParseInt(attempts[name], 10, 64)
		out = append(out, domain.TopicStat{
			TopicName:      name,
			ErrorCount:     int64(z.Score),
			TotalAttempted: total,
		})
	}

	return out, nil
}

// RecordResult adds the answers of a scored attempt to the board.
func (s *Service) RecordResult(ctx context.Context, e domain.EventResultScored) error {
	errs := map[string]int64{}
	attempts := map[string]int64{}
	for _, a := range e.Result.Answers {
		attempts[a.GrammarTopic]++
		if !a.IsCorrect {
			errs[a.GrammarTopic]++
		}
	}

	if len(attempts) == 0 {
		return nil
	}

	_, err := s.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for topic, n := range attempts {
			p.HIncrBy(ctx, s.attemptsKey(), topic, n)
			// Topics without errors still enter the board so they show with a zero count.
			p.ZIncrBy(ctx, s.errorsKey(), float64(errs[topic]), topic)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record result: session=%s: %w", e.SessionID, err)
	}

	return s.schedulePublishStats(ctx)
}

// schedulePublishStats publishes the board at most once per interval.
// Many attempts finish close together, so this bounds the number of published events.
func (s *Service) schedulePublishStats(ctx context.Context) error {
	ok, err := s.redis.SetNX(ctx, s.publishKey(), time.Now().UnixMilli(), publishInterval).Result()
	if err != nil {
		return fmt.Errorf("setnx: %w", err)
	}

	if !ok {
		return nil
	}

	st, err := s.GetTopicStats(ctx, GetTopicStatsRequest{})
	if err != nil {
		return fmt.Errorf("get topic stats failed: %w", err)
	}

	s.eb.Publish(ctx, domain.EventTopicStatsUpdated{Stats: st})
	return nil
}

func (s *Service) errorsKey() string {
	return fmt.Sprintf("%s:topics:errors", s.prefix)
}

func (s *Service) attemptsKey() string {
	return fmt.Sprintf("%s:topics:attempts", s.prefix)
}

func (s *Service) publishKey() string {
	return fmt.Sprintf("%s:topics:time", s.prefix)
}
