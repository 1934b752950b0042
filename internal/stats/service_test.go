package stats_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/event"
	"github.com/victornm/grammarquiz/internal/stats"
)

func answers(topic string, wrong, right int) []domain.ScoredAnswer {
	var as []domain.ScoredAnswer
	for range wrong {
		as = append(as, domain.ScoredAnswer{GrammarTopic: topic})
	}
	for range right {
		as = append(as, domain.ScoredAnswer{GrammarTopic: topic, IsCorrect: true})
	}
	return as
}

func scored(session string, as ...[]domain.ScoredAnswer) domain.EventResultScored {
	var all []domain.ScoredAnswer
	for _, a := range as {
		all = append(all, a...)
	}
	return domain.EventResultScored{SessionID: session, Result: domain.Result{Answers: all}}
}

func TestService_RecordResult(t *testing.T) {
	s := makeService(t)
	ctx := context.Background()

	require.NoError(t, s.RecordResult(ctx, scored("s1",
		answers("Present tenses", 2, 0),
		answers("Past tenses 1", 1, 1),
		answers("Future 1", 0, 2),
	)))
	require.NoError(t, s.RecordResult(ctx, scored("s2",
		answers("Past tenses 1", 2, 0),
	)))

	got, err := s.GetTopicStats(ctx, stats.GetTopicStatsRequest{})
	require.NoError(t, err)

	want := []domain.TopicStat{
		{TopicName: "Past tenses 1", ErrorCount: 3, TotalAttempted: 4},
		{TopicName: "Present tenses", ErrorCount: 2, TotalAttempted: 2},
		{TopicName: "Future 1", ErrorCount: 0, TotalAttempted: 2},
	}
	require.Equal(t, want, got)

	top, err := s.GetTopicStats(ctx, stats.GetTopicStatsRequest{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, want[:1], top)
}

func TestService_GetTopicStats_Empty(t *testing.T) {
	s := makeService(t)

	got, err := s.GetTopicStats(context.Background(), stats.GetTopicStatsRequest{})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestService_PublishTopicStatsUpdated(t *testing.T) {
	type (
		inputs struct {
			receivedEvents []domain.EventResultScored
			gap            time.Duration
		}

		outputs struct {
			publishedEvents []domain.EventTopicStatsUpdated
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"should publish topic_stats.updated after receiving result.scored": {
			arrange: func() inputs {
				return inputs{
					receivedEvents: []domain.EventResultScored{
						scored("s1", answers("Present tenses", 1, 1)),
					},
				}
			},
			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.publishedEvents, 1)
				require.Equal(t, []domain.TopicStat{
					{TopicName: "Present tenses", ErrorCount: 1, TotalAttempted: 2},
				}, out.publishedEvents[0].Stats)
			},
		},

		"should publish once for results scored within the publish interval": {
			arrange: func() inputs {
				return inputs{
					receivedEvents: []domain.EventResultScored{
						scored("s1", answers("Present tenses", 1, 1)),
						scored("s2", answers("Future 1", 2, 0)),
					},
				}
			},
			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.publishedEvents, 1)
			},
		},

		"should publish again once the interval has passed": {
			arrange: func() inputs {
				return inputs{
					receivedEvents: []domain.EventResultScored{
						scored("s1", answers("Present tenses", 1, 1)),
						scored("s2", answers("Future 1", 2, 0)),
					},
					gap: time.Second,
				}
			},
			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.publishedEvents, 2)
				require.Len(t, out.publishedEvents[1].Stats, 2)
			},
		},

		"should not publish for an empty result": {
			arrange: func() inputs {
				return inputs{receivedEvents: []domain.EventResultScored{scored("s1")}}
			},
			assert: func(t *testing.T, out outputs) {
				require.Empty(t, out.publishedEvents)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in, out := tt.arrange(), outputs{}

			eb := event.NewBus()

			var mu sync.Mutex
			eb.Subscribe(domain.EventNameTopicStats, func(ctx context.Context, e event.Event) error {
				mu.Lock()
				out.publishedEvents = append(out.publishedEvents, e.(domain.EventTopicStatsUpdated))
				mu.Unlock()
				return nil
			})

			s, rs := makeServiceWithRedis(t, withEventBus(eb))

			for _, e := range in.receivedEvents {
				err := s.RecordResult(context.Background(), e)
				require.NoError(t, err)
				rs.FastForward(in.gap)
			}

			eb.Stop()

			tt.assert(t, out)
		})
	}
}

func TestService_SubscribesToResultScored(t *testing.T) {
	eb := event.NewBus()
	s := makeService(t, withEventBus(eb))

	eb.Publish(context.Background(), scored("s1", answers("Present tenses", 1, 0)))
	eb.Stop()

	got, err := s.GetTopicStats(context.Background(), stats.GetTopicStatsRequest{})
	require.NoError(t, err)
	require.Equal(t, []domain.TopicStat{{TopicName: "Present tenses", ErrorCount: 1, TotalAttempted: 1}}, got)
}

func makeService(t *testing.T, opts ...options) *stats.Service {
	s, _ := makeServiceWithRedis(t, opts...)
	return s
}

func makeServiceWithRedis(t *testing.T, opts ...options) (*stats.Service, *miniredis.Miniredis) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	c := stats.Config{
		EventBus: event.NewBus(),
		Redis:    rc,
		Prefix:   "test",
	}

	for _, opt := range opts {
		opt(&c)
	}

	return stats.NewService(c), rs
}

type options func(c *stats.Config)

func withEventBus(eb *event.Bus) options {
	return func(c *stats.Config) {
		c.EventBus = eb
	}
}
