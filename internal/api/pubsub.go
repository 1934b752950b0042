package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/victornm/grammarquiz/internal/domain"
)

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	TopicStats struct {
		Topics []TopicStat `json:"topics"`
	}

	TopicStat struct {
		TopicName      string `json:"topicName"`
		ErrorCount     int64  `json:"errorCount"`
		TotalAttempted int64  `json:"totalAttempted"`
	}
)

// PublishTopicStatsUpdated pushes the topic error board to dashboard subscribers.
func (a *API) PublishTopicStatsUpdated(ctx context.Context, e domain.EventTopicStatsUpdated) error {
	data := TopicStats{
		Topics: make([]TopicStat, 0, len(e.Stats)),
	}

	for _, st := range e.Stats {
		data.Topics = append(data.Topics, TopicStat{
			TopicName:      st.TopicName,
			ErrorCount:     st.ErrorCount,
			TotalAttempted: st.TotalAttempted,
		})
	}

	return a.publishNotification(ctx, "stats", e.Name(), data)
}

func (a *API) publishNotification(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, fmt.Sprintf("%s:%s", a.prefix, channel), b).Err()
}
