package quiz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/victornm/grammarquiz/internal/bank"
	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/event"
	"github.com/victornm/grammarquiz/internal/session"
)

type Config struct {
	Bank     *bank.Bank
	Sessions session.Store
	EventBus *event.Bus
	// Rand overrides the shuffling source, for reproducible quizzes in tests.
	Rand       Source
	TopicCount int
	PerTopic   int
}

type Service struct {
	bank       *bank.Bank
	sessions   session.Store
	eb         *event.Bus
	sampler    *Sampler
	topicCount int
	perTopic   int
}

func NewService(c Config) *Service {
	s := &Service{
		bank:       c.Bank,
		sessions:   c.Sessions,
		eb:         c.EventBus,
		sampler:    NewSampler(c.Rand),
		topicCount: c.TopicCount,
		perTopic:   c.PerTopic,
	}

	if s.topicCount <= 0 {
		s.topicCount = DefaultTopicCount
	}
	if s.perTopic <= 0 {
		s.perTopic = DefaultPerTopic
	}

	return s
}

type StartQuizResponse struct {
	SessionID string
	// Questions never carry answer correctness.
	Questions []domain.Question
}

// StartQuiz samples a quiz and opens a session for it.
func (s *Service) StartQuiz(ctx context.Context) (*StartQuizResponse, error) {
	questions := s.sampler.Sample(s.bank, s.topicCount, s.perTopic)
	if want := s.topicCount * s.perTopic; len(questions) < want {
		slog.WarnContext(ctx, "quiz: degraded topic coverage", "questions", len(questions), "want", want)
	}

	ss, err := s.sessions.Create(ctx, questions)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventQuizStarted{
			SessionID: ss.SessionID,
			Questions: len(questions),
		})
	}

	return &StartQuizResponse{
		SessionID: ss.SessionID,
		Questions: ss.PublicQuestions(),
	}, nil
}
