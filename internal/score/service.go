package score

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/event"
	"github.com/victornm/grammarquiz/internal/session"
)

type Config struct {
	Sessions session.Store
	EventBus *event.Bus
}

type Service struct {
	sessions session.Store
	eb       *event.Bus
}

func NewService(c Config) *Service {
	return &Service{
		sessions: c.Sessions,
		eb:       c.EventBus,
	}
}

type ScoreRequest struct {
	SessionID   string
	Submissions []domain.Submission
}

// Score grades the submissions against the session's questions and stores the
// result on the session, replacing any earlier result.
func (s *Service) Score(ctx context.Context, req ScoreRequest) (*domain.Result, error) {
	ss, err := s.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	r := Grade(ss, req.Submissions)

	if err := s.sessions.AttachResult(ctx, req.SessionID, r); err != nil {
		return nil, fmt.Errorf("attach result: %w", err)
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventResultScored{
			SessionID: req.SessionID,
			Result:    r,
		})
	}

	return &r, nil
}

// Grade scores submissions against the session questions. Submissions for
// questions outside the session are skipped and do not count towards the total.
func Grade(ss *domain.Session, submissions []domain.Submission) domain.Result {
	r := domain.Result{
		Answers: make([]domain.ScoredAnswer, 0, len(submissions)),
	}

	for _, sub := range submissions {
		q, ok := ss.Question(sub.QuestionID)
		if !ok {
			continue
		}

		correct, _ := q.CorrectAnswer()
		a := domain.ScoredAnswer{
			QuestionID:       q.QuestionID,
			GrammarTopic:     q.GrammarTopic,
			TopicNumber:      q.TopicNumber,
			IsCorrect:        correct.AnswerID != "" && correct.AnswerID == sub.SelectedAnswerID,
			SelectedAnswerID: sub.SelectedAnswerID,
		}
		if a.IsCorrect {
			r.Score++
		}

		r.Answers = append(r.Answers, a)
	}

	r.TotalQuestions = len(r.Answers)
	r.Percentage = Percentage(r.Score, r.TotalQuestions)
	return r
}

// Percentage returns score/total as a whole percentage, rounding halves up.
// A zero total yields 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}

	p := decimal.NewFromInt(int64(score)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0)

	return int(p.IntPart())
}
