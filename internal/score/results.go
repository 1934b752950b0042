package score

import (
	"context"

	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/errors"
)

const explanationUnavailable = "Explanation not available."

type GetResultsRequest struct {
	SessionID string
	// Language selects the explanation language, falling back to English.
	Language string
}

type GetResultsResponse struct {
	Result    domain.Result
	Questions []QuestionReview
}

// QuestionReview is one graded question as shown on the results page.
type QuestionReview struct {
	QuestionID    string
	QuestionText  string
	UserAnswer    string
	CorrectAnswer string
	IsCorrect     bool
	Explanation   string
	GrammarTopic  string
	TopicNumber   int
}

// GetResults returns the stored result of a session with a per-question review.
func (s *Service) GetResults(ctx context.Context, req GetResultsRequest) (*GetResultsResponse, error) {
	ss, err := s.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if ss.Result == nil {
		return nil, errors.NotFound("session has no result yet: %s", req.SessionID)
	}

	lang := req.Language
	if lang == "" {
		lang = "en"
	}

	resp := &GetResultsResponse{
		Result:    *ss.Result,
		Questions: make([]QuestionReview, 0, len(ss.Result.Answers)),
	}

	for _, a := range ss.Result.Answers {
		q, ok := ss.Question(a.QuestionID)
		if !ok {
			continue
		}

		rv := QuestionReview{
			QuestionID:   q.QuestionID,
			QuestionText: q.Content,
			IsCorrect:    a.IsCorrect,
			Explanation:  explanationUnavailable,
			GrammarTopic: q.GrammarTopic,
			TopicNumber:  q.TopicNumber,
		}
		if ua, ok := q.AnswerByID(a.SelectedAnswerID); ok {
			rv.UserAnswer = ua.Text
		}
		if ca, ok := q.CorrectAnswer(); ok {
			rv.CorrectAnswer = ca.Text
		}
		if e, ok := q.Explanation(lang); ok {
			rv.Explanation = e
		}

		resp.Questions = append(resp.Questions, rv)
	}

	return resp, nil
}
