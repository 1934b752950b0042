package score_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/grammarquiz/internal/analysis"
	"github.com/victornm/grammarquiz/internal/bank/banktest"
	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/errors"
	"github.com/victornm/grammarquiz/internal/event"
	"github.com/victornm/grammarquiz/internal/score"
	"github.com/victornm/grammarquiz/internal/session"
)

func submit(topic, index int, correct bool) domain.Submission {
	sel := banktest.WrongAnswerID
	if correct {
		sel = banktest.CorrectAnswerID
	}
	return domain.Submission{QuestionID: banktest.QuestionID(topic, index), SelectedAnswerID: sel}
}

func TestService_Score(t *testing.T) {
	type outputs struct {
		result *domain.Result
		stored *domain.Session
	}

	tests := map[string]struct {
		submissions []domain.Submission
		assert      func(t *testing.T, out outputs)
	}{
		"three topics at 0/2, 1/2 and 2/2 should score 50%": {
			submissions: []domain.Submission{
				submit(1, 0, false), submit(1, 1, false),
				submit(2, 0, true), submit(2, 1, false),
				submit(3, 0, true), submit(3, 1, true),
			},
			assert: func(t *testing.T, out outputs) {
				assert.Equal(t, 3, out.result.Score)
				assert.Equal(t, 6, out.result.TotalQuestions)
				assert.Equal(t, 50, out.result.Percentage)
				require.Len(t, out.result.Answers, 6)
				assert.Equal(t, domain.ScoredAnswer{
					QuestionID:       banktest.QuestionID(2, 0),
					GrammarTopic:     banktest.TopicName(2),
					TopicNumber:      2,
					IsCorrect:        true,
					SelectedAnswerID: banktest.CorrectAnswerID,
				}, out.result.Answers[2])

				weak := analysis.IdentifyWeakAreas(out.result.Answers, analysis.DisplayLimit)
				assert.Equal(t, []domain.WeakTopic{
					{TopicName: banktest.TopicName(1), ErrorCount: 2, TotalAttempted: 2, Accuracy: 0},
					{TopicName: banktest.TopicName(2), ErrorCount: 1, TotalAttempted: 2, Accuracy: 0.5},
				}, weak)

				assert.Equal(t, out.result, out.stored.Result)
			},
		},

		"unknown questions should be skipped and not counted": {
			submissions: []domain.Submission{
				submit(1, 0, true),
				{QuestionID: "not-in-session", SelectedAnswerID: "a"},
				submit(9, 0, true),
			},
			assert: func(t *testing.T, out outputs) {
				assert.Equal(t, 1, out.result.Score)
				assert.Equal(t, 1, out.result.TotalQuestions)
				assert.Equal(t, 100, out.result.Percentage)
			},
		},

		"partial submissions are graded against what was submitted": {
			submissions: []domain.Submission{
				submit(1, 0, true), submit(2, 0, false), submit(3, 0, false),
			},
			assert: func(t *testing.T, out outputs) {
				assert.Equal(t, 1, out.result.Score)
				assert.Equal(t, 3, out.result.TotalQuestions)
				assert.Equal(t, 33, out.result.Percentage)
			},
		},

		"no matched submissions should yield 0%": {
			submissions: []domain.Submission{{QuestionID: "nope", SelectedAnswerID: "a"}},
			assert: func(t *testing.T, out outputs) {
				assert.Equal(t, 0, out.result.TotalQuestions)
				assert.Equal(t, 0, out.result.Percentage)
				assert.Empty(t, out.result.Answers)
			},
		},

		"unknown answer ids are incorrect": {
			submissions: []domain.Submission{{QuestionID: banktest.QuestionID(1, 0), SelectedAnswerID: "zzz"}},
			assert: func(t *testing.T, out outputs) {
				assert.Equal(t, 0, out.result.Score)
				assert.Equal(t, 1, out.result.TotalQuestions)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := session.NewMemoryStore()
			ss, err := store.Create(ctx, banktest.Questions(3, 2))
			require.NoError(t, err)

			s := score.NewService(score.Config{Sessions: store})

			r, err := s.Score(ctx, score.ScoreRequest{SessionID: ss.SessionID, Submissions: tt.submissions})
			require.NoError(t, err)

			stored, err := store.Get(ctx, ss.SessionID)
			require.NoError(t, err)

			tt.assert(t, outputs{result: r, stored: stored})
		})
	}
}

func TestService_Score_DeterministicAndLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	ss, err := store.Create(ctx, banktest.Questions(2, 2))
	require.NoError(t, err)

	eb := event.NewBus()
	var (
		mu     sync.Mutex
		events []domain.EventResultScored
	)
	eb.Subscribe(domain.EventNameResultScored, func(_ context.Context, e event.Event) error {
		mu.Lock()
		events = append(events, e.(domain.EventResultScored))
		mu.Unlock()
		return nil
	})

	s := score.NewService(score.Config{Sessions: store, EventBus: eb})
	req := score.ScoreRequest{SessionID: ss.SessionID, Submissions: []domain.Submission{submit(1, 0, true), submit(2, 1, false)}}

	first, err := s.Score(ctx, req)
	require.NoError(t, err)
	second, err := s.Score(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first, second)

	_, err = s.Score(ctx, score.ScoreRequest{SessionID: ss.SessionID, Submissions: []domain.Submission{submit(1, 0, true)}})
	require.NoError(t, err)

	stored, err := store.Get(ctx, ss.SessionID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.Result.TotalQuestions)

	eb.Stop()
	require.Len(t, events, 3)
}

func TestService_Score_UnknownSession(t *testing.T) {
	s := score.NewService(score.Config{Sessions: session.NewMemoryStore()})

	_, err := s.Score(context.Background(), score.ScoreRequest{SessionID: "missing"})
	require.True(t, errors.Is(err, errors.CodeNotFound), "got %v", err)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{3, 6, 50},
		{1, 8, 13},
		{2, 3, 67},
		{1, 3, 33},
		{0, 5, 0},
		{5, 5, 100},
		{38, 50, 76},
		{0, 0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, score.Percentage(tt.score, tt.total), "%d/%d", tt.score, tt.total)
	}
}

func TestService_GetResults(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	questions := banktest.Questions(1, 2)
	questions[1].Explanations = map[string]string{"en": "English", "vi": "Tiếng Việt"}
	questions[0].Explanations = nil

	ss, err := store.Create(ctx, questions)
	require.NoError(t, err)

	s := score.NewService(score.Config{Sessions: store})

	_, err = s.GetResults(ctx, score.GetResultsRequest{SessionID: ss.SessionID})
	require.True(t, errors.Is(err, errors.CodeNotFound), "no result yet")

	_, err = s.Score(ctx, score.ScoreRequest{SessionID: ss.SessionID, Submissions: []domain.Submission{
		submit(1, 0, false), submit(1, 1, true),
	}})
	require.NoError(t, err)

	resp, err := s.GetResults(ctx, score.GetResultsRequest{SessionID: ss.SessionID, Language: "vi"})
	require.NoError(t, err)
	require.Equal(t, 50, resp.Result.Percentage)
	require.Len(t, resp.Questions, 2)

	assert.Equal(t, score.QuestionReview{
		QuestionID:    banktest.QuestionID(1, 0),
		QuestionText:  questions[0].Content,
		UserAnswer:    "wrong",
		CorrectAnswer: "right",
		Explanation:   "Explanation not available.",
		GrammarTopic:  banktest.TopicName(1),
		TopicNumber:   1,
	}, resp.Questions[0])
	assert.Equal(t, "Tiếng Việt", resp.Questions[1].Explanation)

	resp, err = s.GetResults(ctx, score.GetResultsRequest{SessionID: ss.SessionID, Language: "zh"})
	require.NoError(t, err)
	assert.Equal(t, "English", resp.Questions[1].Explanation, "unknown language falls back to English")
}
