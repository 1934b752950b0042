package bank_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/grammarquiz/internal/bank"
	"github.com/victornm/grammarquiz/internal/bank/banktest"
	"github.com/victornm/grammarquiz/internal/domain"
)

func TestNew(t *testing.T) {
	b, err := bank.New(banktest.Questions(3, 2))
	require.NoError(t, err)

	assert.Equal(t, 6, b.Len())
	assert.Equal(t, []int{1, 2, 3}, b.Topics())
	assert.Len(t, b.Topic(2), 2)
	assert.Empty(t, b.Topic(99))

	q, ok := b.Question(banktest.QuestionID(3, 1))
	require.True(t, ok)
	assert.Equal(t, banktest.TopicName(3), q.GrammarTopic)
}

func TestNew_Invalid(t *testing.T) {
	noCorrect := banktest.TopicQuestions(1, 1)
	noCorrect[0].Answers[0].IsCorrect = false

	twoCorrect := banktest.TopicQuestions(1, 1)
	twoCorrect[0].Answers[1].IsCorrect = true

	dup := append(banktest.TopicQuestions(1, 1), banktest.TopicQuestions(1, 1)...)

	tests := map[string][]domain.Question{
		"no correct answer":   noCorrect,
		"two correct answers": twoCorrect,
		"duplicate id":        dup,
		"empty id":            {{TopicNumber: 1, Answers: []domain.Answer{{AnswerID: "a", IsCorrect: true}}}},
	}

	for name, qs := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := bank.New(qs)
			require.Error(t, err)
		})
	}
}

func TestBank_IsImmutable(t *testing.T) {
	b, err := bank.New(banktest.Questions(1, 2))
	require.NoError(t, err)

	qs := b.Topic(1)
	qs[0].Answers[0].IsCorrect = false
	qs[0].GrammarTopic = "changed"

	again := b.Topic(1)
	assert.True(t, again[0].Answers[0].IsCorrect)
	assert.Equal(t, banktest.TopicName(1), again[0].GrammarTopic)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "questions.json")
		require.NoError(t, os.WriteFile(path, []byte(`[
			{
				"id": "q1",
				"topicNumber": 1,
				"grammarTopic": "Present tenses",
				"contentEn": "She ___ to school every day.",
				"answers": [
					{"id": "a1", "textEn": "goes", "isCorrect": true},
					{"id": "a2", "textEn": "go"}
				],
				"explanations": [
					{"languageCode": "en", "explanationText": "Third person singular takes -es."},
					{"languageCode": "vi", "explanationText": "Ngôi thứ ba số ít."}
				]
			}
		]`), 0o644))

		b, err := bank.Load(path)
		require.NoError(t, err)

		q, ok := b.Question("q1")
		require.True(t, ok)
		assert.Equal(t, "Present tenses", q.GrammarTopic)
		assert.Equal(t, "She ___ to school every day.", q.Content)
		c, ok := q.CorrectAnswer()
		require.True(t, ok)
		assert.Equal(t, "a1", c.AnswerID)

		e, ok := q.Explanation("vi")
		require.True(t, ok)
		assert.Equal(t, "Ngôi thứ ba số ít.", e)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "questions.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
- id: q1
  topicNumber: 2
  grammarTopic: Past tenses 1
  contentEn: I ___ him yesterday.
  answers:
    - id: a1
      textEn: saw
      isCorrect: true
    - id: a2
      textEn: see
`), 0o644))

		b, err := bank.Load(path)
		require.NoError(t, err)
		assert.Equal(t, []int{2}, b.Topics())
	})

	t.Run("schema violation fails fast", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"id": "q1", "topicNumber": "one"}]`), 0o644))

		_, err := bank.Load(path)
		require.Error(t, err)
	})

	t.Run("invariant violation fails fast", func(t *testing.T) {
		path := filepath.Join(dir, "nocorrect.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{
			"id": "q1", "topicNumber": 1, "grammarTopic": "T", "contentEn": "?",
			"answers": [{"id": "a1", "textEn": "x"}, {"id": "a2", "textEn": "y"}]
		}]`), 0o644))

		_, err := bank.Load(path)
		require.Error(t, err)
	})
}
