// Package banktest builds deterministic question fixtures for tests.
package banktest

import (
	"fmt"

	"github.com/victornm/grammarquiz/internal/domain"
)

// TopicName is the grammar topic label used for topic number n.
func TopicName(n int) string {
	return fmt.Sprintf("Topic %d", n)
}

// QuestionID is the id of the i-th question (0-based) of topic n.
func QuestionID(n, i int) string {
	return fmt.Sprintf("q-%d-%d", n, i)
}

// CorrectAnswerID is the id of the correct answer of every generated question.
const CorrectAnswerID = "a"

// WrongAnswerID is the id of an incorrect answer of every generated question.
const WrongAnswerID = "b"

// Questions returns perTopic questions for each topic 1..topics.
// Answer "a" is always the correct one.
func Questions(topics, perTopic int) []domain.Question {
	var qs []domain.Question
	for n := 1; n <= topics; n++ {
		qs = append(qs, TopicQuestions(n, perTopic)...)
	}
	return qs
}

// TopicQuestions returns count questions for topic n.
func TopicQuestions(n, count int) []domain.Question {
	qs := make([]domain.Question, 0, count)
	for i := 0; i < count; i++ {
		qs = append(qs, domain.Question{
			QuestionID:   QuestionID(n, i),
			TopicNumber:  n,
			GrammarTopic: TopicName(n),
			Content:      fmt.Sprintf("Question %d of topic %d", i, n),
			Answers: []domain.Answer{
				{AnswerID: CorrectAnswerID, Text: "right", IsCorrect: true},
				{AnswerID: WrongAnswerID, Text: "wrong"},
				{AnswerID: "c", Text: "also wrong"},
			},
			Explanations: map[string]string{"en": "Because it is right."},
		})
	}
	return qs
}
