// Package bank holds the read-only question bank, grouped by topic number.
package bank

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/victornm/grammarquiz/internal/dataset"
	"github.com/victornm/grammarquiz/internal/domain"
)

// Bank is an immutable catalog of questions. It is safe for concurrent use.
type Bank struct {
	questions []domain.Question
	byTopic   map[int][]domain.Question
	byID      map[string]domain.Question
}

// New builds a bank, rejecting duplicate ids and questions without exactly one correct answer.
func New(questions []domain.Question) (*Bank, error) {
	b := &Bank{
		questions: make([]domain.Question, 0, len(questions)),
		byTopic:   make(map[int][]domain.Question),
		byID:      make(map[string]domain.Question, len(questions)),
	}

	for _, q := range questions {
		if q.QuestionID == "" {
			return nil, fmt.Errorf("bank: question without id in topic %d", q.TopicNumber)
		}
		if _, ok := b.byID[q.QuestionID]; ok {
			return nil, fmt.Errorf("bank: duplicate question id %q", q.QuestionID)
		}

		correct := 0
		for _, a := range q.Answers {
			if a.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return nil, fmt.Errorf("bank: question %q has %d correct answers, want 1", q.QuestionID, correct)
		}

		q = clone(q)
		b.questions = append(b.questions, q)
		b.byTopic[q.TopicNumber] = append(b.byTopic[q.TopicNumber], q)
		b.byID[q.QuestionID] = q
	}

	return b, nil
}

// Load reads a question bank file (JSON or YAML) and validates it.
func Load(path string) (*Bank, error) {
	var records []questionRecord
	if err := dataset.LoadFile(path, schema, &records); err != nil {
		return nil, fmt.Errorf("bank: %w", err)
	}

	questions := make([]domain.Question, 0, len(records))
	for _, r := range records {
		questions = append(questions, r.toDomain())
	}

	b, err := New(questions)
	if err != nil {
		return nil, err
	}

	slog.Info("bank: question bank loaded", "path", path, "questions", b.Len(), "topics", len(b.byTopic))
	return b, nil
}

// Topic returns a copy of the questions of a topic, in bank order.
func (b *Bank) Topic(number int) []domain.Question {
	qs := b.byTopic[number]
	out := make([]domain.Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, clone(q))
	}
	return out
}

// Question looks up a question by id.
func (b *Bank) Question(id string) (domain.Question, bool) {
	q, ok := b.byID[id]
	if !ok {
		return domain.Question{}, false
	}
	return clone(q), true
}

// Topics returns the topic numbers present in the bank, ascending.
func (b *Bank) Topics() []int {
	ns := make([]int, 0, len(b.byTopic))
	for n := range b.byTopic {
		ns = append(ns, n)
	}
	slices.Sort(ns)
	return ns
}

func (b *Bank) Len() int {
	return len(b.questions)
}

func clone(q domain.Question) domain.Question {
	q.Answers = slices.Clone(q.Answers)
	if q.Explanations != nil {
		ex := make(map[string]string, len(q.Explanations))
		for k, v := range q.Explanations {
			ex[k] = v
		}
		q.Explanations = ex
	}
	return q
}
