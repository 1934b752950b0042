package bank

import (
	"github.com/victornm/grammarquiz/internal/dataset"
	"github.com/victornm/grammarquiz/internal/domain"
)

// questionRecord is the on-disk shape of a question.
type questionRecord struct {
	ID           string              `json:"id"`
	TopicNumber  int                 `json:"topicNumber"`
	GrammarTopic string              `json:"grammarTopic"`
	ContentEn    string              `json:"contentEn"`
	Answers      []answerRecord      `json:"answers"`
	Explanations []explanationRecord `json:"explanations"`
}

type answerRecord struct {
	ID        string `json:"id"`
	TextEn    string `json:"textEn"`
	IsCorrect bool   `json:"isCorrect"`
}

type explanationRecord struct {
	LanguageCode    string `json:"languageCode"`
	ExplanationText string `json:"explanationText"`
}

func (r questionRecord) toDomain() domain.Question {
	q := domain.Question{
		QuestionID:   r.ID,
		TopicNumber:  r.TopicNumber,
		GrammarTopic: r.GrammarTopic,
		Content:      r.ContentEn,
		Answers:      make([]domain.Answer, 0, len(r.Answers)),
	}

	for _, a := range r.Answers {
		q.Answers = append(q.Answers, domain.Answer{
			AnswerID:  a.ID,
			Text:      a.TextEn,
			IsCorrect: a.IsCorrect,
		})
	}

	if len(r.Explanations) > 0 {
		q.Explanations = make(map[string]string, len(r.Explanations))
		for _, e := range r.Explanations {
			q.Explanations[e.LanguageCode] = e.ExplanationText
		}
	}

	return q
}

var schema = dataset.Schema{
	Name: "question-bank",
	Definition: `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "topicNumber", "grammarTopic", "contentEn", "answers"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"topicNumber": {"type": "integer", "minimum": 0},
			"grammarTopic": {"type": "string", "minLength": 1},
			"contentEn": {"type": "string"},
			"answers": {
				"type": "array",
				"minItems": 2,
				"items": {
					"type": "object",
					"required": ["id", "textEn"],
					"properties": {
						"id": {"type": "string", "minLength": 1},
						"textEn": {"type": "string"},
						"isCorrect": {"type": "boolean"}
					}
				}
			},
			"explanations": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["languageCode", "explanationText"],
					"properties": {
						"languageCode": {"type": "string"},
						"explanationText": {"type": "string"}
					}
				}
			}
		}
	}
}`,
}
