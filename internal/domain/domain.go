package domain

import (
	"time"
)

// Question is a single multiple-choice item of the question bank.
// Exactly one of its answers is correct.
type Question struct {
	QuestionID   string            `json:"id"`
	TopicNumber  int               `json:"topic_number"`
	GrammarTopic string            `json:"grammar_topic"`
	Content      string            `json:"content"`
	Answers      []Answer          `json:"answers"`
	Explanations map[string]string `json:"explanations,omitempty"`
}

type Answer struct {
	AnswerID  string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

// CorrectAnswer returns the answer flagged as correct.
func (q Question) CorrectAnswer() (Answer, bool) {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return a, true
		}
	}
	return Answer{}, false
}

// AnswerByID looks up an answer of the question.
func (q Question) AnswerByID(id string) (Answer, bool) {
	for _, a := range q.Answers {
		if a.AnswerID == id {
			return a, true
		}
	}
	return Answer{}, false
}

// Explanation returns the explanation in lang, falling back to English.
func (q Question) Explanation(lang string) (string, bool) {
	if e, ok := q.Explanations[lang]; ok && e != "" {
		return e, true
	}
	e, ok := q.Explanations["en"]
	return e, ok && e != ""
}

// Public returns a copy of the question that does not reveal the correct answer.
func (q Question) Public() Question {
	p := q
	p.Answers = make([]Answer, len(q.Answers))
	for i, a := range q.Answers {
		p.Answers[i] = Answer{AnswerID: a.AnswerID, Text: a.Text}
	}
	p.Explanations = nil
	return p
}

// Session represents a quiz attempt: the sampled questions and, once scored, its result.
type Session struct {
	SessionID  string     `json:"session_id"`
	Questions  []Question `json:"questions"`
	CreateTime time.Time  `json:"create_time"`
	Result     *Result    `json:"result,omitempty"`
}

// Question looks up a sampled question by id.
func (s *Session) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.QuestionID == id {
			return q, true
		}
	}
	return Question{}, false
}

// PublicQuestions returns the session questions with answer correctness stripped.
func (s *Session) PublicQuestions() []Question {
	qs := make([]Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		qs = append(qs, q.Public())
	}
	return qs
}

type Submission struct {
	QuestionID       string `json:"question_id"`
	SelectedAnswerID string `json:"selected_answer_id"`
}

type ScoredAnswer struct {
	QuestionID       string `json:"question_id"`
	GrammarTopic     string `json:"grammar_topic"`
	TopicNumber      int    `json:"topic_number"`
	IsCorrect        bool   `json:"is_correct"`
	SelectedAnswerID string `json:"selected_answer_id"`
}

// Result is the graded outcome of a session.
type Result struct {
	Score          int            `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Percentage     int            `json:"percentage"`
	Answers        []ScoredAnswer `json:"answers"`
}

// WeakTopic is a grammar topic with at least one mistake.
type WeakTopic struct {
	TopicName      string  `json:"topic_name"`
	ErrorCount     int     `json:"error_count"`
	TotalAttempted int     `json:"total_attempted"`
	Accuracy       float64 `json:"accuracy"`
}

type VideoResource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Level int    `json:"level"`
}

// ResourceEntry holds the study resources of one grammar topic.
type ResourceEntry struct {
	TopicName   string          `json:"topic_name"`
	BookDetails string          `json:"book_details"`
	Videos      []VideoResource `json:"videos"`
}

// StudyPlan is the ranked list of weak topics with their resources.
type StudyPlan struct {
	Items []PlanItem `json:"items"`
	Link  string     `json:"link"`
}

type PlanItem struct {
	WeakTopic     WeakTopic       `json:"weak_topic"`
	BookReference string          `json:"book_reference"`
	Videos        []VideoResource `json:"videos"`
}

// TopicStat aggregates the answers given on one grammar topic across all scored attempts.
type TopicStat struct {
	TopicName      string `json:"topic_name"`
	ErrorCount     int64  `json:"error_count"`
	TotalAttempted int64  `json:"total_attempted"`
}
