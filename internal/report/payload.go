// Package report assembles the attempt report of a scored session and hands
// it to the storage sink and the notifier under a single critical section.
package report

import (
	"github.com/victornm/grammarquiz/internal/analysis"
	"github.com/victornm/grammarquiz/internal/catalog"
	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/plan"
)

const (
	PriorityHigh   = "High Priority"
	PriorityMedium = "Medium Priority"

	// SecondsPerQuestion is the assumed attempt duration per question when the client reports none.
	SecondsPerQuestion = 15
	// DefaultTimeSpentMS is the assumed time spent on a question when the client reports none.
	DefaultTimeSpentMS = 10000
)

type (
	// Payload is the outbound report of one attempt.
	Payload struct {
		AttemptID     string      `json:"attemptId"`
		Student       Student     `json:"student"`
		Score         Score       `json:"score"`
		Attempt       Attempt     `json:"attempt"`
		WeakTopics    []WeakTopic `json:"weakTopics"`
		Responses     []Response  `json:"responses"`
		StudyPlan     string      `json:"studyPlan"`
		StudyPlanLink string      `json:"studyPlanLink"`

		// Percentage and Plan feed the stored rows and are not part of the wire payload.
		Percentage int              `json:"-"`
		Plan       domain.StudyPlan `json:"-"`
	}

	Score struct {
		Total int    `json:"total"`
		Max   int    `json:"max"`
		CEFR  string `json:"cefr"`
	}

	Attempt struct {
		// Duration is in seconds.
		Duration int `json:"duration"`
	}

	WeakTopic struct {
		Name          string `json:"name"`
		Priority      string `json:"priority"`
		BookReference string `json:"bookReference"`
		Video         *Video `json:"video"`
	}

	Video struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}

	Response struct {
		QuestionID     string `json:"questionId"`
		Topic          string `json:"topic"`
		Correct        bool   `json:"correct"`
		SelectedAnswer string `json:"selectedAnswer"`
		TimeSpent      int    `json:"timeSpent"`
	}
)

// BuildRequest carries everything needed to assemble a payload.
type BuildRequest struct {
	AttemptID string
	Student   Student
	Session   *domain.Session
	Catalog   *catalog.Catalog

	ShareBaseURL string
	// DurationSeconds of zero falls back to SecondsPerQuestion per question.
	DurationSeconds int
	// TimeSpentMS by question id; missing entries fall back to DefaultTimeSpentMS.
	TimeSpentMS map[string]int
}

// BuildPayload assembles the report of a scored session. The session must carry a result.
func BuildPayload(req BuildRequest) Payload {
	r := req.Session.Result

	weak := analysis.IdentifyWeakAreas(r.Answers, analysis.ReportLimit)
	p := plan.Build(weak, req.Catalog, plan.EstimateLevel(r.Percentage), req.ShareBaseURL)

	duration := req.DurationSeconds
	if duration <= 0 {
		duration = r.TotalQuestions * SecondsPerQuestion
	}

	out := Payload{
		AttemptID: req.AttemptID,
		Student:   req.Student,
		Score: Score{
			Total: r.Score,
			Max:   r.TotalQuestions,
			CEFR:  EstimateCEFR(r.Percentage),
		},
		Attempt:       Attempt{Duration: duration},
		WeakTopics:    make([]WeakTopic, 0, len(p.Items)),
		Responses:     make([]Response, 0, len(r.Answers)),
		StudyPlan:     plan.Summary(p),
		StudyPlanLink: p.Link,
		Percentage:    r.Percentage,
		Plan:          p,
	}

	for i, it := range p.Items {
		wt := WeakTopic{
			Name:          it.WeakTopic.TopicName,
			Priority:      Priority(i),
			BookReference: it.BookReference,
		}
		if len(it.Videos) > 0 {
			wt.Video = &Video{Title: it.Videos[0].Title, URL: it.Videos[0].URL}
		}
		out.WeakTopics = append(out.WeakTopics, wt)
	}

	for _, a := range r.Answers {
		resp := Response{
			QuestionID: a.QuestionID,
			Topic:      a.GrammarTopic,
			Correct:    a.IsCorrect,
			TimeSpent:  DefaultTimeSpentMS,
		}
		if q, ok := req.Session.Question(a.QuestionID); ok {
			if sel, ok := q.AnswerByID(a.SelectedAnswerID); ok {
				resp.SelectedAnswer = sel.Text
			}
		}
		if ms, ok := req.TimeSpentMS[a.QuestionID]; ok && ms > 0 {
			resp.TimeSpent = ms
		}
		out.Responses = append(out.Responses, resp)
	}

	return out
}

// EstimateCEFR is the coarse level reported with a score: above 80% B2, above 50% B1, else A2.
func EstimateCEFR(percentage int) string {
	switch {
	case percentage > 80:
		return "B2"
	case percentage > 50:
		return "B1"
	default:
		return "A2"
	}
}

// Priority labels a weak topic by its zero-based rank.
func Priority(rank int) string {
	if rank == 0 {
		return PriorityHigh
	}
	return PriorityMedium
}
