package report

import (
	"context"
	"time"
)

// Sink stores one attempt and its responses.
type Sink interface {
	Append(ctx context.Context, a AttemptRow, rs []ResponseRow) error
}

// Unsubscribes records the addresses that opted out of reports.
// Addresses compare case-insensitively.
type Unsubscribes interface {
	Unsubscribe(ctx context.Context, email string) error
	IsUnsubscribed(ctx context.Context, email string) (bool, error)
}

// AttemptRow is one row of the attempts table.
type AttemptRow struct {
	AttemptID        string
	Timestamp        time.Time
	StudentName      string
	StudentEmail     string
	StudentPhone     string
	TotalScore       int
	MaxScore         int
	Percentage       int
	DurationSeconds  int
	CEFRLevel        string
	StudyPlanSummary string
	StudyPlanLink    string
}

// ResponseRow is one row of the question responses table.
type ResponseRow struct {
	AttemptID     string
	QuestionID    string
	GrammarTopic  string
	IsCorrect     bool
	StudentAnswer string
	TimeSpentMS   int
}

var (
	attemptHeaders = []string{
		"attempt_id", "timestamp", "student_name", "student_email", "student_phone",
		"total_score", "max_score", "percentage", "duration_seconds", "cefr_level",
		"study_plan_summary", "study_plan_link",
	}

	responseHeaders = []string{
		"attempt_id", "question_id", "grammar_topic", "is_correct", "student_answer", "time_spent_ms",
	}

	unsubscribeHeaders = []string{"email", "timestamp"}
)

// Rows flattens a payload into the stored rows.
func Rows(p Payload, now time.Time) (AttemptRow, []ResponseRow) {
	cefr := p.Score.CEFR
	if cefr == "" {
		cefr = "N/A"
	}

	a := AttemptRow{
		AttemptID:        p.AttemptID,
		Timestamp:        now,
		StudentName:      p.Student.Name,
		StudentEmail:     p.Student.Email,
		StudentPhone:     p.Student.Phone,
		TotalScore:       p.Score.Total,
		MaxScore:         p.Score.Max,
		Percentage:       p.Percentage,
		DurationSeconds:  p.Attempt.Duration,
		CEFRLevel:        cefr,
		StudyPlanSummary: p.StudyPlan,
		StudyPlanLink:    p.StudyPlanLink,
	}

	rs := make([]ResponseRow, 0, len(p.Responses))
	for _, r := range p.Responses {
		rs = append(rs, ResponseRow{
			AttemptID:     p.AttemptID,
			QuestionID:    r.QuestionID,
			GrammarTopic:  r.Topic,
			IsCorrect:     r.Correct,
			StudentAnswer: r.SelectedAnswer,
			TimeSpentMS:   r.TimeSpent,
		})
	}

	return a, rs
}
