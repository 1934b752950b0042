package domain

const (
	EventNameQuizStarted     = "quiz.started"
	EventNameResultScored    = "result.scored"
	EventNameReportSubmitted = "report.submitted"
	EventNameTopicStats      = "topic_stats.updated"
)

type EventQuizStarted struct {
	SessionID string
	Questions int
}

func (EventQuizStarted) Name() string { return EventNameQuizStarted }

type EventResultScored struct {
	SessionID string
	Result    Result
}

func (EventResultScored) Name() string { return EventNameResultScored }

type EventReportSubmitted struct {
	AttemptID  string
	WeakTopics []string
	Notified   bool
}

func (EventReportSubmitted) Name() string { return EventNameReportSubmitted }

type EventTopicStatsUpdated struct {
	Stats []TopicStat
}

func (EventTopicStatsUpdated) Name() string { return EventNameTopicStats }
