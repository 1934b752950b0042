package telemetry

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/victornm/grammarquiz/internal/analysis"
	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/event"
)

const namespace = "grammarquiz"

// Metrics counts quiz activity from the events published on the bus.
type Metrics struct {
	quizzesStarted  prometheus.Counter
	questionsServed prometheus.Histogram
	resultsScored   prometheus.Counter
	percentage      prometheus.Histogram
	weakTopics      *prometheus.CounterVec
	reports         *prometheus.CounterVec
	handlerFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		quizzesStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quizzes_started_total",
			Help:      "Number of quiz sessions started.",
		}),
		questionsServed: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quiz_questions",
			Help:      "Number of questions served per quiz; below the target means degraded coverage.",
			Buckets:   []float64{10, 20, 30, 40, 45, 48, 50},
		}),
		resultsScored: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_scored_total",
			Help:      "Number of submissions scored.",
		}),
		percentage: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "result_percentage",
			Help:      "Distribution of scored percentages.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		weakTopics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weak_topics_total",
			Help:      "Times a grammar topic ranked among the displayed weak topics.",
		}, []string{"topic"}),
		reports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Number of reports stored, by whether the student was notified.",
		}, []string{"notified"}),
		handlerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_handler_failures_total",
			Help:      "Number of event handlers that returned an error or panicked.",
		}, []string{"event"}),
	}
}

// HandlerFailed counts a failed event handler. Pass it to event.WithFailureHandler.
func (m *Metrics) HandlerFailed(_ context.Context, e event.Event, _ error) {
	m.handlerFailures.WithLabelValues(e.Name()).Inc()
}

// Subscribe wires the metrics to the bus.
func (m *Metrics) Subscribe(eb *event.Bus) {
	eb.Subscribe(domain.EventNameQuizStarted, func(_ context.Context, e event.Event) error {
		ev := e.(domain.EventQuizStarted)
		m.quizzesStarted.Inc()
		m.questionsServed.Observe(float64(ev.Questions))
		return nil
	})

	eb.Subscribe(domain.EventNameResultScored, func(_ context.Context, e event.Event) error {
		ev := e.(domain.EventResultScored)
		m.resultsScored.Inc()
		m.percentage.Observe(float64(ev.Result.Percentage))
		for _, wt := range analysis.IdentifyWeakAreas(ev.Result.Answers, analysis.DisplayLimit) {
			m.weakTopics.WithLabelValues(wt.TopicName).Inc()
		}
		return nil
	})

	eb.Subscribe(domain.EventNameReportSubmitted, func(_ context.Context, e event.Event) error {
		ev := e.(domain.EventReportSubmitted)
		m.reports.WithLabelValues(strconv.FormatBool(ev.Notified)).Inc()
		return nil
	})
}
