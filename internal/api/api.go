package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/grammarquiz/internal/catalog"
	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/errors"
	"github.com/victornm/grammarquiz/internal/event"
	"github.com/victornm/grammarquiz/internal/quiz"
	"github.com/victornm/grammarquiz/internal/report"
	"github.com/victornm/grammarquiz/internal/score"
	"github.com/victornm/grammarquiz/internal/stats"
)

type Config struct {
	Router   gin.IRouter
	EventBus *event.Bus
	Quiz     *quiz.Service
	Score    *score.Service
	Report   *report.Service
	Stats    *stats.Service
	Catalog  *catalog.Catalog

	// ShareBaseURL is the page study plan links point to.
	ShareBaseURL string

	// Redis publishes topic stats updates; nil disables them.
	Redis        report.Publisher
	PubsubPrefix string
}

type API struct {
	qs *quiz.Service
	ss *score.Service
	rs *report.Service
	ts *stats.Service

	catalog      *catalog.Catalog
	shareBaseURL string

	redis  report.Publisher
	prefix string
}

func New(c Config) *API {
	a := &API{
		qs:           c.Quiz,
		ss:           c.Score,
		rs:           c.Report,
		ts:           c.Stats,
		catalog:      c.Catalog,
		shareBaseURL: c.ShareBaseURL,
		redis:        c.Redis,
		prefix:       c.PubsubPrefix,
	}

	if a.catalog == nil {
		a.catalog = catalog.New()
	}

	// HTTP APIs
	g := c.Router.Group("/api")
	g.POST("/quiz/start", a.StartQuiz)
	g.POST("/quiz/submit", a.SubmitQuiz)
	g.GET("/results/:sessionId", a.GetResults)
	g.GET("/results/:sessionId/study-plan", a.GetStudyPlan)
	g.GET("/study-plan/shared", a.GetSharedStudyPlan)
	g.POST("/reports", a.SubmitReport)
	g.GET("/unsubscribe", a.Unsubscribe)
	g.GET("/stats/topics", a.GetTopicStats)

	// Register event handlers
	if c.EventBus != nil && a.redis != nil {
		c.EventBus.Subscribe(domain.EventNameTopicStats, func(ctx context.Context, e event.Event) error {
			return a.PublishTopicStatsUpdated(ctx, e.(domain.EventTopicStatsUpdated))
		})
	}

	return a
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (a *API) fail(c *gin.Context, err error) {
	e := errors.Convert(err)
	status := e.HTTPStatusCode()

	msg := e.Message
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		if e.Code == errors.CodeInternal {
			msg = http.StatusText(status)
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

func (a *API) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		a.fail(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid request body: %v", err),
			errors.WithCause(err),
		))
		return false
	}
	return true
}
