package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/errors"
	"github.com/victornm/grammarquiz/internal/report"
	"github.com/victornm/grammarquiz/internal/stats"
)

type (
	SubmitReportRequest struct {
		SessionID string         `json:"sessionId" binding:"required"`
		Student   report.Student `json:"student"`

		// Duration of the attempt in seconds.
		Duration  int            `json:"duration"`
		TimeSpent map[string]int `json:"timeSpent"`
	}

	SubmitReportResponse struct {
		Status    string `json:"status"`
		AttemptID string `json:"attemptId"`
		Notified  bool   `json:"notified"`
	}

	UnsubscribeResponse struct {
		Email        string `json:"email"`
		Unsubscribed bool   `json:"unsubscribed"`
	}

	TopicStatsResponse struct {
		Topics []domain.TopicStat `json:"topics"`
	}
)

func (a *API) SubmitReport(c *gin.Context) {
	var req SubmitReportRequest
	if !a.bind(c, &req) {
		return
	}

	resp, err := a.rs.Submit(c.Request.Context(), report.SubmitRequest{
		SessionID:       req.SessionID,
		Student:         req.Student,
		DurationSeconds: req.Duration,
		TimeSpentMS:     req.TimeSpent,
	})
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, SubmitReportResponse{
		Status:    "success",
		AttemptID: resp.AttemptID,
		Notified:  resp.Notified,
	})
}

// Unsubscribe opts the email query parameter out of report notifications.
func (a *API) Unsubscribe(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		a.fail(c, errors.InvalidArgument("email is required"))
		return
	}

	if err := a.rs.Unsubscribe(c.Request.Context(), email); err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, UnsubscribeResponse{Email: email, Unsubscribed: true})
}

func (a *API) GetTopicStats(c *gin.Context) {
	if a.ts == nil {
		a.fail(c, errors.New(errors.CodeUnavailable, errors.WithMessagef("topic stats are not enabled")))
		return
	}

	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		a.fail(c, err)
		return
	}

	st, err := a.ts.GetTopicStats(c.Request.Context(), stats.GetTopicStatsRequest{Limit: limit})
	if err != nil {
		a.fail(c, errors.Unavailable(err, "get topic stats failed"))
		return
	}

	c.JSON(http.StatusOK, TopicStatsResponse{Topics: st})
}
