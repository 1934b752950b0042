package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/victornm/grammarquiz/internal/analysis"
	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/errors"
	"github.com/victornm/grammarquiz/internal/plan"
	"github.com/victornm/grammarquiz/internal/resource"
	"github.com/victornm/grammarquiz/internal/score"
)

type (
	StudyPlanResponse struct {
		Percentage int    `json:"percentage"`
		Level      int    `json:"level"`
		LevelLabel string `json:"levelLabel"`

		// Suggested is set when there was no weak topic and default topics are shown instead.
		Suggested bool       `json:"suggested"`
		Items     []PlanItem `json:"items"`
		ShareLink string     `json:"shareLink"`
		Summary   string     `json:"summary"`
	}

	PlanItem struct {
		TopicName      string  `json:"topicName"`
		ErrorCount     int     `json:"errorCount"`
		TotalAttempted int     `json:"totalAttempted"`
		Accuracy       float64 `json:"accuracy"`
		BookReference  string  `json:"bookReference"`
		Videos         []Video `json:"videos"`
	}

	Video struct {
		Title      string `json:"title"`
		URL        string `json:"url"`
		Level      int    `json:"level"`
		LevelLabel string `json:"levelLabel"`
	}
)

// GetStudyPlan builds the plan of a scored session. Query parameters:
// limit (weak topics shown, default 3, 0 for all) and level (target video level,
// estimated from the score when absent).
func (a *API) GetStudyPlan(c *gin.Context) {
	limit, err := intQuery(c, "limit", analysis.DisplayLimit)
	if err != nil {
		a.fail(c, err)
		return
	}

	r, err := a.ss.GetResults(c.Request.Context(), score.GetResultsRequest{SessionID: c.Param("sessionId")})
	if err != nil {
		a.fail(c, err)
		return
	}

	level, err := intQuery(c, "level", plan.EstimateLevel(r.Result.Percentage))
	if err != nil {
		a.fail(c, err)
		return
	}

	weak := analysis.IdentifyWeakAreas(r.Result.Answers, limit)
	a.writePlan(c, r.Result.Percentage, level, weak)
}

// GetSharedStudyPlan rebuilds a plan from the topics of a share link. It carries no score.
func (a *API) GetSharedStudyPlan(c *gin.Context) {
	level, err := intQuery(c, "level", plan.SharedLevel)
	if err != nil {
		a.fail(c, err)
		return
	}

	weak := plan.TopicsFromQuery(c.Query(plan.TopicsParam))
	a.writePlan(c, plan.PlaceholderResult(weak).Percentage, level, weak)
}

func (a *API) writePlan(c *gin.Context, percentage, level int, weak []domain.WeakTopic) {
	suggested := false
	if len(weak) == 0 {
		weak = analysis.FromTopicNames(plan.DefaultTopics)
		suggested = true
	}

	p := plan.Build(weak, a.catalog, level, a.shareBaseURL)

	resp := StudyPlanResponse{
		Percentage: percentage,
		Level:      level,
		LevelLabel: resource.LevelLabel(level),
		Suggested:  suggested,
		Items:      make([]PlanItem, 0, len(p.Items)),
		ShareLink:  p.Link,
		Summary:    plan.Summary(p),
	}

	for _, it := range p.Items {
		item := PlanItem{
			TopicName:      it.WeakTopic.TopicName,
			ErrorCount:     it.WeakTopic.ErrorCount,
			TotalAttempted: it.WeakTopic.TotalAttempted,
			Accuracy:       it.WeakTopic.Accuracy,
			BookReference:  it.BookReference,
			Videos:         make([]Video, 0, len(it.Videos)),
		}
		for _, v := range it.Videos {
			item.Videos = append(item.Videos, Video{
				Title:      v.Title,
				URL:        v.URL,
				Level:      v.Level,
				LevelLabel: resource.LevelLabel(v.Level),
			})
		}
		resp.Items = append(resp.Items, item)
	}

	c.JSON(http.StatusOK, resp)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.InvalidArgument("%s must be a non-negative integer: %q", key, v)
	}

	return n, nil
}
