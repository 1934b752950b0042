// Package plan turns ranked weak topics into a study plan with a shareable link.
package plan

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/victornm/grammarquiz/internal/analysis"
	"github.com/victornm/grammarquiz/internal/catalog"
	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/errors"
	"github.com/victornm/grammarquiz/internal/resource"
)

const (
	// TopicsParam is the query parameter carrying the comma-separated topic names.
	TopicsParam = "topics"
	// SharedLevel is the target level used when a plan is rebuilt from a link, which carries no score.
	SharedLevel = 3

	noVideo = "N/A"
)

// DefaultTopics are suggested when a result has no weak topic to show.
var DefaultTopics = []string{"Present tenses", "Past tenses 1", "Future 1"}

// Build matches resources for each weak topic, keeping the given ranking,
// and attaches a share link built on shareBaseURL.
func Build(weak []domain.WeakTopic, c *catalog.Catalog, level int, shareBaseURL string) domain.StudyPlan {
	p := domain.StudyPlan{
		Items: make([]domain.PlanItem, 0, len(weak)),
		Link:  ShareLink(shareBaseURL, weak),
	}

	for _, w := range weak {
		m := resource.MatchResources(c, w.TopicName, level)
		p.Items = append(p.Items, domain.PlanItem{
			WeakTopic:     w,
			BookReference: m.BookReference,
			Videos:        m.Videos,
		})
	}

	return p
}

// ShareLink appends the weak topic names to base as a percent-encoded, comma-joined topics parameter.
func ShareLink(base string, weak []domain.WeakTopic) string {
	names := make([]string, 0, len(weak))
	for _, w := range weak {
		names = append(names, w.TopicName)
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}

	return base + sep + TopicsParam + "=" + encodeComponent(strings.Join(names, ","))
}

// encodeComponent escapes s for use as a query value with spaces as %20.
// QueryEscape turns a literal '+' into %2B, so every remaining '+' is a space.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ParseShareLink reads the topic names back from a share link.
// The returned weak topics carry names only; every score field is zero.
func ParseShareLink(link string) ([]domain.WeakTopic, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid share link: %q", link),
			errors.WithCause(err),
		)
	}

	return TopicsFromQuery(u.Query().Get(TopicsParam)), nil
}

// TopicsFromQuery splits an already decoded topics parameter into zero-score weak topics.
func TopicsFromQuery(v string) []domain.WeakTopic {
	if v == "" {
		return []domain.WeakTopic{}
	}
	return analysis.FromTopicNames(strings.Split(v, ","))
}

// PlaceholderResult is the minimal result behind a shared plan: one answer per
// topic carrying only its grammar topic, and no score.
func PlaceholderResult(weak []domain.WeakTopic) domain.Result {
	r := domain.Result{Answers: make([]domain.ScoredAnswer, 0, len(weak))}
	for _, w := range weak {
		r.Answers = append(r.Answers, domain.ScoredAnswer{GrammarTopic: w.TopicName})
	}
	return r
}

// Summary renders one line per plan item: topic, book reference and first video URL or N/A.
func Summary(p domain.StudyPlan) string {
	lines := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		lines = append(lines, fmt.Sprintf("Topic: %s | Book: %s | Video: %s",
			it.WeakTopic.TopicName, it.BookReference, PrimaryVideoURL(it)))
	}
	return strings.Join(lines, "\n")
}

// PrimaryVideoURL is the URL of the first matched video, or N/A.
func PrimaryVideoURL(it domain.PlanItem) string {
	if len(it.Videos) == 0 {
		return noVideo
	}
	return it.Videos[0].URL
}

// EstimateLevel maps a percentage onto levels 1..7: max(1, ceil(percentage/100*7)).
func EstimateLevel(percentage int) int {
	if percentage <= 0 {
		return 1
	}
	return max(1, (percentage*7+99)/100)
}
