// Package analysis ranks grammar topics by how badly they were answered.
package analysis

import (
	"slices"
	"strings"

	"github.com/victornm/grammarquiz/internal/domain"
)

const (
	// DisplayLimit is the number of weak topics shown in the app.
	DisplayLimit = 3
	// ReportLimit is the number of weak topics sent in an outbound report.
	ReportLimit = 5
)

// IdentifyWeakAreas groups answers by grammar topic and returns the topics
// with at least one mistake, weakest first. Equal accuracy ranks the topic
// with more errors first; remaining ties keep first-encounter order.
// A limit <= 0 returns every weak topic.
func IdentifyWeakAreas(answers []domain.ScoredAnswer, limit int) []domain.WeakTopic {
	var (
		order  []string
		byName = make(map[string]*domain.WeakTopic)
	)

	for _, a := range answers {
		t, ok := byName[a.GrammarTopic]
		if !ok {
			t = &domain.WeakTopic{TopicName: a.GrammarTopic}
			byName[a.GrammarTopic] = t
			order = append(order, a.GrammarTopic)
		}

		t.TotalAttempted++
		if !a.IsCorrect {
			t.ErrorCount++
		}
	}

	weak := make([]domain.WeakTopic, 0, len(order))
	for _, name := range order {
		t := byName[name]
		if t.ErrorCount == 0 {
			continue
		}
		t.Accuracy = float64(t.TotalAttempted-t.ErrorCount) / float64(t.TotalAttempted)
		weak = append(weak, *t)
	}

	slices.SortStableFunc(weak, compare)

	if limit > 0 && len(weak) > limit {
		weak = weak[:limit]
	}

	return weak
}

// compare orders by accuracy ascending, then error count descending.
// Accuracy is compared as exact fractions so equal ratios like 1/2 and 2/4 tie.
func compare(a, b domain.WeakTopic) int {
	// correct_a/total_a vs correct_b/total_b, cross-multiplied.
	l := (a.TotalAttempted - a.ErrorCount) * b.TotalAttempted
	r := (b.TotalAttempted - b.ErrorCount) * a.TotalAttempted
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}

	return b.ErrorCount - a.ErrorCount
}

// FromTopicNames rebuilds weak topics from names alone, with every score field zeroed.
// Blank names are skipped and surrounding whitespace is trimmed.
func FromTopicNames(names []string) []domain.WeakTopic {
	weak := make([]domain.WeakTopic, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		weak = append(weak, domain.WeakTopic{TopicName: n})
	}
	return weak
}
