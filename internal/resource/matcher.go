// Package resource picks study resources for a weak topic at a target level.
package resource

import (
	"fmt"

	"github.com/victornm/grammarquiz/internal/catalog"
	"github.com/victornm/grammarquiz/internal/domain"
)

// fallbackCap is the number of videos kept when the level range matches nothing.
const fallbackCap = 3

type Match struct {
	BookReference string
	Videos        []domain.VideoResource
}

// DefaultBookReference is used for topics missing from the catalog.
func DefaultBookReference(topic string) string {
	return fmt.Sprintf("Review %s", topic)
}

// MatchResources selects the book reference and videos of a topic.
// Videos are tried in order until one rule yields something:
// levels in [level, level+1]; levels >= level, first 3; the first 3 of the topic.
// An unknown topic gets the default book reference and no videos.
func MatchResources(c *catalog.Catalog, topic string, level int) Match {
	e, ok := c.Entry(topic)
	if !ok {
		return Match{BookReference: DefaultBookReference(topic), Videos: []domain.VideoResource{}}
	}

	m := Match{BookReference: e.BookDetails}
	if m.BookReference == "" {
		m.BookReference = DefaultBookReference(topic)
	}

	m.Videos = filter(e.Videos, func(v domain.VideoResource) bool {
		return v.Level >= level && v.Level <= level+1
	}, len(e.Videos))

	if len(m.Videos) == 0 {
		m.Videos = filter(e.Videos, func(v domain.VideoResource) bool {
			return v.Level >= level
		}, fallbackCap)
	}

	if len(m.Videos) == 0 {
		m.Videos = filter(e.Videos, func(domain.VideoResource) bool { return true }, fallbackCap)
	}

	return m
}

func filter(vs []domain.VideoResource, keep func(domain.VideoResource) bool, limit int) []domain.VideoResource {
	out := make([]domain.VideoResource, 0, min(limit, len(vs)))
	for _, v := range vs {
		if len(out) == limit {
			break
		}
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// LevelLabel maps a numeric level to its CEFR label.
func LevelLabel(level int) string {
	switch {
	case level <= 1:
		return "A1"
	case level == 2:
		return "A2"
	case level == 3:
		return "B1"
	case level == 4:
		return "B2"
	case level == 5:
		return "C1"
	default:
		return "C2"
	}
}
