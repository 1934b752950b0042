// Package catalog holds the read-only study resource catalog keyed by grammar topic name.
package catalog

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/victornm/grammarquiz/internal/dataset"
	"github.com/victornm/grammarquiz/internal/domain"
)

// Catalog maps a topic name to its book reference and leveled videos.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	entries map[string]domain.ResourceEntry
}

// New builds a catalog from entries. Later entries with the same topic name replace earlier ones.
func New(entries ...domain.ResourceEntry) *Catalog {
	c := &Catalog{entries: make(map[string]domain.ResourceEntry, len(entries))}
	for _, e := range entries {
		e.Videos = slices.Clone(e.Videos)
		c.entries[e.TopicName] = e
	}
	return c
}

// Load reads a resource catalog file (JSON or YAML) and validates it.
func Load(path string) (*Catalog, error) {
	var raw map[string]entryRecord
	if err := dataset.LoadFile(path, schema, &raw); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	entries := make([]domain.ResourceEntry, 0, len(raw))
	for name, r := range raw {
		entries = append(entries, domain.ResourceEntry{
			TopicName:   name,
			BookDetails: r.BookDetails,
			Videos:      r.Videos,
		})
	}

	c := New(entries...)
	slog.Info("catalog: resource catalog loaded", "path", path, "topics", c.Len())
	return c, nil
}

// Entry returns the resources of a topic.
func (c *Catalog) Entry(topic string) (domain.ResourceEntry, bool) {
	e, ok := c.entries[topic]
	if !ok {
		return domain.ResourceEntry{}, false
	}
	e.Videos = slices.Clone(e.Videos)
	return e, true
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

type entryRecord struct {
	BookDetails string                 `json:"bookDetails"`
	Videos      []domain.VideoResource `json:"videos"`
}

var schema = dataset.Schema{
	Name: "resource-catalog",
	Definition: `{
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"required": ["bookDetails"],
		"properties": {
			"bookDetails": {"type": "string"},
			"videos": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["url", "level"],
					"properties": {
						"title": {"type": "string"},
						"url": {"type": "string", "minLength": 1},
						"level": {"type": "integer", "minimum": 1}
					}
				}
			}
		}
	}
}`,
}
