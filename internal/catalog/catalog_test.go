package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/grammarquiz/internal/catalog"
	"github.com/victornm/grammarquiz/internal/domain"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grammar_resources.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"Present tenses": {
			"bookDetails": "Grammar for IELTS - Unit 1, Page 8",
			"videos": [
				{"title": "Present simple in movies", "url": "https://v/1", "level": 2},
				{"title": "Present continuous", "url": "https://v/2", "level": 3}
			]
		},
		"The passive": {
			"bookDetails": "Grammar for IELTS - Unit 20"
		}
	}`), 0o644))

	c, err := catalog.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	e, ok := c.Entry("Present tenses")
	require.True(t, ok)
	assert.Equal(t, "Grammar for IELTS - Unit 1, Page 8", e.BookDetails)
	assert.Equal(t, []domain.VideoResource{
		{Title: "Present simple in movies", URL: "https://v/1", Level: 2},
		{Title: "Present continuous", URL: "https://v/2", Level: 3},
	}, e.Videos)

	e, ok = c.Entry("The passive")
	require.True(t, ok)
	assert.Empty(t, e.Videos)

	_, ok = c.Entry("Unknown")
	assert.False(t, ok)
}

func TestLoad_Malformed(t *testing.T) {
	tests := map[string]string{
		"video level is not an integer": `{"T": {"bookDetails": "b", "videos": [{"url": "u", "level": "B1"}]}}`,
		"missing book details":          `{"T": {"videos": []}}`,
		"not an object":                 `["T"]`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := catalog.Load(path)
			require.Error(t, err)
		})
	}
}

func TestCatalog_EntryIsACopy(t *testing.T) {
	c := catalog.New(domain.ResourceEntry{
		TopicName: "T",
		Videos:    []domain.VideoResource{{URL: "u1", Level: 1}},
	})

	e, _ := c.Entry("T")
	e.Videos[0].URL = "changed"

	again, _ := c.Entry("T")
	assert.Equal(t, "u1", again.Videos[0].URL)
}
