package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/victornm/grammarquiz/internal/dataset"
)

var pointSchema = dataset.Schema{
	Name: "point",
	Definition: `{
		"type": "object",
		"required": ["x", "y"],
		"properties": {
			"x": {"type": "integer"},
			"y": {"type": "integer", "minimum": 0}
		}
	}`,
}

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]struct {
		file    string
		content string
		want    point
		wantErr bool
	}{
		"json file": {
			file:    "p.json",
			content: `{"x": 1, "y": 2}`,
			want:    point{X: 1, Y: 2},
		},
		"yaml file": {
			file:    "p.yaml",
			content: "x: 3\ny: 4\n",
			want:    point{X: 3, Y: 4},
		},
		"missing required field": {
			file:    "missing.json",
			content: `{"x": 1}`,
			wantErr: true,
		},
		"wrong type": {
			file:    "wrong.yml",
			content: "x: one\ny: 2\n",
			wantErr: true,
		},
		"malformed json": {
			file:    "broken.json",
			content: `{"x": `,
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			var got point
			err := dataset.LoadFile(path, pointSchema, &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLoadFile_NotExist(t *testing.T) {
	var got point
	err := dataset.LoadFile(filepath.Join(t.TempDir(), "none.json"), pointSchema, &got)
	require.Error(t, err)
}
