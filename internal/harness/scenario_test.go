package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qleany.yaml"), []byte("schema:\n  version: 3\n"), 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_ResolvesManifestPath(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "generate.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "generate", s.Name)
	assert.Equal(t, filepath.Join("testdata", "manifests", "library.yaml"), s.Manifest)
	require.Len(t, s.Flow, 5)
	assert.Equal(t, []string{"entity", "Book"}, s.Flow[2].Select)
	assert.True(t, s.Flow[2].DryRun)
	require.NotNil(t, s.Flow[3].Expect)
	assert.Equal(t, "empty_selection", s.Flow[3].Expect.Error)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `name: x
description: y
manifest: qleany.yaml
flow:
  - do: load
assertion:
  - type: trace_contains
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing name",
			body: "description: y\nmanifest: qleany.yaml\nflow:\n  - do: load\n",
			want: "name is required",
		},
		{
			name: "missing manifest file",
			body: "name: x\ndescription: y\nmanifest: absent.yaml\nflow:\n  - do: load\n",
			want: "manifest:",
		},
		{
			name: "empty flow",
			body: "name: x\ndescription: y\nmanifest: qleany.yaml\nflow: []\n",
			want: "flow list is required",
		},
		{
			name: "unknown operation",
			body: "name: x\ndescription: y\nmanifest: qleany.yaml\nflow:\n  - do: explode\n",
			want: `unknown operation "explode"`,
		},
		{
			name: "rename without target",
			body: "name: x\ndescription: y\nmanifest: qleany.yaml\nflow:\n  - do: rename_entity\n    name: Book\n",
			want: "name and to are required",
		},
		{
			name: "unknown expected error",
			body: "name: x\ndescription: y\nmanifest: qleany.yaml\nflow:\n  - do: load\n    expect:\n      error: boom\n",
			want: `unknown error "boom"`,
		},
		{
			name: "trace_count without origin",
			body: "name: x\ndescription: y\nmanifest: qleany.yaml\nflow:\n  - do: load\nassertions:\n  - type: trace_count\n    count: 1\n",
			want: "origin is required for trace_count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
