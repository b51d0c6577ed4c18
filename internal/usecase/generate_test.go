package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/generator"
	"github.com/jacquetc/qleany-sub001/internal/longop"
	"github.com/jacquetc/qleany-sub001/internal/manifest"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/testutil"
)

func TestFillFiles_StampsFromServiceClock(t *testing.T) {
	s, _, _ := loadedService(t, "full.yaml")

	files, err := s.FillFiles(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, files, 29)
	for _, f := range files {
		assert.Equal(t, model.FileStatusNew, f.Status)
		assert.False(t, f.CreatedAt.Before(testutil.Epoch))
	}
}

func TestFillFiles_WithoutManifest(t *testing.T) {
	s, _ := newService(t)
	_, err := s.FillFiles(context.Background(), "")
	assert.ErrorIs(t, err, manifest.ErrNoWorkspace)
}

func TestGenerate_WritesSelection(t *testing.T) {
	s, _, _ := loadedService(t, "full.yaml")
	ctx := context.Background()
	_, err := s.FillFiles(ctx, "")
	require.NoError(t, err)

	out := t.TempDir()
	res, err := s.Generate(ctx, GenerateRequest{
		Root:      out,
		Selection: generator.Selection{Kind: generator.SelectEntity, Name: "Book"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Written, 4)

	written, err := testutil.ListFiles(filepath.Join(out, "crates"))
	require.NoError(t, err)
	assert.Len(t, written, 4)
}

func TestStartGenerate_RunsAsLongOperation(t *testing.T) {
	s, hub, _ := loadedService(t, "full.yaml")
	ctx := context.Background()
	_, err := s.FillFiles(ctx, "")
	require.NoError(t, err)

	id := s.StartGenerate(ctx, GenerateRequest{DryRun: true})
	status, err := s.Operations().Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, longop.StatusCompleted, status)

	progress, err := s.Operations().Progress(id)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.Percentage)

	res, err := s.GenerateResult(id)
	require.NoError(t, err)
	assert.Len(t, res.Outputs, 29)
	assert.Empty(t, res.Written)
	assert.Contains(t, origins(hub), event.LongOperation(event.Finished))
}

func TestStartGenerate_FailureIsReported(t *testing.T) {
	s, _, _ := loadedService(t, "full.yaml")
	ctx := context.Background()
	_, err := s.FillFiles(ctx, "")
	require.NoError(t, err)

	id := s.StartGenerate(ctx, GenerateRequest{
		DryRun:    true,
		Selection: generator.Selection{Kind: generator.SelectFeature, Name: "missing"},
	})
	status, err := s.Operations().Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, longop.StatusFailed, status)

	_, err = s.GenerateResult(id)
	assert.ErrorIs(t, err, generator.ErrEmptySelection)
}

func TestExportMermaid(t *testing.T) {
	s, _, _ := loadedService(t, "full.yaml")
	out, err := s.ExportMermaid(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "erDiagram\n")
	assert.Contains(t, out, `Book }o--o| Author : "refs author"`)
}

func TestWorkspace_ReadsLoadedGraph(t *testing.T) {
	s, _, _ := loadedService(t, "full.yaml")
	ws, err := s.Workspace(context.Background())
	require.NoError(t, err)
	require.Len(t, ws.Entities, 4)
	assert.NotNil(t, ws.EntityNamed("Book"))
	assert.NotNil(t, ws.FeatureNamed("catalog"))
	assert.Empty(t, ws.Files)

	m, err := s.ExportManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Library", m.Global.ApplicationName)
}
