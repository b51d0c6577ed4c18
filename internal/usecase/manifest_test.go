package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/manifest"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/testutil"
)

func TestLoadManifest_PublishesAndClearsHistory(t *testing.T) {
	s, hub := newService(t)
	ctx := context.Background()

	_, err := Access[*model.Entity](s).Create(ctx, &model.Entity{Name: "Scratch"})
	require.NoError(t, err)
	undos, _ := s.UndoManager().Len("")
	require.Equal(t, 1, undos)

	path := testutil.WriteManifest(t, t.TempDir(), "full.yaml")
	loaded, err := s.LoadManifest(ctx, path)
	require.NoError(t, err)
	assert.NotZero(t, loaded.WorkspaceID)

	undos, _ = s.UndoManager().Len("")
	assert.Equal(t, 0, undos)
	assert.Contains(t, origins(hub), event.HandlingManifest(event.Loaded))
}

func TestLoadManifest_InvalidFileIsNotLoaded(t *testing.T) {
	s, _ := newService(t)
	path := filepath.Join(t.TempDir(), "qleany.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema:\n  version: 9\n"), 0o644))

	_, err := s.LoadManifest(context.Background(), path)
	var schemaErr *manifest.SchemaError
	require.ErrorAs(t, err, &schemaErr)

	_, err = s.ExportMermaid(context.Background())
	assert.ErrorIs(t, err, manifest.ErrNoWorkspace)
}

func TestSaveManifest_WritesBackWithBackup(t *testing.T) {
	s, hub, path := loadedService(t, "full.yaml")
	ctx := context.Background()

	written, err := s.SaveManifest(ctx, "")
	require.NoError(t, err)
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	assert.Equal(t, abs, written)
	assert.FileExists(t, written+".bak")
	assert.Contains(t, origins(hub), event.HandlingManifest(event.Saved))

	reread, err := CheckManifest(written)
	require.NoError(t, err)
	var names []string
	for _, e := range reread.Entities {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"EntityBase", "Root", "Book", "Author"}, names)
	require.Len(t, reread.Features, 1)
	assert.Len(t, reread.Features[0].UseCases, 2)
}

func TestSaveManifest_ToOtherPath(t *testing.T) {
	s, _, _ := loadedService(t, "minimal.yaml")
	target := filepath.Join(t.TempDir(), "copy.yaml")

	written, err := s.SaveManifest(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, target, written)
	assert.NoFileExists(t, target+".bak")
}

func TestCloseManifest_DropsWorkspace(t *testing.T) {
	s, hub, _ := loadedService(t, "full.yaml")
	ctx := context.Background()
	_, err := s.FillFiles(ctx, "")
	require.NoError(t, err)

	require.NoError(t, s.CloseManifest(ctx))
	assert.Contains(t, origins(hub), event.HandlingManifest(event.Closed))

	_, err = s.ExportMermaid(ctx)
	assert.ErrorIs(t, err, manifest.ErrNoWorkspace)
	files, err := Access[*model.File](s).GetMulti(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.ErrorIs(t, s.CloseManifest(ctx), manifest.ErrNoWorkspace)

	root, err := s.InitializeApp(ctx)
	require.NoError(t, err)
	assert.Zero(t, root.Workspace)
}

func TestNewManifest_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app", "qleany.yaml")
	opts := manifest.StarterOptions{Language: model.LanguageCppQt, ApplicationName: "Notes"}

	written, err := NewManifest(path, opts, false)
	require.NoError(t, err)
	m, err := CheckManifest(written)
	require.NoError(t, err)
	assert.Equal(t, "Notes", m.Global.ApplicationName)
	assert.Equal(t, string(model.LanguageCppQt), m.Global.Language)

	_, err = NewManifest(path, opts, false)
	require.ErrorIs(t, err, ErrManifestExists)

	_, err = NewManifest(path, manifest.StarterOptions{ApplicationName: "Other"}, true)
	require.NoError(t, err)
	assert.FileExists(t, written+".bak")
	m, err = CheckManifest(written)
	require.NoError(t, err)
	assert.Equal(t, "Other", m.Global.ApplicationName)
}

func TestCheckManifest_ReportsValidationErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qleany.yaml")
	body := `schema:
  version: 3
global:
  language: rust
  application_name: Broken
entities:
  - name: Book
    fields:
      - name: author
        type: entity
        entity: Writer
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := CheckManifest(path)
	var verrs manifest.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.NotEmpty(t, verrs)
}
