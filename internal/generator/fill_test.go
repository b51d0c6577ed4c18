package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacquetc/qleany-sub001/internal/manifest"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/testutil"
)

func TestFillFiles_Rust(t *testing.T) {
	f, files := fillFixture(t, "full.yaml")
	require.Len(t, files, 29)

	got := paths(files)
	assert.Equal(t, "Cargo.toml", got[0])
	assert.Contains(t, got, "common/src/direct_access/book_repository.rs")
	assert.Contains(t, got, "direct_access/src/author/controller.rs")
	assert.Contains(t, got, "catalog/src/use_cases/import_books_uc.rs")
	assert.Contains(t, got, "cli/src/main.rs")
	assert.NotContains(t, got, "slint_ui/src/main.rs")
	assert.NotContains(t, got, "common/src/direct_access/entity_base_repository.rs")

	for _, file := range files {
		assert.NotZero(t, file.ID)
		assert.Equal(t, model.FileStatusNew, file.Status)
		assert.Equal(t, testutil.Epoch.Year(), file.CreatedAt.Year())
	}

	uc := fileAt(t, files, "catalog/src/use_cases/count_books_uc.rs")
	assert.Equal(t, "catalog", uc.Group)
	assert.Equal(t, "rust/use_case.rs", uc.TemplateName)
	assert.NotZero(t, uc.Feature)
	assert.NotZero(t, uc.UseCase)

	repo := fileAt(t, files, "common/src/direct_access/book_repository.rs")
	assert.Equal(t, "common", repo.Group)
	assert.NotZero(t, repo.Entity)

	ws := readWorkspace(t, f)
	assert.Equal(t, got, paths(ws.Files))
}

func TestFillFiles_CppQt(t *testing.T) {
	_, files := fillFixture(t, "cpp.yaml")
	require.Len(t, files, 31)

	got := paths(files)
	assert.Contains(t, got, "common/entities/note.h")
	assert.Contains(t, got, "direct_access/note/note_controller.cpp")
	assert.Contains(t, got, "notebook/use_cases/export_notes_uc.h")
	assert.Contains(t, got, "ui/qtwidgets/main_window.cpp")
	assert.Contains(t, got, "ui/qtquick/qml/Main.qml")
	assert.Contains(t, got, "ui/models/list_models.h")
	assert.NotContains(t, got, "ui/kirigami/main.cpp")
}

func TestFillFiles_RefillReplacesFiles(t *testing.T) {
	f, first := fillFixture(t, "full.yaml")

	second, err := FillFiles(context.Background(), f, FillOptions{})
	require.NoError(t, err)

	assert.Equal(t, paths(first), paths(second))
	assert.NotEqual(t, first[0].ID, second[0].ID)
	assert.Len(t, readWorkspace(t, f).Files, len(second))
}

func TestFillFiles_MarksExistingFiles(t *testing.T) {
	f := loadFixture(t, "full.yaml")
	out := t.TempDir()
	existing := filepath.Join(out, "crates", "common", "src", "entities.rs")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("// mine"), 0o644))

	files, err := FillFiles(context.Background(), f, FillOptions{OutputRoot: out})
	require.NoError(t, err)

	assert.Equal(t, model.FileStatusExisting, fileAt(t, files, "common/src/entities.rs").Status)
	assert.Equal(t, model.FileStatusNew, fileAt(t, files, "common/src/database.rs").Status)
}

func TestFillFiles_MarksFilesOlderThanManifestStale(t *testing.T) {
	f, _ := testutil.NewFactory(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := testutil.WriteManifest(t, dir, "full.yaml")
	m, err := manifest.ReadFile(path)
	require.NoError(t, err)
	_, err = manifest.Load(ctx, f, m, path)
	require.NoError(t, err)

	written := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, written, written))

	old := filepath.Join(dir, "crates", "common", "src", "entities.rs")
	fresh := filepath.Join(dir, "crates", "common", "src", "database.rs")
	for _, p := range []string{old, fresh} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("// generated"), 0o644))
	}
	before := written.Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, before, before))

	files, err := FillFiles(ctx, f, FillOptions{OutputRoot: dir})
	require.NoError(t, err)

	assert.Equal(t, model.FileStatusStale, fileAt(t, files, "common/src/entities.rs").Status)
	assert.Equal(t, model.FileStatusExisting, fileAt(t, files, "common/src/database.rs").Status)
	assert.True(t, model.FileStatusStale.OnDisk())
	assert.False(t, model.FileStatusNew.OnDisk())
}

func TestFillFiles_NoWorkspace(t *testing.T) {
	f, _ := testutil.NewFactory(t)
	_, err := FillFiles(context.Background(), f, FillOptions{})
	assert.ErrorIs(t, err, manifest.ErrNoWorkspace)
}

func TestPlan_IsDeterministic(t *testing.T) {
	ws := readWorkspace(t, loadFixture(t, "full.yaml"))
	assert.Equal(t, paths(Plan(ws)), paths(Plan(ws)))
}
