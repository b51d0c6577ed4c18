package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacquetc/qleany-sub001/internal/testutil"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// project writes testdata fixture name into a fresh directory and returns
// the global flags pointing at it and a private store.
func project(t *testing.T, name string) (dir string, flags []string) {
	t.Helper()
	dir = t.TempDir()
	path := testutil.WriteManifest(t, dir, name)
	return dir, []string{"--manifest", path, "--db", filepath.Join(t.TempDir(), "qleany.db")}
}

// decode unmarshals the data of a JSON response into v.
func decode(t *testing.T, output string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp), output)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestNewAndCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qleany.yaml")

	out, err := execute(t, "new", dir, "--language", "cpp-qt", "--name", "Notes", "--org-name", "Acme", "--org-domain", "acme.org")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	assert.FileExists(t, path)

	out, err = execute(t, "check", "--manifest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (cpp-qt)")
}

func TestNew_RefusesOverwriteWithoutForce(t *testing.T) {
	dir, _ := project(t, "minimal.yaml")
	path := filepath.Join(dir, "qleany.yaml")

	out, err := execute(t, "new", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E105")

	_, err = execute(t, "new", path, "--force")
	require.NoError(t, err)
	assert.FileExists(t, path+".bak")
}

func TestNew_RejectsUnknownLanguage(t *testing.T) {
	_, err := execute(t, "new", t.TempDir(), "--language", "cobol")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheck_InvalidManifestExitsWithFailure(t *testing.T) {
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

	out, err := execute(t, "check", "--manifest", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
}

func TestCheck_UnsupportedSchemaExitsWithFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qleany.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema:\n  version: 9\n"), 0o644))

	out, err := execute(t, "check", "--manifest", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E101")
}

func TestCheck_MissingManifest(t *testing.T) {
	out, err := execute(t, "check", "--manifest", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")
}

func TestShowEntity(t *testing.T) {
	_, flags := project(t, "full.yaml")

	out, err := execute(t, append([]string{"show", "entity", "Book", "--format", "json"}, flags...)...)
	require.NoError(t, err)

	var info EntityInfo
	decode(t, out, &info)
	assert.Equal(t, "Book", info.Name)
	assert.Equal(t, "EntityBase", info.InheritsFrom)
	assert.True(t, info.Undoable)

	byName := map[string]FieldInfo{}
	for _, f := range info.Fields {
		byName[f.Name] = f
	}
	assert.Equal(t, "string", byName["title"].Type)
	assert.Equal(t, "Genre", byName["genre"].EnumName)
	assert.Equal(t, []string{"Novel", "Essay", "Poetry"}, byName["genre"].EnumValues)
	assert.Equal(t, "Author", byName["author"].Entity)
}

func TestShowEntity_Unknown(t *testing.T) {
	_, flags := project(t, "full.yaml")

	out, err := execute(t, append([]string{"show", "entity", "Missing"}, flags...)...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E106")
}

func TestShowFeature_Tree(t *testing.T) {
	_, flags := project(t, "full.yaml")

	out, err := execute(t, append([]string{"show", "feature", "catalog", "--format", "tree"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "catalog\n")
	assert.Contains(t, out, "import_books (long operation)")
	assert.Contains(t, out, "dto in: ImportBooksDto")
	assert.Contains(t, out, "count_books (read only)")
}

func TestShowManifest(t *testing.T) {
	_, flags := project(t, "full.yaml")

	out, err := execute(t, append([]string{"show", "manifest"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "application_name: Library")

	out, err = execute(t, append([]string{"show", "manifest", "--format", "json"}, flags...)...)
	require.NoError(t, err)
	var doc map[string]any
	decode(t, out, &doc)
	assert.Contains(t, doc, "entities")
}

func TestShowConfig(t *testing.T) {
	db := filepath.Join(t.TempDir(), "store.db")

	out, err := execute(t, "show", "config", "--db", db, "--format", "json")
	require.NoError(t, err)

	var info ConfigInfo
	decode(t, out, &info)
	assert.Equal(t, db, info.DatabasePath)
	assert.False(t, info.Ephemeral)
	assert.Positive(t, info.UndoLimit)
}

func TestListEntities(t *testing.T) {
	_, flags := project(t, "full.yaml")

	out, err := execute(t, append([]string{"list", "entities", "--format", "json"}, flags...)...)
	require.NoError(t, err)

	var list NamedList
	decode(t, out, &list)
	var names []string
	for _, it := range list.Items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"EntityBase", "Root", "Book", "Author"}, names)
}

func TestListFiles_ExistingOnlyAfterGenerate(t *testing.T) {
	_, flags := project(t, "full.yaml")

	out, err := execute(t, append([]string{"list", "files", "--format", "json"}, flags...)...)
	require.NoError(t, err)
	var files FileList
	decode(t, out, &files)
	assert.Len(t, files, 29)

	out, err = execute(t, append([]string{"list", "files", "--existing-only", "--format", "json"}, flags...)...)
	require.NoError(t, err)
	decode(t, out, &files)
	assert.Empty(t, files)

	_, err = execute(t, append([]string{"generate", "--no-format"}, flags...)...)
	require.NoError(t, err)

	out, err = execute(t, append([]string{"list", "files", "--existing-only", "--format", "json"}, flags...)...)
	require.NoError(t, err)
	decode(t, out, &files)
	assert.Len(t, files, 29)
}

func TestGenerate_DryRunWritesNothing(t *testing.T) {
	_, flags := project(t, "full.yaml")
	outDir := t.TempDir()

	out, err := execute(t, append([]string{"generate", "entity", "Book", "--dry-run", "--output", outDir, "--format", "json"}, flags...)...)
	require.NoError(t, err)

	var view GenerateView
	decode(t, out, &view)
	assert.True(t, view.DryRun)
	assert.Equal(t, "entity Book", view.Selection)
	assert.Len(t, view.Files, 4)
	assert.Empty(t, view.Written)

	written, err := testutil.ListFiles(outDir)
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestGenerate_WritesToOutput(t *testing.T) {
	_, flags := project(t, "full.yaml")
	outDir := t.TempDir()

	out, err := execute(t, append([]string{"generate", "--no-format", "--output", outDir, "--format", "json"}, flags...)...)
	require.NoError(t, err)

	var view GenerateView
	decode(t, out, &view)
	assert.Len(t, view.Written, 29)
	for _, p := range view.Written {
		assert.FileExists(t, p)
	}
}

func TestGenerate_UnknownSelection(t *testing.T) {
	_, flags := project(t, "full.yaml")

	out, err := execute(t, append([]string{"generate", "feature", "missing", "--dry-run"}, flags...)...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E106")

	_, err = execute(t, append([]string{"generate", "module", "x"}, flags...)...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportMermaid(t *testing.T) {
	_, flags := project(t, "full.yaml")

	out, err := execute(t, append([]string{"export", "mermaid"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "erDiagram\n")
	assert.Contains(t, out, `Root ||--o{ Book : "owns books"`)
}

func TestDocs(t *testing.T) {
	out, err := execute(t, "docs")
	require.NoError(t, err)
	assert.Contains(t, out, "manifest")
	assert.Contains(t, out, "undo-redo")

	out, err = execute(t, "docs", "manifest")
	require.NoError(t, err)
	assert.Contains(t, out, "# The manifest")

	out, err = execute(t, "docs", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E106")
}
