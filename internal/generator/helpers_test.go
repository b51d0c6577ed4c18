package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacquetc/qleany-sub001/internal/manifest"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/testutil"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// loadFixture loads testdata/<name> into a fresh store.
func loadFixture(t *testing.T, name string) *uow.Factory {
	t.Helper()
	f, _ := testutil.NewFactory(t)
	m, err := manifest.Parse(testutil.Manifest(t, name))
	require.NoError(t, err)
	_, err = manifest.Load(context.Background(), f, m, "/work/qleany.yaml")
	require.NoError(t, err)
	return f
}

// fillFixture loads and fills testdata/<name>.
func fillFixture(t *testing.T, name string) (*uow.Factory, []*model.File) {
	t.Helper()
	f := loadFixture(t, name)
	clock := testutil.NewDeterministicClock()
	files, err := FillFiles(context.Background(), f, FillOptions{Now: clock.Now})
	require.NoError(t, err)
	return f, files
}

func readWorkspace(t *testing.T, f *uow.Factory) *Workspace {
	t.Helper()
	ctx := context.Background()
	q, err := f.Query(ctx, ReadCapabilities())
	require.NoError(t, err)
	defer q.End()
	ws, err := LoadWorkspace(ctx, q)
	require.NoError(t, err)
	return ws
}

func paths(files []*model.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path()
	}
	return out
}

func fileAt(t *testing.T, files []*model.File, path string) *model.File {
	t.Helper()
	for _, f := range files {
		if f.Path() == path {
			return f
		}
	}
	t.Fatalf("no file %s", path)
	return nil
}
