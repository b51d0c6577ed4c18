package testutil

import (
	"embed"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/store"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

//go:embed testdata/*.yaml
var manifests embed.FS

// Manifest returns the content of testdata/<name>.
func Manifest(t testing.TB, name string) []byte {
	t.Helper()
	data, err := manifests.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

// WriteManifest copies testdata/<name> into dir and returns its path.
func WriteManifest(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, "qleany.yaml")
	require.NoError(t, writeFile(path, Manifest(t, name)))
	return path
}

// NewFactory opens a store in a temporary directory and returns a unit of
// work factory publishing to a running hub. Both are closed with the test.
func NewFactory(t testing.TB) (*uow.Factory, *event.Hub) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "qleany.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	hub := event.NewHub()
	t.Cleanup(hub.Stop)
	return uow.NewFactory(st, hub, zap.NewNop()), hub
}
