package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/testutil"
)

func newService(t *testing.T) (*Service, *event.Hub) {
	t.Helper()
	f, hub := testutil.NewFactory(t)
	clock := testutil.NewDeterministicClock()
	s := New(f, WithClock(clock.Now))
	t.Cleanup(s.Operations().Shutdown)
	return s, hub
}

// loadedService loads testdata/<name> from a copy in a temporary directory
// and returns the copy's path.
func loadedService(t *testing.T, name string) (*Service, *event.Hub, string) {
	t.Helper()
	s, hub := newService(t)
	path := testutil.WriteManifest(t, t.TempDir(), name)
	_, err := s.LoadManifest(context.Background(), path)
	require.NoError(t, err)
	return s, hub, path
}

func origins(hub *event.Hub) []event.Origin {
	hub.Flush()
	var out []event.Origin
	for _, e := range hub.Take() {
		out = append(out, e.Origin)
	}
	return out
}
