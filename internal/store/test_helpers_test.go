package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testRecord struct {
	Name  string `msgpack:"name"`
	Count int    `msgpack:"count"`
}

var (
	recordsDef = NewTableDefinition("records", Uint64Key[uint64](), Msgpack[testRecord]())
	namesDef   = NewTableDefinition("names", StringKey[string](), Msgpack[[]uint64]())
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// write runs fn in a committed write transaction.
func write(t *testing.T, s *Store, fn func(w *WriteTxn)) {
	t.Helper()
	ctx := context.Background()
	w, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	fn(w)
	require.NoError(t, w.Commit())
}

func putRecord(t *testing.T, tx Txn, id uint64, name string) {
	t.Helper()
	ctx := context.Background()
	tbl, err := OpenTable(ctx, tx, recordsDef)
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(ctx, id, testRecord{Name: name, Count: int(id)}))
}

func getRecord(t *testing.T, tx Txn, id uint64) (testRecord, bool) {
	t.Helper()
	ctx := context.Background()
	tbl, err := OpenTable(ctx, tx, recordsDef)
	require.NoError(t, err)
	v, ok, err := tbl.Get(ctx, id)
	require.NoError(t, err)
	return v, ok
}
