package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavepoint_RestoreInSameTransaction(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	write(t, s, func(w *WriteTxn) {
		putRecord(t, w, 1, "kept")

		sp, err := w.CreateSavepoint(ctx)
		require.NoError(t, err)

		putRecord(t, w, 1, "changed")
		putRecord(t, w, 2, "added")

		require.NoError(t, w.RestoreSavepoint(ctx, sp))

		got, ok := getRecord(t, w, 1)
		require.True(t, ok)
		assert.Equal(t, "kept", got.Name)
		_, ok = getRecord(t, w, 2)
		assert.False(t, ok)
	})
}

func TestSavepoint_RestoreInLaterTransaction(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var sp Savepoint
	write(t, s, func(w *WriteTxn) {
		putRecord(t, w, 1, "original")
		putRecord(t, w, 2, "doomed")
		var err error
		sp, err = w.CreateSavepoint(ctx)
		require.NoError(t, err)
	})

	write(t, s, func(w *WriteTxn) {
		putRecord(t, w, 1, "edited")
		tbl, err := OpenTable(ctx, w, recordsDef)
		require.NoError(t, err)
		_, err = tbl.Remove(ctx, 2)
		require.NoError(t, err)
		putRecord(t, w, 3, "new")
	})

	write(t, s, func(w *WriteTxn) {
		require.NoError(t, w.RestoreSavepoint(ctx, sp))
	})

	r, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer r.End()

	got, ok := getRecord(t, r, 1)
	require.True(t, ok)
	assert.Equal(t, "original", got.Name)
	got, ok = getRecord(t, r, 2)
	require.True(t, ok)
	assert.Equal(t, "doomed", got.Name)
	_, ok = getRecord(t, r, 3)
	assert.False(t, ok)
}

func TestSavepoint_RestoreDropsYoungerSavepoints(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	write(t, s, func(w *WriteTxn) {
		older, err := w.CreateSavepoint(ctx)
		require.NoError(t, err)
		putRecord(t, w, 1, "a")

		younger, err := w.CreateSavepoint(ctx)
		require.NoError(t, err)
		putRecord(t, w, 2, "b")

		require.NoError(t, w.RestoreSavepoint(ctx, older))

		live, err := w.Savepoints(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Savepoint{older}, live)

		assert.ErrorIs(t, w.RestoreSavepoint(ctx, younger), ErrSavepointNotFound)
	})
}

func TestSavepoint_UnknownToken(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	w, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	defer w.Rollback()

	err = w.RestoreSavepoint(ctx, Savepoint{ID: 42, Seq: 0})
	assert.ErrorIs(t, err, ErrSavepointNotFound)
}

func TestSavepoint_DeleteStopsJournaling(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	write(t, s, func(w *WriteTxn) {
		sp, err := w.CreateSavepoint(ctx)
		require.NoError(t, err)
		putRecord(t, w, 1, "x")
		require.NoError(t, w.DeleteSavepoint(ctx, sp))
		putRecord(t, w, 2, "y")
	})

	var n int
	require.NoError(t, s.writer.QueryRow(`SELECT COUNT(*) FROM __journal`).Scan(&n))
	assert.Zero(t, n)

	w, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	defer w.Rollback()
	assert.False(t, w.journaling)
}

func TestSavepoint_DeleteOldestTrimsJournal(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	write(t, s, func(w *WriteTxn) {
		first, err := w.CreateSavepoint(ctx)
		require.NoError(t, err)
		putRecord(t, w, 1, "x")

		second, err := w.CreateSavepoint(ctx)
		require.NoError(t, err)
		putRecord(t, w, 2, "y")

		require.NoError(t, w.DeleteSavepoint(ctx, first))

		// The second savepoint still restores correctly.
		require.NoError(t, w.RestoreSavepoint(ctx, second))
		_, ok := getRecord(t, w, 1)
		assert.True(t, ok)
		_, ok = getRecord(t, w, 2)
		assert.False(t, ok)
	})
}
