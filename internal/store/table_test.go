package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint64Key_OrderPreserving(t *testing.T) {
	codec := Uint64Key[uint64]()
	a := codec.EncodeKey(255)
	b := codec.EncodeKey(256)
	assert.Less(t, string(a), string(b))

	got, err := codec.DecodeKey(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(256), got)

	_, err = codec.DecodeKey([]byte{1, 2})
	assert.Error(t, err)
}

func TestTable_RemoveReportsExistence(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	write(t, s, func(w *WriteTxn) {
		putRecord(t, w, 1, "one")
		tbl, err := OpenTable(ctx, w, recordsDef)
		require.NoError(t, err)

		removed, err := tbl.Remove(ctx, 1)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = tbl.Remove(ctx, 1)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestTable_RangeAscendingWithFromAndLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	write(t, s, func(w *WriteTxn) {
		for _, id := range []uint64{300, 2, 1000, 45, 7} {
			putRecord(t, w, id, "r")
		}
	})

	r, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer r.End()

	tbl, err := OpenTable(ctx, r, recordsDef)
	require.NoError(t, err)

	var all []uint64
	require.NoError(t, tbl.Range(ctx, nil, 0, func(k uint64, _ testRecord) bool {
		all = append(all, k)
		return true
	}))
	assert.Equal(t, []uint64{2, 7, 45, 300, 1000}, all)

	from := uint64(7)
	var page []uint64
	require.NoError(t, tbl.Range(ctx, &from, 2, func(k uint64, _ testRecord) bool {
		page = append(page, k)
		return true
	}))
	assert.Equal(t, []uint64{7, 45}, page)

	var first []uint64
	require.NoError(t, tbl.Range(ctx, nil, 0, func(k uint64, _ testRecord) bool {
		first = append(first, k)
		return false
	}))
	assert.Equal(t, []uint64{2}, first)

	n, err := tbl.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestTable_StringKeysAndSliceValues(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	write(t, s, func(w *WriteTxn) {
		tbl, err := OpenTable(ctx, w, namesDef)
		require.NoError(t, err)
		require.NoError(t, tbl.Insert(ctx, "entity", []uint64{3, 1, 2}))
		require.NoError(t, tbl.Insert(ctx, "field", nil))
	})

	r, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer r.End()

	tbl, err := OpenTable(ctx, r, namesDef)
	require.NoError(t, err)

	ids, ok, err := tbl.Get(ctx, "entity")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []uint64{3, 1, 2}, ids)

	ids, ok, err = tbl.Get(ctx, "field")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, ids)
}

type shape interface {
	Area() int
}

type square struct {
	Side int `msgpack:"side"`
}

func (s *square) Area() int { return s.Side * s.Side }

func TestMsgpackFunc_DecodesIntoInterface(t *testing.T) {
	codec := MsgpackFunc[shape](func() shape { return &square{} })

	raw, err := codec.EncodeValue(&square{Side: 4})
	require.NoError(t, err)

	v, err := codec.DecodeValue(raw)
	require.NoError(t, err)
	assert.Equal(t, 16, v.Area())
}
