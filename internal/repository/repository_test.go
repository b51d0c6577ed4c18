package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/store"
	"github.com/jacquetc/qleany-sub001/internal/txn"
)

type recorder struct {
	events []event.Event
}

func (r *recorder) Publish(e event.Event) {
	r.events = append(r.events, e)
}

func setup(t *testing.T) (*store.Store, *recorder) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, &recorder{}
}

func begin(t *testing.T, s *store.Store, rec *recorder) *txn.Transaction {
	t.Helper()
	tx, err := txn.BeginWrite(context.Background(), s, rec)
	require.NoError(t, err)
	return tx
}

func TestCreate_AssignsIDAndRoundTrips(t *testing.T) {
	s, rec := setup(t)
	ctx := context.Background()
	tx := begin(t, s, rec)

	in := &model.Field{Name: "title", FieldType: model.FieldTypeString, Nullable: true, EnumValues: []string{"a"}}
	out, err := Fields(tx).Create(ctx, in)
	require.NoError(t, err)
	require.NotZero(t, out.ID)

	got, err := Fields(tx).Get(ctx, out.ID)
	require.NoError(t, err)
	want := *in
	want.ID = out.ID
	assert.Equal(t, &want, got)

	require.NoError(t, tx.Commit())
	require.Len(t, rec.events, 1)
	assert.Equal(t, event.DirectAccess(model.KindField, event.Created), rec.events[0].Origin)
	assert.Equal(t, []model.EntityID{out.ID}, rec.events[0].IDs)
}

func TestGet_AbsentIsNil(t *testing.T) {
	s, rec := setup(t)
	tx := begin(t, s, rec)
	defer tx.Rollback()

	got, err := Entities(tx).Get(context.Background(), 12)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreate_CollidingIDFails(t *testing.T) {
	s, rec := setup(t)
	ctx := context.Background()
	tx := begin(t, s, rec)
	defer tx.Rollback()

	_, err := Features(tx).Create(ctx, &model.Feature{ID: 3, Name: "a"})
	require.NoError(t, err)
	_, err = Features(tx).Create(ctx, &model.Feature{ID: 3, Name: "b"})
	assert.ErrorIs(t, err, ErrIDInUse)
}

func TestUpdate_MissingFails(t *testing.T) {
	s, rec := setup(t)
	tx := begin(t, s, rec)
	defer tx.Rollback()

	_, err := Entities(tx).Update(context.Background(), &model.Entity{ID: 9, Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_MissingIsSilent(t *testing.T) {
	s, rec := setup(t)
	tx := begin(t, s, rec)

	require.NoError(t, Entities(tx).Delete(context.Background(), 404))
	require.NoError(t, tx.Commit())
	assert.Empty(t, rec.events)
}

func TestDelete_CascadesAlongStrongRelations(t *testing.T) {
	s, rec := setup(t)
	ctx := context.Background()
	tx := begin(t, s, rec)

	fields, err := Fields(tx).CreateMulti(ctx, []*model.Field{{Name: "f1"}, {Name: "f2"}})
	require.NoError(t, err)
	e, err := Entities(tx).Create(ctx, &model.Entity{Name: "E", Fields: []model.EntityID{fields[0].ID, fields[1].ID}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	rec.events = nil
	tx = begin(t, s, rec)
	require.NoError(t, Entities(tx).Delete(ctx, e.ID))

	gotE, err := Entities(tx).Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, gotE)
	gotF, err := Fields(tx).GetMulti(ctx, []model.EntityID{fields[0].ID, fields[1].ID})
	require.NoError(t, err)
	assert.Equal(t, []*model.Field{nil, nil}, gotF)

	next, err := ForKind(tx, model.KindField).table.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.EntityID(3), next)
	require.NoError(t, tx.Commit())

	require.Len(t, rec.events, 2)
	assert.Equal(t, event.DirectAccess(model.KindEntity, event.Removed), rec.events[0].Origin)
	assert.Equal(t, []model.EntityID{e.ID}, rec.events[0].IDs)
	assert.Equal(t, event.DirectAccess(model.KindField, event.Removed), rec.events[1].Origin)
	assert.Equal(t, []model.EntityID{fields[0].ID, fields[1].ID}, rec.events[1].IDs)
}

func TestDelete_WeakTargetsSurvive(t *testing.T) {
	s, rec := setup(t)
	ctx := context.Background()
	tx := begin(t, s, rec)
	defer tx.Rollback()

	target, err := Entities(tx).Create(ctx, &model.Entity{Name: "Target"})
	require.NoError(t, err)
	f, err := Fields(tx).Create(ctx, &model.Field{Name: "ref", FieldType: model.FieldTypeEntity, Entity: target.ID})
	require.NoError(t, err)

	require.NoError(t, Fields(tx).Delete(ctx, f.ID))

	still, err := Entities(tx).Get(ctx, target.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestSetRelationship_EmitsFieldData(t *testing.T) {
	s, rec := setup(t)
	ctx := context.Background()
	tx := begin(t, s, rec)

	ents, err := Entities(tx).CreateMulti(ctx, []*model.Entity{{Name: "A"}, {Name: "B"}})
	require.NoError(t, err)
	uc, err := UseCases(tx).Create(ctx, &model.UseCase{Name: "uc"})
	require.NoError(t, err)

	require.NoError(t, UseCases(tx).SetRelationship(ctx, uc.ID, "entities", []model.EntityID{ents[1].ID, ents[0].ID}))
	require.NoError(t, tx.Commit())

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, event.DirectAccess(model.KindUseCase, event.Updated), last.Origin)
	assert.Equal(t, []model.EntityID{uc.ID}, last.IDs)
	assert.Equal(t, "entities:1,2", last.Data)

	tx = begin(t, s, rec)
	defer tx.Rollback()
	entries, err := UseCases(tx).GetRelationshipsFromRightIDs(ctx, "entities", []model.EntityID{ents[0].ID})
	require.NoError(t, err)
	assert.Equal(t, []RelationshipEntry{{Left: uc.ID, Right: []model.EntityID{1, 2}}}, entries)

	err = UseCases(tx).SetRelationship(ctx, 99, "entities", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, model.KindUseCase, KindOf[*model.UseCase]())
	assert.Equal(t, model.KindDtoField, KindOf[*model.DtoField]())
}

// Every forward junction row has a matching backward row after any commit.
func TestInvariant_JunctionsSymmetric(t *testing.T) {
	s, rec := setup(t)
	ctx := context.Background()
	tx := begin(t, s, rec)

	fields, err := Fields(tx).CreateMulti(ctx, []*model.Field{{Name: "a"}, {Name: "b"}, {Name: "c"}})
	require.NoError(t, err)
	e, err := Entities(tx).Create(ctx, &model.Entity{Name: "E", Fields: []model.EntityID{fields[0].ID, fields[1].ID, fields[2].ID}})
	require.NoError(t, err)
	require.NoError(t, Fields(tx).Delete(ctx, fields[1].ID))
	require.NoError(t, tx.Commit())

	tx = begin(t, s, rec)
	defer tx.Rollback()

	got, err := Entities(tx).Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.EntityID{fields[0].ID, fields[2].ID}, got.Fields)

	for _, fid := range got.Fields {
		entries, err := Entities(tx).GetRelationshipsFromRightIDs(ctx, "fields", []model.EntityID{fid})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, e.ID, entries[0].Left)
	}
}
