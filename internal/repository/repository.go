package repository

import (
	"context"
	"fmt"

	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/txn"
)

// Repository is the typed surface of one kind.
type Repository[R model.Record] interface {
	Create(ctx context.Context, rec R) (R, error)
	CreateMulti(ctx context.Context, recs []R) ([]R, error)
	// Get returns the zero R (a nil pointer) when id is absent.
	Get(ctx context.Context, id model.EntityID) (R, error)
	GetMulti(ctx context.Context, ids []model.EntityID) ([]R, error)
	Update(ctx context.Context, rec R) (R, error)
	UpdateMulti(ctx context.Context, recs []R) ([]R, error)
	Delete(ctx context.Context, id model.EntityID) error
	DeleteMulti(ctx context.Context, ids []model.EntityID) error
	GetRelationship(ctx context.Context, id model.EntityID, field string) ([]model.EntityID, error)
	GetRelationshipsFromRightIDs(ctx context.Context, field string, rightIDs []model.EntityID) ([]RelationshipEntry, error)
	SetRelationship(ctx context.Context, id model.EntityID, field string, ids []model.EntityID) error
	SetRelationshipMulti(ctx context.Context, field string, entries []RelationshipEntry) error
}

type typed[R model.Record] struct {
	records *Records
}

// New returns the repository of R's kind within tx.
func New[R model.Record](tx *txn.Transaction) Repository[R] {
	return &typed[R]{records: ForKind(tx, KindOf[R]())}
}

// KindOf returns the kind of the record type R.
func KindOf[R model.Record]() model.Kind {
	var zero R
	return zero.Kind()
}

func (t *typed[R]) Create(ctx context.Context, rec R) (R, error) {
	out, err := t.CreateMulti(ctx, []R{rec})
	if err != nil {
		var zero R
		return zero, err
	}
	return out[0], nil
}

func (t *typed[R]) CreateMulti(ctx context.Context, recs []R) ([]R, error) {
	out, err := t.records.CreateMulti(ctx, toRecords(recs))
	if err != nil {
		return nil, err
	}
	return fromRecords[R](out)
}

func (t *typed[R]) Get(ctx context.Context, id model.EntityID) (R, error) {
	out, err := t.GetMulti(ctx, []model.EntityID{id})
	if err != nil {
		var zero R
		return zero, err
	}
	return out[0], nil
}

func (t *typed[R]) GetMulti(ctx context.Context, ids []model.EntityID) ([]R, error) {
	out, err := t.records.GetMulti(ctx, ids)
	if err != nil {
		return nil, err
	}
	return fromRecords[R](out)
}

func (t *typed[R]) Update(ctx context.Context, rec R) (R, error) {
	out, err := t.UpdateMulti(ctx, []R{rec})
	if err != nil {
		var zero R
		return zero, err
	}
	return out[0], nil
}

func (t *typed[R]) UpdateMulti(ctx context.Context, recs []R) ([]R, error) {
	out, err := t.records.UpdateMulti(ctx, toRecords(recs))
	if err != nil {
		return nil, err
	}
	return fromRecords[R](out)
}

func (t *typed[R]) Delete(ctx context.Context, id model.EntityID) error {
	return t.records.DeleteMulti(ctx, []model.EntityID{id})
}

func (t *typed[R]) DeleteMulti(ctx context.Context, ids []model.EntityID) error {
	return t.records.DeleteMulti(ctx, ids)
}

func (t *typed[R]) GetRelationship(ctx context.Context, id model.EntityID, field string) ([]model.EntityID, error) {
	return t.records.GetRelationship(ctx, id, field)
}

func (t *typed[R]) GetRelationshipsFromRightIDs(ctx context.Context, field string, rightIDs []model.EntityID) ([]RelationshipEntry, error) {
	return t.records.GetRelationshipsFromRightIDs(ctx, field, rightIDs)
}

func (t *typed[R]) SetRelationship(ctx context.Context, id model.EntityID, field string, ids []model.EntityID) error {
	return t.records.SetRelationship(ctx, id, field, ids)
}

func (t *typed[R]) SetRelationshipMulti(ctx context.Context, field string, entries []RelationshipEntry) error {
	return t.records.SetRelationshipMulti(ctx, field, entries)
}

func toRecords[R model.Record](recs []R) []model.Record {
	out := make([]model.Record, len(recs))
	for i, rec := range recs {
		out[i] = rec
	}
	return out
}

func fromRecords[R model.Record](recs []model.Record) ([]R, error) {
	out := make([]R, len(recs))
	for i, rec := range recs {
		if rec == nil {
			continue
		}
		v, ok := rec.(R)
		if !ok {
			return nil, fmt.Errorf("unexpected record type %T", rec)
		}
		out[i] = v
	}
	return out, nil
}
