package repository

import (
	"context"
	"fmt"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/tables"
	"github.com/jacquetc/qleany-sub001/internal/txn"
)

var (
	// ErrNotFound is returned by updates and relationship writes on missing ids.
	ErrNotFound = tables.ErrNotFound
	// ErrIDInUse is returned when a create collides with an existing id.
	ErrIDInUse = tables.ErrIDInUse
	// ErrUnknownRelation is returned for fields that are not relations.
	ErrUnknownRelation = tables.ErrUnknownRelation
	// ErrRootExists is returned when a create would add a second Root.
	ErrRootExists = tables.ErrRootExists
)

// RelationshipEntry is the relation field of one owner.
type RelationshipEntry = tables.RelationshipEntry

// Records is the kind-agnostic repository every typed repository delegates to.
type Records struct {
	kind  model.Kind
	tx    *txn.Transaction
	table *tables.Table
}

// ForKind returns the repository of kind within tx.
func ForKind(tx *txn.Transaction, kind model.Kind) *Records {
	return &Records{kind: kind, tx: tx, table: tables.For(tx.Txn(), kind)}
}

// Kind returns the kind handled by the repository.
func (r *Records) Kind() model.Kind {
	return r.kind
}

func (r *Records) emit(action event.Action, ids []model.EntityID, data string) {
	if len(ids) == 0 {
		return
	}
	r.tx.Emit(event.Event{Origin: event.DirectAccess(r.kind, action), IDs: ids, Data: data})
}

// CreateMulti stores recs and emits one Created event.
func (r *Records) CreateMulti(ctx context.Context, recs []model.Record) ([]model.Record, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	out, err := r.table.CreateMulti(ctx, recs)
	if err != nil {
		return nil, err
	}
	r.emit(event.Created, idsOf(out), "")
	return out, nil
}

// GetMulti returns one entry per id (nil when absent), or up to
// tables.ScanLimit records when ids is empty.
func (r *Records) GetMulti(ctx context.Context, ids []model.EntityID) ([]model.Record, error) {
	return r.table.GetMulti(ctx, ids)
}

// Get returns the record or nil.
func (r *Records) Get(ctx context.Context, id model.EntityID) (model.Record, error) {
	return r.table.Get(ctx, id)
}

// UpdateMulti overwrites recs and emits one Updated event.
func (r *Records) UpdateMulti(ctx context.Context, recs []model.Record) ([]model.Record, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	out, err := r.table.UpdateMulti(ctx, recs)
	if err != nil {
		return nil, err
	}
	r.emit(event.Updated, idsOf(out), "")
	return out, nil
}

// DeleteMulti removes ids and everything they strongly own. Missing ids are
// ignored; when none exists no event is emitted.
func (r *Records) DeleteMulti(ctx context.Context, ids []model.EntityID) error {
	type cascade struct {
		rel     model.Relation
		targets []model.EntityID
	}
	var children []cascade
	for _, rel := range model.Relations(r.kind) {
		if !rel.IsStrong() {
			continue
		}
		var targets []model.EntityID
		for _, id := range ids {
			owned, err := r.table.GetRelationship(ctx, id, rel.Field)
			if err != nil {
				return fmt.Errorf("delete %s: %w", r.kind, err)
			}
			targets = append(targets, owned...)
		}
		if len(targets) > 0 {
			children = append(children, cascade{rel: rel, targets: targets})
		}
	}

	removed, err := r.table.DeleteMulti(ctx, ids)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		return nil
	}
	r.emit(event.Removed, removed, "")

	for _, c := range children {
		if err := ForKind(r.tx, c.rel.Target).DeleteMulti(ctx, c.targets); err != nil {
			return fmt.Errorf("delete %s: cascade %s: %w", r.kind, c.rel.Field, err)
		}
	}
	return nil
}

// GetRelationship returns the ids of field on record id.
func (r *Records) GetRelationship(ctx context.Context, id model.EntityID, field string) ([]model.EntityID, error) {
	return r.table.GetRelationship(ctx, id, field)
}

// GetRelationshipsFromRightIDs returns the owners referencing any of rightIDs
// through field, with their full id lists.
func (r *Records) GetRelationshipsFromRightIDs(ctx context.Context, field string, rightIDs []model.EntityID) ([]RelationshipEntry, error) {
	return r.table.GetRelationshipsFromRightIDs(ctx, field, rightIDs)
}

// SetRelationship replaces field on record id.
func (r *Records) SetRelationship(ctx context.Context, id model.EntityID, field string, ids []model.EntityID) error {
	return r.SetRelationshipMulti(ctx, field, []RelationshipEntry{{Left: id, Right: ids}})
}

// SetRelationshipMulti replaces field on each entry's owner and emits one
// Updated event per owner carrying "field:id,id,...".
func (r *Records) SetRelationshipMulti(ctx context.Context, field string, entries []RelationshipEntry) error {
	if err := r.table.SetRelationshipMulti(ctx, field, entries); err != nil {
		return err
	}
	rel, _ := model.LookupRelation(r.kind, field)
	for _, e := range entries {
		r.emit(event.Updated, []model.EntityID{e.Left}, event.RelationshipData(field, tables.Normalize(rel, e.Right)))
	}
	return nil
}

func idsOf(recs []model.Record) []model.EntityID {
	ids := make([]model.EntityID, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.GetID())
	}
	return ids
}
