package tables

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/store"
)

var (
	// ErrNotFound is returned when an update or relationship write names a
	// missing record.
	ErrNotFound = errors.New("record not found")
	// ErrIDInUse is returned when a create carries an id that already exists.
	ErrIDInUse = errors.New("id already in use")
	// ErrUnknownRelation is returned for a field that is not a relation of the kind.
	ErrUnknownRelation = errors.New("unknown relation")
	// ErrKindMismatch is returned when a record of another kind is passed in.
	ErrKindMismatch = errors.New("record kind mismatch")
	// ErrRootExists is returned when a create would leave more than one Root.
	ErrRootExists = errors.New("root already exists")
)

// RelationshipEntry is one forward junction row.
type RelationshipEntry struct {
	Left  model.EntityID
	Right []model.EntityID
}

// Table gives record-level access to one kind inside one transaction.
type Table struct {
	kind model.Kind
	tx   store.Txn
}

// For returns the table of kind inside tx.
func For(tx store.Txn, kind model.Kind) *Table {
	return &Table{kind: kind, tx: tx}
}

// Kind returns the kind stored by the table.
func (t *Table) Kind() model.Kind {
	return t.kind
}

func (t *Table) records(ctx context.Context) (*store.Table[model.EntityID, model.Record], error) {
	return store.OpenTable(ctx, t.tx, Records(t.kind))
}

// CreateMulti inserts recs, allocating ids for those with id 0, and writes
// their relation fields to the junctions. The stored records are returned.
func (t *Table) CreateMulti(ctx context.Context, recs []model.Record) ([]model.Record, error) {
	rows, err := t.records(ctx)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", t.kind, err)
	}
	counters, err := store.OpenTable(ctx, t.tx, Counter)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", t.kind, err)
	}

	next, _, err := counters.Get(ctx, t.kind)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", t.kind, err)
	}
	if next == 0 {
		next = 1
	}

	if t.kind == model.KindRoot {
		if err := t.requireNoRoot(ctx, rows, len(recs)); err != nil {
			return nil, err
		}
	}

	ids := make([]model.EntityID, 0, len(recs))
	for _, rec := range recs {
		if rec.Kind() != t.kind {
			return nil, fmt.Errorf("create %s: got %s: %w", t.kind, rec.Kind(), ErrKindMismatch)
		}

		id := rec.GetID()
		if id == 0 {
			id = next
		} else {
			_, exists, err := rows.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("create %s: %w", t.kind, err)
			}
			if exists {
				return nil, fmt.Errorf("create %s %d: %w", t.kind, id, ErrIDInUse)
			}
		}
		if id >= next {
			next = id + 1
		}

		rec.SetID(id)
		if err := rows.Insert(ctx, id, rec); err != nil {
			return nil, fmt.Errorf("create %s: %w", t.kind, err)
		}
		ids = append(ids, id)
	}

	// Relations go in once every row of the batch exists, so records of the
	// batch may reference each other.
	for i, rec := range recs {
		for _, rel := range model.Relations(t.kind) {
			if err := t.setRelation(ctx, rel, ids[i], rec.RelationIDs(rel.Field)); err != nil {
				return nil, fmt.Errorf("create %s %d: %w", t.kind, ids[i], err)
			}
		}
	}

	if err := counters.Insert(ctx, t.kind, next); err != nil {
		return nil, fmt.Errorf("create %s: %w", t.kind, err)
	}
	return t.GetMulti(ctx, ids)
}

// requireNoRoot fails when the store already holds a Root or when adding
// n roots would make more than one.
func (t *Table) requireNoRoot(ctx context.Context, rows *store.Table[model.EntityID, model.Record], n int) error {
	if n > 1 {
		return fmt.Errorf("create %s: %d in one batch: %w", t.kind, n, ErrRootExists)
	}
	existing, err := rows.Len(ctx)
	if err != nil {
		return fmt.Errorf("create %s: %w", t.kind, err)
	}
	if existing > 0 {
		return fmt.Errorf("create %s: %w", t.kind, ErrRootExists)
	}
	return nil
}

// Get returns the record with id, or nil when absent.
func (t *Table) Get(ctx context.Context, id model.EntityID) (model.Record, error) {
	recs, err := t.GetMulti(ctx, []model.EntityID{id})
	if err != nil {
		return nil, err
	}
	return recs[0], nil
}

// GetMulti returns one entry per id, nil for absent ids. With no ids it
// returns up to ScanLimit records in ascending id order.
func (t *Table) GetMulti(ctx context.Context, ids []model.EntityID) ([]model.Record, error) {
	rows, err := t.records(ctx)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", t.kind, err)
	}

	var out []model.Record
	if len(ids) == 0 {
		err = rows.Range(ctx, nil, ScanLimit, func(_ model.EntityID, rec model.Record) bool {
			out = append(out, rec)
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", t.kind, err)
		}
	} else {
		out = make([]model.Record, len(ids))
		for i, id := range ids {
			rec, ok, err := rows.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("get %s %d: %w", t.kind, id, err)
			}
			if ok {
				out[i] = rec
			}
		}
	}

	for _, rec := range out {
		if rec == nil {
			continue
		}
		if err := t.loadRelations(ctx, rec); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *Table) loadRelations(ctx context.Context, rec model.Record) error {
	for _, rel := range model.Relations(t.kind) {
		fwd, err := store.OpenTable(ctx, t.tx, Forward(rel))
		if err != nil {
			return fmt.Errorf("get %s: %w", t.kind, err)
		}
		ids, _, err := fwd.Get(ctx, rec.GetID())
		if err != nil {
			return fmt.Errorf("get %s %s: %w", t.kind, rel.Field, err)
		}
		rec.SetRelationIDs(rel.Field, ids)
	}
	return nil
}

// Exists reports whether id is stored.
func (t *Table) Exists(ctx context.Context, id model.EntityID) (bool, error) {
	rows, err := t.records(ctx)
	if err != nil {
		return false, err
	}
	_, ok, err := rows.Get(ctx, id)
	return ok, err
}

// UpdateMulti overwrites existing records, scalars and relations alike.
func (t *Table) UpdateMulti(ctx context.Context, recs []model.Record) ([]model.Record, error) {
	rows, err := t.records(ctx)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", t.kind, err)
	}

	ids := make([]model.EntityID, 0, len(recs))
	for _, rec := range recs {
		if rec.Kind() != t.kind {
			return nil, fmt.Errorf("update %s: got %s: %w", t.kind, rec.Kind(), ErrKindMismatch)
		}
		id := rec.GetID()
		_, ok, err := rows.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("update %s %d: %w", t.kind, id, err)
		}
		if !ok {
			return nil, fmt.Errorf("update %s %d: %w", t.kind, id, ErrNotFound)
		}
		if err := rows.Insert(ctx, id, rec); err != nil {
			return nil, fmt.Errorf("update %s %d: %w", t.kind, id, err)
		}
		for _, rel := range model.Relations(t.kind) {
			if err := t.setRelation(ctx, rel, id, rec.RelationIDs(rel.Field)); err != nil {
				return nil, fmt.Errorf("update %s %d: %w", t.kind, id, err)
			}
		}
		ids = append(ids, id)
	}
	return t.GetMulti(ctx, ids)
}

// DeleteMulti removes the records with ids together with their junction rows,
// and scrubs them from every junction that references them. Missing ids are
// skipped. The ids actually removed are returned in input order.
//
// Strong children are not touched; cascading is up to the caller.
func (t *Table) DeleteMulti(ctx context.Context, ids []model.EntityID) ([]model.EntityID, error) {
	rows, err := t.records(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", t.kind, err)
	}

	var removed []model.EntityID
	for _, id := range ids {
		ok, err := rows.Remove(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("delete %s %d: %w", t.kind, id, err)
		}
		if !ok {
			continue
		}
		removed = append(removed, id)

		for _, rel := range model.Relations(t.kind) {
			if err := t.setRelation(ctx, rel, id, nil); err != nil {
				return nil, fmt.Errorf("delete %s %d: %w", t.kind, id, err)
			}
		}
		for _, rel := range model.IncomingRelations(t.kind) {
			if err := scrubIncoming(ctx, t.tx, rel, id); err != nil {
				return nil, fmt.Errorf("delete %s %d: %w", t.kind, id, err)
			}
		}
	}
	return removed, nil
}

// GetRelationship returns the ids held by field of record id.
func (t *Table) GetRelationship(ctx context.Context, id model.EntityID, field string) ([]model.EntityID, error) {
	rel, ok := model.LookupRelation(t.kind, field)
	if !ok {
		return nil, fmt.Errorf("get %s.%s: %w", t.kind, field, ErrUnknownRelation)
	}
	fwd, err := store.OpenTable(ctx, t.tx, Forward(rel))
	if err != nil {
		return nil, fmt.Errorf("get %s.%s: %w", t.kind, field, err)
	}
	ids, _, err := fwd.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s.%s: %w", t.kind, field, err)
	}
	return ids, nil
}

// GetRelationshipsFromRightIDs returns the forward rows of every owner whose
// field references at least one of rightIDs, in order of discovery.
func (t *Table) GetRelationshipsFromRightIDs(ctx context.Context, field string, rightIDs []model.EntityID) ([]RelationshipEntry, error) {
	rel, ok := model.LookupRelation(t.kind, field)
	if !ok {
		return nil, fmt.Errorf("get %s.%s: %w", t.kind, field, ErrUnknownRelation)
	}
	bwd, err := store.OpenTable(ctx, t.tx, Backward(rel))
	if err != nil {
		return nil, fmt.Errorf("get %s.%s: %w", t.kind, field, err)
	}
	fwd, err := store.OpenTable(ctx, t.tx, Forward(rel))
	if err != nil {
		return nil, fmt.Errorf("get %s.%s: %w", t.kind, field, err)
	}

	seen := make(map[model.EntityID]bool)
	var out []RelationshipEntry
	for _, right := range rightIDs {
		owners, _, err := bwd.Get(ctx, right)
		if err != nil {
			return nil, fmt.Errorf("get %s.%s: %w", t.kind, field, err)
		}
		for _, left := range owners {
			if seen[left] {
				continue
			}
			seen[left] = true
			targets, _, err := fwd.Get(ctx, left)
			if err != nil {
				return nil, fmt.Errorf("get %s.%s: %w", t.kind, field, err)
			}
			out = append(out, RelationshipEntry{Left: left, Right: targets})
		}
	}
	return out, nil
}

// SetRelationshipMulti replaces field on each entry's owner.
func (t *Table) SetRelationshipMulti(ctx context.Context, field string, entries []RelationshipEntry) error {
	rel, ok := model.LookupRelation(t.kind, field)
	if !ok {
		return fmt.Errorf("set %s.%s: %w", t.kind, field, ErrUnknownRelation)
	}
	for _, e := range entries {
		exists, err := t.Exists(ctx, e.Left)
		if err != nil {
			return fmt.Errorf("set %s.%s: %w", t.kind, field, err)
		}
		if !exists {
			return fmt.Errorf("set %s.%s on %d: %w", t.kind, field, e.Left, ErrNotFound)
		}
		if err := t.setRelation(ctx, rel, e.Left, e.Right); err != nil {
			return fmt.Errorf("set %s.%s: %w", t.kind, field, err)
		}
	}
	return nil
}

// setRelation writes the forward row of owner and patches the backward rows
// of the targets that were added or dropped.
func (t *Table) setRelation(ctx context.Context, rel model.Relation, owner model.EntityID, ids []model.EntityID) error {
	fwd, err := store.OpenTable(ctx, t.tx, Forward(rel))
	if err != nil {
		return err
	}
	bwd, err := store.OpenTable(ctx, t.tx, Backward(rel))
	if err != nil {
		return err
	}

	ids = Normalize(rel, ids)
	if err := requireTargets(ctx, t.tx, rel, ids); err != nil {
		return err
	}
	old, _, err := fwd.Get(ctx, owner)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		if _, err := fwd.Remove(ctx, owner); err != nil {
			return err
		}
	} else if err := fwd.Insert(ctx, owner, ids); err != nil {
		return err
	}

	for _, target := range old {
		if slices.Contains(ids, target) {
			continue
		}
		if err := removeFromRow(ctx, bwd, target, owner); err != nil {
			return err
		}
	}
	for _, target := range ids {
		if slices.Contains(old, target) {
			continue
		}
		owners, _, err := bwd.Get(ctx, target)
		if err != nil {
			return err
		}
		if slices.Contains(owners, owner) {
			continue
		}
		if err := bwd.Insert(ctx, target, append(owners, owner)); err != nil {
			return err
		}
	}
	return nil
}

// requireTargets fails with ErrNotFound when one of ids is not a stored
// record of the relation's target kind.
func requireTargets(ctx context.Context, tx store.Txn, rel model.Relation, ids []model.EntityID) error {
	if len(ids) == 0 {
		return nil
	}
	targets, err := store.OpenTable(ctx, tx, Records(rel.Target))
	if err != nil {
		return err
	}
	for _, id := range ids {
		_, ok, err := targets.Get(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s %d: %w", rel.Field, id, ErrNotFound)
		}
	}
	return nil
}

// scrubIncoming removes target from every owner row of rel that holds it.
func scrubIncoming(ctx context.Context, tx store.Txn, rel model.Relation, target model.EntityID) error {
	fwd, err := store.OpenTable(ctx, tx, Forward(rel))
	if err != nil {
		return err
	}
	bwd, err := store.OpenTable(ctx, tx, Backward(rel))
	if err != nil {
		return err
	}

	owners, _, err := bwd.Get(ctx, target)
	if err != nil {
		return err
	}
	for _, owner := range owners {
		if err := removeFromRow(ctx, fwd, owner, target); err != nil {
			return err
		}
	}
	_, err = bwd.Remove(ctx, target)
	return err
}

func removeFromRow(ctx context.Context, tbl *store.Table[model.EntityID, []model.EntityID], key, id model.EntityID) error {
	ids, ok, err := tbl.Get(ctx, key)
	if err != nil || !ok {
		return err
	}
	kept := slices.DeleteFunc(slices.Clone(ids), func(v model.EntityID) bool { return v == id })
	if len(kept) == len(ids) {
		return nil
	}
	if len(kept) == 0 {
		_, err = tbl.Remove(ctx, key)
		return err
	}
	return tbl.Insert(ctx, key, kept)
}

// Normalize drops zero ids and duplicates. Ordered relations keep the first
// occurrence of each id in place; unordered ones are sorted ascending.
// Single-valued relations keep at most one id.
func Normalize(rel model.Relation, ids []model.EntityID) []model.EntityID {
	out := make([]model.EntityID, 0, len(ids))
	seen := make(map[model.EntityID]bool, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if !rel.Many && len(out) > 1 {
		out = out[:1]
	}
	if rel.Many && !rel.Ordered {
		slices.Sort(out)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// NextID returns the value of the kind's counter (1 when unset).
func (t *Table) NextID(ctx context.Context) (model.EntityID, error) {
	counters, err := store.OpenTable(ctx, t.tx, Counter)
	if err != nil {
		return 0, err
	}
	next, _, err := counters.Get(ctx, t.kind)
	if err != nil {
		return 0, err
	}
	if next == 0 {
		next = 1
	}
	return next, nil
}
