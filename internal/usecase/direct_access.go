package usecase

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/repository"
	"github.com/jacquetc/qleany-sub001/internal/undo"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// DirectAccess is the create, read, update and remove surface of one
// record kind. Every write is recorded in the undo history.
type DirectAccess[R model.Record] struct {
	svc  *Service
	kind model.Kind
}

// Access returns the direct access use cases of R.
func Access[R model.Record](s *Service) *DirectAccess[R] {
	return &DirectAccess[R]{svc: s, kind: repository.KindOf[R]()}
}

func (d *DirectAccess[R]) caps() uow.Capabilities {
	return uow.ReadWrite(d.kind)
}

// Get returns the record with id, or the zero R when it does not exist.
func (d *DirectAccess[R]) Get(ctx context.Context, id model.EntityID) (R, error) {
	out, err := d.GetMulti(ctx, []model.EntityID{id})
	if err != nil {
		var zero R
		return zero, err
	}
	return out[0], nil
}

// GetMulti returns one entry per id, the zero R for absent ids. An empty
// list returns every record up to the scan limit.
func (d *DirectAccess[R]) GetMulti(ctx context.Context, ids []model.EntityID) ([]R, error) {
	q, err := d.svc.factory.Query(ctx, uow.Read(d.kind))
	if err != nil {
		return nil, err
	}
	defer q.End()
	return uow.Repo[R](q).GetMulti(ctx, ids)
}

// GetRelationship returns the ids held by field on record id.
func (d *DirectAccess[R]) GetRelationship(ctx context.Context, id model.EntityID, field string) ([]model.EntityID, error) {
	q, err := d.svc.factory.Query(ctx, uow.Read(d.kind))
	if err != nil {
		return nil, err
	}
	defer q.End()
	return uow.Repo[R](q).GetRelationship(ctx, id, field)
}

// Create stores rec and returns it with its id.
func (d *DirectAccess[R]) Create(ctx context.Context, rec R) (R, error) {
	out, err := d.CreateMulti(ctx, []R{rec})
	if err != nil {
		var zero R
		return zero, err
	}
	return out[0], nil
}

// CreateMulti stores recs in one unit of work. Undo restores the savepoint
// taken before the creation; redo creates the same records again under the
// same ids.
func (d *DirectAccess[R]) CreateMulti(ctx context.Context, recs []R) ([]R, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	cmd, err := d.svc.factory.Command(ctx, d.caps())
	if err != nil {
		return nil, err
	}
	defer cmd.Rollback()

	sp, err := cmd.CreateSavepoint(ctx)
	if err != nil {
		return nil, err
	}
	repo := uow.Repo[R](cmd)
	created, err := repo.CreateMulti(ctx, recs)
	if err != nil {
		return nil, err
	}
	// A second read yields copies the caller cannot alter.
	images, err := repo.GetMulti(ctx, idsOf(created))
	if err != nil {
		return nil, err
	}
	if err := cmd.Commit(); err != nil {
		return nil, fmt.Errorf("commit create %s: %w", d.kind, err)
	}

	redo := func(ctx context.Context, cmd *uow.Command) error {
		_, err := uow.Repo[R](cmd).CreateMulti(ctx, images)
		return err
	}
	d.svc.undo.Push(ctx, undo.NewSavepointCommand(d.svc.factory, sp, d.caps(), redo))
	d.svc.logger.Debug("records created", zap.String("kind", string(d.kind)), zap.Int("count", len(created)))
	return created, nil
}

// Update overwrites rec.
func (d *DirectAccess[R]) Update(ctx context.Context, rec R) (R, error) {
	out, err := d.UpdateMulti(ctx, []R{rec})
	if err != nil {
		var zero R
		return zero, err
	}
	return out[0], nil
}

// UpdateMulti overwrites recs in one unit of work. Undo writes the previous
// images back.
func (d *DirectAccess[R]) UpdateMulti(ctx context.Context, recs []R) ([]R, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	cmd, err := d.svc.factory.Command(ctx, d.caps())
	if err != nil {
		return nil, err
	}
	defer cmd.Rollback()

	repo := uow.Repo[R](cmd)
	ids := idsOf(recs)
	before, err := present(repo.GetMulti(ctx, ids))
	if err != nil {
		return nil, err
	}
	updated, err := repo.UpdateMulti(ctx, recs)
	if err != nil {
		return nil, err
	}
	after, err := repo.GetMulti(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := cmd.Commit(); err != nil {
		return nil, fmt.Errorf("commit update %s: %w", d.kind, err)
	}

	d.svc.undo.Push(ctx, undo.NewUpdateCommand(d.svc.factory, before, after))
	return updated, nil
}

// Remove deletes ids and every record they strongly own. Undo restores the
// savepoint taken before the deletion. Ids that do not exist are ignored;
// when none exists nothing is recorded. A deletion that ran clears the
// other undo stacks, whose commands may refer to the removed records.
func (d *DirectAccess[R]) Remove(ctx context.Context, ids ...model.EntityID) error {
	if len(ids) == 0 {
		return nil
	}
	cmd, err := d.svc.factory.Command(ctx, d.caps())
	if err != nil {
		return err
	}
	defer cmd.Rollback()

	existing, err := uow.Repo[R](cmd).GetMulti(ctx, ids)
	if err != nil {
		return err
	}
	found := slices.DeleteFunc(idsOfPresent(existing), func(id model.EntityID) bool { return id == 0 })
	if len(found) == 0 {
		return nil
	}

	sp, err := cmd.CreateSavepoint(ctx)
	if err != nil {
		return err
	}
	remove := func(ctx context.Context, cmd *uow.Command) error {
		return uow.Repo[R](cmd).DeleteMulti(ctx, found)
	}
	if err := remove(ctx, cmd); err != nil {
		return err
	}
	if err := cmd.Commit(); err != nil {
		return fmt.Errorf("commit remove %s: %w", d.kind, err)
	}

	d.svc.undo.ClearOthers(ctx, d.svc.undo.ActiveStack())
	d.svc.undo.Push(ctx, undo.NewSavepointCommand(d.svc.factory, sp, d.caps(), remove))
	d.svc.logger.Debug("records removed", zap.String("kind", string(d.kind)), zap.Int("count", len(found)))
	return nil
}

// SetRelationship replaces field on record id. Undo writes the previous
// record image back, junctions included.
func (d *DirectAccess[R]) SetRelationship(ctx context.Context, id model.EntityID, field string, ids []model.EntityID) error {
	cmd, err := d.svc.factory.Command(ctx, d.caps())
	if err != nil {
		return err
	}
	defer cmd.Rollback()

	repo := uow.Repo[R](cmd)
	before, err := present(repo.GetMulti(ctx, []model.EntityID{id}))
	if err != nil {
		return err
	}
	if err := repo.SetRelationship(ctx, id, field, ids); err != nil {
		return err
	}
	after, err := repo.GetMulti(ctx, []model.EntityID{id})
	if err != nil {
		return err
	}
	if err := cmd.Commit(); err != nil {
		return fmt.Errorf("commit set %s.%s: %w", d.kind, field, err)
	}

	d.svc.undo.Push(ctx, undo.NewUpdateCommand(d.svc.factory, before, after))
	return nil
}

// present fails with repository.ErrNotFound when a lookup missed.
func present[R model.Record](recs []R, err error) ([]R, error) {
	if err != nil {
		return nil, err
	}
	var zero R
	for _, r := range recs {
		if any(r) == any(zero) {
			return nil, repository.ErrNotFound
		}
	}
	return recs, nil
}

// idsOfPresent returns the ids of recs, 0 for absent entries.
func idsOfPresent[R model.Record](recs []R) []model.EntityID {
	var zero R
	ids := make([]model.EntityID, len(recs))
	for i, r := range recs {
		if any(r) != any(zero) {
			ids[i] = r.GetID()
		}
	}
	return ids
}

func idsOf[R model.Record](recs []R) []model.EntityID {
	ids := make([]model.EntityID, len(recs))
	for i, r := range recs {
		ids[i] = r.GetID()
	}
	return ids
}
