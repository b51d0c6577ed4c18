package uow

import (
	"context"
	"fmt"

	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/repository"
)

// Repo returns the repository of R within u, restricted to u's capabilities.
func Repo[R model.Record](u UnitOfWork) repository.Repository[R] {
	return &guarded[R]{
		inner: repository.New[R](u.transaction()),
		kind:  repository.KindOf[R](),
		caps:  u.Capabilities(),
	}
}

type guarded[R model.Record] struct {
	inner repository.Repository[R]
	kind  model.Kind
	caps  Capabilities
}

func (g *guarded[R]) check(a Action) error {
	if g.caps.Contains(Capability{Kind: g.kind, Action: a}) {
		return nil
	}
	return fmt.Errorf("%s %s: %w", a, g.kind, ErrCapabilityDenied)
}

func (g *guarded[R]) Create(ctx context.Context, rec R) (R, error) {
	if err := g.check(ActionCreate); err != nil {
		var zero R
		return zero, err
	}
	return g.inner.Create(ctx, rec)
}

func (g *guarded[R]) CreateMulti(ctx context.Context, recs []R) ([]R, error) {
	if err := g.check(ActionCreate); err != nil {
		return nil, err
	}
	return g.inner.CreateMulti(ctx, recs)
}

func (g *guarded[R]) Get(ctx context.Context, id model.EntityID) (R, error) {
	if err := g.check(ActionRead); err != nil {
		var zero R
		return zero, err
	}
	return g.inner.Get(ctx, id)
}

func (g *guarded[R]) GetMulti(ctx context.Context, ids []model.EntityID) ([]R, error) {
	if err := g.check(ActionRead); err != nil {
		return nil, err
	}
	return g.inner.GetMulti(ctx, ids)
}

func (g *guarded[R]) Update(ctx context.Context, rec R) (R, error) {
	if err := g.check(ActionUpdate); err != nil {
		var zero R
		return zero, err
	}
	return g.inner.Update(ctx, rec)
}

func (g *guarded[R]) UpdateMulti(ctx context.Context, recs []R) ([]R, error) {
	if err := g.check(ActionUpdate); err != nil {
		return nil, err
	}
	return g.inner.UpdateMulti(ctx, recs)
}

func (g *guarded[R]) Delete(ctx context.Context, id model.EntityID) error {
	if err := g.check(ActionDelete); err != nil {
		return err
	}
	return g.inner.Delete(ctx, id)
}

func (g *guarded[R]) DeleteMulti(ctx context.Context, ids []model.EntityID) error {
	if err := g.check(ActionDelete); err != nil {
		return err
	}
	return g.inner.DeleteMulti(ctx, ids)
}

func (g *guarded[R]) GetRelationship(ctx context.Context, id model.EntityID, field string) ([]model.EntityID, error) {
	if err := g.check(ActionRead); err != nil {
		return nil, err
	}
	return g.inner.GetRelationship(ctx, id, field)
}

func (g *guarded[R]) GetRelationshipsFromRightIDs(ctx context.Context, field string, rightIDs []model.EntityID) ([]repository.RelationshipEntry, error) {
	if err := g.check(ActionRead); err != nil {
		return nil, err
	}
	return g.inner.GetRelationshipsFromRightIDs(ctx, field, rightIDs)
}

func (g *guarded[R]) SetRelationship(ctx context.Context, id model.EntityID, field string, ids []model.EntityID) error {
	if err := g.check(ActionUpdate); err != nil {
		return err
	}
	return g.inner.SetRelationship(ctx, id, field, ids)
}

func (g *guarded[R]) SetRelationshipMulti(ctx context.Context, field string, entries []repository.RelationshipEntry) error {
	if err := g.check(ActionUpdate); err != nil {
		return err
	}
	return g.inner.SetRelationshipMulti(ctx, field, entries)
}
