package generator

import (
	"context"
	"fmt"

	"github.com/jacquetc/qleany-sub001/internal/manifest"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// Workspace is the loaded workspace read in one unit of work.
type Workspace struct {
	ID           model.EntityID
	SystemID     model.EntityID
	ManifestPath string
	Global       *model.Global
	UI           *model.UserInterface

	// Entities and Features keep declaration order.
	Entities      []*model.Entity
	Features      []*model.Feature
	Fields        map[model.EntityID]*model.Field
	Relationships map[model.EntityID]*model.Relationship
	UseCases      map[model.EntityID]*model.UseCase
	Dtos          map[model.EntityID]*model.Dto
	DtoFields     map[model.EntityID]*model.DtoField

	// Files are the System's File rows in fill order.
	Files []*model.File
}

// ReadCapabilities is what LoadWorkspace needs.
func ReadCapabilities() uow.Capabilities {
	return uow.Read(model.Kinds()...)
}

// LoadWorkspace reads the current workspace and its files.
func LoadWorkspace(ctx context.Context, u uow.UnitOfWork) (*Workspace, error) {
	roots, err := uow.Repo[*model.Root](u).GetMulti(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("read roots: %w", err)
	}
	if len(roots) != 1 || roots[0].Workspace == 0 {
		return nil, manifest.ErrNoWorkspace
	}
	root := roots[0]

	wsRec, err := uow.Repo[*model.Workspace](u).Get(ctx, root.Workspace)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	if wsRec == nil {
		return nil, manifest.ErrNoWorkspace
	}

	ws := &Workspace{ID: wsRec.ID, SystemID: root.System, ManifestPath: wsRec.ManifestAbsolutePath}
	if ws.Global, err = uow.Repo[*model.Global](u).Get(ctx, wsRec.Global); err != nil {
		return nil, fmt.Errorf("read global: %w", err)
	}
	if ws.Global == nil {
		return nil, fmt.Errorf("workspace %d has no global settings", wsRec.ID)
	}
	if ws.UI, err = uow.Repo[*model.UserInterface](u).Get(ctx, wsRec.UserInterface); err != nil {
		return nil, fmt.Errorf("read user interface: %w", err)
	}
	if ws.UI == nil {
		ws.UI = &model.UserInterface{}
	}

	if ws.Entities, err = byIDs[*model.Entity](ctx, u, wsRec.Entities); err != nil {
		return nil, err
	}
	var fieldIDs, relIDs []model.EntityID
	for _, e := range ws.Entities {
		fieldIDs = append(fieldIDs, e.Fields...)
		relIDs = append(relIDs, e.Relationships...)
	}
	if ws.Fields, err = indexByID[*model.Field](ctx, u, fieldIDs); err != nil {
		return nil, err
	}
	if ws.Relationships, err = indexByID[*model.Relationship](ctx, u, relIDs); err != nil {
		return nil, err
	}

	if ws.Features, err = byIDs[*model.Feature](ctx, u, wsRec.Features); err != nil {
		return nil, err
	}
	var useCaseIDs []model.EntityID
	for _, f := range ws.Features {
		useCaseIDs = append(useCaseIDs, f.UseCases...)
	}
	if ws.UseCases, err = indexByID[*model.UseCase](ctx, u, useCaseIDs); err != nil {
		return nil, err
	}
	var dtoIDs []model.EntityID
	for _, uc := range ws.UseCases {
		if uc.DtoIn != 0 {
			dtoIDs = append(dtoIDs, uc.DtoIn)
		}
		if uc.DtoOut != 0 {
			dtoIDs = append(dtoIDs, uc.DtoOut)
		}
	}
	if ws.Dtos, err = indexByID[*model.Dto](ctx, u, dtoIDs); err != nil {
		return nil, err
	}
	var dtoFieldIDs []model.EntityID
	for _, d := range ws.Dtos {
		dtoFieldIDs = append(dtoFieldIDs, d.Fields...)
	}
	if ws.DtoFields, err = indexByID[*model.DtoField](ctx, u, dtoFieldIDs); err != nil {
		return nil, err
	}

	if ws.SystemID != 0 {
		fileIDs, err := uow.Repo[*model.System](u).GetRelationship(ctx, ws.SystemID, "files")
		if err != nil {
			return nil, fmt.Errorf("read system files: %w", err)
		}
		if ws.Files, err = byIDs[*model.File](ctx, u, fileIDs); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// Entity returns the entity with id.
func (ws *Workspace) Entity(id model.EntityID) *model.Entity {
	for _, e := range ws.Entities {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// EntityNamed returns the entity called name.
func (ws *Workspace) EntityNamed(name string) *model.Entity {
	for _, e := range ws.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// FeatureNamed returns the feature called name.
func (ws *Workspace) FeatureNamed(name string) *model.Feature {
	for _, f := range ws.Features {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FeatureOf returns the feature listing use case id.
func (ws *Workspace) FeatureOf(useCase model.EntityID) *model.Feature {
	for _, f := range ws.Features {
		for _, id := range f.UseCases {
			if id == useCase {
				return f
			}
		}
	}
	return nil
}

// byIDs reads ids in order, skipping absent records. No ids means no
// records.
func byIDs[R model.Record](ctx context.Context, u uow.UnitOfWork, ids []model.EntityID) ([]R, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	recs, err := uow.Repo[R](u).GetMulti(ctx, ids)
	var zero R
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", zero.Kind(), err)
	}
	out := recs[:0]
	for _, r := range recs {
		if any(r) != any(zero) {
			out = append(out, r)
		}
	}
	return out, nil
}

func indexByID[R model.Record](ctx context.Context, u uow.UnitOfWork, ids []model.EntityID) (map[model.EntityID]R, error) {
	recs, err := byIDs[R](ctx, u, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[model.EntityID]R, len(recs))
	for _, r := range recs {
		out[r.GetID()] = r
	}
	return out, nil
}
