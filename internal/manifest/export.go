package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// ErrNoWorkspace is returned when no manifest is loaded.
var ErrNoWorkspace = errors.New("no manifest loaded")

// ReadCapabilities is what Export declares on its unit of work.
func ReadCapabilities() uow.Capabilities {
	return uow.Read(
		model.KindRoot, model.KindWorkspace, model.KindGlobal,
		model.KindUserInterface, model.KindEntity, model.KindField,
		model.KindFeature, model.KindUseCase, model.KindDto, model.KindDtoField,
	)
}

// Export walks the loaded workspace back into a Manifest. Entities and
// features come out in declaration order; relationship rows are not
// exported since Load derives them again.
func Export(ctx context.Context, f *uow.Factory) (*Manifest, error) {
	q, err := f.Query(ctx, ReadCapabilities())
	if err != nil {
		return nil, err
	}
	defer q.End()
	return ExportFrom(ctx, q)
}

// ExportFrom is Export within an open unit of work.
func ExportFrom(ctx context.Context, u uow.UnitOfWork) (*Manifest, error) {
	ws, err := CurrentWorkspace(ctx, u)
	if err != nil {
		return nil, err
	}
	x := &exporter{u: u}

	m := &Manifest{Schema: Schema{Version: CurrentVersion}}
	if err := x.global(ctx, ws, m); err != nil {
		return nil, err
	}

	entities, err := byIDs[*model.Entity](ctx, u, ws.Entities)
	if err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}
	x.names = make(map[model.EntityID]string, len(entities))
	for _, e := range entities {
		if e != nil {
			x.names[e.ID] = e.Name
		}
	}
	m.Entities = make([]Entity, 0, len(entities))
	for _, e := range entities {
		if e == nil {
			continue
		}
		decl, err := x.entity(ctx, e)
		if err != nil {
			return nil, err
		}
		m.Entities = append(m.Entities, decl)
	}

	features, err := byIDs[*model.Feature](ctx, u, ws.Features)
	if err != nil {
		return nil, fmt.Errorf("read features: %w", err)
	}
	m.Features = make([]Feature, 0, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}
		decl, err := x.feature(ctx, f)
		if err != nil {
			return nil, err
		}
		m.Features = append(m.Features, decl)
	}
	return m, nil
}

// CurrentWorkspace returns the workspace attached to the Root.
func CurrentWorkspace(ctx context.Context, u uow.UnitOfWork) (*model.Workspace, error) {
	roots, err := uow.Repo[*model.Root](u).GetMulti(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("read roots: %w", err)
	}
	if len(roots) > 1 {
		return nil, fmt.Errorf("%d roots: %w", len(roots), ErrRootNotUnique)
	}
	if len(roots) == 0 || roots[0].Workspace == 0 {
		return nil, ErrNoWorkspace
	}
	ws, err := uow.Repo[*model.Workspace](u).Get(ctx, roots[0].Workspace)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	if ws == nil {
		return nil, ErrNoWorkspace
	}
	return ws, nil
}

type exporter struct {
	u     uow.UnitOfWork
	names map[model.EntityID]string
}

func (x *exporter) global(ctx context.Context, ws *model.Workspace, m *Manifest) error {
	g, err := uow.Repo[*model.Global](x.u).Get(ctx, ws.Global)
	if err != nil {
		return fmt.Errorf("read global: %w", err)
	}
	if g != nil {
		m.Global = Global{
			Language:        string(g.Language),
			ApplicationName: g.ApplicationName,
			Organisation:    Organisation{Name: g.OrganisationName, Domain: g.OrganisationDomain},
			PrefixPath:      g.PrefixPath,
		}
	}

	ui, err := uow.Repo[*model.UserInterface](x.u).Get(ctx, ws.UserInterface)
	if err != nil {
		return fmt.Errorf("read user interface: %w", err)
	}
	if ui != nil {
		m.UI = UI{
			RustCLI:        ui.RustCLI,
			RustSlint:      ui.RustSlint,
			CppQtQtWidgets: ui.CppQtQtWidgets,
			CppQtQtQuick:   ui.CppQtQtQuick,
			CppQtKirigami:  ui.CppQtKirigami,
		}
	}
	return nil
}

func (x *exporter) entity(ctx context.Context, e *model.Entity) (Entity, error) {
	decl := Entity{
		Name:            e.Name,
		OnlyForHeritage: e.OnlyForHeritage,
		SingleModel:     e.SingleModel,
		Undoable:        e.Undoable,
		InheritsFrom:    x.names[e.InheritsFrom],
	}
	fields, err := byIDs[*model.Field](ctx, x.u, e.Fields)
	if err != nil {
		return Entity{}, fmt.Errorf("read fields of %s: %w", e.Name, err)
	}
	decl.Fields = make([]Field, 0, len(fields))
	for _, f := range fields {
		if f == nil {
			continue
		}
		decl.Fields = append(decl.Fields, Field{
			Name:                    f.Name,
			Type:                    string(f.FieldType),
			Entity:                  x.names[f.Entity],
			Relationship:            string(f.Relationship),
			Nullable:                f.Nullable,
			IsPrimaryKey:            f.IsPrimaryKey,
			IsList:                  f.IsList,
			Single:                  f.Single,
			Strong:                  f.Strong,
			Ordered:                 f.Ordered,
			ListModel:               f.ListModel,
			ListModelDisplayedField: f.ListModelDisplayedField,
			EnumName:                f.EnumName,
			EnumValues:              f.EnumValues,
		})
	}
	return decl, nil
}

func (x *exporter) feature(ctx context.Context, f *model.Feature) (Feature, error) {
	decl := Feature{Name: f.Name}
	useCases, err := byIDs[*model.UseCase](ctx, x.u, f.UseCases)
	if err != nil {
		return Feature{}, fmt.Errorf("read use cases of %s: %w", f.Name, err)
	}
	decl.UseCases = make([]UseCase, 0, len(useCases))
	for _, uc := range useCases {
		if uc == nil {
			continue
		}
		out := UseCase{
			Name:          uc.Name,
			Validator:     uc.Validator,
			Undoable:      uc.Undoable,
			ReadOnly:      uc.ReadOnly,
			LongOperation: uc.LongOperation,
		}
		for _, id := range uc.Entities {
			if name, ok := x.names[id]; ok {
				out.Entities = append(out.Entities, name)
			}
		}
		if out.DtoIn, err = x.dto(ctx, uc.DtoIn); err != nil {
			return Feature{}, err
		}
		if out.DtoOut, err = x.dto(ctx, uc.DtoOut); err != nil {
			return Feature{}, err
		}
		decl.UseCases = append(decl.UseCases, out)
	}
	return decl, nil
}

func (x *exporter) dto(ctx context.Context, id model.EntityID) (*Dto, error) {
	if id == 0 {
		return nil, nil
	}
	d, err := uow.Repo[*model.Dto](x.u).Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read dto: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	fields, err := byIDs[*model.DtoField](ctx, x.u, d.Fields)
	if err != nil {
		return nil, fmt.Errorf("read fields of dto %s: %w", d.Name, err)
	}
	out := &Dto{Name: d.Name, Fields: make([]DtoField, 0, len(fields))}
	for _, f := range fields {
		if f == nil {
			continue
		}
		out.Fields = append(out.Fields, DtoField{
			Name:       f.Name,
			Type:       string(f.FieldType),
			Nullable:   f.Nullable,
			IsList:     f.IsList,
			EnumName:   f.EnumName,
			EnumValues: f.EnumValues,
		})
	}
	return out, nil
}

// byIDs reads ids in order. Unlike GetMulti, no ids means no records.
func byIDs[R model.Record](ctx context.Context, u uow.UnitOfWork, ids []model.EntityID) ([]R, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return uow.Repo[R](u).GetMulti(ctx, ids)
}
