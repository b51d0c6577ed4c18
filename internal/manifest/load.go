package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// ErrRootNotUnique is returned when the store holds more than one Root.
var ErrRootNotUnique = errors.New("root is not unique")

// Loaded identifies the graph created by Load.
type Loaded struct {
	RootID      model.EntityID
	SystemID    model.EntityID
	WorkspaceID model.EntityID
}

// LoadCapabilities is what Load declares on its unit of work.
func LoadCapabilities() uow.Capabilities {
	return uow.ReadWrite(
		model.KindRoot, model.KindSystem, model.KindWorkspace, model.KindGlobal,
		model.KindUserInterface, model.KindEntity, model.KindField,
		model.KindRelationship, model.KindFeature, model.KindUseCase,
		model.KindDto, model.KindDtoField, model.KindFile,
	)
}

// Load materialises m in the store in one unit of work. A workspace that is
// already loaded is replaced together with the generated file rows.
// HandlingManifest/Loaded is published after the commit.
func Load(ctx context.Context, f *uow.Factory, m *Manifest, absPath string) (*Loaded, error) {
	cmd, err := f.Command(ctx, LoadCapabilities())
	if err != nil {
		return nil, err
	}
	defer cmd.Rollback()

	l := &loader{cmd: cmd}
	out, err := l.load(ctx, m, absPath)
	if err != nil {
		return nil, err
	}
	if err := cmd.Commit(); err != nil {
		return nil, fmt.Errorf("commit manifest load: %w", err)
	}
	if pub := f.Publisher(); pub != nil {
		pub.Publish(event.Event{
			Origin: event.HandlingManifest(event.Loaded),
			IDs:    []model.EntityID{out.WorkspaceID},
			Data:   absPath,
		})
	}
	return out, nil
}

type loader struct {
	cmd      *uow.Command
	entities map[string]model.EntityID
}

func (l *loader) load(ctx context.Context, m *Manifest, absPath string) (*Loaded, error) {
	root, err := EnsureRoot(ctx, l.cmd)
	if err != nil {
		return nil, err
	}
	if root.Workspace != 0 {
		if err := DropWorkspace(ctx, l.cmd, root); err != nil {
			return nil, err
		}
	}

	lang, err := model.ParseLanguage(m.Global.Language)
	if err != nil {
		return nil, err
	}
	global, err := uow.Repo[*model.Global](l.cmd).Create(ctx, &model.Global{
		Language:           lang,
		ApplicationName:    m.Global.ApplicationName,
		OrganisationName:   m.Global.Organisation.Name,
		OrganisationDomain: m.Global.Organisation.Domain,
		PrefixPath:         m.Global.PrefixPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create global: %w", err)
	}

	ui, err := uow.Repo[*model.UserInterface](l.cmd).Create(ctx, &model.UserInterface{
		RustCLI:        m.UI.RustCLI,
		RustSlint:      m.UI.RustSlint,
		CppQtQtWidgets: m.UI.CppQtQtWidgets,
		CppQtQtQuick:   m.UI.CppQtQtQuick,
		CppQtKirigami:  m.UI.CppQtKirigami,
	})
	if err != nil {
		return nil, fmt.Errorf("create user interface: %w", err)
	}

	entityIDs, err := l.createEntities(ctx, m.Entities)
	if err != nil {
		return nil, err
	}
	if err := l.createRelationships(ctx, m.Entities); err != nil {
		return nil, err
	}
	featureIDs, err := l.createFeatures(ctx, m.Features)
	if err != nil {
		return nil, err
	}

	ws, err := uow.Repo[*model.Workspace](l.cmd).Create(ctx, &model.Workspace{
		ManifestAbsolutePath: absPath,
		Global:               global.ID,
		Entities:             entityIDs,
		Features:             featureIDs,
		UserInterface:        ui.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if err := uow.Repo[*model.Root](l.cmd).SetRelationship(ctx, root.ID, "workspace", []model.EntityID{ws.ID}); err != nil {
		return nil, fmt.Errorf("attach workspace: %w", err)
	}
	return &Loaded{RootID: root.ID, SystemID: root.System, WorkspaceID: ws.ID}, nil
}

func (l *loader) createEntities(ctx context.Context, decls []Entity) ([]model.EntityID, error) {
	entities := uow.Repo[*model.Entity](l.cmd)

	recs := make([]*model.Entity, len(decls))
	for i, e := range decls {
		recs[i] = &model.Entity{
			Name:            e.Name,
			OnlyForHeritage: e.OnlyForHeritage,
			SingleModel:     e.SingleModel,
			Undoable:        e.Undoable,
		}
	}
	created, err := entities.CreateMulti(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("create entities: %w", err)
	}

	l.entities = make(map[string]model.EntityID, len(created))
	ids := make([]model.EntityID, len(created))
	for i, e := range created {
		l.entities[e.Name] = e.ID
		ids[i] = e.ID
	}

	for i, decl := range decls {
		if decl.InheritsFrom != "" {
			parent, err := l.entityID(decl.InheritsFrom)
			if err != nil {
				return nil, err
			}
			if err := entities.SetRelationship(ctx, ids[i], "inherits_from", []model.EntityID{parent}); err != nil {
				return nil, fmt.Errorf("set %s.inherits_from: %w", decl.Name, err)
			}
		}
		fieldIDs, err := l.createFields(ctx, decl.Fields)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", decl.Name, err)
		}
		if len(fieldIDs) > 0 {
			if err := entities.SetRelationship(ctx, ids[i], "fields", fieldIDs); err != nil {
				return nil, fmt.Errorf("set %s.fields: %w", decl.Name, err)
			}
		}
	}
	return ids, nil
}

func (l *loader) createFields(ctx context.Context, decls []Field) ([]model.EntityID, error) {
	if len(decls) == 0 {
		return nil, nil
	}
	recs := make([]*model.Field, len(decls))
	for i, f := range decls {
		ft, err := model.ParseFieldType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		rec := &model.Field{
			Name:                    f.Name,
			FieldType:               ft,
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
		}
		if f.Relationship != "" {
			if rec.Relationship, err = model.ParseRelationshipType(f.Relationship); err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		if ft == model.FieldTypeEntity {
			if rec.Entity, err = l.entityID(f.Entity); err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		recs[i] = rec
	}
	created, err := uow.Repo[*model.Field](l.cmd).CreateMulti(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("create fields: %w", err)
	}
	ids := make([]model.EntityID, len(created))
	for i, f := range created {
		ids[i] = f.ID
	}
	return ids, nil
}

func (l *loader) createRelationships(ctx context.Context, decls []Entity) error {
	derived := DeriveRelationships(decls)
	if len(derived) == 0 {
		return nil
	}

	recs := make([]*model.Relationship, len(derived))
	for i, d := range derived {
		left, err := l.entityID(d.Owner)
		if err != nil {
			return err
		}
		right, err := l.entityID(d.Target)
		if err != nil {
			return err
		}
		recs[i] = &model.Relationship{
			FieldName:        d.FieldName,
			RelationshipType: d.Type,
			Strength:         d.Strength,
			Direction:        d.Direction,
			Cardinality:      d.Cardinality,
			Order:            d.Order,
			LeftEntity:       left,
			RightEntity:      right,
		}
	}
	created, err := uow.Repo[*model.Relationship](l.cmd).CreateMulti(ctx, recs)
	if err != nil {
		return fmt.Errorf("create relationships: %w", err)
	}

	// Attach to the holding entity, keeping declaration order.
	held := make(map[model.EntityID][]model.EntityID)
	var order []model.EntityID
	for i, d := range derived {
		holder := l.entities[d.Holder()]
		if _, ok := held[holder]; !ok {
			order = append(order, holder)
		}
		held[holder] = append(held[holder], created[i].ID)
	}
	entities := uow.Repo[*model.Entity](l.cmd)
	for _, id := range order {
		if err := entities.SetRelationship(ctx, id, "relationships", held[id]); err != nil {
			return fmt.Errorf("attach relationships: %w", err)
		}
	}
	return nil
}

func (l *loader) createFeatures(ctx context.Context, decls []Feature) ([]model.EntityID, error) {
	features := uow.Repo[*model.Feature](l.cmd)
	ids := make([]model.EntityID, 0, len(decls))
	for _, decl := range decls {
		useCaseIDs := make([]model.EntityID, 0, len(decl.UseCases))
		for _, uc := range decl.UseCases {
			id, err := l.createUseCase(ctx, uc)
			if err != nil {
				return nil, fmt.Errorf("feature %s: %w", decl.Name, err)
			}
			useCaseIDs = append(useCaseIDs, id)
		}
		feature, err := features.Create(ctx, &model.Feature{Name: decl.Name, UseCases: useCaseIDs})
		if err != nil {
			return nil, fmt.Errorf("create feature %s: %w", decl.Name, err)
		}
		ids = append(ids, feature.ID)
	}
	return ids, nil
}

func (l *loader) createUseCase(ctx context.Context, decl UseCase) (model.EntityID, error) {
	rec := &model.UseCase{
		Name:          decl.Name,
		Validator:     decl.Validator,
		Undoable:      decl.Undoable,
		ReadOnly:      decl.ReadOnly,
		LongOperation: decl.LongOperation,
	}
	for _, name := range decl.Entities {
		id, err := l.entityID(name)
		if err != nil {
			return 0, fmt.Errorf("use case %s: %w", decl.Name, err)
		}
		rec.Entities = append(rec.Entities, id)
	}

	var err error
	if rec.DtoIn, err = l.createDto(ctx, decl.DtoIn); err != nil {
		return 0, fmt.Errorf("use case %s: %w", decl.Name, err)
	}
	if rec.DtoOut, err = l.createDto(ctx, decl.DtoOut); err != nil {
		return 0, fmt.Errorf("use case %s: %w", decl.Name, err)
	}

	created, err := uow.Repo[*model.UseCase](l.cmd).Create(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("create use case %s: %w", decl.Name, err)
	}
	return created.ID, nil
}

func (l *loader) createDto(ctx context.Context, decl *Dto) (model.EntityID, error) {
	if decl == nil {
		return 0, nil
	}
	var fieldIDs []model.EntityID
	if len(decl.Fields) > 0 {
		recs := make([]*model.DtoField, len(decl.Fields))
		for i, f := range decl.Fields {
			ft, err := model.ParseFieldType(f.Type)
			if err != nil {
				return 0, fmt.Errorf("dto %s field %s: %w", decl.Name, f.Name, err)
			}
			recs[i] = &model.DtoField{
				Name:       f.Name,
				FieldType:  ft,
				Nullable:   f.Nullable,
				IsList:     f.IsList,
				EnumName:   f.EnumName,
				EnumValues: f.EnumValues,
			}
		}
		created, err := uow.Repo[*model.DtoField](l.cmd).CreateMulti(ctx, recs)
		if err != nil {
			return 0, fmt.Errorf("create dto fields: %w", err)
		}
		for _, f := range created {
			fieldIDs = append(fieldIDs, f.ID)
		}
	}
	dto, err := uow.Repo[*model.Dto](l.cmd).Create(ctx, &model.Dto{Name: decl.Name, Fields: fieldIDs})
	if err != nil {
		return 0, fmt.Errorf("create dto %s: %w", decl.Name, err)
	}
	return dto.ID, nil
}

func (l *loader) entityID(name string) (model.EntityID, error) {
	id, ok := l.entities[name]
	if !ok {
		return 0, fmt.Errorf("unknown entity %q", name)
	}
	return id, nil
}

// EnsureRoot returns the single Root, creating it with its System when the
// store is empty.
func EnsureRoot(ctx context.Context, cmd *uow.Command) (*model.Root, error) {
	roots := uow.Repo[*model.Root](cmd)
	existing, err := roots.GetMulti(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("read roots: %w", err)
	}
	switch len(existing) {
	case 0:
	case 1:
		return existing[0], nil
	default:
		return nil, fmt.Errorf("%d roots: %w", len(existing), ErrRootNotUnique)
	}

	sys, err := uow.Repo[*model.System](cmd).Create(ctx, &model.System{})
	if err != nil {
		return nil, fmt.Errorf("create system: %w", err)
	}
	root, err := roots.Create(ctx, &model.Root{System: sys.ID})
	if err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}
	return root, nil
}

// DropWorkspace deletes the workspace subtree of root and every File row of
// its System. Root and System stay.
func DropWorkspace(ctx context.Context, cmd *uow.Command, root *model.Root) error {
	if root.System != 0 {
		files, err := uow.Repo[*model.System](cmd).GetRelationship(ctx, root.System, "files")
		if err != nil {
			return fmt.Errorf("read system files: %w", err)
		}
		if err := uow.Repo[*model.File](cmd).DeleteMulti(ctx, files); err != nil {
			return fmt.Errorf("delete files: %w", err)
		}
	}
	if root.Workspace != 0 {
		if err := uow.Repo[*model.Workspace](cmd).Delete(ctx, root.Workspace); err != nil {
			return fmt.Errorf("delete workspace: %w", err)
		}
		root.Workspace = 0
	}
	return nil
}
