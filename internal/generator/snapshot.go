package generator

import (
	"fmt"
	"path"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/jacquetc/qleany-sub001/internal/model"
)

// GenerationSnapshot is the data a template renders, bound as .s.
//
// Entity, Feature and UseCase are set according to the scope of the
// file being rendered; project files see them nil.
type GenerationSnapshot struct {
	Global  GlobalView
	UI      model.UserInterface
	File    FileView
	Entity  *EntityView
	Feature *FeatureView
	UseCase *UseCaseView

	views *views
}

// Entities lists the entities that get generated code, in declaration order.
func (s *GenerationSnapshot) Entities() []*EntityView {
	var out []*EntityView
	for _, e := range s.AllEntities() {
		if !e.OnlyForHeritage {
			out = append(out, e)
		}
	}
	return out
}

// AllEntities includes heritage-only entities.
func (s *GenerationSnapshot) AllEntities() []*EntityView {
	return values(s.views.entities)
}

// Features lists the features in declaration order.
func (s *GenerationSnapshot) Features() []*FeatureView {
	return values(s.views.features)
}

// UseCases lists the use cases of every feature.
func (s *GenerationSnapshot) UseCases() []*UseCaseView {
	return values(s.views.useCases)
}

// Enums lists the distinct enums declared across the generated entities.
func (s *GenerationSnapshot) Enums() []EnumView {
	var fields []*FieldView
	for _, e := range s.Entities() {
		fields = append(fields, e.Fields...)
	}
	return enumsOf(fields, func(f *FieldView) (string, []string) {
		return f.EnumName, f.EnumValues
	})
}

// EntityNamed returns the view of name, or nil.
func (s *GenerationSnapshot) EntityNamed(name string) *EntityView {
	for pair := s.views.entities.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Raw == name {
			return pair.Value
		}
	}
	return nil
}

// GlobalView is the project-wide settings with derived spellings.
type GlobalView struct {
	Language           model.Language
	ApplicationName    string
	App                Names
	OrganisationName   string
	Org                Names
	OrganisationDomain string
	PrefixPath         string
	// ReverseDomain is "org.acme.library" for acme.org and Library.
	ReverseDomain string
	// ProjectUUID is stable for a given domain and application name.
	ProjectUUID string
}

// FileView describes the file being rendered.
type FileView struct {
	Name         string
	RelativePath string
	Path         string
	Group        string
	TemplateName string
	// Top is the first segment of RelativePath, "" for files at the root.
	Top string
}

// TypeInfo carries a field's declared type and its language spellings.
type TypeInfo struct {
	Type     model.FieldType
	IsList   bool
	Nullable bool
	EnumName string
}

func (t TypeInfo) spec() typeSpec {
	return typeSpec{Type: t.Type, IsList: t.IsList, Nullable: t.Nullable, EnumName: t.EnumName}
}

// RustType is the Rust spelling of the type.
func (t TypeInfo) RustType() string { return t.spec().RustType() }

// CppType is the Qt spelling of the type.
func (t TypeInfo) CppType() string { return t.spec().CppType() }

// RustDefault is the Rust zero value.
func (t TypeInfo) RustDefault() string { return t.spec().RustDefault() }

// CppDefault is the C++ zero value.
func (t TypeInfo) CppDefault() string { return t.spec().CppDefault() }

// IsEntity reports a reference to another entity.
func (t TypeInfo) IsEntity() bool { return t.Type == model.FieldTypeEntity }

// IsEnum reports an enum field.
func (t TypeInfo) IsEnum() bool { return t.Type == model.FieldTypeEnum }

// EnumView is an enum declared by a field.
type EnumView struct {
	Names
	Values []Names
}

// FieldView is one entity field.
type FieldView struct {
	Names
	TypeInfo
	ID                      model.EntityID
	IsPrimaryKey            bool
	Single                  bool
	Strong                  bool
	Ordered                 bool
	ListModel               bool
	ListModelDisplayedField string
	EnumValues              []string
	Relationship            model.RelationshipType
	// Target names the referenced entity of an entity field.
	Target *Names
	// Inherited is set on fields that come from a parent entity.
	Inherited bool
}

// RelationshipView is a forward relationship held by an entity.
type RelationshipView struct {
	Field       Names
	Left        Names
	Right       Names
	Type        model.RelationshipType
	Strength    model.Strength
	Cardinality model.Cardinality
	Order       model.Order
}

// IsStrong reports an owning relationship.
func (r *RelationshipView) IsStrong() bool { return r.Strength == model.Strong }

// IsOrdered reports an ordered list relationship.
func (r *RelationshipView) IsOrdered() bool { return r.Order == model.Ordered }

// IsMany reports a list on the right side.
func (r *RelationshipView) IsMany() bool {
	return r.Cardinality == model.ZeroOrMore || r.Cardinality == model.OneOrMore
}

// OwnerRef names an entity that points at this one.
type OwnerRef struct {
	Entity Names
	Field  Names
	Strong bool
	Many   bool
}

// EntityView is an entity with its fields resolved.
type EntityView struct {
	Names
	ID              model.EntityID
	OnlyForHeritage bool
	SingleModel     bool
	Undoable        bool
	Parent          *EntityView
	// Fields lists inherited fields first, then the entity's own.
	Fields        []*FieldView
	OwnFields     []*FieldView
	Relationships []*RelationshipView
	Owners        []OwnerRef
}

// NormalFields are the fields that hold values rather than references.
func (e *EntityView) NormalFields() []*FieldView {
	var out []*FieldView
	for _, f := range e.Fields {
		if !f.IsEntity() {
			out = append(out, f)
		}
	}
	return out
}

// RelationshipFields are the entity-typed fields.
func (e *EntityView) RelationshipFields() []*FieldView {
	var out []*FieldView
	for _, f := range e.Fields {
		if f.IsEntity() {
			out = append(out, f)
		}
	}
	return out
}

// ListModelFields are the relationship fields exposed as list models.
func (e *EntityView) ListModelFields() []*FieldView {
	var out []*FieldView
	for _, f := range e.RelationshipFields() {
		if f.ListModel {
			out = append(out, f)
		}
	}
	return out
}

// Enums lists the distinct enums of the entity's fields.
func (e *EntityView) Enums() []EnumView {
	return enumsOf(e.Fields, func(f *FieldView) (string, []string) {
		return f.EnumName, f.EnumValues
	})
}

// HasField reports a field called name, inherited or own.
func (e *EntityView) HasField(name string) bool {
	return slices.ContainsFunc(e.Fields, func(f *FieldView) bool { return f.Raw == name })
}

// DisplayField is the first string field, used as a list label. It is nil
// when the entity has none.
func (e *EntityView) DisplayField() *FieldView {
	for _, f := range e.NormalFields() {
		if f.Type == model.FieldTypeString && !f.IsList {
			return f
		}
	}
	return nil
}

// HasOwner reports whether some entity holds this one.
func (e *EntityView) HasOwner() bool { return len(e.Owners) > 0 }

// FeatureView is a feature and its use cases.
type FeatureView struct {
	Names
	ID       model.EntityID
	UseCases []*UseCaseView
}

// Dtos lists the distinct DTOs of the feature's use cases.
func (f *FeatureView) Dtos() []*DtoView {
	seen := make(map[string]bool)
	var out []*DtoView
	for _, uc := range f.UseCases {
		for _, d := range []*DtoView{uc.DtoIn, uc.DtoOut} {
			if d != nil && !seen[d.Raw] {
				seen[d.Raw] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// Entities lists the distinct entities touched by the feature.
func (f *FeatureView) Entities() []*EntityView {
	seen := make(map[model.EntityID]bool)
	var out []*EntityView
	for _, uc := range f.UseCases {
		for _, e := range uc.Entities {
			if !seen[e.ID] {
				seen[e.ID] = true
				out = append(out, e)
			}
		}
	}
	return out
}

// HasLongOperation reports a long-running use case in the feature.
func (f *FeatureView) HasLongOperation() bool {
	return slices.ContainsFunc(f.UseCases, func(uc *UseCaseView) bool { return uc.LongOperation })
}

// HasUndoable reports an undoable use case in the feature.
func (f *FeatureView) HasUndoable() bool {
	return slices.ContainsFunc(f.UseCases, func(uc *UseCaseView) bool { return uc.Undoable })
}

// UseCaseView is one use case with its DTOs.
type UseCaseView struct {
	Names
	ID            model.EntityID
	Feature       Names
	Validator     bool
	Undoable      bool
	ReadOnly      bool
	LongOperation bool
	Entities      []*EntityView
	DtoIn         *DtoView
	DtoOut        *DtoView
}

// DtoView is a data transfer object.
type DtoView struct {
	Names
	ID     model.EntityID
	Fields []*DtoFieldView
}

// Enums lists the distinct enums of the DTO's fields.
func (d *DtoView) Enums() []EnumView {
	return enumsOf(d.Fields, func(f *DtoFieldView) (string, []string) {
		return f.EnumName, f.EnumValues
	})
}

// DtoFieldView is one DTO field.
type DtoFieldView struct {
	Names
	TypeInfo
	EnumValues []string
}

func enumsOf[F any](fields []F, enum func(F) (string, []string)) []EnumView {
	seen := make(map[string]bool)
	var out []EnumView
	for _, f := range fields {
		name, vals := enum(f)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		ev := EnumView{Names: NameVariants(name)}
		for _, v := range vals {
			ev.Values = append(ev.Values, NameVariants(v))
		}
		out = append(out, ev)
	}
	return out
}

func values[K comparable, V any](m *orderedmap.OrderedMap[K, V]) []V {
	out := make([]V, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// views holds the resolved objects for one dependency set.
type views struct {
	deps     mapset.Set[string]
	entities *orderedmap.OrderedMap[model.EntityID, *EntityView]
	features *orderedmap.OrderedMap[model.EntityID, *FeatureView]
	useCases *orderedmap.OrderedMap[model.EntityID, *UseCaseView]
	dtos     *orderedmap.OrderedMap[model.EntityID, *DtoView]
}

const allDeps = "*"

// dependencies is the set of workspace objects file's snapshot needs.
func dependencies(file *model.File) mapset.Set[string] {
	switch {
	case file.UseCase != 0:
		return mapset.NewThreadUnsafeSet("use_case:"+file.UseCase.String(), "feature:"+file.Feature.String())
	case file.Feature != 0:
		return mapset.NewThreadUnsafeSet("feature:" + file.Feature.String())
	case file.Entity != 0:
		return mapset.NewThreadUnsafeSet("entity:" + file.Entity.String())
	default:
		return mapset.NewThreadUnsafeSet(allDeps)
	}
}

// snapshotCache keeps recently built views and reuses one whenever the
// requested dependency set is a subset of its own.
type snapshotCache struct {
	limit   int
	entries []*views
	hits    int
	builds  int
}

func newSnapshotCache(limit int) *snapshotCache {
	if limit <= 0 {
		limit = 8
	}
	return &snapshotCache{limit: limit}
}

func (c *snapshotCache) lookup(deps mapset.Set[string]) *views {
	for _, v := range c.entries {
		if v.deps.Contains(allDeps) || deps.IsSubset(v.deps) {
			c.hits++
			return v
		}
	}
	return nil
}

func (c *snapshotCache) add(v *views) {
	c.builds++
	c.entries = append([]*views{v}, c.entries...)
	if len(c.entries) > c.limit {
		c.entries = c.entries[:c.limit]
	}
}

// Snapshotter builds snapshots for the files of one workspace.
type Snapshotter struct {
	ws    *Workspace
	cache *snapshotCache
}

// NewSnapshotter prepares snapshots over ws.
func NewSnapshotter(ws *Workspace) *Snapshotter {
	return &Snapshotter{ws: ws, cache: newSnapshotCache(0)}
}

// Snapshot returns the view of the workspace for file.
func (s *Snapshotter) Snapshot(file *model.File) (*GenerationSnapshot, error) {
	deps := dependencies(file)
	v := s.cache.lookup(deps)
	if v == nil {
		v = newViewBuilder(s.ws).build(deps)
		s.cache.add(v)
	}

	snap := &GenerationSnapshot{
		Global: s.global(),
		UI:     *s.ws.UI,
		File:   fileView(file),
		views:  v,
	}
	var ok bool
	if file.Entity != 0 {
		if snap.Entity, ok = v.entities.Get(file.Entity); !ok {
			return nil, fmt.Errorf("snapshot %s: entity %d not in workspace", file.Path(), file.Entity)
		}
	}
	if file.Feature != 0 {
		if snap.Feature, ok = v.features.Get(file.Feature); !ok {
			return nil, fmt.Errorf("snapshot %s: feature %d not in workspace", file.Path(), file.Feature)
		}
	}
	if file.UseCase != 0 {
		if snap.UseCase, ok = v.useCases.Get(file.UseCase); !ok {
			return nil, fmt.Errorf("snapshot %s: use case %d not in workspace", file.Path(), file.UseCase)
		}
	}
	return snap, nil
}

func (s *Snapshotter) global() GlobalView {
	g := s.ws.Global
	app := NameVariants(g.ApplicationName)
	parts := strings.Split(strings.ToLower(g.OrganisationDomain), ".")
	slices.Reverse(parts)
	reverse := strings.Join(append(parts, strings.ReplaceAll(app.Kebab, "-", "")), ".")
	return GlobalView{
		Language:           g.Language,
		ApplicationName:    g.ApplicationName,
		App:                app,
		OrganisationName:   g.OrganisationName,
		Org:                NameVariants(g.OrganisationName),
		OrganisationDomain: g.OrganisationDomain,
		PrefixPath:         g.PrefixPath,
		ReverseDomain:      strings.Trim(reverse, "."),
		ProjectUUID:        uuid.NewSHA1(uuid.NameSpaceDNS, []byte(reverse)).String(),
	}
}

func fileView(f *model.File) FileView {
	top := f.RelativePath
	if i := strings.Index(top, "/"); i >= 0 {
		top = top[:i]
	}
	return FileView{
		Name:         f.Name,
		RelativePath: f.RelativePath,
		Path:         path.Join(f.RelativePath, f.Name),
		Group:        f.Group,
		TemplateName: f.TemplateName,
		Top:          top,
	}
}

type viewBuilder struct {
	ws       *Workspace
	v        *views
	building map[model.EntityID]bool
}

func newViewBuilder(ws *Workspace) *viewBuilder {
	return &viewBuilder{ws: ws, building: make(map[model.EntityID]bool)}
}

func (b *viewBuilder) build(deps mapset.Set[string]) *views {
	b.v = &views{
		deps:     deps,
		entities: orderedmap.New[model.EntityID, *EntityView](),
		features: orderedmap.New[model.EntityID, *FeatureView](),
		useCases: orderedmap.New[model.EntityID, *UseCaseView](),
		dtos:     orderedmap.New[model.EntityID, *DtoView](),
	}
	all := deps.Contains(allDeps)

	wanted := mapset.NewThreadUnsafeSet[model.EntityID]()
	for _, e := range b.ws.Entities {
		if all || deps.Contains("entity:"+e.ID.String()) {
			wanted.Add(e.ID)
		}
	}
	var feats []*model.Feature
	for _, f := range b.ws.Features {
		if all || deps.Contains("feature:"+f.ID.String()) {
			feats = append(feats, f)
			for _, ucID := range f.UseCases {
				if uc := b.ws.UseCases[ucID]; uc != nil {
					wanted.Append(uc.Entities...)
				}
			}
		}
	}

	// Entities go in declaration order whatever pulled them in.
	for _, e := range b.ws.Entities {
		if wanted.Contains(e.ID) {
			b.entity(e)
		}
	}
	for _, f := range feats {
		b.feature(f)
	}
	return b.v
}

func (b *viewBuilder) entity(e *model.Entity) *EntityView {
	if ev, ok := b.v.entities.Get(e.ID); ok {
		return ev
	}
	ev := &EntityView{
		Names:           NameVariants(e.Name),
		ID:              e.ID,
		OnlyForHeritage: e.OnlyForHeritage,
		SingleModel:     e.SingleModel,
		Undoable:        e.Undoable,
	}
	b.building[e.ID] = true
	if parent := b.ws.Entity(e.InheritsFrom); parent != nil && !b.building[parent.ID] {
		ev.Parent = b.entity(parent)
		for _, f := range ev.Parent.Fields {
			inherited := *f
			inherited.Inherited = true
			ev.Fields = append(ev.Fields, &inherited)
		}
	}
	delete(b.building, e.ID)

	for _, id := range e.Fields {
		f := b.ws.Fields[id]
		if f == nil {
			continue
		}
		fv := b.field(f)
		ev.OwnFields = append(ev.OwnFields, fv)
		ev.Fields = append(ev.Fields, fv)
	}

	for _, id := range e.Relationships {
		r := b.ws.Relationships[id]
		if r == nil {
			continue
		}
		left, right := b.entityNames(r.LeftEntity), b.entityNames(r.RightEntity)
		many := r.Cardinality == model.ZeroOrMore || r.Cardinality == model.OneOrMore
		switch r.Direction {
		case model.Forward:
			ev.Relationships = append(ev.Relationships, &RelationshipView{
				Field:       NameVariants(r.FieldName),
				Left:        left,
				Right:       right,
				Type:        r.RelationshipType,
				Strength:    r.Strength,
				Cardinality: r.Cardinality,
				Order:       r.Order,
			})
		case model.Backward:
			ev.Owners = append(ev.Owners, OwnerRef{
				Entity: left,
				Field:  NameVariants(r.FieldName),
				Strong: r.Strength == model.Strong,
				Many:   many,
			})
		}
	}

	b.v.entities.Set(e.ID, ev)
	return ev
}

func (b *viewBuilder) entityNames(id model.EntityID) Names {
	if e := b.ws.Entity(id); e != nil {
		return NameVariants(e.Name)
	}
	return Names{}
}

func (b *viewBuilder) field(f *model.Field) *FieldView {
	fv := &FieldView{
		Names: NameVariants(f.Name),
		TypeInfo: TypeInfo{
			Type:     f.FieldType,
			IsList:   f.IsList,
			Nullable: f.Nullable,
			EnumName: f.EnumName,
		},
		ID:                      f.ID,
		IsPrimaryKey:            f.IsPrimaryKey,
		Single:                  f.Single,
		Strong:                  f.Strong,
		Ordered:                 f.Ordered,
		ListModel:               f.ListModel,
		ListModelDisplayedField: f.ListModelDisplayedField,
		EnumValues:              f.EnumValues,
		Relationship:            f.Relationship,
	}
	if f.FieldType == model.FieldTypeEntity && f.Entity != 0 {
		target := b.entityNames(f.Entity)
		fv.Target = &target
	}
	return fv
}

func (b *viewBuilder) feature(f *model.Feature) {
	fv := &FeatureView{Names: NameVariants(f.Name), ID: f.ID}
	for _, id := range f.UseCases {
		uc := b.ws.UseCases[id]
		if uc == nil {
			continue
		}
		ucv := &UseCaseView{
			Names:         NameVariants(uc.Name),
			ID:            uc.ID,
			Feature:       fv.Names,
			Validator:     uc.Validator,
			Undoable:      uc.Undoable,
			ReadOnly:      uc.ReadOnly,
			LongOperation: uc.LongOperation,
			DtoIn:         b.dto(uc.DtoIn),
			DtoOut:        b.dto(uc.DtoOut),
		}
		for _, eid := range uc.Entities {
			if ev, ok := b.v.entities.Get(eid); ok {
				ucv.Entities = append(ucv.Entities, ev)
			}
		}
		fv.UseCases = append(fv.UseCases, ucv)
		b.v.useCases.Set(uc.ID, ucv)
	}
	b.v.features.Set(f.ID, fv)
}

func (b *viewBuilder) dto(id model.EntityID) *DtoView {
	if id == 0 {
		return nil
	}
	if dv, ok := b.v.dtos.Get(id); ok {
		return dv
	}
	d := b.ws.Dtos[id]
	if d == nil {
		return nil
	}
	dv := &DtoView{Names: NameVariants(d.Name), ID: d.ID}
	for _, fid := range d.Fields {
		f := b.ws.DtoFields[fid]
		if f == nil {
			continue
		}
		dv.Fields = append(dv.Fields, &DtoFieldView{
			Names: NameVariants(f.Name),
			TypeInfo: TypeInfo{
				Type:     f.FieldType,
				IsList:   f.IsList,
				Nullable: f.Nullable,
				EnumName: f.EnumName,
			},
			EnumValues: f.EnumValues,
		})
	}
	b.v.dtos.Set(id, dv)
	return dv
}
