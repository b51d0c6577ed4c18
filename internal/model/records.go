package model

import "time"

// Root is the singleton anchor of a database.
type Root struct {
	ID        EntityID `msgpack:"id"`
	Workspace EntityID `msgpack:"-"`
	System    EntityID `msgpack:"-"`
}

func (r *Root) Kind() Kind {
	return KindRoot
}

func (r *Root) GetID() EntityID {
	return r.ID
}

func (r *Root) SetID(id EntityID) {
	r.ID = id
}

func (r *Root) RelationIDs(field string) []EntityID {
	switch field {
	case "workspace":
		return one(r.Workspace)
	case "system":
		return one(r.System)
	}
	return nil
}

func (r *Root) SetRelationIDs(field string, ids []EntityID) {
	switch field {
	case "workspace":
		r.Workspace = first(ids)
	case "system":
		r.System = first(ids)
	}
}

// Workspace is the loaded manifest.
type Workspace struct {
	ID                   EntityID   `msgpack:"id"`
	ManifestAbsolutePath string     `msgpack:"manifest_absolute_path"`
	Global               EntityID   `msgpack:"-"`
	Entities             []EntityID `msgpack:"-"`
	Features             []EntityID `msgpack:"-"`
	UserInterface        EntityID   `msgpack:"-"`
}

func (w *Workspace) Kind() Kind {
	return KindWorkspace
}

func (w *Workspace) GetID() EntityID {
	return w.ID
}

func (w *Workspace) SetID(id EntityID) {
	w.ID = id
}

func (w *Workspace) RelationIDs(field string) []EntityID {
	switch field {
	case "global":
		return one(w.Global)
	case "entities":
		return cloneIDs(w.Entities)
	case "features":
		return cloneIDs(w.Features)
	case "user_interface":
		return one(w.UserInterface)
	}
	return nil
}

func (w *Workspace) SetRelationIDs(field string, ids []EntityID) {
	switch field {
	case "global":
		w.Global = first(ids)
	case "entities":
		w.Entities = cloneIDs(ids)
	case "features":
		w.Features = cloneIDs(ids)
	case "user_interface":
		w.UserInterface = first(ids)
	}
}

// System holds what is not part of the manifest, such as generated files.
type System struct {
	ID    EntityID   `msgpack:"id"`
	Files []EntityID `msgpack:"-"`
}

func (s *System) Kind() Kind {
	return KindSystem
}

func (s *System) GetID() EntityID {
	return s.ID
}

func (s *System) SetID(id EntityID) {
	s.ID = id
}

func (s *System) RelationIDs(field string) []EntityID {
	if field == "files" {
		return cloneIDs(s.Files)
	}
	return nil
}

func (s *System) SetRelationIDs(field string, ids []EntityID) {
	if field == "files" {
		s.Files = cloneIDs(ids)
	}
}

// Global carries the project-wide settings of a manifest.
type Global struct {
	ID                 EntityID `msgpack:"id"`
	Language           Language `msgpack:"language"`
	ApplicationName    string   `msgpack:"application_name"`
	OrganisationName   string   `msgpack:"organisation_name"`
	OrganisationDomain string   `msgpack:"organisation_domain"`
	PrefixPath         string   `msgpack:"prefix_path"`
}

func (g *Global) Kind() Kind {
	return KindGlobal
}

func (g *Global) GetID() EntityID {
	return g.ID
}

func (g *Global) SetID(id EntityID) {
	g.ID = id
}

func (g *Global) RelationIDs(string) []EntityID {
	return nil
}

func (g *Global) SetRelationIDs(string, []EntityID) {}

// Entity is a domain entity declared in the manifest.
type Entity struct {
	ID              EntityID   `msgpack:"id"`
	Name            string     `msgpack:"name"`
	OnlyForHeritage bool       `msgpack:"only_for_heritage"`
	SingleModel     bool       `msgpack:"single_model"`
	Undoable        bool       `msgpack:"undoable"`
	InheritsFrom    EntityID   `msgpack:"-"`
	Fields          []EntityID `msgpack:"-"`
	Relationships   []EntityID `msgpack:"-"`
}

func (e *Entity) Kind() Kind {
	return KindEntity
}

func (e *Entity) GetID() EntityID {
	return e.ID
}

func (e *Entity) SetID(id EntityID) {
	e.ID = id
}

func (e *Entity) RelationIDs(field string) []EntityID {
	switch field {
	case "inherits_from":
		return one(e.InheritsFrom)
	case "fields":
		return cloneIDs(e.Fields)
	case "relationships":
		return cloneIDs(e.Relationships)
	}
	return nil
}

func (e *Entity) SetRelationIDs(field string, ids []EntityID) {
	switch field {
	case "inherits_from":
		e.InheritsFrom = first(ids)
	case "fields":
		e.Fields = cloneIDs(ids)
	case "relationships":
		e.Relationships = cloneIDs(ids)
	}
}

// Field is an attribute of an Entity.
type Field struct {
	ID                      EntityID         `msgpack:"id"`
	Name                    string           `msgpack:"name"`
	FieldType               FieldType        `msgpack:"field_type"`
	Nullable                bool             `msgpack:"nullable"`
	IsPrimaryKey            bool             `msgpack:"is_primary_key"`
	IsList                  bool             `msgpack:"is_list"`
	Single                  bool             `msgpack:"single"`
	Strong                  bool             `msgpack:"strong"`
	Ordered                 bool             `msgpack:"ordered"`
	ListModel               bool             `msgpack:"list_model"`
	ListModelDisplayedField string           `msgpack:"list_model_displayed_field,omitempty"`
	EnumName                string           `msgpack:"enum_name,omitempty"`
	EnumValues              []string         `msgpack:"enum_values,omitempty"`
	Relationship            RelationshipType `msgpack:"relationship,omitempty"`
	Entity                  EntityID         `msgpack:"-"`
}

func (f *Field) Kind() Kind {
	return KindField
}

func (f *Field) GetID() EntityID {
	return f.ID
}

func (f *Field) SetID(id EntityID) {
	f.ID = id
}

func (f *Field) RelationIDs(field string) []EntityID {
	if field == "entity" {
		return one(f.Entity)
	}
	return nil
}

func (f *Field) SetRelationIDs(field string, ids []EntityID) {
	if field == "entity" {
		f.Entity = first(ids)
	}
}

// Relationship is a derived, first-class edge between two entities.
type Relationship struct {
	ID               EntityID         `msgpack:"id"`
	FieldName        string           `msgpack:"field_name"`
	RelationshipType RelationshipType `msgpack:"relationship_type"`
	Strength         Strength         `msgpack:"strength"`
	Direction        Direction        `msgpack:"direction"`
	Cardinality      Cardinality      `msgpack:"cardinality"`
	Order            Order            `msgpack:"order,omitempty"`
	LeftEntity       EntityID         `msgpack:"-"`
	RightEntity      EntityID         `msgpack:"-"`
}

func (r *Relationship) Kind() Kind {
	return KindRelationship
}

func (r *Relationship) GetID() EntityID {
	return r.ID
}

func (r *Relationship) SetID(id EntityID) {
	r.ID = id
}

func (r *Relationship) RelationIDs(field string) []EntityID {
	switch field {
	case "left_entity":
		return one(r.LeftEntity)
	case "right_entity":
		return one(r.RightEntity)
	}
	return nil
}

func (r *Relationship) SetRelationIDs(field string, ids []EntityID) {
	switch field {
	case "left_entity":
		r.LeftEntity = first(ids)
	case "right_entity":
		r.RightEntity = first(ids)
	}
}

// Feature groups use cases.
type Feature struct {
	ID       EntityID   `msgpack:"id"`
	Name     string     `msgpack:"name"`
	UseCases []EntityID `msgpack:"-"`
}

func (f *Feature) Kind() Kind {
	return KindFeature
}

func (f *Feature) GetID() EntityID {
	return f.ID
}

func (f *Feature) SetID(id EntityID) {
	f.ID = id
}

func (f *Feature) RelationIDs(field string) []EntityID {
	if field == "use_cases" {
		return cloneIDs(f.UseCases)
	}
	return nil
}

func (f *Feature) SetRelationIDs(field string, ids []EntityID) {
	if field == "use_cases" {
		f.UseCases = cloneIDs(ids)
	}
}

// UseCase is one user operation of a feature.
type UseCase struct {
	ID            EntityID   `msgpack:"id"`
	Name          string     `msgpack:"name"`
	Validator     bool       `msgpack:"validator"`
	Undoable      bool       `msgpack:"undoable"`
	ReadOnly      bool       `msgpack:"read_only"`
	LongOperation bool       `msgpack:"long_operation"`
	Entities      []EntityID `msgpack:"-"`
	DtoIn         EntityID   `msgpack:"-"`
	DtoOut        EntityID   `msgpack:"-"`
}

func (u *UseCase) Kind() Kind {
	return KindUseCase
}

func (u *UseCase) GetID() EntityID {
	return u.ID
}

func (u *UseCase) SetID(id EntityID) {
	u.ID = id
}

func (u *UseCase) RelationIDs(field string) []EntityID {
	switch field {
	case "entities":
		return cloneIDs(u.Entities)
	case "dto_in":
		return one(u.DtoIn)
	case "dto_out":
		return one(u.DtoOut)
	}
	return nil
}

func (u *UseCase) SetRelationIDs(field string, ids []EntityID) {
	switch field {
	case "entities":
		u.Entities = cloneIDs(ids)
	case "dto_in":
		u.DtoIn = first(ids)
	case "dto_out":
		u.DtoOut = first(ids)
	}
}

// Dto is a data transfer object consumed or produced by a use case.
type Dto struct {
	ID     EntityID   `msgpack:"id"`
	Name   string     `msgpack:"name"`
	Fields []EntityID `msgpack:"-"`
}

func (d *Dto) Kind() Kind {
	return KindDto
}

func (d *Dto) GetID() EntityID {
	return d.ID
}

func (d *Dto) SetID(id EntityID) {
	d.ID = id
}

func (d *Dto) RelationIDs(field string) []EntityID {
	if field == "fields" {
		return cloneIDs(d.Fields)
	}
	return nil
}

func (d *Dto) SetRelationIDs(field string, ids []EntityID) {
	if field == "fields" {
		d.Fields = cloneIDs(ids)
	}
}

// DtoField is an attribute of a Dto.
type DtoField struct {
	ID         EntityID  `msgpack:"id"`
	Name       string    `msgpack:"name"`
	FieldType  FieldType `msgpack:"field_type"`
	Nullable   bool      `msgpack:"nullable"`
	IsList     bool      `msgpack:"is_list"`
	EnumName   string    `msgpack:"enum_name,omitempty"`
	EnumValues []string  `msgpack:"enum_values,omitempty"`
}

func (d *DtoField) Kind() Kind {
	return KindDtoField
}

func (d *DtoField) GetID() EntityID {
	return d.ID
}

func (d *DtoField) SetID(id EntityID) {
	d.ID = id
}

func (d *DtoField) RelationIDs(string) []EntityID {
	return nil
}

func (d *DtoField) SetRelationIDs(string, []EntityID) {}

// File is one artefact the generator will produce.
type File struct {
	ID           EntityID   `msgpack:"id"`
	Name         string     `msgpack:"name"`
	RelativePath string     `msgpack:"relative_path"`
	Group        string     `msgpack:"group"`
	TemplateName string     `msgpack:"template_name"`
	Status       FileStatus `msgpack:"status"`
	CreatedAt    time.Time  `msgpack:"created_at"`
	UpdatedAt    time.Time  `msgpack:"updated_at"`
	// GeneratedCode holds the lz4 frame of the last rendered content.
	GeneratedCode []byte   `msgpack:"generated_code,omitempty"`
	Feature       EntityID `msgpack:"-"`
	Entity        EntityID `msgpack:"-"`
	UseCase       EntityID `msgpack:"-"`
	Field         EntityID `msgpack:"-"`
}

func (f *File) Kind() Kind {
	return KindFile
}

func (f *File) GetID() EntityID {
	return f.ID
}

func (f *File) SetID(id EntityID) {
	f.ID = id
}

func (f *File) RelationIDs(field string) []EntityID {
	switch field {
	case "feature":
		return one(f.Feature)
	case "entity":
		return one(f.Entity)
	case "use_case":
		return one(f.UseCase)
	case "field":
		return one(f.Field)
	}
	return nil
}

func (f *File) SetRelationIDs(field string, ids []EntityID) {
	switch field {
	case "feature":
		f.Feature = first(ids)
	case "entity":
		f.Entity = first(ids)
	case "use_case":
		f.UseCase = first(ids)
	case "field":
		f.Field = first(ids)
	}
}

// Path returns the file path relative to the project prefix.
func (f *File) Path() string {
	if f.RelativePath == "" {
		return f.Name
	}
	return f.RelativePath + "/" + f.Name
}

// UserInterface holds the toolkit flags of a manifest.
type UserInterface struct {
	ID             EntityID `msgpack:"id"`
	RustCLI        bool     `msgpack:"rust_cli"`
	RustSlint      bool     `msgpack:"rust_slint"`
	CppQtQtWidgets bool     `msgpack:"cpp_qt_qtwidgets"`
	CppQtQtQuick   bool     `msgpack:"cpp_qt_qtquick"`
	CppQtKirigami  bool     `msgpack:"cpp_qt_kirigami"`
}

func (u *UserInterface) Kind() Kind {
	return KindUserInterface
}

func (u *UserInterface) GetID() EntityID {
	return u.ID
}

func (u *UserInterface) SetID(id EntityID) {
	u.ID = id
}

func (u *UserInterface) RelationIDs(string) []EntityID {
	return nil
}

func (u *UserInterface) SetRelationIDs(string, []EntityID) {}
