package manifest

// Manifest is the typed form of a migrated manifest document.
type Manifest struct {
	Schema   Schema    `yaml:"schema"`
	Global   Global    `yaml:"global"`
	Entities []Entity  `yaml:"entities"`
	Features []Feature `yaml:"features"`
	UI       UI        `yaml:"ui"`
}

// Schema carries the document version.
type Schema struct {
	Version int `yaml:"version"`
}

// Global holds the project-wide settings.
type Global struct {
	Language        string       `yaml:"language"`
	ApplicationName string       `yaml:"application_name"`
	Organisation    Organisation `yaml:"organisation"`
	PrefixPath      string       `yaml:"prefix_path"`
}

// Organisation names the project owner.
type Organisation struct {
	Name   string `yaml:"name"`
	Domain string `yaml:"domain"`
}

// Entity declares one domain entity.
type Entity struct {
	Name            string  `yaml:"name"`
	OnlyForHeritage bool    `yaml:"only_for_heritage,omitempty"`
	SingleModel     bool    `yaml:"single_model,omitempty"`
	InheritsFrom    string  `yaml:"inherits_from,omitempty"`
	Undoable        bool    `yaml:"undoable,omitempty"`
	Fields          []Field `yaml:"fields"`
}

// Field declares one entity attribute.
type Field struct {
	Name                    string   `yaml:"name"`
	Type                    string   `yaml:"type"`
	Entity                  string   `yaml:"entity,omitempty"`
	Relationship            string   `yaml:"relationship,omitempty"`
	Nullable                bool     `yaml:"nullable,omitempty"`
	IsPrimaryKey            bool     `yaml:"is_primary_key,omitempty"`
	IsList                  bool     `yaml:"is_list,omitempty"`
	Single                  bool     `yaml:"single,omitempty"`
	Strong                  bool     `yaml:"strong,omitempty"`
	Ordered                 bool     `yaml:"ordered,omitempty"`
	ListModel               bool     `yaml:"list_model,omitempty"`
	ListModelDisplayedField string   `yaml:"list_model_displayed_field,omitempty"`
	EnumName                string   `yaml:"enum_name,omitempty"`
	EnumValues              []string `yaml:"enum_values,omitempty"`
}

// Feature groups use cases.
type Feature struct {
	Name     string    `yaml:"name"`
	UseCases []UseCase `yaml:"use_cases"`
}

// UseCase declares one user operation.
type UseCase struct {
	Name          string   `yaml:"name"`
	Validator     bool     `yaml:"validator,omitempty"`
	Undoable      bool     `yaml:"undoable,omitempty"`
	ReadOnly      bool     `yaml:"read_only,omitempty"`
	LongOperation bool     `yaml:"long_operation,omitempty"`
	Entities      []string `yaml:"entities,omitempty"`
	DtoIn         *Dto     `yaml:"dto_in,omitempty"`
	DtoOut        *Dto     `yaml:"dto_out,omitempty"`
}

// Dto declares a data transfer object.
type Dto struct {
	Name   string     `yaml:"name"`
	Fields []DtoField `yaml:"fields"`
}

// DtoField declares one DTO attribute.
type DtoField struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Nullable   bool     `yaml:"nullable,omitempty"`
	IsList     bool     `yaml:"is_list,omitempty"`
	EnumName   string   `yaml:"enum_name,omitempty"`
	EnumValues []string `yaml:"enum_values,omitempty"`
}

// UI holds the toolkit flags.
type UI struct {
	RustCLI        bool `yaml:"rust_cli,omitempty"`
	RustSlint      bool `yaml:"rust_slint,omitempty"`
	CppQtQtWidgets bool `yaml:"cpp_qt_qtwidgets,omitempty"`
	CppQtQtQuick   bool `yaml:"cpp_qt_qtquick,omitempty"`
	CppQtKirigami  bool `yaml:"cpp_qt_kirigami,omitempty"`
}

// EntityByName returns the entity declared with name.
func (m *Manifest) EntityByName(name string) (*Entity, bool) {
	for i := range m.Entities {
		if m.Entities[i].Name == name {
			return &m.Entities[i], true
		}
	}
	return nil, false
}
