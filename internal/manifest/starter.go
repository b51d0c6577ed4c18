package manifest

import (
	"github.com/jacquetc/qleany-sub001/internal/model"
)

// StarterOptions configures New.
type StarterOptions struct {
	Language           model.Language
	ApplicationName    string
	OrganisationName   string
	OrganisationDomain string
}

// New returns a starter manifest: a heritage base entity, a Root entity
// owning a list of items, and the UI flags suited to the language.
func New(opts StarterOptions) *Manifest {
	if opts.Language == "" {
		opts.Language = model.LanguageRust
	}
	if opts.ApplicationName == "" {
		opts.ApplicationName = "MyApp"
	}

	m := &Manifest{
		Schema: Schema{Version: CurrentVersion},
		Global: Global{
			Language:        string(opts.Language),
			ApplicationName: opts.ApplicationName,
			Organisation: Organisation{
				Name:   opts.OrganisationName,
				Domain: opts.OrganisationDomain,
			},
		},
		Entities: []Entity{
			{
				Name:            "EntityBase",
				OnlyForHeritage: true,
				Fields: []Field{
					{Name: "id", Type: string(model.FieldTypeUInteger), IsPrimaryKey: true},
					{Name: "created_at", Type: string(model.FieldTypeDateTime)},
					{Name: "updated_at", Type: string(model.FieldTypeDateTime)},
				},
			},
			{
				Name:         "Root",
				InheritsFrom: "EntityBase",
				Fields: []Field{
					{Name: "items", Type: string(model.FieldTypeEntity), Entity: "Item", IsList: true, Nullable: true, Strong: true, Ordered: true},
				},
			},
			{
				Name:         "Item",
				InheritsFrom: "EntityBase",
				Undoable:     true,
				Fields: []Field{
					{Name: "title", Type: string(model.FieldTypeString)},
				},
			},
		},
		Features: []Feature{},
	}

	switch opts.Language {
	case model.LanguageCppQt:
		m.Global.PrefixPath = "src"
		m.UI.CppQtQtQuick = true
	default:
		m.Global.PrefixPath = "crates"
		m.UI.RustCLI = true
	}
	return m
}
