package manifest

import (
	"github.com/jacquetc/qleany-sub001/internal/model"
)

// DerivedRelationship is one relationship row computed from an
// entity-typed field. Owner and Target are entity names.
type DerivedRelationship struct {
	Owner       string
	Target      string
	FieldName   string
	Type        model.RelationshipType
	Strength    model.Strength
	Direction   model.Direction
	Cardinality model.Cardinality
	Order       model.Order
}

// Derive maps one entity-typed field to its relationship attributes.
// An explicit relationship tag overrides the derived type only.
func Derive(f Field) (model.RelationshipType, model.Cardinality, model.Strength, model.Order) {
	var (
		typ  model.RelationshipType
		card model.Cardinality
	)
	switch {
	case !f.IsList && !f.Nullable:
		typ, card = model.OneToOne, model.One
	case !f.IsList && f.Nullable:
		typ, card = model.OneToOne, model.ZeroOrOne
	case f.IsList && !f.Nullable:
		typ, card = model.ManyToMany, model.OneOrMore
	default:
		typ, card = model.ManyToMany, model.ZeroOrMore
	}
	if f.Relationship != "" {
		if explicit, err := model.ParseRelationshipType(f.Relationship); err == nil {
			typ = explicit
		}
	}

	strength := model.Weak
	if f.Strong {
		strength = model.Strong
	}
	order := model.Unordered
	if f.Ordered {
		order = model.Ordered
	}
	return typ, card, strength, order
}

// DeriveRelationships returns a forward and a backward relationship for
// every entity-typed field, in declaration order.
func DeriveRelationships(entities []Entity) []DerivedRelationship {
	var out []DerivedRelationship
	for _, e := range entities {
		for _, f := range e.Fields {
			ft, err := model.ParseFieldType(f.Type)
			if err != nil || ft != model.FieldTypeEntity || f.Entity == "" {
				continue
			}
			typ, card, strength, order := Derive(f)
			forward := DerivedRelationship{
				Owner:       e.Name,
				Target:      f.Entity,
				FieldName:   f.Name,
				Type:        typ,
				Strength:    strength,
				Direction:   model.Forward,
				Cardinality: card,
				Order:       order,
			}
			backward := forward
			backward.Direction = model.Backward
			out = append(out, forward, backward)
		}
	}
	return out
}

// Holder returns the entity that lists the relationship: the owner for
// forward rows, the target for backward rows.
func (r DerivedRelationship) Holder() string {
	if r.Direction == model.Backward {
		return r.Target
	}
	return r.Owner
}
