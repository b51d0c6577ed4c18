package model

import "fmt"

// Relation describes one relation field of an owner kind.
type Relation struct {
	Owner    Kind
	Field    string
	Target   Kind
	Strength Strength
	Many     bool
	Ordered  bool
}

// ForwardTable names the junction table keyed by owner id.
func (r Relation) ForwardTable() string {
	return fmt.Sprintf("%s_from_%s_%s_junction", r.Target, r.Owner, r.Field)
}

// BackwardTable names the junction table keyed by target id.
func (r Relation) BackwardTable() string {
	return fmt.Sprintf("%s_from_%s_%s_backward_junction", r.Owner, r.Target, r.Field)
}

// IsStrong reports whether deleting the owner deletes the targets.
func (r Relation) IsStrong() bool {
	return r.Strength == Strong
}

var relations = []Relation{
	{Owner: KindRoot, Field: "workspace", Target: KindWorkspace, Strength: Strong},
	{Owner: KindRoot, Field: "system", Target: KindSystem, Strength: Strong},
	{Owner: KindWorkspace, Field: "global", Target: KindGlobal, Strength: Strong},
	{Owner: KindWorkspace, Field: "entities", Target: KindEntity, Strength: Strong, Many: true, Ordered: true},
	{Owner: KindWorkspace, Field: "features", Target: KindFeature, Strength: Strong, Many: true, Ordered: true},
	{Owner: KindWorkspace, Field: "user_interface", Target: KindUserInterface, Strength: Strong},
	{Owner: KindSystem, Field: "files", Target: KindFile, Strength: Strong, Many: true, Ordered: true},
	{Owner: KindEntity, Field: "fields", Target: KindField, Strength: Strong, Many: true, Ordered: true},
	{Owner: KindEntity, Field: "relationships", Target: KindRelationship, Strength: Strong, Many: true, Ordered: true},
	{Owner: KindEntity, Field: "inherits_from", Target: KindEntity, Strength: Weak},
	{Owner: KindField, Field: "entity", Target: KindEntity, Strength: Weak},
	{Owner: KindRelationship, Field: "left_entity", Target: KindEntity, Strength: Weak},
	{Owner: KindRelationship, Field: "right_entity", Target: KindEntity, Strength: Weak},
	{Owner: KindFeature, Field: "use_cases", Target: KindUseCase, Strength: Strong, Many: true, Ordered: true},
	{Owner: KindUseCase, Field: "entities", Target: KindEntity, Strength: Weak, Many: true},
	{Owner: KindUseCase, Field: "dto_in", Target: KindDto, Strength: Strong},
	{Owner: KindUseCase, Field: "dto_out", Target: KindDto, Strength: Strong},
	{Owner: KindDto, Field: "fields", Target: KindDtoField, Strength: Strong, Many: true, Ordered: true},
	{Owner: KindFile, Field: "feature", Target: KindFeature, Strength: Weak},
	{Owner: KindFile, Field: "entity", Target: KindEntity, Strength: Weak},
	{Owner: KindFile, Field: "use_case", Target: KindUseCase, Strength: Weak},
	{Owner: KindFile, Field: "field", Target: KindField, Strength: Weak},
}

// Relations returns the outgoing relations of a kind in declaration order.
func Relations(owner Kind) []Relation {
	var out []Relation
	for _, r := range relations {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out
}

// IncomingRelations returns every relation whose target is the given kind.
func IncomingRelations(target Kind) []Relation {
	var out []Relation
	for _, r := range relations {
		if r.Target == target {
			out = append(out, r)
		}
	}
	return out
}

// AllRelations returns the whole relation schema.
func AllRelations() []Relation {
	out := make([]Relation, len(relations))
	copy(out, relations)
	return out
}

// LookupRelation finds the relation named field on owner.
func LookupRelation(owner Kind, field string) (Relation, bool) {
	for _, r := range relations {
		if r.Owner == owner && r.Field == field {
			return r, true
		}
	}
	return Relation{}, false
}
