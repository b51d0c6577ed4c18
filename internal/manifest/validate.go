package manifest

import (
	"fmt"

	"github.com/jacquetc/qleany-sub001/internal/model"
)

// Validate runs the semantic checks on a decoded manifest.
// It returns every error found rather than stopping at the first.
func Validate(m *Manifest) ValidationErrors {
	var errs ValidationErrors

	if _, err := model.ParseLanguage(m.Global.Language); err != nil {
		errs = append(errs, ValidationError{
			Field:   "global.language",
			Message: err.Error(),
			Code:    ErrInvalidLanguage,
		})
	}

	entityNames := make(map[string]bool, len(m.Entities))
	for i, e := range m.Entities {
		if entityNames[e.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("entities[%d].name", i),
				Message: fmt.Sprintf("entity %q is declared more than once", e.Name),
				Code:    ErrDuplicateEntity,
			})
		}
		entityNames[e.Name] = true
	}

	for i, e := range m.Entities {
		path := fmt.Sprintf("entities[%d]", i)
		if e.InheritsFrom != "" && !entityNames[e.InheritsFrom] {
			errs = append(errs, ValidationError{
				Field:   path + ".inherits_from",
				Message: fmt.Sprintf("entity %q inherits from unknown entity %q", e.Name, e.InheritsFrom),
				Code:    ErrUnknownEntity,
			})
		}
		errs = append(errs, validateFields(path, e, entityNames)...)
	}

	errs = append(errs, validateInheritance(m)...)
	errs = append(errs, validateBackwardNames(m)...)

	featureNames := make(map[string]bool, len(m.Features))
	for i, f := range m.Features {
		path := fmt.Sprintf("features[%d]", i)
		if featureNames[f.Name] {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: fmt.Sprintf("feature %q is declared more than once", f.Name),
				Code:    ErrDuplicateFeature,
			})
		}
		featureNames[f.Name] = true

		useCaseNames := make(map[string]bool, len(f.UseCases))
		for j, uc := range f.UseCases {
			ucPath := fmt.Sprintf("%s.use_cases[%d]", path, j)
			if useCaseNames[uc.Name] {
				errs = append(errs, ValidationError{
					Field:   ucPath + ".name",
					Message: fmt.Sprintf("use case %q is declared more than once in feature %q", uc.Name, f.Name),
					Code:    ErrDuplicateUseCase,
				})
			}
			useCaseNames[uc.Name] = true

			for k, name := range uc.Entities {
				if !entityNames[name] {
					errs = append(errs, ValidationError{
						Field:   fmt.Sprintf("%s.entities[%d]", ucPath, k),
						Message: fmt.Sprintf("use case %q references unknown entity %q", uc.Name, name),
						Code:    ErrUnknownEntity,
					})
				}
			}
			errs = append(errs, validateDto(ucPath+".dto_in", uc.DtoIn)...)
			errs = append(errs, validateDto(ucPath+".dto_out", uc.DtoOut)...)
		}
	}

	return errs
}

func validateFields(path string, e Entity, entityNames map[string]bool) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]bool, len(e.Fields))
	for j, f := range e.Fields {
		fieldPath := fmt.Sprintf("%s.fields[%d]", path, j)
		if seen[f.Name] {
			errs = append(errs, ValidationError{
				Field:   fieldPath + ".name",
				Message: fmt.Sprintf("field %q is declared more than once in entity %q", f.Name, e.Name),
				Code:    ErrDuplicateField,
			})
		}
		seen[f.Name] = true

		ft, err := model.ParseFieldType(f.Type)
		if err != nil {
			errs = append(errs, ValidationError{Field: fieldPath + ".type", Message: err.Error(), Code: ErrInvalidFieldType})
			continue
		}
		if f.Relationship != "" {
			if _, err := model.ParseRelationshipType(f.Relationship); err != nil {
				errs = append(errs, ValidationError{Field: fieldPath + ".relationship", Message: err.Error(), Code: ErrInvalidRelationship})
			}
		}

		switch ft {
		case model.FieldTypeEntity:
			switch {
			case f.Entity == "":
				errs = append(errs, ValidationError{
					Field:   fieldPath + ".entity",
					Message: fmt.Sprintf("entity-typed field %q must name its target entity", f.Name),
					Code:    ErrMissingEntityRef,
				})
			case !entityNames[f.Entity]:
				errs = append(errs, ValidationError{
					Field:   fieldPath + ".entity",
					Message: fmt.Sprintf("field %q references unknown entity %q", f.Name, f.Entity),
					Code:    ErrUnknownEntity,
				})
			}
		case model.FieldTypeEnum:
			if len(f.EnumValues) == 0 {
				errs = append(errs, ValidationError{
					Field:   fieldPath + ".enum_values",
					Message: fmt.Sprintf("enum field %q needs enum_values", f.Name),
					Code:    ErrEnumWithoutValues,
				})
			}
		}
	}
	return errs
}

func validateDto(path string, dto *Dto) ValidationErrors {
	if dto == nil {
		return nil
	}
	var errs ValidationErrors
	for i, f := range dto.Fields {
		fieldPath := fmt.Sprintf("%s.fields[%d]", path, i)
		ft, err := model.ParseFieldType(f.Type)
		if err != nil {
			errs = append(errs, ValidationError{Field: fieldPath + ".type", Message: err.Error(), Code: ErrInvalidFieldType})
			continue
		}
		if ft == model.FieldTypeEnum && len(f.EnumValues) == 0 {
			errs = append(errs, ValidationError{
				Field:   fieldPath + ".enum_values",
				Message: fmt.Sprintf("enum field %q needs enum_values", f.Name),
				Code:    ErrEnumWithoutValues,
			})
		}
	}
	return errs
}

// validateInheritance reports each entity whose inherits_from chain loops.
func validateInheritance(m *Manifest) ValidationErrors {
	parent := make(map[string]string, len(m.Entities))
	for _, e := range m.Entities {
		if e.InheritsFrom != "" {
			parent[e.Name] = e.InheritsFrom
		}
	}

	var errs ValidationErrors
	for i, e := range m.Entities {
		visited := map[string]bool{e.Name: true}
		for cur := parent[e.Name]; cur != ""; cur = parent[cur] {
			if visited[cur] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("entities[%d].inherits_from", i),
					Message: fmt.Sprintf("entity %q has a cyclic inheritance chain through %q", e.Name, cur),
					Code:    ErrInheritanceCycle,
				})
				break
			}
			visited[cur] = true
		}
	}
	return errs
}

// validateBackwardNames rejects two owners that reach the same target
// through fields of the same name: their backward junctions would share
// the name <target>_from_<field>.
func validateBackwardNames(m *Manifest) ValidationErrors {
	type key struct{ target, field string }
	owners := make(map[key]string)

	var errs ValidationErrors
	for i, e := range m.Entities {
		for j, f := range e.Fields {
			if f.Entity == "" {
				continue
			}
			if ft, err := model.ParseFieldType(f.Type); err != nil || ft != model.FieldTypeEntity {
				continue
			}
			k := key{target: f.Entity, field: f.Name}
			owner, taken := owners[k]
			if taken && owner != e.Name {
				errs = append(errs, ValidationError{
					Field: fmt.Sprintf("entities[%d].fields[%d].name", i, j),
					Message: fmt.Sprintf("entities %q and %q both reference %q through field %q; backward name %s_from_%s is ambiguous",
						owner, e.Name, f.Entity, f.Name, f.Entity, f.Name),
					Code: ErrBackwardNameConflict,
				})
				continue
			}
			owners[k] = e.Name
		}
	}
	return errs
}
