package manifest

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrDuplicateEntity      = "E201" // entity declared twice
	ErrMissingEntityRef     = "E202" // entity-typed field without target
	ErrUnknownEntity        = "E203" // reference to an undeclared entity
	ErrInheritanceCycle     = "E204" // inherits_from loops back
	ErrEnumWithoutValues    = "E205" // enum field without enum_values
	ErrDuplicateFeature     = "E206" // feature declared twice
	ErrDuplicateUseCase     = "E207" // use case declared twice in a feature
	ErrBackwardNameConflict = "E208" // two owners map to one backward junction
	ErrDuplicateField       = "E209" // field declared twice in an entity
	ErrInvalidLanguage      = "E210" // unsupported target language
	ErrInvalidFieldType     = "E211" // unknown field type tag
	ErrInvalidRelationship  = "E212" // unknown relationship tag
)

// SchemaError reports a missing, invalid or unsupported schema version.
type SchemaError struct {
	Version int
	Message string
}

func (e *SchemaError) Error() string {
	if e.Version != 0 {
		return fmt.Sprintf("manifest schema version %d: %s", e.Version, e.Message)
	}
	return "manifest schema: " + e.Message
}

// ShapeError reports every violation of the manifest schema.
type ShapeError struct {
	Violations []string
}

func (e *ShapeError) Error() string {
	if len(e.Violations) == 1 {
		return "manifest shape: " + e.Violations[0]
	}
	return fmt.Sprintf("manifest shape: %d violations:\n  %s", len(e.Violations), strings.Join(e.Violations, "\n  "))
}

// ValidationError represents one semantic problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every semantic problem found in a manifest.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}
