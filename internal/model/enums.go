package model

import (
	"fmt"
	"strings"
)

// FieldType is the declared type of a Field or DtoField.
type FieldType string

const (
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeInteger  FieldType = "integer"
	FieldTypeUInteger FieldType = "uinteger"
	FieldTypeFloat    FieldType = "float"
	FieldTypeString   FieldType = "string"
	FieldTypeUUID     FieldType = "uuid"
	FieldTypeDateTime FieldType = "datetime"
	FieldTypeEntity   FieldType = "entity"
	FieldTypeEnum     FieldType = "enum"
)

// FieldTypes lists the accepted field types in declaration order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeBoolean,
		FieldTypeInteger,
		FieldTypeUInteger,
		FieldTypeFloat,
		FieldTypeString,
		FieldTypeUUID,
		FieldTypeDateTime,
		FieldTypeEntity,
		FieldTypeEnum,
	}
}

// ParseFieldType accepts the manifest tag of a field type, case-insensitively.
func ParseFieldType(s string) (FieldType, error) {
	norm := FieldType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range FieldTypes() {
		if t == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown field type %q", s)
}

// RelationshipType is the multiplicity of a relationship.
type RelationshipType string

const (
	OneToOne   RelationshipType = "one_to_one"
	OneToMany  RelationshipType = "one_to_many"
	ManyToOne  RelationshipType = "many_to_one"
	ManyToMany RelationshipType = "many_to_many"
)

// ParseRelationshipType accepts a manifest relationship tag.
func ParseRelationshipType(s string) (RelationshipType, error) {
	switch RelationshipType(strings.ToLower(strings.TrimSpace(s))) {
	case OneToOne:
		return OneToOne, nil
	case OneToMany:
		return OneToMany, nil
	case ManyToOne:
		return ManyToOne, nil
	case ManyToMany:
		return ManyToMany, nil
	}
	return "", fmt.Errorf("unknown relationship type %q", s)
}

// Strength tells whether a relation owns its targets.
type Strength string

const (
	Strong Strength = "strong"
	Weak   Strength = "weak"
)

// Direction of a derived relationship row.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// Cardinality of the right side of a relationship.
type Cardinality string

const (
	ZeroOrOne  Cardinality = "zero_or_one"
	One        Cardinality = "one"
	ZeroOrMore Cardinality = "zero_or_more"
	OneOrMore  Cardinality = "one_or_more"
)

// Notation renders the cardinality the way manifests and diagrams show it.
func (c Cardinality) Notation() string {
	switch c {
	case ZeroOrOne:
		return "0..1"
	case One:
		return "1"
	case ZeroOrMore:
		return "0..*"
	case OneOrMore:
		return "1..*"
	}
	return "?"
}

// Order tells whether a list relationship preserves insertion order.
type Order string

const (
	Ordered   Order = "ordered"
	Unordered Order = "unordered"
)

// FileStatus describes a generated file relative to the output directory.
type FileStatus string

const (
	FileStatusNew      FileStatus = "new"
	FileStatusExisting FileStatus = "existing"
	// FileStatusStale marks a file on disk that is older than the manifest.
	FileStatusStale FileStatus = "stale"
)

// OnDisk reports whether the file was found in the output directory.
func (s FileStatus) OnDisk() bool {
	return s == FileStatusExisting || s == FileStatusStale
}

// Language is the target language of a workspace.
type Language string

const (
	LanguageRust  Language = "rust"
	LanguageCppQt Language = "cpp-qt"
)

// ParseLanguage accepts "rust", "cpp-qt" and the legacy "cpp_qt".
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rust":
		return LanguageRust, nil
	case "cpp-qt", "cpp_qt", "cppqt":
		return LanguageCppQt, nil
	}
	return "", fmt.Errorf("unknown language %q (want rust or cpp-qt)", s)
}
