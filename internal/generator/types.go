package generator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jacquetc/qleany-sub001/internal/model"
)

// typeSpec is what the language type of a field or DTO field depends on.
type typeSpec struct {
	Type     model.FieldType
	IsList   bool
	Nullable bool
	EnumName string
}

var rustScalars = map[model.FieldType]string{
	model.FieldTypeBoolean:  "bool",
	model.FieldTypeInteger:  "i64",
	model.FieldTypeUInteger: "u64",
	model.FieldTypeFloat:    "f64",
	model.FieldTypeString:   "String",
	model.FieldTypeUUID:     "uuid::Uuid",
	model.FieldTypeDateTime: "chrono::DateTime<chrono::Utc>",
	model.FieldTypeEntity:   "EntityId",
}

var cppScalars = map[model.FieldType]string{
	model.FieldTypeBoolean:  "bool",
	model.FieldTypeInteger:  "int",
	model.FieldTypeUInteger: "uint",
	model.FieldTypeFloat:    "double",
	model.FieldTypeString:   "QString",
	model.FieldTypeUUID:     "QUuid",
	model.FieldTypeDateTime: "QDateTime",
	model.FieldTypeEntity:   "int",
}

func (t typeSpec) scalar(table map[model.FieldType]string) string {
	if t.Type == model.FieldTypeEnum {
		return Pascal(t.EnumName)
	}
	if s, ok := table[t.Type]; ok {
		return s
	}
	return "UNKNOWN"
}

// RustType is the Rust spelling, wrapped in Vec or Option as needed.
func (t typeSpec) RustType() string {
	s := t.scalar(rustScalars)
	switch {
	case t.IsList:
		return "Vec<" + s + ">"
	case t.Nullable:
		return "Option<" + s + ">"
	}
	return s
}

// CppType is the Qt spelling, wrapped in QList or std::optional as needed.
func (t typeSpec) CppType() string {
	s := t.scalar(cppScalars)
	switch {
	case t.IsList:
		return "QList<" + s + ">"
	case t.Nullable:
		return "std::optional<" + s + ">"
	}
	return s
}

// RustDefault is the Rust expression of the zero value.
func (t typeSpec) RustDefault() string {
	switch {
	case t.IsList:
		return "Vec::new()"
	case t.Nullable:
		return "None"
	}
	switch t.Type {
	case model.FieldTypeBoolean:
		return "false"
	case model.FieldTypeInteger, model.FieldTypeUInteger, model.FieldTypeEntity:
		return "0"
	case model.FieldTypeFloat:
		return "0.0"
	case model.FieldTypeString:
		return "String::new()"
	case model.FieldTypeUUID:
		return fmt.Sprintf("uuid::uuid!(%q)", uuid.Nil.String())
	case model.FieldTypeDateTime:
		return "chrono::DateTime::<chrono::Utc>::UNIX_EPOCH"
	case model.FieldTypeEnum:
		return Pascal(t.EnumName) + "::default()"
	}
	return "Default::default()"
}

// CppDefault is the C++ initializer of the zero value.
func (t typeSpec) CppDefault() string {
	switch {
	case t.IsList:
		return "{}"
	case t.Nullable:
		return "std::nullopt"
	}
	switch t.Type {
	case model.FieldTypeBoolean:
		return "false"
	case model.FieldTypeInteger, model.FieldTypeUInteger, model.FieldTypeEntity:
		return "0"
	case model.FieldTypeFloat:
		return "0.0"
	case model.FieldTypeString:
		return "QString()"
	case model.FieldTypeUUID:
		return fmt.Sprintf("QUuid(QStringLiteral(\"{%s}\"))", uuid.Nil.String())
	case model.FieldTypeDateTime:
		return "QDateTime()"
	case model.FieldTypeEnum:
		return Pascal(t.EnumName) + "{}"
	}
	return "{}"
}
