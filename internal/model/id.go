package model

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityID identifies a record within its kind. Zero means "unassigned".
type EntityID uint64

// String renders the id in decimal.
func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// FormatIDs renders ids as a comma separated list ("1,2,3").
func FormatIDs(ids []EntityID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

// ParseIDs parses the output of FormatIDs. An empty string yields no ids.
func ParseIDs(s string) ([]EntityID, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]EntityID, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", p, err)
		}
		ids = append(ids, EntityID(v))
	}
	return ids, nil
}

// Kind names an entity kind. It doubles as the table name of the kind.
type Kind string

const (
	KindRoot          Kind = "root"
	KindWorkspace     Kind = "workspace"
	KindSystem        Kind = "system"
	KindGlobal        Kind = "global"
	KindEntity        Kind = "entity"
	KindField         Kind = "field"
	KindRelationship  Kind = "relationship"
	KindFeature       Kind = "feature"
	KindUseCase       Kind = "use_case"
	KindDto           Kind = "dto"
	KindDtoField      Kind = "dto_field"
	KindFile          Kind = "file"
	KindUserInterface Kind = "user_interface"
)

// Kinds lists every entity kind in dependency order (owners first).
func Kinds() []Kind {
	return []Kind{
		KindRoot,
		KindWorkspace,
		KindSystem,
		KindGlobal,
		KindEntity,
		KindField,
		KindRelationship,
		KindFeature,
		KindUseCase,
		KindDto,
		KindDtoField,
		KindFile,
		KindUserInterface,
	}
}

// Pascal returns the kind name in PascalCase ("use_case" -> "UseCase").
func (k Kind) Pascal() string {
	var b strings.Builder
	for _, part := range strings.Split(string(k), "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// Record is implemented by every persisted domain object.
type Record interface {
	Kind() Kind
	GetID() EntityID
	SetID(id EntityID)
	// RelationIDs returns the ids held by the named relation field.
	// Single-valued relations return at most one id.
	RelationIDs(field string) []EntityID
	// SetRelationIDs replaces the ids held by the named relation field.
	SetRelationIDs(field string, ids []EntityID)
}

// NewRecord returns an empty record of the given kind.
func NewRecord(kind Kind) (Record, error) {
	switch kind {
	case KindRoot:
		return &Root{}, nil
	case KindWorkspace:
		return &Workspace{}, nil
	case KindSystem:
		return &System{}, nil
	case KindGlobal:
		return &Global{}, nil
	case KindEntity:
		return &Entity{}, nil
	case KindField:
		return &Field{}, nil
	case KindRelationship:
		return &Relationship{}, nil
	case KindFeature:
		return &Feature{}, nil
	case KindUseCase:
		return &UseCase{}, nil
	case KindDto:
		return &Dto{}, nil
	case KindDtoField:
		return &DtoField{}, nil
	case KindFile:
		return &File{}, nil
	case KindUserInterface:
		return &UserInterface{}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

func one(id EntityID) []EntityID {
	if id == 0 {
		return nil
	}
	return []EntityID{id}
}

func first(ids []EntityID) EntityID {
	if len(ids) == 0 {
		return 0
	}
	return ids[0]
}

func cloneIDs(ids []EntityID) []EntityID {
	if ids == nil {
		return nil
	}
	out := make([]EntityID, len(ids))
	copy(out, ids)
	return out
}
