package cli

import (
	"fmt"
	"strings"

	"github.com/jacquetc/qleany-sub001/internal/generator"
	"github.com/jacquetc/qleany-sub001/internal/model"
)

// FieldInfo describes one entity or DTO field.
type FieldInfo struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Entity       string   `json:"entity,omitempty"`
	Nullable     bool     `json:"nullable,omitempty"`
	IsList       bool     `json:"is_list,omitempty"`
	IsPrimaryKey bool     `json:"is_primary_key,omitempty"`
	Strong       bool     `json:"strong,omitempty"`
	EnumName     string   `json:"enum_name,omitempty"`
	EnumValues   []string `json:"enum_values,omitempty"`
}

func (f FieldInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", f.Name, f.Type)
	switch {
	case f.Entity != "":
		fmt.Fprintf(&b, " %s", f.Entity)
	case f.EnumName != "":
		fmt.Fprintf(&b, " %s [%s]", f.EnumName, strings.Join(f.EnumValues, ", "))
	}
	var flags []string
	for _, fl := range []struct {
		on   bool
		name string
	}{{f.IsPrimaryKey, "primary key"}, {f.IsList, "list"}, {f.Nullable, "nullable"}, {f.Strong, "strong"}} {
		if fl.on {
			flags = append(flags, fl.name)
		}
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(flags, ", "))
	}
	return b.String()
}

// RelationshipInfo describes one derived relationship row.
type RelationshipInfo struct {
	Field       string `json:"field"`
	Type        string `json:"type"`
	Direction   string `json:"direction"`
	Strength    string `json:"strength"`
	Cardinality string `json:"cardinality"`
	Left        string `json:"left"`
	Right       string `json:"right"`
}

func (r RelationshipInfo) String() string {
	return fmt.Sprintf("%s: %s %s %s %s, %s -> %s", r.Field, r.Type, r.Direction, r.Strength, r.Cardinality, r.Left, r.Right)
}

// EntityInfo is the output of show entity.
type EntityInfo struct {
	Name            string             `json:"name"`
	InheritsFrom    string             `json:"inherits_from,omitempty"`
	OnlyForHeritage bool               `json:"only_for_heritage,omitempty"`
	SingleModel     bool               `json:"single_model,omitempty"`
	Undoable        bool               `json:"undoable,omitempty"`
	Fields          []FieldInfo        `json:"fields"`
	Relationships   []RelationshipInfo `json:"relationships,omitempty"`
}

func (e EntityInfo) String() string {
	var b strings.Builder
	b.WriteString(e.heading())
	b.WriteByte('\n')
	for _, f := range e.Fields {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	if len(e.Relationships) > 0 {
		b.WriteString("  relationships:\n")
		for _, r := range e.Relationships {
			fmt.Fprintf(&b, "    %s\n", r)
		}
	}
	return b.String()
}

func (e EntityInfo) Tree() *TreeNode {
	root := &TreeNode{Label: e.heading()}
	fields := root.Add("fields")
	for _, f := range e.Fields {
		fields.Add(f.String())
	}
	if len(e.Relationships) > 0 {
		rels := root.Add("relationships")
		for _, r := range e.Relationships {
			rels.Add(r.String())
		}
	}
	return root
}

func (e EntityInfo) heading() string {
	var notes []string
	if e.InheritsFrom != "" {
		notes = append(notes, "inherits "+e.InheritsFrom)
	}
	if e.OnlyForHeritage {
		notes = append(notes, "heritage only")
	}
	if e.SingleModel {
		notes = append(notes, "single model")
	}
	if e.Undoable {
		notes = append(notes, "undoable")
	}
	if len(notes) == 0 {
		return e.Name
	}
	return fmt.Sprintf("%s (%s)", e.Name, strings.Join(notes, ", "))
}

// DtoInfo describes a use-case DTO.
type DtoInfo struct {
	Name   string      `json:"name"`
	Fields []FieldInfo `json:"fields"`
}

// UseCaseInfo describes one use case of a feature.
type UseCaseInfo struct {
	Name          string   `json:"name"`
	Validator     bool     `json:"validator,omitempty"`
	Undoable      bool     `json:"undoable,omitempty"`
	ReadOnly      bool     `json:"read_only,omitempty"`
	LongOperation bool     `json:"long_operation,omitempty"`
	Entities      []string `json:"entities,omitempty"`
	DtoIn         *DtoInfo `json:"dto_in,omitempty"`
	DtoOut        *DtoInfo `json:"dto_out,omitempty"`
}

func (u UseCaseInfo) heading() string {
	var notes []string
	for _, fl := range []struct {
		on   bool
		name string
	}{{u.Validator, "validator"}, {u.Undoable, "undoable"}, {u.ReadOnly, "read only"}, {u.LongOperation, "long operation"}} {
		if fl.on {
			notes = append(notes, fl.name)
		}
	}
	if len(notes) == 0 {
		return u.Name
	}
	return fmt.Sprintf("%s (%s)", u.Name, strings.Join(notes, ", "))
}

// FeatureInfo is the output of show feature.
type FeatureInfo struct {
	Name     string        `json:"name"`
	UseCases []UseCaseInfo `json:"use_cases"`
}

func (f FeatureInfo) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte('\n')
	for _, uc := range f.UseCases {
		fmt.Fprintf(&b, "  %s\n", uc.heading())
		if len(uc.Entities) > 0 {
			fmt.Fprintf(&b, "    entities: %s\n", strings.Join(uc.Entities, ", "))
		}
		for _, dto := range []struct {
			label string
			dto   *DtoInfo
		}{{"in", uc.DtoIn}, {"out", uc.DtoOut}} {
			if dto.dto == nil {
				continue
			}
			fmt.Fprintf(&b, "    dto %s: %s\n", dto.label, dto.dto.Name)
			for _, field := range dto.dto.Fields {
				fmt.Fprintf(&b, "      %s\n", field)
			}
		}
	}
	return b.String()
}

func (f FeatureInfo) Tree() *TreeNode {
	root := &TreeNode{Label: f.Name}
	for _, uc := range f.UseCases {
		node := root.Add(uc.heading())
		if len(uc.Entities) > 0 {
			node.Add("entities: " + strings.Join(uc.Entities, ", "))
		}
		if uc.DtoIn != nil {
			dto := node.Add("dto in: " + uc.DtoIn.Name)
			for _, field := range uc.DtoIn.Fields {
				dto.Add(field.String())
			}
		}
		if uc.DtoOut != nil {
			dto := node.Add("dto out: " + uc.DtoOut.Name)
			for _, field := range uc.DtoOut.Fields {
				dto.Add(field.String())
			}
		}
	}
	return root
}

func entityName(ws *generator.Workspace, id model.EntityID) string {
	if e := ws.Entity(id); e != nil {
		return e.Name
	}
	return ""
}

func entityInfo(ws *generator.Workspace, e *model.Entity) EntityInfo {
	info := EntityInfo{
		Name:            e.Name,
		InheritsFrom:    entityName(ws, e.InheritsFrom),
		OnlyForHeritage: e.OnlyForHeritage,
		SingleModel:     e.SingleModel,
		Undoable:        e.Undoable,
		Fields:          []FieldInfo{},
	}
	for _, id := range e.Fields {
		f, ok := ws.Fields[id]
		if !ok {
			continue
		}
		info.Fields = append(info.Fields, FieldInfo{
			Name:         f.Name,
			Type:         string(f.FieldType),
			Entity:       entityName(ws, f.Entity),
			Nullable:     f.Nullable,
			IsList:       f.IsList,
			IsPrimaryKey: f.IsPrimaryKey,
			Strong:       f.Strong,
			EnumName:     f.EnumName,
			EnumValues:   f.EnumValues,
		})
	}
	for _, id := range e.Relationships {
		r, ok := ws.Relationships[id]
		if !ok {
			continue
		}
		info.Relationships = append(info.Relationships, RelationshipInfo{
			Field:       r.FieldName,
			Type:        string(r.RelationshipType),
			Direction:   string(r.Direction),
			Strength:    string(r.Strength),
			Cardinality: string(r.Cardinality),
			Left:        entityName(ws, r.LeftEntity),
			Right:       entityName(ws, r.RightEntity),
		})
	}
	return info
}

func featureInfo(ws *generator.Workspace, f *model.Feature) FeatureInfo {
	info := FeatureInfo{Name: f.Name, UseCases: []UseCaseInfo{}}
	for _, id := range f.UseCases {
		uc, ok := ws.UseCases[id]
		if !ok {
			continue
		}
		ucInfo := UseCaseInfo{
			Name:          uc.Name,
			Validator:     uc.Validator,
			Undoable:      uc.Undoable,
			ReadOnly:      uc.ReadOnly,
			LongOperation: uc.LongOperation,
			DtoIn:         dtoInfo(ws, uc.DtoIn),
			DtoOut:        dtoInfo(ws, uc.DtoOut),
		}
		for _, eid := range uc.Entities {
			ucInfo.Entities = append(ucInfo.Entities, entityName(ws, eid))
		}
		info.UseCases = append(info.UseCases, ucInfo)
	}
	return info
}

func dtoInfo(ws *generator.Workspace, id model.EntityID) *DtoInfo {
	dto, ok := ws.Dtos[id]
	if !ok {
		return nil
	}
	info := &DtoInfo{Name: dto.Name, Fields: []FieldInfo{}}
	for _, fid := range dto.Fields {
		f, ok := ws.DtoFields[fid]
		if !ok {
			continue
		}
		info.Fields = append(info.Fields, FieldInfo{
			Name:       f.Name,
			Type:       string(f.FieldType),
			Nullable:   f.Nullable,
			IsList:     f.IsList,
			EnumName:   f.EnumName,
			EnumValues: f.EnumValues,
		})
	}
	return info
}
