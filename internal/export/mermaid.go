// Package export renders the loaded workspace as other formats.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/jacquetc/qleany-sub001/internal/generator"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// Mermaid renders the loaded workspace as a Mermaid entity-relationship
// diagram.
func Mermaid(ctx context.Context, f *uow.Factory) (string, error) {
	q, err := f.Query(ctx, generator.ReadCapabilities())
	if err != nil {
		return "", err
	}
	defer q.End()

	ws, err := generator.LoadWorkspace(ctx, q)
	if err != nil {
		return "", err
	}
	return MermaidFrom(ws), nil
}

// MermaidFrom renders ws. Entities come in declaration order with their
// own value fields; each forward relationship gives one line.
func MermaidFrom(ws *generator.Workspace) string {
	var b strings.Builder
	b.WriteString("erDiagram\n")

	for _, e := range ws.Entities {
		var attrs []string
		for _, id := range e.Fields {
			f := ws.Fields[id]
			if f == nil || f.FieldType == model.FieldTypeEntity {
				continue
			}
			attr := attributeType(f) + " " + f.Name
			if f.IsPrimaryKey {
				attr += " PK"
			}
			attrs = append(attrs, attr)
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&b, "    %s\n", e.Name)
			continue
		}
		fmt.Fprintf(&b, "    %s {\n", e.Name)
		for _, a := range attrs {
			fmt.Fprintf(&b, "        %s\n", a)
		}
		b.WriteString("    }\n")
	}

	names := make(map[model.EntityID]string, len(ws.Entities))
	for _, e := range ws.Entities {
		names[e.ID] = e.Name
	}
	for _, e := range ws.Entities {
		for _, id := range e.Relationships {
			r := ws.Relationships[id]
			if r == nil || r.Direction != model.Forward {
				continue
			}
			verb := "refs"
			if r.Strength == model.Strong {
				verb = "owns"
			}
			fmt.Fprintf(&b, "    %s %s--%s %s : \"%s %s\"\n",
				names[r.LeftEntity], leftMarker(r.Strength), rightMarker(r.Cardinality),
				names[r.RightEntity], verb, r.FieldName)
		}
	}
	return b.String()
}

func attributeType(f *model.Field) string {
	t := string(f.FieldType)
	if f.FieldType == model.FieldTypeEnum && f.EnumName != "" {
		t = f.EnumName
	}
	if f.IsList {
		t += "[]"
	}
	return t
}

// leftMarker is the owner side: a strong owner is unique, weak
// references may come from many owners.
func leftMarker(s model.Strength) string {
	if s == model.Strong {
		return "||"
	}
	return "}o"
}

func rightMarker(c model.Cardinality) string {
	switch c {
	case model.ZeroOrOne:
		return "o|"
	case model.One:
		return "||"
	case model.OneOrMore:
		return "|{"
	default:
		return "o{"
	}
}
