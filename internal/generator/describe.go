package generator

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemagen/internal/naming"
	"github.com/tordrt/schemagen/internal/relation"
	"github.com/tordrt/schemagen/internal/schema"
)

// columnInfo is the documentation view of one field
type columnInfo struct {
	Name       string
	Type       string
	EnumValues []string
	Depth      int
	Primary    bool
	Unique     bool
	NotNull    bool
	Default    string
	Check      string
}

// indexInfo is the documentation view of one index
type indexInfo struct {
	Name    string
	Columns []string
	Unique  bool
}

// describeColumns lists the columns of an entry. Document families also list
// nested fields, one level deeper than their parent.
func describeColumns(entry *relation.Entry, family schema.Family) []columnInfo {
	var out []columnInfo
	for i, f := range entry.Entity.Data.Fields {
		if f == nil {
			continue
		}
		col := entry.Column(f)
		if col == "" {
			col = naming.ToIdentifier(f.Name, fmt.Sprintf("column_%d", i+1), naming.Snake)
		}
		out = append(out, describeField(f, col, family, 0))
		if family == schema.MongoDB {
			schema.Walk(f.Children, func(child *schema.Field, depth int) {
				out = append(out, describeField(child, naming.ToIdentifier(child.Name, "field", naming.Key), family, depth+1))
			})
		}
	}
	return out
}

func describeField(f *schema.Field, name string, family schema.Family, depth int) columnInfo {
	info := columnInfo{
		Name:       name,
		EnumValues: enumValues(f),
		Depth:      depth,
		Primary:    f.IsPrimary(),
		Unique:     f.Unique,
		Check:      strings.TrimSpace(f.CheckExpression),
	}
	if family == schema.MongoDB {
		info.Type = mongooseKind(f.Type)
		info.NotNull = f.Required
	} else {
		info.Type = sqlType(f, sqlFamily(family))
		info.NotNull = !f.Nullable && !f.IsPrimary()
		if strings.HasPrefix(info.Type, "ENUM(") {
			info.Type = "ENUM"
		}
	}
	if d := classifyDefault(f.DefaultValue); d.Kind != defaultNone {
		info.Default = d.Text
	}
	return info
}

// describeIndexes lists the single-column indexes of an entry, unique ones included
func describeIndexes(entry *relation.Entry) []indexInfo {
	var out []indexInfo
	names := naming.NewRegistry(naming.Snake)
	for _, f := range entry.Entity.Data.Fields {
		if f == nil || f.IsPrimary() || (!f.Index && !f.Unique) {
			continue
		}
		col := entry.Column(f)
		if col == "" {
			continue
		}
		prefix := "idx"
		if f.Unique {
			prefix = "uniq"
		}
		name := names.Unique(constraintName(f.IndexName, fmt.Sprintf("%s_%s_%s", prefix, entry.Table, col)))
		out = append(out, indexInfo{Name: name, Columns: []string{col}, Unique: f.Unique})
	}
	return out
}

// outgoing returns the resolved references declared by an entry
func outgoing(c *relation.Catalog, entry *relation.Entry) []relation.Reference {
	var out []relation.Reference
	for _, f := range entry.Entity.Data.Fields {
		if ref, ok := c.Resolve(entry.Entity, f); ok {
			out = append(out, ref)
		}
	}
	return out
}

// cardinality describes a reference from the source side
func cardinality(ref relation.Reference) string {
	if f := ref.Source.FieldByColumn(ref.Column); f != nil && (f.Unique || f.IsPrimary()) {
		return "one-to-one"
	}
	return "many-to-one"
}
