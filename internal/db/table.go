package db

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemagen/internal/schema"
)

// Table is the catalog description of one table as read from a live database
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// Column is one column of a table. Type is the raw type as the database reports it.
type Column struct {
	Name          string
	Type          string
	Nullable      bool
	IsUnique      bool
	AutoIncrement bool
	DefaultValue  *string
	EnumValues    []string
}

// ForeignKey is a single-column foreign key constraint
type ForeignKey struct {
	Name         string
	Column       string
	TargetTable  string
	TargetColumn string
	OnDelete     string
	OnUpdate     string
}

// Index is a secondary index; primary key indexes are never listed
type Index struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// layout of introspected entities on the canvas
const (
	gridColumns = 4
	gridSpacing = 300
)

// EntityID is the id given to the entity of an introspected table
func EntityID(table string) string {
	return "tbl-" + table
}

// FieldID is the id given to the field of an introspected column
func FieldID(table, column string) string {
	return "f-" + table + "-" + column
}

// ToProject converts extracted tables into a single-database project. Foreign
// keys become field references plus an edge from the referenced column to the
// referencing one.
func ToProject(databaseName string, tables []Table) *schema.Project {
	known := make(map[string]bool, len(tables))
	primary := make(map[string]string, len(tables))
	for _, t := range tables {
		known[t.Name] = true
		if len(t.PrimaryKey) > 0 {
			primary[t.Name] = t.PrimaryKey[0]
		}
	}

	entities := make([]*schema.Entity, 0, len(tables))
	var edges []schema.Edge
	for _, t := range tables {
		t.ForeignKeys = resolveTargetColumns(t.ForeignKeys, primary)
		e := &schema.Entity{
			ID:   EntityID(t.Name),
			Data: schema.EntityData{Label: t.Name, Fields: tableFields(t)},
		}
		entities = append(entities, e)

		for _, fk := range t.ForeignKeys {
			if !known[fk.TargetTable] || fk.TargetColumn == "" {
				continue
			}
			edges = append(edges, schema.Edge{
				ID:           fmt.Sprintf("e-%s-%s", t.Name, fk.Column),
				Source:       EntityID(fk.TargetTable),
				Target:       e.ID,
				SourceHandle: FieldID(fk.TargetTable, fk.TargetColumn),
				TargetHandle: FieldID(t.Name, fk.Column),
			})
		}
	}
	return newProject(databaseName, entities, edges)
}

// newProject places the entities on a grid inside a single database
func newProject(databaseName string, entities []*schema.Entity, edges []schema.Edge) *schema.Project {
	p := schema.NewProject()
	if databaseName != "" {
		p.Databases[0].Name = databaseName
	}
	dbID := p.ActiveDatabaseID

	for i, e := range entities {
		e.DatabaseID = dbID
		e.Position = schema.Position{
			X: float64((i % gridColumns) * gridSpacing),
			Y: float64((i / gridColumns) * gridSpacing),
		}
	}
	for i := range edges {
		edges[i].DatabaseID = dbID
	}
	p.Collections = append(p.Collections, entities...)
	p.Edges = append(p.Edges, edges...)
	p.PruneEdges(dbID)
	return p
}

// resolveTargetColumns fills in the target column of keys that reference
// the primary key implicitly
func resolveTargetColumns(fks []ForeignKey, primary map[string]string) []ForeignKey {
	out := make([]ForeignKey, len(fks))
	for i, fk := range fks {
		if fk.TargetColumn == "" {
			fk.TargetColumn = primary[fk.TargetTable]
		}
		out[i] = fk
	}
	return out
}

func tableFields(t Table) []*schema.Field {
	pk := make(map[string]bool, len(t.PrimaryKey))
	for _, c := range t.PrimaryKey {
		pk[c] = true
	}
	fks := make(map[string]ForeignKey, len(t.ForeignKeys))
	for _, fk := range t.ForeignKeys {
		fks[fk.Column] = fk
	}
	// only single-column indexes can be expressed on a field
	indexes := make(map[string]Index)
	for _, idx := range t.Indexes {
		if len(idx.Columns) == 1 {
			if _, seen := indexes[idx.Columns[0]]; !seen {
				indexes[idx.Columns[0]] = idx
			}
		}
	}

	fields := make([]*schema.Field, 0, len(t.Columns))
	for _, c := range t.Columns {
		ct := ParseColumnType(c.Type)
		f := &schema.Field{
			ID:            FieldID(t.Name, c.Name),
			Name:          c.Name,
			Type:          ct.Type,
			TypeParams:    ct.Params,
			Unsigned:      ct.Unsigned,
			PrimaryKey:    pk[c.Name],
			Nullable:      c.Nullable && !pk[c.Name],
			Unique:        c.IsUnique,
			AutoIncrement: c.AutoIncrement,
			EnumValues:    ct.EnumValues,
		}
		if len(c.EnumValues) > 0 {
			f.Type, f.TypeParams, f.EnumValues = "ENUM", "", c.EnumValues
		}

		value, serial := ParseDefault(c.DefaultValue)
		if serial {
			f.AutoIncrement = true
			switch f.Type {
			case "INT", "INTEGER":
				f.Type = "SERIAL"
			case "BIGINT":
				f.Type = "BIGSERIAL"
			}
		} else {
			f.DefaultValue = value
		}

		if idx, ok := indexes[c.Name]; ok {
			if idx.IsUnique {
				f.Unique = true
			} else {
				f.Index = true
				f.IndexName = idx.Name
			}
		}
		if fk, ok := fks[c.Name]; ok {
			f.ForeignKey = true
			f.ReferencesTable = fk.TargetTable
			f.ReferencesColumn = fk.TargetColumn
			if fk.TargetColumn != "" {
				f.ReferencesColumnID = FieldID(fk.TargetTable, fk.TargetColumn)
			}
			f.FKConstraintName = fk.Name
			f.OnDelete = referentialAction(fk.OnDelete)
			f.OnUpdate = referentialAction(fk.OnUpdate)
		}
		fields = append(fields, f)
	}
	return fields
}

// referentialAction drops the implicit default action
func referentialAction(rule string) string {
	rule = strings.ToUpper(strings.TrimSpace(rule))
	if rule == "NO ACTION" {
		return ""
	}
	return rule
}
