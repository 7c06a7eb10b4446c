package generator

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/tordrt/schemagen/internal/naming"
	"github.com/tordrt/schemagen/internal/relation"
	"github.com/tordrt/schemagen/internal/schema"
)

// SQLGenerator renders relational DDL for MySQL or PostgreSQL
type SQLGenerator struct {
	writer io.Writer
}

// NewSQLGenerator creates a new DDL generator
func NewSQLGenerator(w io.Writer) *SQLGenerator {
	return &SQLGenerator{writer: w}
}

// physical SQL types taken verbatim (plus parameters) from the field
var sqlTypes = map[string]bool{
	"VARCHAR": true, "CHAR": true, "TEXT": true, "LONGTEXT": true,
	"INT": true, "INTEGER": true, "BIGINT": true, "TINYINT": true, "SMALLINT": true,
	"DECIMAL": true, "NUMERIC": true, "FLOAT": true, "DOUBLE": true, "REAL": true,
	"DOUBLE PRECISION": true, "SERIAL": true, "BIGSERIAL": true,
	"BOOLEAN": true, "DATE": true, "DATETIME": true, "TIMESTAMP": true, "TIME": true,
	"YEAR": true, "INTERVAL": true, "JSON": true, "JSONB": true, "BLOB": true,
	"BYTEA": true, "XML": true, "UUID": true,
}

// per-family replacements for physical types the other family does not have
var sqlFamilyTypes = map[schema.Family]map[string]string{
	schema.MySQL: {
		"JSONB":            "JSON",
		"BYTEA":            "BLOB",
		"UUID":             "CHAR(36)",
		"DOUBLE PRECISION": "DOUBLE",
		"INTERVAL":         "VARCHAR(255)",
		"XML":              "TEXT",
	},
	schema.PostgreSQL: {
		"DATETIME": "TIMESTAMP",
		"LONGTEXT": "TEXT",
		"TINYINT":  "SMALLINT",
		"DOUBLE":   "DOUBLE PRECISION",
		"BLOB":     "BYTEA",
		"YEAR":     "INT",
	},
}

// generic document types mapped per family
var sqlGenericTypes = map[string][2]string{ // {MySQL, PostgreSQL}
	"STRING":   {"VARCHAR(255)", "VARCHAR(255)"},
	"NUMBER":   {"INT", "INT"},
	"BOOLEAN":  {"BOOLEAN", "BOOLEAN"},
	"DATE":     {"DATETIME", "TIMESTAMP"},
	"OBJECTID": {"VARCHAR(24)", "UUID"},
	"ARRAY":    {"JSON", "JSONB"},
	"OBJECT":   {"JSON", "JSONB"},
	"MAP":      {"JSON", "JSONB"},
	"MIXED":    {"JSON", "JSONB"},
	"BUFFER":   {"BLOB", "BYTEA"},
}

var sqlNumericPrefixes = []string{"INT", "BIGINT", "TINYINT", "SMALLINT", "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE"}

// columnSpec is the typed form of one column definition
type columnSpec struct {
	Name          string
	Type          string
	Unsigned      bool
	NotNull       bool
	AutoIncrement string // dialect keyword, empty when none
	Unique        bool
	Default       string // rendered literal, empty when none
}

func (c columnSpec) render() string {
	parts := []string{c.Name, c.Type}
	if c.Unsigned {
		parts = append(parts, "UNSIGNED")
	}
	if c.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if c.AutoIncrement != "" {
		parts = append(parts, c.AutoIncrement)
	}
	if c.Unique {
		parts = append(parts, "UNIQUE")
	}
	if c.Default != "" {
		parts = append(parts, "DEFAULT "+c.Default)
	}
	return strings.Join(parts, " ")
}

// tableSpec is the typed form of one CREATE TABLE statement
type tableSpec struct {
	Name        string
	Columns     []columnSpec
	PrimaryKeys []string
	Checks      []string
	Indexes     []string
}

func (t tableSpec) render() string {
	if len(t.Columns) == 0 {
		return fmt.Sprintf("-- Table %s has no fields", t.Name)
	}
	lines := make([]string, 0, len(t.Columns)+len(t.Checks)+1)
	for _, c := range t.Columns {
		lines = append(lines, c.render())
	}
	if len(t.PrimaryKeys) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(t.PrimaryKeys, ", ")))
	}
	lines = append(lines, t.Checks...)
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", t.Name, strings.Join(lines, ",\n  "))
}

// Generate writes create tables, then indexes, then foreign keys
func (g *SQLGenerator) Generate(req *Request) error {
	entries := req.entries()
	if len(entries) == 0 {
		return nil
	}
	family := sqlFamily(req.Family)
	names := naming.NewRegistry(naming.Snake)

	var creates, indexes, foreignKeys []string
	for _, entry := range entries {
		t := g.buildTable(entry, family, names)
		creates = append(creates, t.render())
		indexes = append(indexes, t.Indexes...)
	}
	for _, entry := range entries {
		foreignKeys = append(foreignKeys, g.foreignKeys(req.catalog(), entry, names)...)
	}

	statements := slices.Concat(creates, indexes, foreignKeys)
	_, err := fmt.Fprintln(g.writer, strings.Join(statements, "\n\n"))
	return err
}

func sqlFamily(f schema.Family) schema.Family {
	if f == schema.PostgreSQL {
		return schema.PostgreSQL
	}
	return schema.MySQL
}

func (g *SQLGenerator) buildTable(entry *relation.Entry, family schema.Family, names *naming.Registry) tableSpec {
	t := tableSpec{Name: entry.Table}
	for _, f := range entry.Entity.Data.Fields {
		if f == nil {
			continue
		}
		col := entry.Column(f)
		if col == "" {
			continue
		}
		typ := sqlType(f, family)
		spec := columnSpec{
			Name:    col,
			Type:    typ,
			NotNull: !f.Nullable && !f.IsPrimary(),
			Unique:  f.Unique,
			Default: sqlDefault(f.DefaultValue),
		}
		if family == schema.MySQL && f.Unsigned && isNumericSQLType(typ) {
			spec.Unsigned = true
		}
		if f.AutoIncrement {
			switch {
			case family == schema.MySQL:
				spec.AutoIncrement = "AUTO_INCREMENT"
			case !strings.HasSuffix(typ, "SERIAL"):
				spec.AutoIncrement = "GENERATED BY DEFAULT AS IDENTITY"
			}
		}
		t.Columns = append(t.Columns, spec)

		if f.IsPrimary() {
			t.PrimaryKeys = append(t.PrimaryKeys, col)
		}
		if family == schema.PostgreSQL && upperType(f) == "ENUM" {
			if values := enumValues(f); len(values) > 0 {
				t.Checks = append(t.Checks, fmt.Sprintf("CHECK (%s IN (%s))", col, sqlList(values)))
			}
		}
		if expr := strings.TrimSpace(f.CheckExpression); expr != "" {
			check := fmt.Sprintf("CHECK (%s)", expr)
			if strings.TrimSpace(f.CheckConstraintName) != "" {
				name := names.Unique(constraintName(f.CheckConstraintName, fmt.Sprintf("chk_%s_%s", entry.Table, col)))
				check = fmt.Sprintf("CONSTRAINT %s %s", name, check)
			}
			t.Checks = append(t.Checks, check)
		}
		if f.Index && !f.IsPrimary() && !f.Unique {
			name := names.Unique(constraintName(f.IndexName, fmt.Sprintf("idx_%s_%s", entry.Table, col)))
			t.Indexes = append(t.Indexes, fmt.Sprintf("CREATE INDEX %s ON %s (%s);", name, entry.Table, col))
		}
	}
	return t
}

func (g *SQLGenerator) foreignKeys(c *relation.Catalog, entry *relation.Entry, names *naming.Registry) []string {
	var out []string
	n := 0
	for _, f := range entry.Entity.Data.Fields {
		ref, ok := c.Resolve(entry.Entity, f)
		if !ok {
			continue
		}
		n++
		name := names.Unique(constraintName(f.FKConstraintName, fmt.Sprintf("fk_%s_%s_%d", entry.Table, ref.Column, n)))
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			entry.Table, name, ref.Column, ref.Target.Table, ref.TargetColumn)
		if ref.OnDelete != "" {
			stmt += " ON DELETE " + ref.OnDelete
		}
		if ref.OnUpdate != "" {
			stmt += " ON UPDATE " + ref.OnUpdate
		}
		out = append(out, stmt+";")
	}
	return out
}

func constraintName(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		name = fallback
	}
	return naming.ToIdentifier(name, fallback, naming.Snake)
}

// sqlType maps a field to the dialect's column type; unknown types become VARCHAR(255)
func sqlType(f *schema.Field, family schema.Family) string {
	typ := upperType(f)
	params := ""
	if p := strings.TrimSpace(f.TypeParams); p != "" {
		params = "(" + p + ")"
	}

	if typ == "ENUM" {
		values := enumValues(f)
		switch {
		case family == schema.PostgreSQL:
			return "TEXT"
		case len(values) > 0:
			return fmt.Sprintf("ENUM(%s)", sqlList(values))
		case params != "":
			return "ENUM" + params
		}
		return "VARCHAR(255)"
	}
	if sqlTypes[typ] {
		if repl, ok := sqlFamilyTypes[family][typ]; ok {
			if strings.Contains(repl, "(") {
				return repl
			}
			return repl + params
		}
		return typ + params
	}
	if generic, ok := sqlGenericTypes[typ]; ok {
		if family == schema.PostgreSQL {
			return generic[1]
		}
		return generic[0]
	}
	return "VARCHAR(255)"
}

func isNumericSQLType(typ string) bool {
	for _, p := range sqlNumericPrefixes {
		if strings.HasPrefix(typ, p) {
			return true
		}
	}
	return false
}

func sqlDefault(v any) string {
	d := classifyDefault(v)
	switch d.Kind {
	case defaultNow:
		return "CURRENT_TIMESTAMP"
	case defaultNumber:
		return d.Text
	case defaultBool:
		return strings.ToUpper(d.Text)
	case defaultString:
		return sqlString(d.Text)
	}
	return ""
}

func sqlList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = sqlString(v)
	}
	return strings.Join(quoted, ", ")
}
