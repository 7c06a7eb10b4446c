package generator

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/tordrt/schemagen/internal/naming"
	"github.com/tordrt/schemagen/internal/relation"
	"github.com/tordrt/schemagen/internal/schema"
)

// PrismaGenerator renders a Prisma schema file
type PrismaGenerator struct {
	writer io.Writer
}

// NewPrismaGenerator creates a new Prisma generator
func NewPrismaGenerator(w io.Writer) *PrismaGenerator {
	return &PrismaGenerator{writer: w}
}

var prismaTypes = map[string]string{
	"INT": "Int", "INTEGER": "Int", "SMALLINT": "Int", "TINYINT": "Int", "SERIAL": "Int",
	"BIGINT": "BigInt", "BIGSERIAL": "BigInt",
	"DECIMAL": "Decimal", "NUMERIC": "Decimal",
	"FLOAT": "Float", "DOUBLE": "Float", "REAL": "Float", "DOUBLE PRECISION": "Float",
	"BOOLEAN": "Boolean", "BOOL": "Boolean",
	"VARCHAR": "String", "CHAR": "String", "TEXT": "String", "LONGTEXT": "String",
	"ENUM": "String", "UUID": "String", "XML": "String",
	"DATE": "DateTime", "DATETIME": "DateTime", "TIMESTAMP": "DateTime", "TIME": "DateTime",
	"JSON": "Json", "JSONB": "Json",
	"BLOB": "Bytes", "BYTEA": "Bytes",

	"STRING": "String", "NUMBER": "Float", "OBJECTID": "String",
	"ARRAY": "Json", "OBJECT": "Json", "MAP": "Json", "MIXED": "Json", "BUFFER": "Bytes",
}

var prismaActions = map[string]string{
	"CASCADE":     "Cascade",
	"RESTRICT":    "Restrict",
	"SET NULL":    "SetNull",
	"NO ACTION":   "NoAction",
	"SET DEFAULT": "SetDefault",
}

var prismaProviders = map[schema.Family]string{
	schema.MySQL:      "mysql",
	schema.PostgreSQL: "postgresql",
	schema.MongoDB:    "mongodb",
}

// prismaField is the typed form of one model line
type prismaField struct {
	Name       string
	Type       string
	Optional   bool
	List       bool
	Attributes []string
}

func (f prismaField) render() string {
	typ := f.Type
	switch {
	case f.List:
		typ += "[]"
	case f.Optional:
		typ += "?"
	}
	line := fmt.Sprintf("  %s %s", f.Name, typ)
	if len(f.Attributes) > 0 {
		line += " " + strings.Join(f.Attributes, " ")
	}
	return line
}

// prismaRelation is a forward relation together with its generated name
type prismaRelation struct {
	Ref  relation.Reference
	Name string
}

// Generate writes the generator and datasource blocks followed by one model per entity
func (g *PrismaGenerator) Generate(req *Request) error {
	entries := req.entries()
	if len(entries) == 0 {
		return nil
	}
	provider, ok := prismaProviders[req.Family]
	if !ok {
		provider = prismaProviders[schema.MongoDB]
	}

	// first pass: every relation between emitted models, so inverse sides
	// do not depend on declaration order
	var relations []prismaRelation
	relationNames := naming.NewRegistry(naming.Pascal)
	for _, ref := range req.catalog().References() {
		if !req.emitted(ref.Source) || !req.emitted(ref.Target) {
			continue
		}
		name := relationNames.Unique(naming.ToIdentifier(
			fmt.Sprintf("%s_%s_%s", ref.Source.Model, ref.Target.Model, ref.Column),
			ref.Source.Model+ref.Target.Model, naming.Pascal))
		relations = append(relations, prismaRelation{Ref: ref, Name: name})
	}

	blocks := []string{
		"generator client {\n  provider = \"prisma-client-js\"\n}",
		fmt.Sprintf("datasource db {\n  provider = %s\n  url      = env(\"DATABASE_URL\")\n}", jsString(provider)),
	}
	for _, entry := range entries {
		blocks = append(blocks, g.model(entry, req.Family, relations))
	}

	_, err := fmt.Fprintln(g.writer, strings.Join(blocks, "\n\n"))
	return err
}

func (g *PrismaGenerator) model(entry *relation.Entry, family schema.Family, relations []prismaRelation) string {
	mongo := family == schema.MongoDB
	composite := len(entry.PrimaryKeys) > 1
	names := naming.NewRegistry(naming.Camel)

	var lines []string
	optional := make(map[string]bool)
	for _, f := range entry.Entity.Data.Fields {
		if f == nil {
			continue
		}
		col := entry.Column(f)
		if col == "" {
			continue
		}
		names.Reserve(col)

		pf := prismaField{Name: col, Type: prismaType(f)}
		if mongo {
			pf.Optional = !f.Required && !f.IsPrimary()
		} else {
			pf.Optional = f.Nullable && !f.IsPrimary()
		}
		optional[col] = pf.Optional

		if f.IsPrimary() && !composite {
			pf.Attributes = append(pf.Attributes, "@id")
		}
		switch {
		case f.AutoIncrement:
			pf.Attributes = append(pf.Attributes, "@default(autoincrement())")
		case mongo && f.IsPrimary() && upperType(f) == "OBJECTID":
			pf.Attributes = append(pf.Attributes, "@default(auto())")
		default:
			if attr := prismaDefault(f.DefaultValue); attr != "" {
				pf.Attributes = append(pf.Attributes, attr)
			}
		}
		if f.Unique && !f.IsPrimary() {
			pf.Attributes = append(pf.Attributes, "@unique")
		}
		if mongo && strings.TrimSpace(f.Name) == "_id" {
			pf.Attributes = append(pf.Attributes, `@map("_id")`)
		}
		if mongo && upperType(f) == "OBJECTID" {
			pf.Attributes = append(pf.Attributes, "@db.ObjectId")
		}
		lines = append(lines, pf.render())
	}

	for _, rel := range relations {
		if rel.Ref.Source != entry {
			continue
		}
		attrs := []string{
			jsString(rel.Name),
			fmt.Sprintf("fields: [%s]", rel.Ref.Column),
			fmt.Sprintf("references: [%s]", rel.Ref.TargetColumn),
		}
		if a := prismaActions[rel.Ref.OnDelete]; a != "" {
			attrs = append(attrs, "onDelete: "+a)
		}
		if a := prismaActions[rel.Ref.OnUpdate]; a != "" {
			attrs = append(attrs, "onUpdate: "+a)
		}
		pf := prismaField{
			Name:       names.Unique(naming.ToIdentifier(rel.Ref.Target.Model, "relation", naming.Camel)),
			Type:       rel.Ref.Target.Model,
			Optional:   optional[rel.Ref.Column],
			Attributes: []string{fmt.Sprintf("@relation(%s)", strings.Join(attrs, ", "))},
		}
		lines = append(lines, pf.render())
	}

	for _, rel := range relations {
		if rel.Ref.Target != entry {
			continue
		}
		base := inflect.Pluralize(naming.ToIdentifier(rel.Ref.Source.Model, "items", naming.Camel))
		pf := prismaField{
			Name:       names.Unique(base),
			Type:       rel.Ref.Source.Model,
			List:       true,
			Attributes: []string{fmt.Sprintf("@relation(%s)", jsString(rel.Name))},
		}
		lines = append(lines, pf.render())
	}

	lines = append(lines, "")
	if composite {
		lines = append(lines, fmt.Sprintf("  @@id([%s])", strings.Join(entry.PrimaryKeys, ", ")))
	}
	lines = append(lines, fmt.Sprintf("  @@map(%s)", jsString(entry.Table)))

	return fmt.Sprintf("model %s {\n%s\n}", entry.Model, strings.Join(lines, "\n"))
}

func prismaType(f *schema.Field) string {
	if t, ok := prismaTypes[upperType(f)]; ok {
		return t
	}
	return "String"
}

func prismaDefault(v any) string {
	d := classifyDefault(v)
	switch d.Kind {
	case defaultNow:
		return "@default(now())"
	case defaultNumber, defaultBool:
		return fmt.Sprintf("@default(%s)", d.Text)
	case defaultString:
		return fmt.Sprintf("@default(%s)", jsString(d.Text))
	}
	return ""
}
