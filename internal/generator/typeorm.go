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

// TypeORMGenerator renders TypeORM entity classes
type TypeORMGenerator struct {
	writer io.Writer
}

// NewTypeORMGenerator creates a new TypeORM generator
func NewTypeORMGenerator(w io.Writer) *TypeORMGenerator {
	return &TypeORMGenerator{writer: w}
}

var tsTypes = map[string]string{
	"INT": "number", "INTEGER": "number", "BIGINT": "number", "SMALLINT": "number", "TINYINT": "number",
	"SERIAL": "number", "BIGSERIAL": "number", "DECIMAL": "number", "NUMERIC": "number", "FLOAT": "number",
	"DOUBLE": "number", "DOUBLE PRECISION": "number", "REAL": "number", "NUMBER": "number",
	"BOOLEAN": "boolean", "BOOL": "boolean",
	"BLOB": "Buffer", "BYTEA": "Buffer", "BUFFER": "Buffer",
	"DATE": "Date", "DATETIME": "Date", "TIMESTAMP": "Date", "TIME": "Date",
	"JSON": "Record<string, unknown>", "JSONB": "Record<string, unknown>", "OBJECT": "Record<string, unknown>",
	"MAP": "Record<string, unknown>", "MIXED": "Record<string, unknown>", "ARRAY": "unknown[]",
}

// typeormImports is the fixed order of decorator imports
var typeormImports = []string{
	"Entity", "Column", "PrimaryGeneratedColumn", "PrimaryColumn", "Index", "ManyToOne", "OneToMany", "JoinColumn",
}

// typeormClass holds the property names of one entity, decided before rendering
type typeormClass struct {
	entry    *relation.Entry
	props    map[string]string // column -> property
	names    *naming.Registry
	forward  map[string]typeormRelation // source column -> forward relation
	inverses []typeormRelation
}

type typeormRelation struct {
	ref  relation.Reference
	prop string
}

// Generate writes one class per entity
func (g *TypeORMGenerator) Generate(req *Request) error {
	entries := req.entries()
	if len(entries) == 0 {
		return nil
	}

	classes := make(map[*relation.Entry]*typeormClass, len(entries))
	for _, entry := range entries {
		classes[entry] = newTypeORMClass(entry)
	}

	var refs []relation.Reference
	for _, ref := range req.catalog().References() {
		if classes[ref.Source] != nil && classes[ref.Target] != nil {
			refs = append(refs, ref)
		}
	}
	for _, ref := range refs {
		src := classes[ref.Source]
		src.forward[ref.Column] = typeormRelation{
			ref:  ref,
			prop: src.names.Unique(naming.ToIdentifier(ref.Target.Model, "relation", naming.Camel)),
		}
	}
	for _, ref := range refs {
		dst := classes[ref.Target]
		base := inflect.Pluralize(naming.ToIdentifier(ref.Source.Model, "items", naming.Camel))
		dst.inverses = append(dst.inverses, typeormRelation{ref: ref, prop: dst.names.Unique(base)})
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, g.render(classes[entry], classes, sqlFamily(req.Family)))
	}
	_, err := io.WriteString(g.writer, strings.Join(out, "\n\n"))
	return err
}

func newTypeORMClass(entry *relation.Entry) *typeormClass {
	c := &typeormClass{
		entry:   entry,
		props:   make(map[string]string),
		names:   naming.NewRegistry(naming.Camel),
		forward: make(map[string]typeormRelation),
	}
	for i, f := range entry.Entity.Data.Fields {
		if f == nil {
			continue
		}
		if col := entry.Column(f); col != "" {
			c.props[col] = c.names.Unique(naming.ToIdentifier(f.Name, fmt.Sprintf("field%d", i+1), naming.Camel))
		}
	}
	return c
}

func (g *TypeORMGenerator) render(c *typeormClass, classes map[*relation.Entry]*typeormClass, family schema.Family) string {
	used := make(map[string]bool)
	var body []string
	add := func(lines ...string) { body = append(body, lines...) }

	for _, f := range c.entry.Entity.Data.Fields {
		if f == nil {
			continue
		}
		col := c.entry.Column(f)
		if col == "" {
			continue
		}
		prop := c.props[col]
		dbType := typeormColumnType(f, family)

		switch {
		case f.IsPrimary() && f.AutoIncrement:
			used["PrimaryGeneratedColumn"] = true
			add(fmt.Sprintf("  @PrimaryGeneratedColumn({ name: %s })", singleQuoted(col)))
		case f.IsPrimary():
			used["PrimaryColumn"] = true
			add(fmt.Sprintf("  @PrimaryColumn({ name: %s, type: %s })", singleQuoted(col), singleQuoted(dbType)))
		default:
			if f.Index {
				used["Index"] = true
				add("  @Index()")
			}
			used["Column"] = true
			add(fmt.Sprintf("  @Column(%s)", renderInline(typeormColumnOptions(f, col, dbType))))
		}
		add(fmt.Sprintf("  %s%s: %s;", prop, optionalMark(f.Nullable && !f.IsPrimary()), tsType(f)), "")

		if rel, ok := c.forward[col]; ok {
			target := classes[rel.ref.Target]
			used["ManyToOne"], used["JoinColumn"] = true, true
			add(fmt.Sprintf("  @ManyToOne(() => %s, (target) => target.%s, { onDelete: %s, onUpdate: %s })",
				target.entry.Model, target.inverseFor(rel.ref),
				singleQuoted(orNoAction(rel.ref.OnDelete)), singleQuoted(orNoAction(rel.ref.OnUpdate))))
			add(fmt.Sprintf("  @JoinColumn({ name: %s, referencedColumnName: %s })",
				singleQuoted(col), singleQuoted(target.propOf(rel.ref.TargetColumn))))
			add(fmt.Sprintf("  %s%s: %s;", rel.prop, optionalMark(f.Nullable), target.entry.Model), "")
		}
	}

	for _, inv := range c.inverses {
		used["OneToMany"] = true
		source := classes[inv.ref.Source]
		add(fmt.Sprintf("  @OneToMany(() => %s, (source) => source.%s)",
			source.entry.Model, source.forward[inv.ref.Column].prop))
		add(fmt.Sprintf("  %s: %s[];", inv.prop, source.entry.Model), "")
	}

	imports := []string{"Entity"}
	for _, name := range typeormImports[1:] {
		if used[name] {
			imports = append(imports, name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "import { %s } from 'typeorm';\n\n", strings.Join(imports, ", "))
	fmt.Fprintf(&b, "@Entity({ name: %s })\n", singleQuoted(c.entry.Table))
	fmt.Fprintf(&b, "export class %s {\n", c.entry.Model)
	if text := strings.TrimRight(strings.Join(body, "\n"), "\n"); text != "" {
		b.WriteString(text)
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func (c *typeormClass) inverseFor(ref relation.Reference) string {
	for _, inv := range c.inverses {
		if inv.ref.Source == ref.Source && inv.ref.Column == ref.Column {
			return inv.prop
		}
	}
	return ""
}

// propOf returns the property of a column, or the column itself when the
// column has no field
func (c *typeormClass) propOf(col string) string {
	if p, ok := c.props[col]; ok {
		return p
	}
	return col
}

func typeormColumnOptions(f *schema.Field, col, dbType string) []jsEntry {
	opts := []jsEntry{code("name", singleQuoted(col)), code("type", singleQuoted(dbType))}
	if dbType == "enum" {
		values := enumValues(f)
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = singleQuoted(v)
		}
		opts = append(opts, code("enum", "["+strings.Join(quoted, ", ")+"]"))
	}
	if f.Nullable {
		opts = append(opts, code("nullable", "true"))
	}
	if f.Unique {
		opts = append(opts, code("unique", "true"))
	}
	d := classifyDefault(f.DefaultValue)
	switch d.Kind {
	case defaultNow:
		opts = append(opts, code("default", "() => 'CURRENT_TIMESTAMP'"))
	case defaultNumber, defaultBool:
		opts = append(opts, code("default", d.Text))
	case defaultString:
		opts = append(opts, code("default", singleQuoted(d.Text)))
	}
	switch dbType {
	case "varchar", "char":
		if n := length(f, 0); n > 0 {
			opts = append(opts, code("length", fmt.Sprint(n)))
		}
	case "decimal", "numeric":
		precision, scale := precisionScale(f)
		if precision > 0 {
			opts = append(opts, code("precision", fmt.Sprint(precision)))
		}
		if scale >= 0 {
			opts = append(opts, code("scale", fmt.Sprint(scale)))
		}
	}
	return opts
}

// typeormColumnType is the lower-cased dialect type without parameters
func typeormColumnType(f *schema.Field, family schema.Family) string {
	if upperType(f) == "ENUM" && len(enumValues(f)) > 0 {
		return "enum"
	}
	typ := sqlType(f, family)
	if i := strings.IndexByte(typ, '('); i >= 0 {
		typ = typ[:i]
	}
	return strings.ToLower(typ)
}

func tsType(f *schema.Field) string {
	if t, ok := tsTypes[upperType(f)]; ok {
		return t
	}
	return "string"
}

func optionalMark(optional bool) string {
	if optional {
		return "?"
	}
	return ""
}

func orNoAction(action string) string {
	if action == "" {
		return "NO ACTION"
	}
	return action
}
