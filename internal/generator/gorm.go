package generator

import (
	"fmt"
	"io"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/tordrt/schemagen/internal/naming"
	"github.com/tordrt/schemagen/internal/relation"
	"github.com/tordrt/schemagen/internal/schema"
)

// GORMGenerator renders Go structs with gorm tags
type GORMGenerator struct {
	writer io.Writer
}

// NewGORMGenerator creates a new GORM generator
func NewGORMGenerator(w io.Writer) *GORMGenerator {
	return &GORMGenerator{writer: w}
}

// gormStruct holds the Go field names of one entity, decided before rendering
type gormStruct struct {
	entry   *relation.Entry
	fields  map[string]string // column -> Go field
	names   *naming.Registry
	belongs map[string]gormRelation // source column -> belongs-to relation
	hasMany []gormRelation
}

type gormRelation struct {
	ref  relation.Reference
	name string
}

// Generate writes one Go file holding every struct
func (g *GORMGenerator) Generate(req *Request) error {
	entries := req.entries()
	if len(entries) == 0 {
		return nil
	}

	structs := make(map[*relation.Entry]*gormStruct, len(entries))
	for _, entry := range entries {
		structs[entry] = newGORMStruct(entry)
	}
	var refs []relation.Reference
	for _, ref := range req.catalog().References() {
		if structs[ref.Source] != nil && structs[ref.Target] != nil {
			refs = append(refs, ref)
		}
	}
	for _, ref := range refs {
		src := structs[ref.Source]
		name := src.names.Unique(naming.ToIdentifier(ref.Target.Model, "Relation", naming.Pascal))
		src.belongs[ref.Column] = gormRelation{ref: ref, name: name}
	}
	for _, ref := range refs {
		dst := structs[ref.Target]
		base := inflect.Pluralize(naming.ToIdentifier(ref.Source.Model, "Items", naming.Pascal))
		dst.hasMany = append(dst.hasMany, gormRelation{ref: ref, name: dst.names.Unique(base)})
	}

	pkg := strings.ReplaceAll(naming.ToIdentifier(req.Options.Package, "models", naming.Snake), "_", "")
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by schemagen. DO NOT EDIT.")

	for _, entry := range entries {
		s := structs[entry]
		f.Commentf("%s maps the %s table.", entry.Model, entry.Table)
		f.Type().Id(entry.Model).StructFunc(func(group *jen.Group) {
			s.fieldsTo(group, structs)
		})
		f.Line()
		f.Func().Params(jen.Id(entry.Model)).Id("TableName").Params().String().Block(
			jen.Return(jen.Lit(entry.Table)),
		)
	}

	if err := f.Render(g.writer); err != nil {
		return fmt.Errorf("failed to render go source: %w", err)
	}
	return nil
}

func newGORMStruct(entry *relation.Entry) *gormStruct {
	s := &gormStruct{
		entry:   entry,
		fields:  make(map[string]string),
		names:   naming.NewRegistry(naming.Pascal),
		belongs: make(map[string]gormRelation),
	}
	for i, f := range entry.Entity.Data.Fields {
		if f == nil {
			continue
		}
		if col := entry.Column(f); col != "" {
			s.fields[col] = s.names.Unique(goFieldName(f.Name, i))
		}
	}
	return s
}

func (s *gormStruct) fieldsTo(group *jen.Group, structs map[*relation.Entry]*gormStruct) {
	for _, f := range s.entry.Entity.Data.Fields {
		if f == nil {
			continue
		}
		col := s.entry.Column(f)
		if col == "" {
			continue
		}
		group.Id(s.fields[col]).Add(goType(f)).Tag(map[string]string{
			"gorm": gormTag(f, col, len(s.entry.PrimaryKeys) > 0),
			"json": col,
		})
	}
	for _, f := range s.entry.Entity.Data.Fields {
		if f == nil {
			continue
		}
		rel, ok := s.belongs[s.entry.Column(f)]
		if !ok {
			continue
		}
		target := structs[rel.ref.Target]
		group.Id(rel.name).Op("*").Id(target.entry.Model).Tag(map[string]string{
			"gorm": fmt.Sprintf("foreignKey:%s;references:%s", s.fields[rel.ref.Column], target.fieldOf(rel.ref.TargetColumn)),
			"json": naming.ToIdentifier(rel.name, "relation", naming.Snake) + ",omitempty",
		})
	}
	for _, hm := range s.hasMany {
		source := structs[hm.ref.Source]
		group.Id(hm.name).Index().Id(source.entry.Model).Tag(map[string]string{
			"gorm": fmt.Sprintf("foreignKey:%s;references:%s", source.fields[hm.ref.Column], s.fieldOf(hm.ref.TargetColumn)),
			"json": naming.ToIdentifier(hm.name, "items", naming.Snake) + ",omitempty",
		})
	}
}

func (s *gormStruct) fieldOf(col string) string {
	if name, ok := s.fields[col]; ok {
		return name
	}
	return naming.ToIdentifier(col, "ID", naming.Pascal)
}

// goFieldName follows the Go initialism convention for a trailing Id
func goFieldName(name string, index int) string {
	n := naming.ToIdentifier(name, fmt.Sprintf("Field%d", index+1), naming.Pascal)
	if strings.HasSuffix(n, "Id") {
		return strings.TrimSuffix(n, "Id") + "ID"
	}
	return n
}

func goType(f *schema.Field) *jen.Statement {
	nullable := f.Nullable && !f.IsPrimary()
	wrap := func(s *jen.Statement) *jen.Statement {
		if nullable {
			return jen.Op("*").Add(s)
		}
		return s
	}
	integer := func(signed string) *jen.Statement {
		if f.Unsigned {
			return wrap(jen.Id("u" + signed))
		}
		return wrap(jen.Id(signed))
	}

	switch upperType(f) {
	case "INT", "INTEGER", "SERIAL", "YEAR":
		return integer("int")
	case "BIGINT", "BIGSERIAL":
		return integer("int64")
	case "SMALLINT":
		return integer("int16")
	case "TINYINT":
		return integer("int8")
	case "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "DOUBLE PRECISION", "REAL", "NUMBER":
		return wrap(jen.Float64())
	case "BOOLEAN", "BOOL":
		return wrap(jen.Bool())
	case "DATE", "DATETIME", "TIMESTAMP", "TIME":
		return wrap(jen.Qual("time", "Time"))
	case "JSON", "JSONB", "ARRAY", "OBJECT", "MAP", "MIXED":
		return jen.Qual("encoding/json", "RawMessage")
	case "BLOB", "BYTEA", "BUFFER":
		return jen.Index().Byte()
	}
	return wrap(jen.String())
}

func gormTag(f *schema.Field, col string, hasPrimary bool) string {
	parts := []string{"column:" + col}
	if t := upperType(f); t != "" {
		if sqlTypes[t] || t == "ENUM" {
			parts = append(parts, "type:"+sqlType(f, schema.MySQL))
		}
	}
	if f.IsPrimary() && hasPrimary {
		parts = append(parts, "primaryKey")
	}
	if f.AutoIncrement {
		parts = append(parts, "autoIncrement")
	}
	if !f.Nullable && !f.IsPrimary() {
		parts = append(parts, "not null")
	}
	if f.Unique {
		parts = append(parts, "unique")
	}
	if f.Index && !f.Unique && !f.IsPrimary() {
		parts = append(parts, "index")
	}
	d := classifyDefault(f.DefaultValue)
	switch d.Kind {
	case defaultNow:
		parts = append(parts, "default:CURRENT_TIMESTAMP")
	case defaultNumber, defaultBool:
		parts = append(parts, "default:"+d.Text)
	case defaultString:
		parts = append(parts, "default:"+sqlString(strings.ReplaceAll(d.Text, ";", `\;`)))
	}
	return strings.Join(parts, ";")
}
