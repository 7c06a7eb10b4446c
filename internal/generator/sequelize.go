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

// SequelizeGenerator renders Sequelize model definitions
type SequelizeGenerator struct {
	writer io.Writer
}

// NewSequelizeGenerator creates a new Sequelize generator
func NewSequelizeGenerator(w io.Writer) *SequelizeGenerator {
	return &SequelizeGenerator{writer: w}
}

var sequelizeTypes = map[string]string{
	"TEXT": "DataTypes.TEXT", "LONGTEXT": "DataTypes.TEXT",
	"INT": "DataTypes.INTEGER", "INTEGER": "DataTypes.INTEGER", "SERIAL": "DataTypes.INTEGER",
	"BIGINT": "DataTypes.BIGINT", "BIGSERIAL": "DataTypes.BIGINT",
	"SMALLINT": "DataTypes.SMALLINT", "TINYINT": "DataTypes.TINYINT",
	"BOOLEAN": "DataTypes.BOOLEAN", "BOOL": "DataTypes.BOOLEAN",
	"DATE": "DataTypes.DATEONLY", "DATETIME": "DataTypes.DATE", "TIMESTAMP": "DataTypes.DATE",
	"TIME": "DataTypes.TIME",
	"JSON": "DataTypes.JSON", "JSONB": "DataTypes.JSON",
	"UUID": "DataTypes.UUID",
	"BLOB": "DataTypes.BLOB", "BYTEA": "DataTypes.BLOB",
	"REAL": "DataTypes.REAL", "DOUBLE": "DataTypes.DOUBLE", "DOUBLE PRECISION": "DataTypes.DOUBLE",
	"FLOAT": "DataTypes.FLOAT",

	"STRING": "DataTypes.STRING", "NUMBER": "DataTypes.DOUBLE", "OBJECTID": "DataTypes.STRING(24)",
	"ARRAY": "DataTypes.JSON", "OBJECT": "DataTypes.JSON", "MAP": "DataTypes.JSON", "MIXED": "DataTypes.JSON",
	"BUFFER": "DataTypes.BLOB",
}

// sequelizeModel is the typed form of one sequelize.define call
type sequelizeModel struct {
	Name       string
	Table      string
	Attributes []jsEntry
}

// sequelizeAssociation is one association call made after every model is defined
type sequelizeAssociation struct {
	Owner   string
	Method  string
	Target  string
	Options []jsEntry
}

func (a sequelizeAssociation) render() string {
	return fmt.Sprintf("  %s.%s(%s, %s);", a.Owner, a.Method, a.Target, renderInline(a.Options))
}

// Generate writes either a single init module or one module per model
func (g *SequelizeGenerator) Generate(req *Request) error {
	entries := req.entries()
	if len(entries) == 0 {
		return nil
	}

	models := make([]sequelizeModel, 0, len(entries))
	registries := make(map[*relation.Entry]*naming.Registry, len(entries))
	for _, entry := range entries {
		m, names := g.buildModel(entry)
		models = append(models, m)
		registries[entry] = names
	}
	associations := g.associations(req, registries)

	var out string
	if req.Options.SequelizeMode == SequelizePerModel {
		out = renderSequelizePerModel(models, associations)
	} else {
		out = renderSequelizeInit(models, associations)
	}
	_, err := io.WriteString(g.writer, out)
	return err
}

func (g *SequelizeGenerator) buildModel(entry *relation.Entry) (sequelizeModel, *naming.Registry) {
	m := sequelizeModel{Name: entry.Model, Table: entry.Table}
	names := naming.NewRegistry(naming.Camel)
	for _, f := range entry.Entity.Data.Fields {
		if f == nil {
			continue
		}
		col := entry.Column(f)
		if col == "" {
			continue
		}
		names.Reserve(col)

		opts := []jsEntry{
			code("type", sequelizeType(f)),
			code("field", jsString(col)),
		}
		if f.IsPrimary() {
			opts = append(opts, code("primaryKey", "true"))
		}
		if f.AutoIncrement {
			opts = append(opts, code("autoIncrement", "true"))
		}
		if !f.IsPrimary() {
			opts = append(opts, code("allowNull", fmt.Sprint(f.Nullable)))
		}
		if f.Unique {
			opts = append(opts, code("unique", "true"))
		}
		if def := sequelizeDefault(f.DefaultValue); def != "" {
			opts = append(opts, code("defaultValue", def))
		}
		m.Attributes = append(m.Attributes, jsEntry{Key: col, Object: opts})
	}
	return m, names
}

func (g *SequelizeGenerator) associations(req *Request, registries map[*relation.Entry]*naming.Registry) []sequelizeAssociation {
	var out []sequelizeAssociation
	for _, ref := range req.catalog().References() {
		src, dst := registries[ref.Source], registries[ref.Target]
		if src == nil || dst == nil {
			continue
		}
		belongs := []jsEntry{
			code("foreignKey", jsString(ref.Column)),
			code("targetKey", jsString(ref.TargetColumn)),
			code("as", jsString(src.Unique(naming.ToIdentifier(ref.Target.Model, "relation", naming.Camel)))),
		}
		hasMany := []jsEntry{
			code("foreignKey", jsString(ref.Column)),
			code("sourceKey", jsString(ref.TargetColumn)),
			code("as", jsString(dst.Unique(inflect.Pluralize(naming.ToIdentifier(ref.Source.Model, "items", naming.Camel))))),
		}
		if ref.OnDelete != "" {
			belongs = append(belongs, code("onDelete", jsString(ref.OnDelete)))
		}
		if ref.OnUpdate != "" {
			belongs = append(belongs, code("onUpdate", jsString(ref.OnUpdate)))
		}
		out = append(out,
			sequelizeAssociation{Owner: ref.Source.Model, Method: "belongsTo", Target: ref.Target.Model, Options: belongs},
			sequelizeAssociation{Owner: ref.Target.Model, Method: "hasMany", Target: ref.Source.Model, Options: hasMany},
		)
	}
	return out
}

func sequelizeType(f *schema.Field) string {
	typ := upperType(f)
	switch typ {
	case "VARCHAR":
		return fmt.Sprintf("DataTypes.STRING(%d)", length(f, 255))
	case "CHAR":
		return fmt.Sprintf("DataTypes.CHAR(%d)", length(f, 1))
	case "DECIMAL", "NUMERIC":
		precision, scale := precisionScale(f)
		switch {
		case precision > 0 && scale >= 0:
			return fmt.Sprintf("DataTypes.DECIMAL(%d, %d)", precision, scale)
		case precision > 0:
			return fmt.Sprintf("DataTypes.DECIMAL(%d)", precision)
		}
		return "DataTypes.DECIMAL"
	case "ENUM":
		if values := enumValues(f); len(values) > 0 {
			quoted := make([]string, len(values))
			for i, v := range values {
				quoted[i] = jsString(v)
			}
			return fmt.Sprintf("DataTypes.ENUM(%s)", strings.Join(quoted, ", "))
		}
	}
	if t, ok := sequelizeTypes[typ]; ok {
		return t
	}
	return "DataTypes.STRING"
}

func sequelizeDefault(v any) string {
	d := classifyDefault(v)
	switch d.Kind {
	case defaultNow:
		return "DataTypes.NOW"
	case defaultNumber, defaultBool:
		return d.Text
	case defaultString:
		return jsString(d.Text)
	}
	return ""
}

func (m sequelizeModel) define() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  const %s = sequelize.define(%s, {\n", m.Name, jsString(m.Name))
	for i, attr := range m.Attributes {
		fmt.Fprintf(&b, "    %s: %s", attr.Key, renderBlock(attr.Object, 2))
		if i < len(m.Attributes)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  }, {\n    tableName: %s,\n    timestamps: false\n  });\n", jsString(m.Table))
	return b.String()
}

func modelNames(models []sequelizeModel) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.Name
	}
	return out
}

func writeAssociations(b *strings.Builder, associations []sequelizeAssociation) {
	if len(associations) == 0 {
		return
	}
	b.WriteString("\n")
	for _, a := range associations {
		b.WriteString(a.render())
		b.WriteString("\n")
	}
}

func writeReturn(b *strings.Builder, models []sequelizeModel) {
	fmt.Fprintf(b, "\n  return {\n    %s\n  };\n}\n", strings.Join(modelNames(models), ",\n    "))
}

func renderSequelizeInit(models []sequelizeModel, associations []sequelizeAssociation) string {
	var b strings.Builder
	b.WriteString("import { DataTypes } from 'sequelize';\n\n")
	b.WriteString("export function initSequelizeModels(sequelize) {\n")
	for i, m := range models {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.define())
	}
	writeAssociations(&b, associations)
	writeReturn(&b, models)
	return b.String()
}

func renderSequelizePerModel(models []sequelizeModel, associations []sequelizeAssociation) string {
	var b strings.Builder
	for _, m := range models {
		fmt.Fprintf(&b, "// models/%s.js\n", m.Name)
		b.WriteString("import { DataTypes } from 'sequelize';\n\n")
		fmt.Fprintf(&b, "export default function define%s(sequelize) {\n", m.Name)
		b.WriteString(m.define())
		fmt.Fprintf(&b, "\n  return %s;\n}\n\n", m.Name)
	}

	b.WriteString("// models/index.js\n")
	for _, m := range models {
		fmt.Fprintf(&b, "import define%s from './%s.js';\n", m.Name, m.Name)
	}
	b.WriteString("\nexport function initModels(sequelize) {\n")
	for _, m := range models {
		fmt.Fprintf(&b, "  const %s = define%s(sequelize);\n", m.Name, m.Name)
	}
	writeAssociations(&b, associations)
	writeReturn(&b, models)
	return b.String()
}
