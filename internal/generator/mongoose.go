package generator

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemagen/internal/naming"
	"github.com/tordrt/schemagen/internal/relation"
	"github.com/tordrt/schemagen/internal/schema"
)

// MongooseGenerator renders one mongoose schema and model per entity
type MongooseGenerator struct {
	writer io.Writer
}

// NewMongooseGenerator creates a new mongoose generator
func NewMongooseGenerator(w io.Writer) *MongooseGenerator {
	return &MongooseGenerator{writer: w}
}

// mongooseTypes maps IR types to mongoose schema types; unknown types become String
var mongooseTypes = map[string]string{
	"STRING": "String", "NUMBER": "Number", "BOOLEAN": "Boolean", "DATE": "Date",
	"OBJECTID": "ObjectId", "ARRAY": "Array", "OBJECT": "Object", "MAP": "Map",
	"BUFFER": "Buffer", "MIXED": "Mixed", "DECIMAL128": "Decimal128", "UUID": "UUID",

	"VARCHAR": "String", "CHAR": "String", "TEXT": "String", "LONGTEXT": "String", "ENUM": "String",
	"INT": "Number", "INTEGER": "Number", "BIGINT": "Number", "SMALLINT": "Number", "TINYINT": "Number",
	"SERIAL": "Number", "BIGSERIAL": "Number", "DECIMAL": "Number", "FLOAT": "Number", "DOUBLE": "Number",
	"REAL": "Number", "DOUBLE PRECISION": "Number", "BOOL": "Boolean",
	"DATETIME": "Date", "TIMESTAMP": "Date",
	"JSON": "Mixed", "JSONB": "Mixed", "BLOB": "Buffer", "BYTEA": "Buffer",
}

func mongooseKind(typ string) string {
	if k, ok := mongooseTypes[strings.ToUpper(strings.TrimSpace(typ))]; ok {
		return k
	}
	return "String"
}

// mongooseTypeCode is how a kind is referenced in schema code
func mongooseTypeCode(kind string) string {
	switch kind {
	case "ObjectId", "Mixed", "Decimal128", "UUID":
		return "Schema.Types." + kind
	}
	return kind
}

// jsEntry is one key of a rendered object literal. Exactly one of Code and
// Object is used.
type jsEntry struct {
	Key    string
	Code   string
	Object []jsEntry
}

func code(key, value string) jsEntry { return jsEntry{Key: key, Code: value} }

// renderInline renders entries as { a: 1, b: 2 }
func renderInline(entries []jsEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		v := e.Code
		if e.Object != nil {
			v = renderInline(e.Object)
		}
		parts[i] = e.Key + ": " + v
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// renderBlock renders entries one per line at the given depth, like
// JSON.stringify with two-space indentation and bare keys.
func renderBlock(entries []jsEntry, depth int) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, e := range entries {
		b.WriteString(indent(depth + 1))
		b.WriteString(e.Key)
		b.WriteString(": ")
		if e.Object != nil {
			b.WriteString(renderBlock(e.Object, depth+1))
		} else {
			b.WriteString(e.Code)
		}
		if i < len(entries)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(indent(depth))
	b.WriteString("}")
	return b.String()
}

// Generate writes the module header, every schema and model, and the exports
func (g *MongooseGenerator) Generate(req *Request) error {
	entries := req.entries()
	if len(entries) == 0 {
		return nil
	}
	c := req.catalog()

	var b strings.Builder
	b.WriteString("const mongoose = require('mongoose');\nconst { Schema } = mongoose;\n\n")

	models := make([]string, 0, len(entries))
	for _, entry := range entries {
		model := entry.Model
		models = append(models, model)

		fmt.Fprintf(&b, "const %sSchema = new Schema({\n", model)
		b.WriteString(g.fields(c, entry.Entity.Data.Fields, 1))
		b.WriteString("}")
		if opts := schemaOptions(&entry.Entity.Data); len(opts) > 0 {
			b.WriteString(", ")
			b.WriteString(renderBlock(opts, 0))
		}
		b.WriteString(");\n\n")
		fmt.Fprintf(&b, "const %s = mongoose.model(%s, %sSchema);\n\n", model, singleQuoted(model), model)
	}
	fmt.Fprintf(&b, "module.exports = { %s };\n", strings.Join(models, ", "))

	_, err := io.WriteString(g.writer, b.String())
	return err
}

// fields renders one object level; keys are unique within the level
func (g *MongooseGenerator) fields(c *relation.Catalog, fields []*schema.Field, depth int) string {
	var b strings.Builder
	keys := naming.NewRegistry(naming.Key)
	pad := indent(depth)

	for i, f := range fields {
		if f == nil || strings.TrimSpace(f.Name) == "_id" {
			continue
		}
		key := keys.Unique(naming.ToIdentifier(f.Name, fmt.Sprintf("field_%d", i+1), naming.Key))

		if len(f.Children) > 0 {
			if mongooseKind(f.Type) == "Array" {
				fmt.Fprintf(&b, "%s%s: [{\n%s%s}],\n", pad, key, g.fields(c, f.Children, depth+1), pad)
			} else {
				fmt.Fprintf(&b, "%s%s: {\n%s%s},\n", pad, key, g.fields(c, f.Children, depth+1), pad)
			}
			continue
		}
		fmt.Fprintf(&b, "%s%s: %s,\n", pad, key, renderInline(fieldOptions(c, f)))
	}
	return b.String()
}

// fieldOptions builds the option object of a leaf field
func fieldOptions(c *relation.Catalog, f *schema.Field) []jsEntry {
	kind := mongooseKind(f.Type)
	opts := []jsEntry{code("type", mongooseTypeCode(kind))}

	if ref := strings.TrimSpace(f.Ref); ref != "" && kind == "ObjectId" {
		if target := c.Lookup(ref); target != nil {
			ref = target.Model
		}
		opts = append(opts, code("ref", jsString(ref)))
	}
	if f.Required {
		opts = append(opts, code("required", "true"))
	}
	if f.Unique {
		opts = append(opts, code("unique", "true"))
	}
	if f.Index {
		opts = append(opts, code("index", "true"))
	}
	if f.Sparse {
		opts = append(opts, code("sparse", "true"))
	}
	if f.Immutable {
		opts = append(opts, code("immutable", "true"))
	}
	if alias := strings.TrimSpace(f.Alias); alias != "" {
		opts = append(opts, code("alias", jsString(alias)))
	}
	if v, ok := f.SelectMode.Bool(); ok {
		opts = append(opts, code("select", fmt.Sprint(v)))
	}

	switch kind {
	case "String":
		if f.Trim {
			opts = append(opts, code("trim", "true"))
		}
		if f.Lowercase {
			opts = append(opts, code("lowercase", "true"))
		}
		if f.Uppercase {
			opts = append(opts, code("uppercase", "true"))
		}
		if n, ok := nonNegative(f.MinLength); ok {
			opts = append(opts, code("minLength", n))
		}
		if n, ok := nonNegative(f.MaxLength); ok {
			opts = append(opts, code("maxLength", n))
		}
		if pattern := strings.TrimSpace(f.MatchPattern); pattern != "" {
			opts = append(opts, code("match", fmt.Sprintf("new RegExp(%s, %s)", jsString(pattern), jsString(f.MatchFlags))))
		}
		if values := enumValues(f); len(values) > 0 {
			quoted := make([]string, len(values))
			for i, v := range values {
				quoted[i] = jsString(v)
			}
			opts = append(opts, code("enum", "["+strings.Join(quoted, ", ")+"]"))
		}
		if def := strings.TrimSpace(f.DefaultString); def != "" {
			opts = append(opts, code("default", jsString(def)))
		}
	case "Number":
		if n, ok := number(f.Min); ok {
			opts = append(opts, code("min", n))
		}
		if n, ok := number(f.Max); ok {
			opts = append(opts, code("max", n))
		}
		if n, ok := number(f.DefaultNumber); ok {
			opts = append(opts, code("default", n))
		}
	case "Boolean":
		if v, ok := f.DefaultBooleanMode.Bool(); ok {
			opts = append(opts, code("default", fmt.Sprint(v)))
		}
	case "Date":
		switch f.DefaultDateMode {
		case "now":
			opts = append(opts, code("default", "Date.now"))
		case "custom":
			if v := strings.TrimSpace(f.DefaultDateValue); v != "" {
				opts = append(opts, code("default", fmt.Sprintf("new Date(%s)", jsString(v))))
			}
		}
		if v := strings.TrimSpace(f.MinDate); v != "" {
			opts = append(opts, code("min", fmt.Sprintf("new Date(%s)", jsString(v))))
		}
		if v := strings.TrimSpace(f.MaxDate); v != "" {
			opts = append(opts, code("max", fmt.Sprintf("new Date(%s)", jsString(v))))
		}
		if n, ok := nonNegative(f.ExpiresSeconds); ok {
			opts = append(opts, code("expires", n))
		}
	case "ObjectId":
		if v := strings.TrimSpace(f.DefaultObjectID); v != "" {
			opts = append(opts, code("default", jsString(v)))
		}
	case "Map":
		if of := strings.TrimSpace(f.MapOfType); of != "" {
			opts = append(opts, code("of", mongooseTypeCode(mongooseKind(of))))
		}
	case "Array":
		if of := strings.TrimSpace(f.ArrayOfType); of != "" {
			opts = append(opts, code("of", mongooseTypeCode(mongooseKind(of))))
		}
	}
	return opts
}

func nonNegative(n schema.Numeric) (string, bool) {
	if f, ok := n.Float(); !ok || f < 0 {
		return "", false
	}
	return number(n)
}

// schemaOptions builds the second argument of new Schema(...)
func schemaOptions(d *schema.EntityData) []jsEntry {
	var opts []jsEntry
	boolOpt := func(key string, m schema.Mode) {
		if v, ok := m.Bool(); ok {
			opts = append(opts, code(key, fmt.Sprint(v)))
		}
	}

	if d.TimestampsEnabled {
		var ts []jsEntry
		if name := strings.TrimSpace(d.CreatedAtName); name != "" {
			ts = append(ts, code("createdAt", jsString(name)))
		}
		if name := strings.TrimSpace(d.UpdatedAtName); name != "" {
			ts = append(ts, code("updatedAt", jsString(name)))
		}
		if len(ts) > 0 {
			opts = append(opts, jsEntry{Key: "timestamps", Object: ts})
		} else {
			opts = append(opts, code("timestamps", "true"))
		}
	}
	if name := strings.TrimSpace(d.SchemaCollectionName); name != "" {
		opts = append(opts, code("collection", jsString(name)))
	}
	if d.SchemaStrictMode == "throw" {
		opts = append(opts, code("strict", jsString("throw")))
	} else {
		boolOpt("strict", d.SchemaStrictMode)
	}
	boolOpt("strictQuery", d.SchemaStrictQueryMode)
	boolOpt("autoIndex", d.SchemaAutoIndexMode)
	boolOpt("autoCreate", d.SchemaAutoCreateMode)
	boolOpt("id", d.SchemaIDVirtualMode)
	boolOpt("_id", d.SchemaUnderscoreIDMode)
	boolOpt("minimize", d.SchemaMinimizeMode)
	boolOpt("skipVersioning", d.SchemaSkipVersioningMode)
	boolOpt("optimisticConcurrency", d.SchemaOptimisticConcurrencyMode)

	switch d.SchemaVersionKeyMode {
	case "disable":
		opts = append(opts, code("versionKey", "false"))
	case "custom":
		if name := strings.TrimSpace(d.SchemaVersionKeyName); name != "" {
			opts = append(opts, code("versionKey", jsString(name)))
		}
	}

	if d.SchemaCappedEnabled {
		var capped []jsEntry
		if n, ok := positive(d.SchemaCappedSize); ok {
			capped = append(capped, code("size", n))
		}
		if n, ok := positive(d.SchemaCappedMax); ok {
			capped = append(capped, code("max", n))
		}
		if v, ok := d.SchemaCappedAutoIndexIDMode.Bool(); ok {
			capped = append(capped, code("autoIndexId", fmt.Sprint(v)))
		}
		if len(capped) > 0 {
			opts = append(opts, jsEntry{Key: "capped", Object: capped})
		} else {
			opts = append(opts, code("capped", "true"))
		}
	}

	if pref := strings.TrimSpace(d.SchemaReadPreference); pref != "" {
		opts = append(opts, code("read", jsString(pref)))
	}

	var wc []jsEntry
	if w := strings.TrimSpace(d.SchemaWriteConcernW); w != "" {
		if isNumber(w) {
			wc = append(wc, code("w", w))
		} else {
			wc = append(wc, code("w", jsString(w)))
		}
	}
	if v, ok := d.SchemaWriteConcernJMode.Bool(); ok {
		wc = append(wc, code("j", fmt.Sprint(v)))
	}
	if n, ok := positive(d.SchemaWriteConcernWtimeout); ok {
		wc = append(wc, code("wtimeout", n))
	}
	if len(wc) > 0 {
		opts = append(opts, jsEntry{Key: "writeConcern", Object: wc})
	}

	if locale := strings.TrimSpace(d.SchemaCollationLocale); locale != "" {
		collation := []jsEntry{code("locale", jsString(locale))}
		if s, ok := d.SchemaCollationStrength.Float(); ok && s >= 1 && s <= 5 {
			n, _ := number(d.SchemaCollationStrength)
			collation = append(collation, code("strength", n))
		}
		if v, ok := d.SchemaCollationCaseLevelMode.Bool(); ok {
			collation = append(collation, code("caseLevel", fmt.Sprint(v)))
		}
		if first := strings.TrimSpace(d.SchemaCollationCaseFirst); first != "" {
			collation = append(collation, code("caseFirst", jsString(first)))
		}
		if v, ok := d.SchemaCollationNumericOrderingMode.Bool(); ok {
			collation = append(collation, code("numericOrdering", fmt.Sprint(v)))
		}
		opts = append(opts, jsEntry{Key: "collation", Object: collation})
	}
	return opts
}

func positive(n schema.Numeric) (string, bool) {
	if f, ok := n.Float(); !ok || f <= 0 {
		return "", false
	}
	return number(n)
}
