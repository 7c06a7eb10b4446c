package generator

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tordrt/schemagen/internal/relation"
	"github.com/tordrt/schemagen/internal/schema"
)

// LaravelGenerator renders one Laravel migration per entity
type LaravelGenerator struct {
	writer io.Writer
}

// NewLaravelGenerator creates a new Laravel migration generator
func NewLaravelGenerator(w io.Writer) *LaravelGenerator {
	return &LaravelGenerator{writer: w}
}

var laravelMethods = map[string]string{
	"INT": "integer", "INTEGER": "integer", "BIGINT": "bigInteger", "SMALLINT": "smallInteger",
	"TINYINT": "tinyInteger", "SERIAL": "integer", "BIGSERIAL": "bigInteger",
	"VARCHAR": "string", "CHAR": "char", "TEXT": "text", "LONGTEXT": "longText", "XML": "text",
	"DECIMAL": "decimal", "NUMERIC": "decimal",
	"FLOAT": "double", "DOUBLE": "double", "REAL": "double", "DOUBLE PRECISION": "double",
	"BOOLEAN": "boolean", "BOOL": "boolean",
	"DATE": "date", "DATETIME": "timestamp", "TIMESTAMP": "timestamp", "TIME": "time", "YEAR": "year",
	"JSON": "json", "JSONB": "jsonb", "UUID": "uuid", "BLOB": "binary", "BYTEA": "binary",
	"ENUM": "enum",

	"STRING": "string", "NUMBER": "double", "OBJECTID": "string",
	"ARRAY": "json", "OBJECT": "json", "MAP": "json", "MIXED": "json", "BUFFER": "binary",
}

// MigrationFileName returns the conventional file name of the index-th migration
func MigrationFileName(opts Options, index int, table string) string {
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Unix(0, 0)
	}
	return fmt.Sprintf("%s_%06d_create_%s_table.php", ts.UTC().Format("2006_01_02"), index+1, table)
}

// Generate writes every migration, each headed by its file name
func (g *LaravelGenerator) Generate(req *Request) error {
	entries := req.entries()
	if len(entries) == 0 {
		return nil
	}
	family := sqlFamily(req.Family)

	out := make([]string, 0, len(entries))
	for i, entry := range entries {
		out = append(out, g.migration(req, entry, i, family))
	}
	_, err := io.WriteString(g.writer, strings.Join(out, "\n\n"))
	return err
}

func (g *LaravelGenerator) migration(req *Request, entry *relation.Entry, index int, family schema.Family) string {
	var body []string
	for _, f := range entry.Entity.Data.Fields {
		if f == nil {
			continue
		}
		col := entry.Column(f)
		if col == "" {
			continue
		}
		body = append(body, laravelColumn(f, col, family))

		if f.IsPrimary() && !f.AutoIncrement && len(entry.PrimaryKeys) == 1 {
			body = append(body, fmt.Sprintf("$table->primary(%s);", singleQuoted(col)))
		}
		if ref, ok := req.catalog().Resolve(entry.Entity, f); ok {
			body = append(body, laravelForeign(ref))
		}
	}
	if len(entry.PrimaryKeys) > 1 {
		quoted := make([]string, len(entry.PrimaryKeys))
		for i, pk := range entry.PrimaryKeys {
			quoted[i] = singleQuoted(pk)
		}
		body = append(body, fmt.Sprintf("$table->primary([%s]);", strings.Join(quoted, ", ")))
	}

	var b strings.Builder
	b.WriteString("<?php\n\n")
	fmt.Fprintf(&b, "// %s\n\n", MigrationFileName(req.Options, index, entry.Table))
	b.WriteString("use Illuminate\\Database\\Migrations\\Migration;\n")
	b.WriteString("use Illuminate\\Database\\Schema\\Blueprint;\n")
	b.WriteString("use Illuminate\\Support\\Facades\\Schema;\n\n")
	b.WriteString("return new class extends Migration\n{\n")
	b.WriteString("    public function up(): void\n    {\n")
	fmt.Fprintf(&b, "        Schema::create(%s, function (Blueprint $table) {\n", singleQuoted(entry.Table))
	for _, line := range body {
		fmt.Fprintf(&b, "            %s\n", line)
	}
	b.WriteString("        });\n    }\n\n")
	b.WriteString("    public function down(): void\n    {\n")
	fmt.Fprintf(&b, "        Schema::dropIfExists(%s);\n", singleQuoted(entry.Table))
	b.WriteString("    }\n};\n")
	return b.String()
}

func laravelColumn(f *schema.Field, col string, family schema.Family) string {
	if f.IsPrimary() && f.AutoIncrement {
		if col == "id" {
			return "$table->id();"
		}
		return fmt.Sprintf("$table->id(%s);", singleQuoted(col))
	}

	typ := upperType(f)
	method, ok := laravelMethods[typ]
	if !ok {
		method = "string"
	}
	// the document type Date carries a time of day
	if strings.TrimSpace(f.Type) == "Date" {
		method = "timestamp"
	}

	var line string
	switch method {
	case "decimal":
		precision, scale := precisionScale(f)
		if precision <= 0 {
			precision = 10
		}
		if scale < 0 {
			scale = 2
		}
		line = fmt.Sprintf("$table->decimal(%s, %d, %d)", singleQuoted(col), precision, scale)
	case "enum":
		values := enumValues(f)
		if len(values) == 0 {
			line = fmt.Sprintf("$table->string(%s)", singleQuoted(col))
			break
		}
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = singleQuoted(v)
		}
		line = fmt.Sprintf("$table->enum(%s, [%s])", singleQuoted(col), strings.Join(quoted, ", "))
	case "string":
		n := 255
		switch typ {
		case "VARCHAR":
			n = length(f, 255)
		case "OBJECTID":
			n = 24
		}
		line = fmt.Sprintf("$table->string(%s, %d)", singleQuoted(col), n)
	case "char":
		line = fmt.Sprintf("$table->char(%s, %d)", singleQuoted(col), length(f, 1))
	default:
		line = fmt.Sprintf("$table->%s(%s)", method, singleQuoted(col))
	}

	if f.Unsigned && family == schema.MySQL {
		line += "->unsigned()"
	}
	if f.Nullable {
		line += "->nullable()"
	}
	if f.Unique {
		line += "->unique()"
	}
	if f.Index {
		line += "->index()"
	}
	d := classifyDefault(f.DefaultValue)
	switch d.Kind {
	case defaultNow:
		line += "->useCurrent()"
	case defaultNumber, defaultBool:
		line += fmt.Sprintf("->default(%s)", d.Text)
	case defaultString:
		line += fmt.Sprintf("->default(%s)", singleQuoted(d.Text))
	}
	return line + ";"
}

func laravelForeign(ref relation.Reference) string {
	line := fmt.Sprintf("$table->foreign(%s)->references(%s)->on(%s)",
		singleQuoted(ref.Column), singleQuoted(ref.TargetColumn), singleQuoted(ref.Target.Table))
	if ref.OnDelete != "" {
		line += fmt.Sprintf("->onDelete(%s)", singleQuoted(strings.ToLower(ref.OnDelete)))
	}
	if ref.OnUpdate != "" {
		line += fmt.Sprintf("->onUpdate(%s)", singleQuoted(strings.ToLower(ref.OnUpdate)))
	}
	return line + ";"
}
