package generator

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemagen/internal/relation"
	"github.com/tordrt/schemagen/internal/schema"
)

// TextGenerator formats the schema as compact text
type TextGenerator struct {
	writer io.Writer
}

// NewTextGenerator creates a new text generator
func NewTextGenerator(w io.Writer) *TextGenerator {
	return &TextGenerator{writer: w}
}

// Generate writes the schema in compact text format
func (g *TextGenerator) Generate(req *Request) error {
	c := req.catalog()
	for i, entry := range req.entries() {
		if i > 0 {
			_, _ = fmt.Fprintln(g.writer) // Blank line between tables
		}
		g.formatEntry(c, entry, req.Family)
	}
	return nil
}

func (g *TextGenerator) formatEntry(c *relation.Catalog, entry *relation.Entry, family schema.Family) {
	kind := "TABLE"
	if family == schema.MongoDB {
		kind = "COLLECTION"
	}
	pkStr := ""
	if len(entry.PrimaryKeys) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(entry.PrimaryKeys, ", "))
	}
	_, _ = fmt.Fprintf(g.writer, "%s %s%s\n", kind, entry.Table, pkStr)

	for _, col := range describeColumns(entry, family) {
		_, _ = fmt.Fprintf(g.writer, "  %s%s\n", indent(col.Depth), formatTextColumn(col))
	}

	if refs := outgoing(c, entry); len(refs) > 0 {
		_, _ = fmt.Fprintln(g.writer)
		_, _ = fmt.Fprintln(g.writer, "  RELATIONS:")
		for _, ref := range refs {
			_, _ = fmt.Fprintf(g.writer, "    %s → %s.%s (%s)\n", ref.Column, ref.Target.Table, ref.TargetColumn, cardinality(ref))
		}
	}

	if indexes := describeIndexes(entry); len(indexes) > 0 {
		_, _ = fmt.Fprintln(g.writer)
		_, _ = fmt.Fprintln(g.writer, "  INDEXES:")
		for _, idx := range indexes {
			unique := ""
			if idx.Unique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(g.writer, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), unique)
		}
	}
}

func formatTextColumn(col columnInfo) string {
	parts := []string{col.Name + ":"}

	typeStr := col.Type
	if len(col.EnumValues) > 0 {
		typeStr = fmt.Sprintf("%s (%s)", col.Type, strings.Join(col.EnumValues, "|"))
	}
	parts = append(parts, typeStr)

	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	if col.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != "" {
		parts = append(parts, "DEFAULT "+col.Default)
	}
	return strings.Join(parts, " ")
}
