package generator

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemagen/internal/relation"
	"github.com/tordrt/schemagen/internal/schema"
)

// MarkdownGenerator formats the schema as markdown
type MarkdownGenerator struct {
	writer io.Writer
}

// NewMarkdownGenerator creates a new markdown generator
func NewMarkdownGenerator(w io.Writer) *MarkdownGenerator {
	return &MarkdownGenerator{writer: w}
}

// Generate writes the schema in markdown format
func (g *MarkdownGenerator) Generate(req *Request) error {
	_, _ = fmt.Fprintln(g.writer, "# Database Schema")
	_, _ = fmt.Fprintln(g.writer)

	c := req.catalog()
	for _, entry := range req.entries() {
		g.formatEntry(c, entry, req.Family)
	}
	return nil
}

func (g *MarkdownGenerator) formatEntry(c *relation.Catalog, entry *relation.Entry, family schema.Family) {
	_, _ = fmt.Fprintf(g.writer, "## %s\n\n", entry.Table)

	_, _ = fmt.Fprintln(g.writer, "### Columns")
	_, _ = fmt.Fprintln(g.writer)
	for _, col := range describeColumns(entry, family) {
		typeStr := col.Type
		if len(col.EnumValues) > 0 {
			typeStr = fmt.Sprintf("%s (%s)", col.Type, strings.Join(col.EnumValues, "|"))
		}
		if constraints := markdownConstraints(col); constraints != "" {
			_, _ = fmt.Fprintf(g.writer, "%s- **%s:** %s, %s\n", indent(col.Depth), col.Name, typeStr, constraints)
		} else {
			_, _ = fmt.Fprintf(g.writer, "%s- **%s:** %s\n", indent(col.Depth), col.Name, typeStr)
		}
	}
	_, _ = fmt.Fprintln(g.writer)

	if refs := outgoing(c, entry); len(refs) > 0 {
		_, _ = fmt.Fprintln(g.writer, "### References")
		_, _ = fmt.Fprintln(g.writer)
		for _, ref := range refs {
			_, _ = fmt.Fprintf(g.writer, "- %s → %s.%s (%s)\n", ref.Column, ref.Target.Table, ref.TargetColumn, cardinality(ref))
		}
		_, _ = fmt.Fprintln(g.writer)
	}

	if incoming := c.Incoming(entry); len(incoming) > 0 {
		_, _ = fmt.Fprintln(g.writer, "### Referenced by")
		_, _ = fmt.Fprintln(g.writer)
		for _, ref := range incoming {
			_, _ = fmt.Fprintf(g.writer, "- %s.%s → %s\n", ref.Source.Table, ref.Column, ref.TargetColumn)
		}
		_, _ = fmt.Fprintln(g.writer)
	}

	if indexes := describeIndexes(entry); len(indexes) > 0 {
		_, _ = fmt.Fprintln(g.writer, "### Indexes")
		_, _ = fmt.Fprintln(g.writer)
		for _, idx := range indexes {
			if idx.Unique {
				_, _ = fmt.Fprintf(g.writer, "- %s on (%s), unique\n", idx.Name, strings.Join(idx.Columns, ", "))
			} else {
				_, _ = fmt.Fprintf(g.writer, "- %s on (%s)\n", idx.Name, strings.Join(idx.Columns, ", "))
			}
		}
		_, _ = fmt.Fprintln(g.writer)
	}
}

func markdownConstraints(col columnInfo) string {
	var constraints []string
	if col.Primary {
		constraints = append(constraints, "PK")
	}
	if col.Unique {
		constraints = append(constraints, "UNIQUE")
	}
	if col.NotNull {
		constraints = append(constraints, "NOT NULL")
	}
	if col.Default != "" {
		constraints = append(constraints, "DEFAULT "+col.Default)
	}
	if col.Check != "" {
		constraints = append(constraints, fmt.Sprintf("CHECK(%s)", col.Check))
	}
	return strings.Join(constraints, ", ")
}
