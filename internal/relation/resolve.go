package relation

import (
	"strings"

	"github.com/tordrt/schemagen/internal/naming"
	"github.com/tordrt/schemagen/internal/schema"
)

// Reference is a resolved foreign key from a source column to a target column
type Reference struct {
	Source       *Entry
	Field        *schema.Field
	Column       string
	Target       *Entry
	TargetColumn string
	// TargetField is nil when the column was derived from a name that no field carries
	TargetField *schema.Field
	OnDelete    string
	OnUpdate    string
	// Implicit is set for document-style refs that carry no foreign-key declaration
	Implicit bool
}

// Referential actions accepted by every relational target
var actions = map[string]string{
	"CASCADE":     "CASCADE",
	"RESTRICT":    "RESTRICT",
	"SET NULL":    "SET NULL",
	"NO ACTION":   "NO ACTION",
	"SET DEFAULT": "SET DEFAULT",
}

// NormalizeAction canonicalizes a referential action; unknown values yield ""
func NormalizeAction(s string) string {
	s = strings.Join(strings.Fields(strings.ReplaceAll(strings.ToUpper(s), "_", " ")), " ")
	return actions[s]
}

// Declared reports whether the field carries an explicit foreign-key declaration
func Declared(f *schema.Field) bool {
	return f != nil && f.ForeignKey && strings.TrimSpace(f.ReferencesTable) != "" &&
		(strings.TrimSpace(f.ReferencesColumn) != "" || strings.TrimSpace(f.ReferencesColumnID) != "")
}

// Resolve resolves the relation declared on a top-level field of entity.
// The boolean is false when there is nothing to resolve or the referenced
// entity does not exist; callers skip the relation in that case.
func (c *Catalog) Resolve(entity *schema.Entity, f *schema.Field) (Reference, bool) {
	if entity == nil || f == nil {
		return Reference{}, false
	}
	source := c.EntryFor(entity)
	if source == nil {
		source = c.Entry(entity.ID)
	}
	if source == nil {
		return Reference{}, false
	}
	column := source.Column(f)
	if column == "" {
		return Reference{}, false
	}

	ref := Reference{
		Source:   source,
		Field:    f,
		Column:   column,
		OnDelete: NormalizeAction(f.OnDelete),
		OnUpdate: NormalizeAction(f.OnUpdate),
	}

	switch {
	case Declared(f):
		ref.Target = c.Lookup(f.ReferencesTable)
		if ref.Target == nil {
			return Reference{}, false
		}
		ref.TargetColumn = targetColumn(ref.Target, f)
	case strings.TrimSpace(f.Ref) != "":
		ref.Target = c.Lookup(f.Ref)
		if ref.Target == nil {
			return Reference{}, false
		}
		ref.Implicit = true
		ref.TargetColumn = "id"
		if len(ref.Target.PrimaryKeys) > 0 {
			ref.TargetColumn = ref.Target.PrimaryKeys[0]
		}
	default:
		return Reference{}, false
	}

	ref.TargetField = ref.Target.FieldByColumn(ref.TargetColumn)
	return ref, true
}

// targetColumn applies the fallback chain: field id, then field name, then
// the normalized declared name, then "id".
func targetColumn(target *Entry, f *schema.Field) string {
	if id := strings.TrimSpace(f.ReferencesColumnID); id != "" {
		if col := target.ColumnByID(id); col != "" {
			return col
		}
	}
	if col, ok := target.ColumnByName(f.ReferencesColumn); ok {
		return col
	}
	if strings.TrimSpace(f.ReferencesColumn) != "" {
		return naming.ToIdentifier(f.ReferencesColumn, "id", naming.Snake)
	}
	return "id"
}

// References resolves every top-level field of every entry, in display order
func (c *Catalog) References() []Reference {
	var out []Reference
	for _, e := range c.entries {
		for _, f := range e.Entity.Data.Fields {
			if ref, ok := c.Resolve(e.Entity, f); ok {
				out = append(out, ref)
			}
		}
	}
	return out
}

// Incoming returns the resolved references that point at target
func (c *Catalog) Incoming(target *Entry) []Reference {
	var out []Reference
	for _, ref := range c.References() {
		if ref.Target == target {
			out = append(out, ref)
		}
	}
	return out
}
