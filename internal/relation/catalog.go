// Package relation maps entities to their generated names and resolves
// foreign-key declarations against them.
package relation

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemagen/internal/naming"
	"github.com/tordrt/schemagen/internal/schema"
)

// Entry holds the generated names of one entity
type Entry struct {
	Entity *schema.Entity
	Table  string
	Model  string

	// PrimaryKeys lists primary key columns in field order
	PrimaryKeys []string

	columns map[*schema.Field]string
	byID    map[string]string // field id -> column, first wins
	byName  map[string]string // normalized field name -> column, first wins
	fields  map[string]*schema.Field
}

// Column returns the column generated for a top-level field
func (e *Entry) Column(f *schema.Field) string {
	return e.columns[f]
}

// ColumnByID returns the column generated for a top-level field id
func (e *Entry) ColumnByID(fieldID string) string {
	return e.byID[fieldID]
}

// ColumnByName returns the column of the first field whose normalized name matches
func (e *Entry) ColumnByName(name string) (string, bool) {
	key, ok := nameKey(name)
	if !ok {
		return "", false
	}
	col, ok := e.byName[key]
	return col, ok
}

// FieldByColumn returns the field a column was generated for
func (e *Entry) FieldByColumn(column string) *schema.Field {
	return e.fields[column]
}

// Catalog is the set of generated names for every entity of one database.
// It is rebuilt from the current IR for each generation and never cached.
type Catalog struct {
	entries  []*Entry
	byID     map[string]*Entry
	byEntity map[*schema.Entity]*Entry
}

// NewCatalog names entities in display order. Table and model names are
// unique across the catalog, column names are unique per entity.
func NewCatalog(entities []*schema.Entity) *Catalog {
	c := &Catalog{
		byID:     make(map[string]*Entry, len(entities)),
		byEntity: make(map[*schema.Entity]*Entry, len(entities)),
	}
	tables := naming.NewRegistry(naming.Snake)
	models := naming.NewRegistry(naming.Pascal)

	for i, e := range entities {
		if e == nil {
			continue
		}
		entry := &Entry{
			Entity:  e,
			Table:   tables.Unique(naming.ToIdentifier(e.Data.Label, fmt.Sprintf("table_%d", i+1), naming.Snake)),
			Model:   models.Unique(naming.ToIdentifier(e.Data.Label, fmt.Sprintf("Model%d", i+1), naming.Pascal)),
			columns: make(map[*schema.Field]string),
			byID:    make(map[string]string),
			byName:  make(map[string]string),
			fields:  make(map[string]*schema.Field),
		}

		cols := naming.NewRegistry(naming.Snake)
		for j, f := range e.Data.Fields {
			if f == nil {
				continue
			}
			col := cols.Unique(naming.ToIdentifier(f.Name, fmt.Sprintf("column_%d", j+1), naming.Snake))
			entry.columns[f] = col
			if f.ID != "" {
				if _, seen := entry.byID[f.ID]; !seen {
					entry.byID[f.ID] = col
				}
			}
			entry.fields[col] = f
			if key, ok := nameKey(f.Name); ok {
				if _, seen := entry.byName[key]; !seen {
					entry.byName[key] = col
				}
			}
			if f.IsPrimary() {
				entry.PrimaryKeys = append(entry.PrimaryKeys, col)
			}
		}

		c.entries = append(c.entries, entry)
		c.byEntity[e] = entry
		if e.ID != "" {
			if _, dup := c.byID[e.ID]; !dup {
				c.byID[e.ID] = entry
			}
		}
	}
	return c
}

// Entries returns every entry in display order
func (c *Catalog) Entries() []*Entry {
	return c.entries
}

// Entry returns the entry of an entity id
func (c *Catalog) Entry(entityID string) *Entry {
	return c.byID[entityID]
}

// EntryFor returns the entry built for an entity
func (c *Catalog) EntryFor(e *schema.Entity) *Entry {
	return c.byEntity[e]
}

// Lookup finds an entity by label, trimmed and case-insensitive. The first
// match in display order wins.
func (c *Catalog) Lookup(label string) *Entry {
	key := schema.LabelKey(label)
	if key == "" {
		return nil
	}
	for _, e := range c.entries {
		if schema.LabelKey(e.Entity.Data.Label) == key {
			return e
		}
	}
	return nil
}

func nameKey(name string) (string, bool) {
	if strings.TrimSpace(name) == "" {
		return "", false
	}
	return naming.ToIdentifier(name, "", naming.Snake), true
}
