package schema

import (
	"fmt"
	"strings"
)

const (
	DefaultDatabaseID   = "db-main"
	DefaultDatabaseName = "MainDB"
)

// NewProject returns a project holding a single empty database
func NewProject() *Project {
	return &Project{
		Databases:        []Database{{ID: DefaultDatabaseID, Name: DefaultDatabaseName}},
		ActiveDatabaseID: DefaultDatabaseID,
		Collections:      []*Entity{},
		Edges:            []Edge{},
	}
}

// Database returns the database with the given id
func (p *Project) Database(id string) *Database {
	for i := range p.Databases {
		if p.Databases[i].ID == id {
			return &p.Databases[i]
		}
	}
	return nil
}

// Entity returns the entity with the given id
func (p *Project) Entity(id string) *Entity {
	for _, e := range p.Collections {
		if e != nil && e.ID == id {
			return e
		}
	}
	return nil
}

// EntitiesIn returns the entities of a database in display order
func (p *Project) EntitiesIn(databaseID string) []*Entity {
	var out []*Entity
	for _, e := range p.Collections {
		if e != nil && e.DatabaseID == databaseID {
			out = append(out, e)
		}
	}
	return out
}

// EdgesIn returns the edges of a database
func (p *Project) EdgesIn(databaseID string) []Edge {
	var out []Edge
	for _, e := range p.Edges {
		if e.DatabaseID == databaseID {
			out = append(out, e)
		}
	}
	return out
}

// ValidEdge reports whether both ends resolve to entities of the edge's
// database and both handles, when set, resolve to fields of those entities.
func (p *Project) ValidEdge(edge Edge) bool {
	source := p.Entity(edge.Source)
	target := p.Entity(edge.Target)
	if source == nil || target == nil {
		return false
	}
	if source.DatabaseID != edge.DatabaseID || target.DatabaseID != edge.DatabaseID {
		return false
	}
	if edge.SourceHandle != "" && !source.FieldExists(edge.SourceHandle) {
		return false
	}
	if edge.TargetHandle != "" && !target.FieldExists(edge.TargetHandle) {
		return false
	}
	return true
}

// PruneEdges drops invalid edges. With a database id only that database's
// edges are checked. Reports whether anything was removed.
func (p *Project) PruneEdges(databaseID string) bool {
	kept := p.Edges[:0:0]
	for _, edge := range p.Edges {
		if databaseID != "" && edge.DatabaseID != databaseID {
			kept = append(kept, edge)
			continue
		}
		if p.ValidEdge(edge) {
			kept = append(kept, edge)
		}
	}
	if len(kept) == len(p.Edges) {
		return false
	}
	p.Edges = kept
	return true
}

// RepairIDs gives every entity a project-unique id and every field an id
// unique within its entity. The first holder of an id keeps it; empty and
// repeated ids are replaced.
func (p *Project) RepairIDs() {
	entityIDs := make(map[string]bool, len(p.Collections))
	for _, e := range p.Collections {
		if e != nil && e.ID != "" {
			entityIDs[e.ID] = false
		}
	}
	for _, e := range p.Collections {
		if e == nil {
			continue
		}
		if taken, known := entityIDs[e.ID]; e.ID == "" || (known && taken) {
			e.ID = freeID(entityIDs, "entity")
		}
		entityIDs[e.ID] = true

		fieldIDs := make(map[string]bool)
		Walk(e.Data.Fields, func(f *Field, _ int) {
			if f.ID != "" {
				fieldIDs[f.ID] = false
			}
		})
		Walk(e.Data.Fields, func(f *Field, _ int) {
			if taken, known := fieldIDs[f.ID]; f.ID == "" || (known && taken) {
				f.ID = freeID(fieldIDs, e.ID+"-field")
			}
			fieldIDs[f.ID] = true
		})
	}
}

// freeID returns the first prefix-N not present in used and reserves it
func freeID(used map[string]bool, prefix string) string {
	for n := 1; ; n++ {
		id := fmt.Sprintf("%s-%d", prefix, n)
		if _, ok := used[id]; !ok {
			used[id] = false
			return id
		}
	}
}

// RepairDatabases restores the database invariants: at least one database,
// a valid active database, unique entity and field ids, every entity and
// edge owned by a known database, and no invalid edges.
func (p *Project) RepairDatabases() {
	if len(p.Databases) == 0 {
		p.Databases = []Database{{ID: DefaultDatabaseID, Name: DefaultDatabaseName}}
	}
	if p.ActiveDatabaseID == "" || p.Database(p.ActiveDatabaseID) == nil {
		p.ActiveDatabaseID = p.Databases[0].ID
	}
	if p.Collections == nil {
		p.Collections = []*Entity{}
	}
	if p.Edges == nil {
		p.Edges = []Edge{}
	}

	fallback := p.ActiveDatabaseID
	kept := p.Collections[:0]
	for _, e := range p.Collections {
		if e == nil {
			continue
		}
		if e.DatabaseID == "" || p.Database(e.DatabaseID) == nil {
			e.DatabaseID = fallback
		}
		kept = append(kept, e)
	}
	p.Collections = kept
	p.RepairIDs()

	for i := range p.Edges {
		edge := &p.Edges[i]
		if edge.DatabaseID != "" && p.Database(edge.DatabaseID) != nil {
			continue
		}
		edge.DatabaseID = fallback
		if source := p.Entity(edge.Source); source != nil {
			edge.DatabaseID = source.DatabaseID
		}
	}

	p.PruneEdges("")
}

// Clone returns a deep copy
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := &Project{
		Databases:        append([]Database{}, p.Databases...),
		ActiveDatabaseID: p.ActiveDatabaseID,
		Collections:      make([]*Entity, 0, len(p.Collections)),
		Edges:            make([]Edge, 0, len(p.Edges)),
	}
	for _, e := range p.Collections {
		if e != nil {
			out.Collections = append(out.Collections, e.Clone())
		}
	}
	for _, edge := range p.Edges {
		out.Edges = append(out.Edges, edge.Clone())
	}
	return out
}

// Clone returns a deep copy
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	out := *e
	out.Data.Fields = CloneFields(e.Data.Fields)
	return &out
}

// Clone returns a deep copy
func (f *Field) Clone() *Field {
	if f == nil {
		return nil
	}
	out := *f
	out.Children = CloneFields(f.Children)
	if f.EnumValues != nil {
		out.EnumValues = append([]string{}, f.EnumValues...)
	}
	return &out
}

// CloneFields deep-copies a field list, dropping nil entries
func CloneFields(fields []*Field) []*Field {
	if fields == nil {
		return nil
	}
	out := make([]*Field, 0, len(fields))
	for _, f := range fields {
		if f != nil {
			out = append(out, f.Clone())
		}
	}
	return out
}

// Clone returns a deep copy
func (e Edge) Clone() Edge {
	if e.Style != nil {
		style := make(map[string]string, len(e.Style))
		for k, v := range e.Style {
			style[k] = v
		}
		e.Style = style
	}
	return e
}

// LabelKey is the lookup key used to match entity labels
func LabelKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
