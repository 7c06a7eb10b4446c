package store

import (
	"slices"

	"github.com/tordrt/schemagen/internal/schema"
)

const pasteOffset = 20

// ActiveCollections returns copies of the active database's entities in display order
func (s *Store) ActiveCollections() []*schema.Entity {
	var out []*schema.Entity
	for _, e := range s.ws.EntitiesIn(s.ws.ActiveDatabaseID) {
		out = append(out, e.Clone())
	}
	return out
}

// Collection returns a copy of one entity
func (s *Store) Collection(id string) *schema.Entity {
	return s.ws.Entity(id).Clone()
}

// NewCollection builds an entity for the active database holding the
// family's default field. A blank label gets the next default name.
func (s *Store) NewCollection(label string, pos schema.Position) *schema.Entity {
	if label == "" {
		var existing []string
		for _, e := range s.ws.EntitiesIn(s.ws.ActiveDatabaseID) {
			existing = append(existing, e.Data.Label)
		}
		label = s.adapter.NextDefaultEntityName(existing)
	}
	field := s.adapter.DefaultField()
	field.ID = s.id("f")
	return &schema.Entity{
		ID:         s.id("col"),
		DatabaseID: s.ws.ActiveDatabaseID,
		Type:       "collection",
		Position:   pos,
		Data:       schema.EntityData{Label: label, Fields: []*schema.Field{field}},
	}
}

// AddCollection stores a copy of e and returns its id. Missing ids and
// database ids are filled in.
func (s *Store) AddCollection(e *schema.Entity) string {
	e = e.Clone()
	if e.ID == "" {
		e.ID = s.id("col")
	}
	if e.DatabaseID == "" || s.ws.Database(e.DatabaseID) == nil {
		e.DatabaseID = s.ws.ActiveDatabaseID
	}
	if e.Data.Fields == nil {
		e.Data.Fields = []*schema.Field{}
	}

	s.record("add_collection")
	s.ws.Collections = append(s.ws.Collections, e)
	s.ws.PruneEdges(e.DatabaseID)
	s.commit()
	return e.ID
}

// UpdateCollectionProps merges props into the entity's data by JSON key
func (s *Store) UpdateCollectionProps(id string, props map[string]any) error {
	e := s.ws.Entity(id)
	if e == nil {
		return ErrNotFound
	}
	data, err := merged(&e.Data, props)
	if err != nil {
		return err
	}

	s.record("update_collection")
	e.Data = *data
	s.ws.PruneEdges(e.DatabaseID)
	s.commit()
	return nil
}

// UpdateCollectionPosition moves an entity on the canvas
func (s *Store) UpdateCollectionPosition(id string, pos schema.Position) error {
	e := s.ws.Entity(id)
	if e == nil {
		return ErrNotFound
	}
	s.record("move_collection")
	e.Position = pos
	s.commit()
	return nil
}

// ApplyLayout moves every known entity to its position as one history step
// and returns how many moved. Unknown ids are skipped.
func (s *Store) ApplyLayout(positions map[string]schema.Position) int {
	var moved []*schema.Entity
	for _, e := range s.ws.Collections {
		if pos, ok := positions[e.ID]; ok && e.Position != pos {
			moved = append(moved, e)
		}
	}
	if len(moved) == 0 {
		return 0
	}

	s.record("apply_layout")
	for _, e := range moved {
		e.Position = positions[e.ID]
	}
	s.commit()
	return len(moved)
}

// RemoveCollection deletes an entity and every edge touching it
func (s *Store) RemoveCollection(id string) error {
	if s.ws.Entity(id) == nil {
		return ErrNotFound
	}
	s.RemoveCollections([]string{id})
	return nil
}

// RemoveCollections deletes entities and their edges, returning how many were removed
func (s *Store) RemoveCollections(ids []string) int {
	remove := make(map[string]bool, len(ids))
	dbs := make(map[string]bool)
	for _, id := range ids {
		if e := s.ws.Entity(id); e != nil {
			remove[id] = true
			dbs[e.DatabaseID] = true
		}
	}
	if len(remove) == 0 {
		return 0
	}

	s.record("remove_collections")
	s.ws.Collections = slices.DeleteFunc(s.ws.Collections, func(e *schema.Entity) bool { return remove[e.ID] })
	s.ws.Edges = slices.DeleteFunc(s.ws.Edges, func(e schema.Edge) bool { return remove[e.Source] || remove[e.Target] })
	for _, db := range s.ws.Databases {
		if dbs[db.ID] {
			s.ws.PruneEdges(db.ID)
		}
	}
	if len(ids) == 1 {
		if s.ws.ItemID == ids[0] {
			s.selectItem("", "", "")
		}
		s.ws.Selected = slices.DeleteFunc(s.ws.Selected, func(id string) bool { return remove[id] })
	} else {
		s.ws.Selection = schema.Selection{}
	}
	s.commit()
	return len(remove)
}

// CopyNode puts a deep copy of an entity on the clipboard
func (s *Store) CopyNode(id string) error {
	e := s.ws.Entity(id)
	if e == nil {
		return ErrNotFound
	}
	s.ws.Clipboard = e.Clone()
	s.persist()
	return nil
}

// PasteNode adds a copy of the clipboard entity to the active database with
// fresh ids, offset from the original, and selects it. It returns false when
// the clipboard is empty.
func (s *Store) PasteNode() (string, bool) {
	if s.ws.Clipboard == nil {
		return "", false
	}

	s.record("paste_collection")
	e := s.ws.Clipboard.Clone()
	e.ID = s.id("col")
	e.DatabaseID = s.ws.ActiveDatabaseID
	e.Position = schema.Position{X: e.Position.X + pasteOffset, Y: e.Position.Y + pasteOffset}
	schema.Walk(e.Data.Fields, func(f *schema.Field, _ int) {
		f.ID = s.id("f")
	})
	if e.Data.Fields == nil {
		e.Data.Fields = []*schema.Field{}
	}
	s.ws.Collections = append(s.ws.Collections, e)
	s.selectItem(e.ID, schema.ItemCollection, "")
	s.ws.Selected = []string{e.ID}
	s.commit()
	return e.ID, true
}
