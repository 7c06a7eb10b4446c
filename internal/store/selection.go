package store

import (
	"slices"

	"github.com/tordrt/schemagen/internal/schema"
)

// Item is the resolved selection
type Item struct {
	Type       schema.ItemType
	Collection *schema.Entity
	Field      *schema.Field
}

// Selection returns a copy of the selection state
func (s *Store) Selection() schema.Selection {
	sel := s.ws.Selection
	sel.Selected = slices.Clone(sel.Selected)
	return sel
}

func (s *Store) selectItem(id string, typ schema.ItemType, collectionID string) {
	s.ws.ItemID = id
	s.ws.ItemType = typ
	s.ws.CollectionID = collectionID
}

// SelectItem sets the selected item. Selection is not part of history.
func (s *Store) SelectItem(id string, typ schema.ItemType, collectionID string) {
	s.selectItem(id, typ, collectionID)
	s.persist()
}

// ClearSelections drops the selected item and every selected entity
func (s *Store) ClearSelections() {
	s.ws.Selection = schema.Selection{}
	s.commit()
}

// SetCollectionSelection selects an entity of the active database. Without
// multi the entity becomes the only selection. With multi the entity is
// toggled, except that the sole selected entity stays selected; the entity
// becomes the selected item only when exactly one entity remains selected.
func (s *Store) SetCollectionSelection(id string, multi bool) error {
	target := s.ws.Entity(id)
	if target == nil {
		return ErrNotFound
	}
	if target.DatabaseID != s.ws.ActiveDatabaseID {
		return nil
	}
	defer s.persist()

	if !multi {
		s.ws.Selected = []string{id}
		s.selectItem(id, schema.ItemCollection, "")
		return nil
	}

	selected := s.activeSelected()
	if len(selected) == 1 && selected[0] == id {
		s.selectItem(id, schema.ItemCollection, "")
		return nil
	}
	if i := slices.Index(s.ws.Selected, id); i >= 0 {
		s.ws.Selected = slices.Delete(s.ws.Selected, i, i+1)
	} else {
		s.ws.Selected = append(s.ws.Selected, id)
	}

	if selected = s.activeSelected(); len(selected) == 1 {
		s.selectItem(selected[0], schema.ItemCollection, "")
	} else {
		s.selectItem("", "", "")
	}
	return nil
}

// activeSelected lists the selected entities of the active database
func (s *Store) activeSelected() []string {
	var out []string
	for _, id := range s.ws.Selected {
		if e := s.ws.Entity(id); e != nil && e.DatabaseID == s.ws.ActiveDatabaseID {
			out = append(out, id)
		}
	}
	return out
}

// SelectedItem resolves the selected entity or field; nil when nothing
// resolvable is selected
func (s *Store) SelectedItem() *Item {
	if s.ws.ItemID == "" {
		return nil
	}
	switch s.ws.ItemType {
	case schema.ItemCollection:
		if e := s.ws.Entity(s.ws.ItemID); e != nil {
			return &Item{Type: schema.ItemCollection, Collection: e.Clone()}
		}
	case schema.ItemField:
		e := s.ws.Entity(s.ws.CollectionID)
		if e == nil {
			return nil
		}
		if loc := schema.Locate(&e.Data.Fields, s.ws.ItemID); loc != nil {
			return &Item{Type: schema.ItemField, Collection: e.Clone(), Field: loc.Field.Clone()}
		}
	}
	return nil
}
