package store

import (
	"strings"

	"github.com/tordrt/schemagen/internal/schema"
)

func (s *Store) locate(collectionID, fieldID string) (*schema.Entity, *schema.Location, error) {
	e := s.ws.Entity(collectionID)
	if e == nil {
		return nil, nil, ErrNotFound
	}
	loc := schema.Locate(&e.Data.Fields, fieldID)
	if loc == nil {
		return e, nil, ErrNotFound
	}
	return e, loc, nil
}

// prepareField copies f, filling in a missing id and type
func (s *Store) prepareField(f *schema.Field) *schema.Field {
	f = f.Clone()
	if f.ID == "" {
		f.ID = s.id("f")
	}
	if strings.TrimSpace(f.Type) == "" {
		f.Type = s.adapter.DefaultNewFieldType()
	}
	schema.Walk(f.Children, func(child *schema.Field, _ int) {
		if child.ID == "" {
			child.ID = s.id("f")
		}
	})
	return f
}

// AddField appends a copy of f to an entity and returns its id
func (s *Store) AddField(collectionID string, f *schema.Field) (string, error) {
	e := s.ws.Entity(collectionID)
	if e == nil {
		return "", ErrNotFound
	}
	f = s.prepareField(f)
	s.record("add_field")
	e.Data.Fields = append(e.Data.Fields, f)
	s.commit()
	return f.ID, nil
}

// AddChildField appends a copy of f to the children of a nested field
func (s *Store) AddChildField(collectionID, parentID string, f *schema.Field) (string, error) {
	_, loc, err := s.locate(collectionID, parentID)
	if err != nil {
		return "", err
	}
	f = s.prepareField(f)
	s.record("add_child_field")
	loc.Field.Children = append(loc.Field.Children, f)
	s.commit()
	return f.ID, nil
}

// UpdateFieldProps merges props into a field by JSON key. The field id
// cannot be changed.
func (s *Store) UpdateFieldProps(collectionID, fieldID string, props map[string]any) error {
	e, loc, err := s.locate(collectionID, fieldID)
	if err != nil {
		return err
	}
	f, err := merged(loc.Field, props)
	if err != nil {
		return err
	}
	f.ID = loc.Field.ID

	s.record("update_field")
	(*loc.Container)[loc.Index] = f
	s.ws.PruneEdges(e.DatabaseID)
	s.commit()
	return nil
}

// RemoveField deletes a field, wherever it is nested, and prunes the edges
// that pointed at it or its children
func (s *Store) RemoveField(collectionID, fieldID string) error {
	e, loc, err := s.locate(collectionID, fieldID)
	if err != nil {
		return err
	}
	s.record("remove_field")
	loc.Remove()
	s.ws.PruneEdges(e.DatabaseID)
	if s.ws.ItemID == fieldID {
		s.selectItem("", "", "")
	}
	s.commit()
	return nil
}

// ReorderField moves a field within its list. With a parent id the parent's
// children are reordered.
func (s *Store) ReorderField(collectionID, parentID string, from, to int) error {
	e := s.ws.Entity(collectionID)
	if e == nil {
		return ErrNotFound
	}
	list := e.Data.Fields
	if parentID != "" {
		loc := schema.Locate(&e.Data.Fields, parentID)
		if loc == nil || len(loc.Field.Children) == 0 {
			return ErrNotFound
		}
		list = loc.Field.Children
	}
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return ErrOutOfRange
	}
	if from == to {
		return nil
	}
	s.record("reorder_field")
	schema.Move(list, from, to)
	s.commit()
	return nil
}
