package schema

import "slices"

// Location is the result of a field-tree search: the field and the list
// that owns it.
type Location struct {
	Field     *Field
	Container *[]*Field
	Index     int
}

// Locate finds the field with the given id anywhere in the tree
func Locate(fields *[]*Field, id string) *Location {
	if fields == nil || id == "" {
		return nil
	}
	for i, f := range *fields {
		if f == nil {
			continue
		}
		if f.ID == id {
			return &Location{Field: f, Container: fields, Index: i}
		}
		if len(f.Children) > 0 {
			if loc := Locate(&f.Children, id); loc != nil {
				return loc
			}
		}
	}
	return nil
}

// Remove detaches the located field from its container
func (l *Location) Remove() {
	*l.Container = slices.Delete(*l.Container, l.Index, l.Index+1)
}

// FieldExists reports whether the entity's tree contains the field id
func (e *Entity) FieldExists(id string) bool {
	if e == nil {
		return false
	}
	return Locate(&e.Data.Fields, id) != nil
}

// Walk visits every field depth-first in display order
func Walk(fields []*Field, fn func(f *Field, depth int)) {
	walk(fields, 0, fn)
}

func walk(fields []*Field, depth int, fn func(f *Field, depth int)) {
	for _, f := range fields {
		if f == nil {
			continue
		}
		fn(f, depth)
		walk(f.Children, depth+1, fn)
	}
}

// Move reorders a list in place; false when either index is out of range
func Move(list []*Field, from, to int) bool {
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return false
	}
	item := list[from]
	if from < to {
		copy(list[from:to], list[from+1:to+1])
	} else {
		copy(list[to+1:from+1], list[to:from])
	}
	list[to] = item
	return true
}
