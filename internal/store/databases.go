package store

import (
	"slices"
	"strings"

	"github.com/tordrt/schemagen/internal/schema"
)

const defaultNewDatabaseName = "New Database"

// ActiveDatabase returns a copy of the active database
func (s *Store) ActiveDatabase() *schema.Database {
	db := s.ws.Database(s.ws.ActiveDatabaseID)
	if db == nil {
		return nil
	}
	out := *db
	return &out
}

// Databases returns a copy of every database
func (s *Store) Databases() []schema.Database {
	return slices.Clone(s.ws.Databases)
}

// AddDatabase creates a database, makes it active and returns its id
func (s *Store) AddDatabase(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultNewDatabaseName
	}
	s.record("add_database")
	id := s.id("db")
	s.ws.Databases = append(s.ws.Databases, schema.Database{ID: id, Name: name})
	s.ws.ActiveDatabaseID = id
	s.ws.Selection = schema.Selection{}
	s.commit()
	return id
}

// SetActiveDatabase switches the active database, pruning its edges.
// Switching is not recorded in history.
func (s *Store) SetActiveDatabase(id string) error {
	if s.ws.Database(id) == nil {
		return ErrNotFound
	}
	s.ws.ActiveDatabaseID = id
	s.ws.PruneEdges(id)
	s.ws.Selection = schema.Selection{}
	s.commit()
	return nil
}

// UpdateDatabaseName renames a database; a blank name keeps the old one
func (s *Store) UpdateDatabaseName(id, name string) error {
	db := s.ws.Database(id)
	if db == nil {
		return ErrNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" || name == db.Name {
		return nil
	}
	s.record("update_database_name")
	db.Name = name
	s.commit()
	return nil
}

// RemoveDatabase deletes a database with its entities and edges
func (s *Store) RemoveDatabase(id string) Result {
	if len(s.ws.Databases) <= 1 {
		return Result{Message: "At least one database is required."}
	}
	if s.ws.Database(id) == nil {
		return Result{Message: "Database not found."}
	}

	s.record("remove_database")
	s.ws.Databases = slices.DeleteFunc(s.ws.Databases, func(db schema.Database) bool { return db.ID == id })
	s.ws.Collections = slices.DeleteFunc(s.ws.Collections, func(e *schema.Entity) bool { return e.DatabaseID == id })
	s.ws.Edges = slices.DeleteFunc(s.ws.Edges, func(e schema.Edge) bool { return e.DatabaseID == id })
	s.ws.PruneEdges("")
	if s.ws.ActiveDatabaseID == id {
		s.ws.ActiveDatabaseID = s.ws.Databases[0].ID
	}
	if s.ws.Clipboard != nil && s.ws.Clipboard.DatabaseID == id {
		s.ws.Clipboard.DatabaseID = ""
	}
	s.ws.Selection = schema.Selection{}
	s.commit()
	return Result{Success: true}
}
