package store

import (
	"context"
	"fmt"

	"github.com/tordrt/schemagen/internal/generator"
	"github.com/tordrt/schemagen/internal/relation"
	"github.com/tordrt/schemagen/internal/schema"
)

// Scope selects the entities a generation emits. The zero Scope is the
// whole active database.
type Scope struct {
	// EntityID emits one entity, resolved against its own database
	EntityID string
	// EntityIDs emits a set of active-database entities in display order
	EntityIDs []string
}

// ScopeEntity emits a single entity
func ScopeEntity(id string) Scope { return Scope{EntityID: id} }

// ScopeEntities emits an explicit set of entities
func ScopeEntities(ids ...string) Scope {
	return Scope{EntityIDs: append([]string{}, ids...)}
}

// request builds the generator input for a scope. Relations resolve against
// every entity of the scope's database, so a partial scope keeps references
// to entities it does not emit.
func (s *Store) request(scope Scope, opts generator.Options) generator.Request {
	dbID := s.ws.ActiveDatabaseID
	if scope.EntityID != "" {
		if e := s.ws.Entity(scope.EntityID); e != nil {
			dbID = e.DatabaseID
		}
	}
	var all []*schema.Entity
	for _, e := range s.ws.EntitiesIn(dbID) {
		all = append(all, e.Clone())
	}

	var want map[string]bool
	switch {
	case scope.EntityID != "":
		want = map[string]bool{scope.EntityID: true}
	case scope.EntityIDs != nil:
		want = make(map[string]bool, len(scope.EntityIDs))
		for _, id := range scope.EntityIDs {
			want[id] = true
		}
	}
	entities := make([]*schema.Entity, 0, len(all))
	for _, e := range all {
		if want == nil || want[e.ID] {
			entities = append(entities, e)
		}
	}

	return generator.Request{
		Family:   s.adapter.Family(),
		Entities: entities,
		Catalog:  relation.NewCatalog(all),
		Options:  opts,
	}
}

// Generate renders the scope for target with the store's generator options.
// An empty scope yields "".
func (s *Store) Generate(target generator.Target, scope Scope) (string, error) {
	return s.GenerateWith(target, scope, s.genOpts)
}

// GenerateWith renders the scope for target with explicit options
func (s *Store) GenerateWith(target generator.Target, scope Scope, opts generator.Options) (string, error) {
	return s.adapter.Generate(target, s.request(scope, opts))
}

// WriteFiles renders the scope as one file per entity plus an overview into dir
func (s *Store) WriteFiles(ctx context.Context, dir string, target generator.Target, scope Scope) ([]string, error) {
	if !s.adapter.Supports(target) {
		return nil, fmt.Errorf("target %s is not supported for %s", target, s.adapter.Family())
	}
	w := generator.NewMultiFileWriter(dir, target)
	return w.Write(ctx, s.request(scope, s.genOpts))
}
