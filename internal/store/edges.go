package store

import (
	"slices"

	"github.com/tordrt/schemagen/internal/schema"
)

// ActiveEdges returns copies of the active database's edges
func (s *Store) ActiveEdges() []schema.Edge {
	var out []schema.Edge
	for _, e := range s.ws.EdgesIn(s.ws.ActiveDatabaseID) {
		out = append(out, e.Clone())
	}
	return out
}

// AddEdge stores a validated copy of edge and returns its id. A missing
// database id is taken from the source entity.
func (s *Store) AddEdge(edge schema.Edge) (string, error) {
	edge = edge.Clone()
	if edge.ID == "" {
		edge.ID = s.id("e")
	}
	if edge.DatabaseID == "" {
		if source := s.ws.Entity(edge.Source); source != nil {
			edge.DatabaseID = source.DatabaseID
		}
	}
	if !s.ws.ValidEdge(edge) {
		return "", ErrInvalidEdge
	}
	if slices.ContainsFunc(s.ws.Edges, func(e schema.Edge) bool { return e.ID == edge.ID }) {
		return "", ErrInvalidEdge
	}

	s.record("add_edge")
	s.ws.Edges = append(s.ws.Edges, edge)
	s.commit()
	return edge.ID, nil
}

// RemoveEdge deletes an edge
func (s *Store) RemoveEdge(id string) error {
	i := slices.IndexFunc(s.ws.Edges, func(e schema.Edge) bool { return e.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	s.record("remove_edge")
	s.ws.Edges = slices.Delete(s.ws.Edges, i, i+1)
	if s.ws.ItemID == id {
		s.selectItem("", "", "")
	}
	s.commit()
	return nil
}
