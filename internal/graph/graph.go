// Package graph implements the in-memory anchor forest for a story
// project: the unit store, attach validation, position resolution and
// the drag-to-drift conversion.
package graph

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Leeloo90/storygraph-backend/internal/types"
)

var (
	// ErrUnitExists is returned by Add when a unit with the same ID is
	// already present.
	ErrUnitExists = errors.New("unit already exists in graph")

	// ErrUnitNotFound is returned when an operation references a unit
	// that is not in the graph.
	ErrUnitNotFound = errors.New("unit not found in graph")
)

// Graph is the canonical in-memory view of one project's units. The
// anchor relation (restricted to non-nil anchor IDs) forms a forest; a
// child index keyed by anchor ID is kept in sync on every mutation so
// parent->children lookups do not scan.
//
// Graph is not safe for concurrent use; the host serializes access.
type Graph struct {
	units    map[uuid.UUID]*types.StoryUnit
	children map[uuid.UUID]map[uuid.UUID]bool

	semanticRules []SemanticRule
}

func New() *Graph {
	return &Graph{
		units:    make(map[uuid.UUID]*types.StoryUnit),
		children: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// Load builds a graph from stored rows. Dangling anchor references are
// kept as-is; the resolver treats them as roots.
func Load(units []*types.StoryUnit) *Graph {
	g := New()
	for _, u := range units {
		g.units[u.ID] = u
		g.index(u)
	}
	return g
}

func (g *Graph) index(u *types.StoryUnit) {
	if u.AnchorID == nil {
		return
	}
	kids, ok := g.children[*u.AnchorID]
	if !ok {
		kids = make(map[uuid.UUID]bool)
		g.children[*u.AnchorID] = kids
	}
	kids[u.ID] = true
}

func (g *Graph) unindex(u *types.StoryUnit) {
	if u.AnchorID == nil {
		return
	}
	if kids, ok := g.children[*u.AnchorID]; ok {
		delete(kids, u.ID)
		if len(kids) == 0 {
			delete(g.children, *u.AnchorID)
		}
	}
}

func (g *Graph) Add(u *types.StoryUnit) error {
	if _, exists := g.units[u.ID]; exists {
		return ErrUnitExists
	}
	g.units[u.ID] = u
	g.index(u)
	return nil
}

// Remove deletes a unit and returns it. Units anchored to it are left
// untouched: their references dangle and they resolve as new roots.
func (g *Graph) Remove(id uuid.UUID) (*types.StoryUnit, error) {
	u, ok := g.units[id]
	if !ok {
		return nil, ErrUnitNotFound
	}
	g.unindex(u)
	delete(g.units, id)
	return u, nil
}

func (g *Graph) Get(id uuid.UUID) (*types.StoryUnit, bool) {
	u, ok := g.units[id]
	return u, ok
}

func (g *Graph) Has(id uuid.UUID) bool {
	_, ok := g.units[id]
	return ok
}

func (g *Graph) Len() int {
	return len(g.units)
}

func (g *Graph) All() []*types.StoryUnit {
	out := make([]*types.StoryUnit, 0, len(g.units))
	for _, u := range g.units {
		out = append(out, u)
	}
	return out
}

// SetAnchor rewrites a unit's anchor relationship and keeps the child
// index in sync. It performs no validation; callers gate the mutation
// through ValidateAnchor first.
func (g *Graph) SetAnchor(id uuid.UUID, anchorID *uuid.UUID, mode types.ConnectionMode, driftX float64, driftY int) error {
	u, ok := g.units[id]
	if !ok {
		return ErrUnitNotFound
	}
	g.unindex(u)
	if anchorID == nil {
		u.AnchorID = nil
	} else {
		v := *anchorID
		u.AnchorID = &v
	}
	u.Mode = mode
	u.DriftX = driftX
	u.DriftY = driftY
	g.index(u)
	return nil
}

// Children returns the IDs of units anchored directly to the given unit.
func (g *Graph) Children(id uuid.UUID) []uuid.UUID {
	kids, ok := g.children[id]
	if !ok {
		return nil
	}
	out := make([]uuid.UUID, 0, len(kids))
	for kid := range kids {
		out = append(out, kid)
	}
	return out
}

// Descendants walks the child index breadth-first. Unit counts stay in
// the low thousands, so the walk is cheap enough without further
// indexing.
func (g *Graph) Descendants(id uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	seen := map[uuid.UUID]bool{id: true}
	queue := g.Children(id)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		queue = append(queue, g.Children(cur)...)
	}
	return out
}
