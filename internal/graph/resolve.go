package graph

import (
	"github.com/google/uuid"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/types"
)

// Position is a unit's derived place on the timeline: seconds from the
// project origin and an integer track number.
type Position struct {
	Time  float64 `json:"time"`
	Track int     `json:"track"`
}

// Resolver derives absolute positions by walking anchor chains. It
// holds no state beyond a logger; every call is a pure function of the
// graph it is handed, with no caching across calls.
type Resolver struct {
	log *logger.Logger
}

func NewResolver(log *logger.Logger) *Resolver {
	return &Resolver{log: log.With("component", "Resolver")}
}

// Resolve returns the absolute position of one unit. A unit with no
// anchor, or whose anchor no longer exists, is a root and resolves to
// the origin regardless of its cached screen coordinates.
func (r *Resolver) Resolve(g *Graph, id uuid.UUID) Position {
	memo := make(map[uuid.UUID]Position)
	return r.resolve(g, id, memo)
}

// ResolveAll resolves every unit in the graph, sharing one memo across
// the pass so shared ancestor chains are walked once.
func (r *Resolver) ResolveAll(g *Graph) map[uuid.UUID]Position {
	memo := make(map[uuid.UUID]Position, g.Len())
	for _, u := range g.All() {
		r.resolve(g, u.ID, memo)
	}
	return memo
}

// resolve walks the anchor chain iteratively. The visited set guards
// against cycles that should have been impossible past ValidateAnchor;
// if one is found anyway the unit degrades to the root position so a
// corrupted graph renders wrong instead of taking the editor down.
func (r *Resolver) resolve(g *Graph, id uuid.UUID, memo map[uuid.UUID]Position) Position {
	if p, ok := memo[id]; ok {
		return p
	}
	start, ok := g.Get(id)
	if !ok {
		return Position{}
	}

	// Climb to a root, a memoized ancestor, or a dangling reference,
	// recording the chain so positions fold back down in one pass.
	var (
		chain     []*types.StoryUnit
		parent    *types.StoryUnit
		parentPos Position
		haveBase  bool
	)
	visited := make(map[uuid.UUID]bool)
	cur := start
	for {
		visited[cur.ID] = true
		chain = append(chain, cur)
		if cur.AnchorID == nil {
			break
		}
		anchorID := *cur.AnchorID
		if visited[anchorID] {
			r.log.Warn("cycle detected in anchor chain despite validation, resolving to root position", "unit_id", id, "at", anchorID)
			return Position{}
		}
		next, ok := g.Get(anchorID)
		if !ok {
			// Dangling anchor: cur is treated as a new root.
			break
		}
		if p, ok := memo[anchorID]; ok {
			parent = next
			parentPos = p
			haveBase = true
			break
		}
		cur = next
	}

	for i := len(chain) - 1; i >= 0; i-- {
		u := chain[i]
		var pos Position
		if parent == nil && !haveBase {
			pos = Position{}
			haveBase = true
		} else {
			pos = childPosition(parentPos, parent, u)
		}
		memo[u.ID] = pos
		parent = u
		parentPos = pos
	}
	return memo[id]
}

// childPosition applies the connection-mode law to derive a child's
// position from its parent's. PREPEND and APPEND are track-aligned;
// any stored drift_y is ignored for those modes.
func childPosition(parentPos Position, parent, child *types.StoryUnit) Position {
	switch child.Mode {
	case types.ModePrepend:
		return Position{
			Time:  parentPos.Time - child.Duration() - child.DriftX,
			Track: parentPos.Track,
		}
	case types.ModeAppend:
		return Position{
			Time:  parentPos.Time + parent.Duration() + child.DriftX,
			Track: parentPos.Track,
		}
	default:
		return Position{
			Time:  parentPos.Time + child.DriftX,
			Track: parentPos.Track + 1 + child.DriftY,
		}
	}
}
