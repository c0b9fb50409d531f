package graph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Leeloo90/storygraph-backend/internal/types"
)

// Verdict is the structured outcome of an attach validation. Domain
// rejections are ordinary values, never errors; callers branch on
// Accepted and surface Reason to the user.
type Verdict struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func Accept() Verdict {
	return Verdict{Accepted: true}
}

func Reject(reason string) Verdict {
	return Verdict{Accepted: false, Reason: reason}
}

// SemanticRule is a hook for future attach constraints beyond topology
// (subtype compatibility and the like). Rules run only after the
// topological checks pass.
type SemanticRule func(child, parent *types.StoryUnit) Verdict

// AddSemanticRule registers an additional attach constraint.
func (g *Graph) AddSemanticRule(rule SemanticRule) {
	g.semanticRules = append(g.semanticRules, rule)
}

// ValidateAnchor decides whether childID may anchor to parentID. It is
// the single gate in front of every mutation that sets an anchor.
//
// Checks, in order: self-reference, existence of both units, then an
// iterative walk up the proposed parent's anchor chain with a visited
// set. Meeting the child during that walk means the attachment would
// make the child an ancestor of its own anchor; meeting any unit twice
// means the chain is already corrupt and the walk stops rather than
// loop.
func ValidateAnchor(g *Graph, childID, parentID uuid.UUID) Verdict {
	if childID == parentID {
		return Reject("a unit cannot be anchored to itself")
	}
	child, ok := g.Get(childID)
	if !ok {
		return Reject(fmt.Sprintf("unit %s does not exist", childID))
	}
	parent, ok := g.Get(parentID)
	if !ok {
		return Reject(fmt.Sprintf("anchor target %s does not exist", parentID))
	}

	visited := map[uuid.UUID]bool{parentID: true}
	cur := parent
	for cur.AnchorID != nil {
		next := *cur.AnchorID
		if next == childID {
			return Reject("attachment would create a cycle in the anchor chain")
		}
		if visited[next] {
			return Reject("anchor chain is already cyclic; refusing to extend it")
		}
		visited[next] = true
		nu, ok := g.Get(next)
		if !ok {
			// Dangling reference: the chain ends here.
			break
		}
		cur = nu
	}

	for _, rule := range g.semanticRules {
		if v := rule(child, parent); !v.Accepted {
			return v
		}
	}
	return Accept()
}
