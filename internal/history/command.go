// Package history wraps every graph mutation in a reversible command
// and keeps per-project undo/redo stacks.
package history

import (
	"github.com/google/uuid"

	"github.com/Leeloo90/storygraph-backend/internal/graph"
)

// Command is one reversible unit of work against a project graph.
// Constructors capture the pre-mutation values of every field the
// command touches, so Invert is a pure write-back of that snapshot and
// stays correct even when intervening state would make recomputation
// ambiguous.
type Command interface {
	// Name identifies the command for logging and client display.
	Name() string
	// Apply performs the mutation. An error means a precondition was
	// violated and the graph was left unmodified.
	Apply(g *graph.Graph) error
	// Invert restores the captured pre-mutation state.
	Invert(g *graph.Graph) error
	// Touched lists the unit IDs whose rows must be written through to
	// the durable store after Apply or Invert.
	Touched() []uuid.UUID
}
