package history

import (
	"errors"

	"github.com/Leeloo90/storygraph-backend/internal/graph"
	"github.com/Leeloo90/storygraph-backend/internal/logger"
)

// ErrNoGraph is returned when the log is driven without a graph. That
// is a caller bug, not a user action.
var ErrNoGraph = errors.New("command log has no graph to operate on")

// Log is one project's undo/redo state. It is owned by a single editor
// session and reset when the session starts; logs are never shared
// across projects. Like the graph it mutates, it is not safe for
// concurrent use.
type Log struct {
	history []Command
	redo    []Command
	// cleared holds the redo stack the most recent Execute invalidated,
	// so a Rollback of that command can bring it back. Any other
	// operation discards it.
	cleared []Command
	log     *logger.Logger
}

func NewLog(log *logger.Logger) *Log {
	return &Log{log: log.With("component", "CommandLog")}
}

// Execute applies a command and records it. Any newly executed command
// invalidates forward history: the redo stack is cleared. On apply
// error nothing is recorded and the graph is unmodified.
func (l *Log) Execute(g *graph.Graph, cmd Command) error {
	if g == nil {
		return ErrNoGraph
	}
	if err := cmd.Apply(g); err != nil {
		return err
	}
	l.history = append(l.history, cmd)
	l.cleared = l.redo
	l.redo = nil
	l.log.Debug("command executed", "command", cmd.Name(), "history_len", len(l.history))
	return nil
}

// Undo inverts the most recent command and moves it to the redo stack.
// An empty history is a no-op, reported via the bool.
func (l *Log) Undo(g *graph.Graph) (Command, bool, error) {
	if g == nil {
		return nil, false, ErrNoGraph
	}
	if len(l.history) == 0 {
		return nil, false, nil
	}
	cmd := l.history[len(l.history)-1]
	if err := cmd.Invert(g); err != nil {
		return nil, false, err
	}
	l.history = l.history[:len(l.history)-1]
	l.redo = append(l.redo, cmd)
	l.cleared = nil
	l.log.Debug("command undone", "command", cmd.Name(), "redo_len", len(l.redo))
	return cmd, true, nil
}

// Redo re-applies the most recently undone command. An empty redo
// stack is a no-op.
func (l *Log) Redo(g *graph.Graph) (Command, bool, error) {
	if g == nil {
		return nil, false, ErrNoGraph
	}
	if len(l.redo) == 0 {
		return nil, false, nil
	}
	cmd := l.redo[len(l.redo)-1]
	if err := cmd.Apply(g); err != nil {
		return nil, false, err
	}
	l.redo = l.redo[:len(l.redo)-1]
	l.history = append(l.history, cmd)
	l.cleared = nil
	l.log.Debug("command redone", "command", cmd.Name(), "history_len", len(l.history))
	return cmd, true, nil
}

// Rollback inverts and discards the most recent command without
// pushing it onto the redo stack. The service uses it when a durable
// write fails after an in-memory apply, so store and graph stay in
// step. The redo stack that command cleared is restored: a command
// that never stuck did not invalidate the user's forward history.
func (l *Log) Rollback(g *graph.Graph) error {
	if len(l.history) == 0 {
		return nil
	}
	cmd := l.history[len(l.history)-1]
	l.history = l.history[:len(l.history)-1]
	l.redo = l.cleared
	l.cleared = nil
	return cmd.Invert(g)
}

func (l *Log) CanUndo() bool { return len(l.history) > 0 }

func (l *Log) CanRedo() bool { return len(l.redo) > 0 }

func (l *Log) HistoryLen() int { return len(l.history) }

func (l *Log) RedoLen() int { return len(l.redo) }

// Reset drops both stacks. Called at session start.
func (l *Log) Reset() {
	l.history = nil
	l.redo = nil
	l.cleared = nil
}
