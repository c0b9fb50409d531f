package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leeloo90/storygraph-backend/internal/graph"
	"github.com/Leeloo90/storygraph-backend/internal/history"
	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/repos"
	"github.com/Leeloo90/storygraph-backend/internal/sse"
	"github.com/Leeloo90/storygraph-backend/internal/types"
)

// CreateUnitInput describes a new unit placed by the editing layer.
// When AssetID is set, clip bounds are initialized from the asset's
// probed duration.
type CreateUnitInput struct {
	Kind     types.UnitKind    `json:"kind"`
	Subtype  types.UnitSubtype `json:"subtype"`
	Label    string            `json:"label"`
	AssetID  *uuid.UUID        `json:"asset_id,omitempty"`
	IsGlobal bool              `json:"is_global"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
}

// AttachInput describes an attach request. X/Y are the unit's desired
// screen position; when omitted the cached position is used, so
// attaching two already-placed units never causes a visible jump.
type AttachInput struct {
	AnchorID uuid.UUID            `json:"anchor_id"`
	Mode     types.ConnectionMode `json:"mode"`
	X        *float64             `json:"x,omitempty"`
	Y        *float64             `json:"y,omitempty"`
}

// UnitView pairs a unit with its resolved timeline position.
type UnitView struct {
	Unit     *types.StoryUnit `json:"unit"`
	Position graph.Position   `json:"position"`
}

// HistoryState is the undo/redo availability reported to clients.
type HistoryState struct {
	Command string `json:"command,omitempty"`
	Applied bool   `json:"applied"`
	CanUndo bool   `json:"can_undo"`
	CanRedo bool   `json:"can_redo"`
}

// StoryService is the host boundary in front of the anchor-graph
// engine. The engine itself offers no concurrency primitives; this
// service owns one session (graph + command log + mutex) per open
// project and serializes every graph-affecting request before it
// reaches the core. Every accepted command is written through to the
// durable store.
type StoryService interface {
	OpenProject(ctx context.Context, projectID uuid.UUID) error
	CloseProject(projectID uuid.UUID)
	ListUnits(ctx context.Context, projectID uuid.UUID) ([]UnitView, error)
	CreateUnit(ctx context.Context, projectID uuid.UUID, input CreateUnitInput) (*types.StoryUnit, error)
	UpdateUnit(ctx context.Context, projectID, unitID uuid.UUID, patch history.FieldPatch) (*types.StoryUnit, error)
	MoveUnit(ctx context.Context, projectID, unitID uuid.UUID, x, y float64) (*types.StoryUnit, error)
	AttachUnit(ctx context.Context, projectID, unitID uuid.UUID, input AttachInput) (graph.Verdict, *types.StoryUnit, error)
	DetachUnit(ctx context.Context, projectID, unitID uuid.UUID) (*types.StoryUnit, error)
	ParkUnit(ctx context.Context, projectID, unitID uuid.UUID, atticParentID *uuid.UUID) (*types.StoryUnit, error)
	DeleteUnit(ctx context.Context, projectID, unitID uuid.UUID) error
	ResolveUnit(ctx context.Context, projectID, unitID uuid.UUID) (graph.Position, error)
	Undo(ctx context.Context, projectID uuid.UUID) (HistoryState, error)
	Redo(ctx context.Context, projectID uuid.UUID) (HistoryState, error)
}

type session struct {
	mu    sync.Mutex
	graph *graph.Graph
	log   *history.Log
}

type storyService struct {
	db          *gorm.DB
	log         *logger.Logger
	unitRepo    repos.UnitRepo
	projectRepo repos.ProjectRepo
	media       MediaProvider
	hub         *sse.Hub
	resolver    *graph.Resolver

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

func NewStoryService(db *gorm.DB, log *logger.Logger, unitRepo repos.UnitRepo, projectRepo repos.ProjectRepo, media MediaProvider, hub *sse.Hub) StoryService {
	serviceLog := log.With("service", "StoryService")
	return &storyService{
		db:          db,
		log:         serviceLog,
		unitRepo:    unitRepo,
		projectRepo: projectRepo,
		media:       media,
		hub:         hub,
		resolver:    graph.NewResolver(serviceLog),
		sessions:    make(map[uuid.UUID]*session),
	}
}

// OpenProject (re)loads the project's units into a fresh session. This
// is the defined reset point for the command log: opening discards any
// prior history for the project.
func (ss *storyService) OpenProject(ctx context.Context, projectID uuid.UUID) error {
	sess, err := ss.loadSession(ctx, projectID)
	if err != nil {
		return err
	}
	ss.mu.Lock()
	ss.sessions[projectID] = sess
	ss.mu.Unlock()
	ss.log.Info("project opened", "project_id", projectID, "units", sess.graph.Len())
	return nil
}

func (ss *storyService) CloseProject(projectID uuid.UUID) {
	ss.mu.Lock()
	delete(ss.sessions, projectID)
	ss.mu.Unlock()
}

func (ss *storyService) loadSession(ctx context.Context, projectID uuid.UUID) (*session, error) {
	if _, err := ss.projectRepo.GetByID(ctx, nil, projectID); err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	units, err := ss.unitRepo.GetByProject(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("load units for project %s: %w", projectID, err)
	}
	return &session{
		graph: graph.Load(units),
		log:   history.NewLog(ss.log),
	}, nil
}

// session returns the open session for a project, opening one lazily
// on first touch.
func (ss *storyService) session(ctx context.Context, projectID uuid.UUID) (*session, error) {
	ss.mu.Lock()
	sess, ok := ss.sessions[projectID]
	ss.mu.Unlock()
	if ok {
		return sess, nil
	}
	sess, err := ss.loadSession(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ss.mu.Lock()
	if existing, ok := ss.sessions[projectID]; ok {
		sess = existing
	} else {
		ss.sessions[projectID] = sess
	}
	ss.mu.Unlock()
	return sess, nil
}

// persistTouched writes every row a command touched through to the
// store: rows still in the graph are saved, vanished rows are deleted.
func (ss *storyService) persistTouched(ctx context.Context, sess *session, cmd history.Command) error {
	for _, id := range cmd.Touched() {
		if u, ok := sess.graph.Get(id); ok {
			if err := ss.unitRepo.Save(ctx, nil, u.Clone()); err != nil {
				return fmt.Errorf("save unit %s: %w", id, err)
			}
		} else {
			if err := ss.unitRepo.Delete(ctx, nil, id); err != nil {
				return fmt.Errorf("delete unit %s: %w", id, err)
			}
		}
	}
	return nil
}

// execute runs a command through the session log and writes it
// through. A failed write-through rolls the in-memory apply back so
// graph and store never diverge. Callers hold sess.mu.
func (ss *storyService) execute(ctx context.Context, sess *session, projectID uuid.UUID, cmd history.Command, event sse.Event, data any) error {
	if err := sess.log.Execute(sess.graph, cmd); err != nil {
		return err
	}
	if err := ss.persistTouched(ctx, sess, cmd); err != nil {
		if rbErr := sess.log.Rollback(sess.graph); rbErr != nil {
			ss.log.Error("rollback after failed write-through failed", "project_id", projectID, "command", cmd.Name(), "error", rbErr)
		}
		return err
	}
	ss.hub.Broadcast(projectID, event, data)
	return nil
}

func (ss *storyService) ListUnits(ctx context.Context, projectID uuid.UUID) ([]UnitView, error) {
	sess, err := ss.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	positions := ss.resolver.ResolveAll(sess.graph)
	units := sess.graph.All()
	sort.Slice(units, func(i, j int) bool {
		if !units[i].CreatedAt.Equal(units[j].CreatedAt) {
			return units[i].CreatedAt.Before(units[j].CreatedAt)
		}
		return units[i].ID.String() < units[j].ID.String()
	})
	out := make([]UnitView, 0, len(units))
	for _, u := range units {
		out = append(out, UnitView{Unit: u.Clone(), Position: positions[u.ID]})
	}
	return out, nil
}

func (ss *storyService) CreateUnit(ctx context.Context, projectID uuid.UUID, input CreateUnitInput) (*types.StoryUnit, error) {
	sess, err := ss.session(ctx, projectID)
	if err != nil {
		return nil, err
	}

	unit := &types.StoryUnit{
		ID:        uuid.New(),
		ProjectID: projectID,
		AssetID:   input.AssetID,
		Kind:      input.Kind,
		Subtype:   input.Subtype,
		Label:     input.Label,
		IsGlobal:  input.IsGlobal,
		Mode:      types.ModeStack,
		X:         input.X,
		Y:         input.Y,
	}
	if input.AssetID != nil {
		duration, err := ss.media.DurationFor(ctx, *input.AssetID)
		if err != nil {
			return nil, err
		}
		if duration > 0 {
			in, out := 0.0, duration
			unit.ClipIn = &in
			unit.ClipOut = &out
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	cmd := history.NewCreateUnit(unit)
	if err := ss.execute(ctx, sess, projectID, cmd, sse.EventUnitCreated, unit.ID); err != nil {
		return nil, err
	}
	created, _ := sess.graph.Get(unit.ID)
	return created.Clone(), nil
}

func (ss *storyService) UpdateUnit(ctx context.Context, projectID, unitID uuid.UUID, patch history.FieldPatch) (*types.StoryUnit, error) {
	sess, err := ss.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	cmd, err := history.NewUpdateFields(sess.graph, unitID, patch)
	if err != nil {
		return nil, err
	}
	if err := ss.execute(ctx, sess, projectID, cmd, sse.EventUnitUpdated, unitID); err != nil {
		return nil, err
	}
	u, _ := sess.graph.Get(unitID)
	return u.Clone(), nil
}

// MoveUnit handles a drag. For a root unit it just rewrites the cached
// screen position. For an anchored unit the drag is converted into new
// drift against the current anchor, so the unit lands visually where
// it was dropped.
func (ss *storyService) MoveUnit(ctx context.Context, projectID, unitID uuid.UUID, x, y float64) (*types.StoryUnit, error) {
	sess, err := ss.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	u, ok := sess.graph.Get(unitID)
	if !ok {
		return nil, graph.ErrUnitNotFound
	}

	var cmd history.Command
	if u.AnchorID != nil {
		if parent, ok := sess.graph.Get(*u.AnchorID); ok {
			drift := graph.SolveDrift(u.Mode, x-parent.X, y-parent.Y, u.Duration(), parent.Duration())
			attach, err := history.NewAttach(sess.graph, unitID, parent.ID, u.Mode, drift, x, y)
			if err != nil {
				return nil, err
			}
			cmd = attach
		}
	}
	if cmd == nil {
		move, err := history.NewReposition(sess.graph, unitID, x, y)
		if err != nil {
			return nil, err
		}
		cmd = move
	}
	if err := ss.execute(ctx, sess, projectID, cmd, sse.EventUnitUpdated, unitID); err != nil {
		return nil, err
	}
	moved, _ := sess.graph.Get(unitID)
	return moved.Clone(), nil
}

// AttachUnit validates and performs an attachment. A rejected verdict
// is a domain outcome, not an error: the graph and store are left
// untouched and the reason is returned for inline display.
func (ss *storyService) AttachUnit(ctx context.Context, projectID, unitID uuid.UUID, input AttachInput) (graph.Verdict, *types.StoryUnit, error) {
	sess, err := ss.session(ctx, projectID)
	if err != nil {
		return graph.Verdict{}, nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	verdict := graph.ValidateAnchor(sess.graph, unitID, input.AnchorID)
	if !verdict.Accepted {
		ss.log.Debug("attach rejected", "project_id", projectID, "unit_id", unitID, "anchor_id", input.AnchorID, "reason", verdict.Reason)
		return verdict, nil, nil
	}

	child, _ := sess.graph.Get(unitID)
	parent, _ := sess.graph.Get(input.AnchorID)
	mode := input.Mode
	if mode == "" {
		mode = types.ModeStack
	}
	x, y := child.X, child.Y
	if input.X != nil {
		x = *input.X
	}
	if input.Y != nil {
		y = *input.Y
	}
	drift := graph.SolveDrift(mode, x-parent.X, y-parent.Y, child.Duration(), parent.Duration())

	cmd, err := history.NewAttach(sess.graph, unitID, input.AnchorID, mode, drift, x, y)
	if err != nil {
		return graph.Verdict{}, nil, err
	}
	if err := ss.execute(ctx, sess, projectID, cmd, sse.EventUnitUpdated, unitID); err != nil {
		return graph.Verdict{}, nil, err
	}
	attached, _ := sess.graph.Get(unitID)
	return verdict, attached.Clone(), nil
}

func (ss *storyService) DetachUnit(ctx context.Context, projectID, unitID uuid.UUID) (*types.StoryUnit, error) {
	sess, err := ss.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	cmd, err := history.NewDetach(sess.graph, unitID)
	if err != nil {
		return nil, err
	}
	if err := ss.execute(ctx, sess, projectID, cmd, sse.EventUnitUpdated, unitID); err != nil {
		return nil, err
	}
	u, _ := sess.graph.Get(unitID)
	return u.Clone(), nil
}

func (ss *storyService) ParkUnit(ctx context.Context, projectID, unitID uuid.UUID, atticParentID *uuid.UUID) (*types.StoryUnit, error) {
	sess, err := ss.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if atticParentID != nil && !sess.graph.Has(*atticParentID) {
		return nil, graph.ErrUnitNotFound
	}
	cmd, err := history.NewPark(sess.graph, unitID, atticParentID)
	if err != nil {
		return nil, err
	}
	if err := ss.execute(ctx, sess, projectID, cmd, sse.EventUnitUpdated, unitID); err != nil {
		return nil, err
	}
	u, _ := sess.graph.Get(unitID)
	return u.Clone(), nil
}

func (ss *storyService) DeleteUnit(ctx context.Context, projectID, unitID uuid.UUID) error {
	sess, err := ss.session(ctx, projectID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	cmd, err := history.NewDeleteUnit(sess.graph, unitID)
	if err != nil {
		return err
	}
	return ss.execute(ctx, sess, projectID, cmd, sse.EventUnitDeleted, unitID)
}

func (ss *storyService) ResolveUnit(ctx context.Context, projectID, unitID uuid.UUID) (graph.Position, error) {
	sess, err := ss.session(ctx, projectID)
	if err != nil {
		return graph.Position{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.graph.Has(unitID) {
		return graph.Position{}, graph.ErrUnitNotFound
	}
	return ss.resolver.Resolve(sess.graph, unitID), nil
}

func (ss *storyService) Undo(ctx context.Context, projectID uuid.UUID) (HistoryState, error) {
	sess, err := ss.session(ctx, projectID)
	if err != nil {
		return HistoryState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	cmd, ok, err := sess.log.Undo(sess.graph)
	if err != nil {
		return HistoryState{}, err
	}
	state := HistoryState{Applied: ok, CanUndo: sess.log.CanUndo(), CanRedo: sess.log.CanRedo()}
	if !ok {
		return state, nil
	}
	state.Command = cmd.Name()
	if err := ss.persistTouched(ctx, sess, cmd); err != nil {
		if _, _, redoErr := sess.log.Redo(sess.graph); redoErr != nil {
			ss.log.Error("re-apply after failed undo write-through failed", "project_id", projectID, "error", redoErr)
		}
		return HistoryState{}, err
	}
	ss.hub.Broadcast(projectID, sse.EventHistoryChanged, state)
	return state, nil
}

func (ss *storyService) Redo(ctx context.Context, projectID uuid.UUID) (HistoryState, error) {
	sess, err := ss.session(ctx, projectID)
	if err != nil {
		return HistoryState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	cmd, ok, err := sess.log.Redo(sess.graph)
	if err != nil {
		return HistoryState{}, err
	}
	state := HistoryState{Applied: ok, CanUndo: sess.log.CanUndo(), CanRedo: sess.log.CanRedo()}
	if !ok {
		return state, nil
	}
	state.Command = cmd.Name()
	if err := ss.persistTouched(ctx, sess, cmd); err != nil {
		if _, _, undoErr := sess.log.Undo(sess.graph); undoErr != nil {
			ss.log.Error("re-invert after failed redo write-through failed", "project_id", projectID, "error", undoErr)
		}
		return HistoryState{}, err
	}
	ss.hub.Broadcast(projectID, sse.EventHistoryChanged, state)
	return state, nil
}
