package history

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Leeloo90/storygraph-backend/internal/graph"
	"github.com/Leeloo90/storygraph-backend/internal/types"
)

// CreateUnit adds a new unit to the graph. The snapshot keeps the unit
// exactly as created so a redo after undo reproduces it byte-for-byte.
type CreateUnit struct {
	unit *types.StoryUnit
}

func NewCreateUnit(u *types.StoryUnit) *CreateUnit {
	return &CreateUnit{unit: u.Clone()}
}

func (c *CreateUnit) Name() string { return "create_unit" }

func (c *CreateUnit) Apply(g *graph.Graph) error {
	return g.Add(c.unit.Clone())
}

func (c *CreateUnit) Invert(g *graph.Graph) error {
	_, err := g.Remove(c.unit.ID)
	return err
}

func (c *CreateUnit) Touched() []uuid.UUID {
	return []uuid.UUID{c.unit.ID}
}

// DeleteUnit removes a unit. Its inverse re-creates the unit from the
// full snapshot taken at construction. Units anchored to the deleted
// unit are not touched; their dangling references make them roots.
type DeleteUnit struct {
	snapshot *types.StoryUnit
}

func NewDeleteUnit(g *graph.Graph, id uuid.UUID) (*DeleteUnit, error) {
	u, ok := g.Get(id)
	if !ok {
		return nil, graph.ErrUnitNotFound
	}
	return &DeleteUnit{snapshot: u.Clone()}, nil
}

func (c *DeleteUnit) Name() string { return "delete_unit" }

func (c *DeleteUnit) Apply(g *graph.Graph) error {
	_, err := g.Remove(c.snapshot.ID)
	return err
}

func (c *DeleteUnit) Invert(g *graph.Graph) error {
	return g.Add(c.snapshot.Clone())
}

func (c *DeleteUnit) Touched() []uuid.UUID {
	return []uuid.UUID{c.snapshot.ID}
}

// FieldPatch carries the editable scalar fields of a unit. Nil fields
// are left untouched by UpdateFields.
type FieldPatch struct {
	Kind          *types.UnitKind    `json:"kind,omitempty"`
	Subtype       *types.UnitSubtype `json:"subtype,omitempty"`
	Label         *string            `json:"label,omitempty"`
	IsGlobal      *bool              `json:"is_global,omitempty"`
	ClipIn        *float64           `json:"clip_in,omitempty"`
	ClipOut       *float64           `json:"clip_out,omitempty"`
	InternalState datatypes.JSONMap  `json:"internal_state,omitempty"`
}

// UpdateFields applies a FieldPatch; its inverse restores only the
// fields the patch set, from the snapshot taken at construction.
type UpdateFields struct {
	id    uuid.UUID
	patch FieldPatch
	prev  *types.StoryUnit
}

func NewUpdateFields(g *graph.Graph, id uuid.UUID, patch FieldPatch) (*UpdateFields, error) {
	u, ok := g.Get(id)
	if !ok {
		return nil, graph.ErrUnitNotFound
	}
	return &UpdateFields{id: id, patch: patch, prev: u.Clone()}, nil
}

func (c *UpdateFields) Name() string { return "update_fields" }

func (c *UpdateFields) Apply(g *graph.Graph) error {
	u, ok := g.Get(c.id)
	if !ok {
		return graph.ErrUnitNotFound
	}
	if c.patch.Kind != nil {
		u.Kind = *c.patch.Kind
	}
	if c.patch.Subtype != nil {
		u.Subtype = *c.patch.Subtype
	}
	if c.patch.Label != nil {
		u.Label = *c.patch.Label
	}
	if c.patch.IsGlobal != nil {
		u.IsGlobal = *c.patch.IsGlobal
	}
	if c.patch.ClipIn != nil {
		v := *c.patch.ClipIn
		u.ClipIn = &v
	}
	if c.patch.ClipOut != nil {
		v := *c.patch.ClipOut
		u.ClipOut = &v
	}
	if c.patch.InternalState != nil {
		u.InternalState = c.patch.InternalState
	}
	return nil
}

func (c *UpdateFields) Invert(g *graph.Graph) error {
	u, ok := g.Get(c.id)
	if !ok {
		return graph.ErrUnitNotFound
	}
	if c.patch.Kind != nil {
		u.Kind = c.prev.Kind
	}
	if c.patch.Subtype != nil {
		u.Subtype = c.prev.Subtype
	}
	if c.patch.Label != nil {
		u.Label = c.prev.Label
	}
	if c.patch.IsGlobal != nil {
		u.IsGlobal = c.prev.IsGlobal
	}
	if c.patch.ClipIn != nil {
		u.ClipIn = c.prev.Clone().ClipIn
	}
	if c.patch.ClipOut != nil {
		u.ClipOut = c.prev.Clone().ClipOut
	}
	if c.patch.InternalState != nil {
		u.InternalState = c.prev.Clone().InternalState
	}
	return nil
}

func (c *UpdateFields) Touched() []uuid.UUID {
	return []uuid.UUID{c.id}
}

// Reposition updates the cached screen coordinates of a root unit.
type Reposition struct {
	id           uuid.UUID
	prevX, prevY float64
	x, y         float64
}

func NewReposition(g *graph.Graph, id uuid.UUID, x, y float64) (*Reposition, error) {
	u, ok := g.Get(id)
	if !ok {
		return nil, graph.ErrUnitNotFound
	}
	return &Reposition{id: id, prevX: u.X, prevY: u.Y, x: x, y: y}, nil
}

func (c *Reposition) Name() string { return "reposition" }

func (c *Reposition) Apply(g *graph.Graph) error {
	u, ok := g.Get(c.id)
	if !ok {
		return graph.ErrUnitNotFound
	}
	u.X, u.Y = c.x, c.y
	return nil
}

func (c *Reposition) Invert(g *graph.Graph) error {
	u, ok := g.Get(c.id)
	if !ok {
		return graph.ErrUnitNotFound
	}
	u.X, u.Y = c.prevX, c.prevY
	return nil
}

func (c *Reposition) Touched() []uuid.UUID {
	return []uuid.UUID{c.id}
}

// anchorState is the snapshot of every placement field an attach or
// detach touches.
type anchorState struct {
	anchorID *uuid.UUID
	mode     types.ConnectionMode
	driftX   float64
	driftY   int
	atticID  *uuid.UUID
	isGlobal bool
	x, y     float64
}

func captureAnchorState(u *types.StoryUnit) anchorState {
	s := anchorState{
		mode:     u.Mode,
		driftX:   u.DriftX,
		driftY:   u.DriftY,
		isGlobal: u.IsGlobal,
		x:        u.X,
		y:        u.Y,
	}
	if u.AnchorID != nil {
		v := *u.AnchorID
		s.anchorID = &v
	}
	if u.AtticParentID != nil {
		v := *u.AtticParentID
		s.atticID = &v
	}
	return s
}

func restoreAnchorState(g *graph.Graph, id uuid.UUID, s anchorState) error {
	if err := g.SetAnchor(id, s.anchorID, s.mode, s.driftX, s.driftY); err != nil {
		return err
	}
	u, _ := g.Get(id)
	u.AtticParentID = s.atticID
	u.IsGlobal = s.isGlobal
	u.X, u.Y = s.x, s.y
	return nil
}

// Attach anchors a unit to another with a mode and solved drift.
// Attaching clears attic parking and pulls the unit out of the bucket;
// the cached screen position is updated so the canvas does not jump.
type Attach struct {
	id       uuid.UUID
	anchorID uuid.UUID
	mode     types.ConnectionMode
	drift    graph.Drift
	x, y     float64
	prev     anchorState
}

func NewAttach(g *graph.Graph, id, anchorID uuid.UUID, mode types.ConnectionMode, drift graph.Drift, x, y float64) (*Attach, error) {
	u, ok := g.Get(id)
	if !ok {
		return nil, graph.ErrUnitNotFound
	}
	return &Attach{
		id:       id,
		anchorID: anchorID,
		mode:     mode,
		drift:    drift,
		x:        x,
		y:        y,
		prev:     captureAnchorState(u),
	}, nil
}

func (c *Attach) Name() string { return "attach" }

func (c *Attach) Apply(g *graph.Graph) error {
	anchorID := c.anchorID
	if err := g.SetAnchor(c.id, &anchorID, c.mode, c.drift.X, c.drift.Y); err != nil {
		return err
	}
	u, _ := g.Get(c.id)
	u.AtticParentID = nil
	u.IsGlobal = false
	u.X, u.Y = c.x, c.y
	return nil
}

func (c *Attach) Invert(g *graph.Graph) error {
	return restoreAnchorState(g, c.id, c.prev)
}

func (c *Attach) Touched() []uuid.UUID {
	return []uuid.UUID{c.id}
}

// Detach clears a unit's anchor, resets its mode to STACK and zeroes
// its drift.
type Detach struct {
	id   uuid.UUID
	prev anchorState
}

func NewDetach(g *graph.Graph, id uuid.UUID) (*Detach, error) {
	u, ok := g.Get(id)
	if !ok {
		return nil, graph.ErrUnitNotFound
	}
	return &Detach{id: id, prev: captureAnchorState(u)}, nil
}

func (c *Detach) Name() string { return "detach" }

func (c *Detach) Apply(g *graph.Graph) error {
	return g.SetAnchor(c.id, nil, types.ModeStack, 0, 0)
}

func (c *Detach) Invert(g *graph.Graph) error {
	return restoreAnchorState(g, c.id, c.prev)
}

func (c *Detach) Touched() []uuid.UUID {
	return []uuid.UUID{c.id}
}

// Park places a unit in (or removes it from) the attic above another
// unit. Parking and anchoring are mutually exclusive, so parking also
// clears any anchor in the same command.
type Park struct {
	id      uuid.UUID
	atticID *uuid.UUID
	prev    anchorState
}

func NewPark(g *graph.Graph, id uuid.UUID, atticID *uuid.UUID) (*Park, error) {
	u, ok := g.Get(id)
	if !ok {
		return nil, graph.ErrUnitNotFound
	}
	var copied *uuid.UUID
	if atticID != nil {
		v := *atticID
		copied = &v
	}
	return &Park{id: id, atticID: copied, prev: captureAnchorState(u)}, nil
}

func (c *Park) Name() string { return "park" }

func (c *Park) Apply(g *graph.Graph) error {
	if c.atticID != nil {
		if err := g.SetAnchor(c.id, nil, types.ModeStack, 0, 0); err != nil {
			return err
		}
	}
	u, ok := g.Get(c.id)
	if !ok {
		return graph.ErrUnitNotFound
	}
	u.AtticParentID = c.atticID
	return nil
}

func (c *Park) Invert(g *graph.Graph) error {
	return restoreAnchorState(g, c.id, c.prev)
}

func (c *Park) Touched() []uuid.UUID {
	return []uuid.UUID{c.id}
}
