package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leeloo90/storygraph-backend/internal/graph"
	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/sse"
	"github.com/Leeloo90/storygraph-backend/internal/types"
)

type fakeUnitRepo struct {
	rows     map[uuid.UUID]*types.StoryUnit
	saves    int
	failSave bool
}

func newFakeUnitRepo() *fakeUnitRepo {
	return &fakeUnitRepo{rows: make(map[uuid.UUID]*types.StoryUnit)}
}

func (r *fakeUnitRepo) Create(ctx context.Context, tx *gorm.DB, unit *types.StoryUnit) error {
	return r.Save(ctx, tx, unit)
}

func (r *fakeUnitRepo) Save(_ context.Context, _ *gorm.DB, unit *types.StoryUnit) error {
	if r.failSave {
		return errors.New("store unavailable")
	}
	r.saves++
	r.rows[unit.ID] = unit.Clone()
	return nil
}

func (r *fakeUnitRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.StoryUnit, error) {
	u, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u.Clone(), nil
}

func (r *fakeUnitRepo) GetByProject(_ context.Context, _ *gorm.DB, projectID uuid.UUID) ([]*types.StoryUnit, error) {
	var out []*types.StoryUnit
	for _, u := range r.rows {
		if u.ProjectID == projectID {
			out = append(out, u.Clone())
		}
	}
	return out, nil
}

func (r *fakeUnitRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.rows, id)
	return nil
}

func (r *fakeUnitRepo) DeleteByProject(_ context.Context, _ *gorm.DB, projectID uuid.UUID) error {
	for id, u := range r.rows {
		if u.ProjectID == projectID {
			delete(r.rows, id)
		}
	}
	return nil
}

type fakeProjectRepo struct {
	rows map[uuid.UUID]*types.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{rows: make(map[uuid.UUID]*types.Project)}
}

func (r *fakeProjectRepo) Create(_ context.Context, _ *gorm.DB, project *types.Project) error {
	r.rows[project.ID] = project
	return nil
}

func (r *fakeProjectRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Project, error) {
	p, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakeProjectRepo) GetAll(_ context.Context, _ *gorm.DB) ([]*types.Project, error) {
	var out []*types.Project
	for _, p := range r.rows {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProjectRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.rows, id)
	return nil
}

type fakeMedia struct {
	durations map[uuid.UUID]float64
}

func (m *fakeMedia) DurationFor(_ context.Context, assetID uuid.UUID) (float64, error) {
	d, ok := m.durations[assetID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return d, nil
}

type storyFixture struct {
	svc       StoryService
	units     *fakeUnitRepo
	hub       *sse.Hub
	media     *fakeMedia
	projectID uuid.UUID
}

func newStoryFixture(t *testing.T) *storyFixture {
	t.Helper()
	log := logger.NewNop()
	units := newFakeUnitRepo()
	projects := newFakeProjectRepo()
	media := &fakeMedia{durations: make(map[uuid.UUID]float64)}
	hub := sse.NewHub(log)

	projectID := uuid.New()
	if err := projects.Create(context.Background(), nil, &types.Project{ID: projectID, Title: "cut one"}); err != nil {
		t.Fatalf("seed project: %v", err)
	}

	return &storyFixture{
		svc:       NewStoryService(nil, log, units, projects, media, hub),
		units:     units,
		hub:       hub,
		media:     media,
		projectID: projectID,
	}
}

func (f *storyFixture) createUnit(t *testing.T, in CreateUnitInput) *types.StoryUnit {
	t.Helper()
	u, err := f.svc.CreateUnit(context.Background(), f.projectID, in)
	if err != nil {
		t.Fatalf("CreateUnit: %v", err)
	}
	return u
}

func (f *storyFixture) createClip(t *testing.T, label string, duration, x, y float64) *types.StoryUnit {
	t.Helper()
	assetID := uuid.New()
	f.media.durations[assetID] = duration
	return f.createUnit(t, CreateUnitInput{
		Kind:    types.KindSpine,
		Subtype: types.SubtypeVideo,
		Label:   label,
		AssetID: &assetID,
		X:       x,
		Y:       y,
	})
}

func TestCreateUnitInitializesClipBoundsAndPersists(t *testing.T) {
	f := newStoryFixture(t)
	client := f.hub.Subscribe(f.projectID)
	defer f.hub.Unsubscribe(client)

	u := f.createClip(t, "opening shot", 12.5, 100, 40)
	if u.ClipIn == nil || u.ClipOut == nil {
		t.Fatal("clip bounds must come from the asset's probed duration")
	}
	if *u.ClipIn != 0 || *u.ClipOut != 12.5 {
		t.Fatalf("clip bounds = [%v, %v], want [0, 12.5]", *u.ClipIn, *u.ClipOut)
	}

	row, ok := f.units.rows[u.ID]
	if !ok {
		t.Fatal("unit was not written through to the store")
	}
	if row.Label != "opening shot" || row.X != 100 {
		t.Fatalf("stored row diverged from created unit: %+v", row)
	}

	select {
	case msg := <-client.Outbound:
		if msg.Event != sse.EventUnitCreated {
			t.Fatalf("event = %s, want %s", msg.Event, sse.EventUnitCreated)
		}
	default:
		t.Fatal("create must broadcast to subscribed clients")
	}
}

func TestCreateUnitUnknownAsset(t *testing.T) {
	f := newStoryFixture(t)
	assetID := uuid.New()
	_, err := f.svc.CreateUnit(context.Background(), f.projectID, CreateUnitInput{
		Kind:    types.KindSatellite,
		Subtype: types.SubtypeVideo,
		AssetID: &assetID,
	})
	if err == nil {
		t.Fatal("creating against an unregistered asset must fail")
	}
	if len(f.units.rows) != 0 {
		t.Fatal("failed create must not write through")
	}
}

func TestAttachSolvesDriftAndResolves(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()

	root := f.createClip(t, "scene", 8, 0, 0)
	sat := f.createClip(t, "cutaway", 3, 620, 150)

	// Dropped 50px right and one track below the root.
	x, y := root.X+5*graph.PixelsPerSecond, root.Y+1*graph.PixelsPerTrack
	verdict, attached, err := f.svc.AttachUnit(ctx, f.projectID, sat.ID, AttachInput{
		AnchorID: root.ID,
		Mode:     types.ModeStack,
		X:        &x,
		Y:        &y,
	})
	if err != nil {
		t.Fatalf("AttachUnit: %v", err)
	}
	if !verdict.Accepted {
		t.Fatalf("attach rejected: %s", verdict.Reason)
	}
	if attached.AnchorID == nil || *attached.AnchorID != root.ID {
		t.Fatalf("anchor not set: %+v", attached)
	}
	if attached.DriftX != 5 || attached.DriftY != 1 {
		t.Fatalf("drift = {%v, %d}, want {5, 1}", attached.DriftX, attached.DriftY)
	}

	pos, err := f.svc.ResolveUnit(ctx, f.projectID, sat.ID)
	if err != nil {
		t.Fatalf("ResolveUnit: %v", err)
	}
	if pos.Time != 5 || pos.Track != 2 {
		t.Fatalf("position = %+v, want {Time: 5, Track: 2}", pos)
	}

	row := f.units.rows[sat.ID]
	if row.AnchorID == nil || *row.AnchorID != root.ID || row.DriftX != 5 {
		t.Fatalf("attachment not written through: %+v", row)
	}
}

func TestAttachDefaultsToCachedPositionAndStackMode(t *testing.T) {
	f := newStoryFixture(t)
	root := f.createClip(t, "scene", 8, 0, 0)
	sat := f.createClip(t, "title", 0, 3*graph.PixelsPerSecond, 0)

	verdict, attached, err := f.svc.AttachUnit(context.Background(), f.projectID, sat.ID, AttachInput{AnchorID: root.ID})
	if err != nil {
		t.Fatalf("AttachUnit: %v", err)
	}
	if !verdict.Accepted {
		t.Fatalf("attach rejected: %s", verdict.Reason)
	}
	if attached.Mode != types.ModeStack {
		t.Fatalf("mode = %s, want default STACK", attached.Mode)
	}
	if attached.DriftX != 3 || attached.X != sat.X {
		t.Fatalf("omitted x/y must solve against the cached position, got %+v", attached)
	}
}

func TestAttachRejectionMutatesNothing(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()

	a := f.createClip(t, "a", 4, 0, 0)
	b := f.createClip(t, "b", 4, 200, 0)
	if v, _, err := f.svc.AttachUnit(ctx, f.projectID, b.ID, AttachInput{AnchorID: a.ID}); err != nil || !v.Accepted {
		t.Fatalf("seed attach: verdict=%+v err=%v", v, err)
	}
	savesBefore := f.units.saves

	// Anchoring a onto its own descendant would close a loop.
	verdict, unit, err := f.svc.AttachUnit(ctx, f.projectID, a.ID, AttachInput{AnchorID: b.ID})
	if err != nil {
		t.Fatalf("AttachUnit: %v", err)
	}
	if verdict.Accepted {
		t.Fatal("cycle-closing attach must be rejected")
	}
	if unit != nil {
		t.Fatal("rejected attach must not return a mutated unit")
	}
	if f.units.saves != savesBefore {
		t.Fatal("rejected attach must not touch the store")
	}
	got, err := f.svc.ResolveUnit(ctx, f.projectID, a.ID)
	if err != nil {
		t.Fatalf("ResolveUnit: %v", err)
	}
	if got != (graph.Position{}) {
		t.Fatalf("a must remain a root at the origin, got %+v", got)
	}
}

func TestMoveUnitRootVersusAnchored(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()

	root := f.createClip(t, "scene", 8, 0, 0)
	sat := f.createClip(t, "cutaway", 3, 100, 24)

	// A root drag only rewrites the cached screen spot.
	moved, err := f.svc.MoveUnit(ctx, f.projectID, root.ID, 400, 80)
	if err != nil {
		t.Fatalf("MoveUnit root: %v", err)
	}
	if moved.X != 400 || moved.Y != 80 || moved.AnchorID != nil {
		t.Fatalf("root move must only update x/y, got %+v", moved)
	}

	if v, _, err := f.svc.AttachUnit(ctx, f.projectID, sat.ID, AttachInput{AnchorID: root.ID}); err != nil || !v.Accepted {
		t.Fatalf("attach: verdict=%+v err=%v", v, err)
	}

	// Dragging an anchored unit re-solves its drift against the anchor.
	x, y := moved.X+2*graph.PixelsPerSecond, moved.Y+3*graph.PixelsPerTrack
	moved, err = f.svc.MoveUnit(ctx, f.projectID, sat.ID, x, y)
	if err != nil {
		t.Fatalf("MoveUnit anchored: %v", err)
	}
	if moved.AnchorID == nil || *moved.AnchorID != root.ID {
		t.Fatal("anchored move must keep the anchor")
	}
	if moved.DriftX != 2 || moved.DriftY != 3 {
		t.Fatalf("drift = {%v, %d}, want {2, 3}", moved.DriftX, moved.DriftY)
	}
}

func TestDetachAndPark(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()

	root := f.createClip(t, "scene", 8, 0, 0)
	sat := f.createClip(t, "cutaway", 3, 50, 24)
	if v, _, err := f.svc.AttachUnit(ctx, f.projectID, sat.ID, AttachInput{AnchorID: root.ID}); err != nil || !v.Accepted {
		t.Fatalf("attach: verdict=%+v err=%v", v, err)
	}

	detached, err := f.svc.DetachUnit(ctx, f.projectID, sat.ID)
	if err != nil {
		t.Fatalf("DetachUnit: %v", err)
	}
	if detached.AnchorID != nil || detached.Mode != types.ModeStack || detached.DriftX != 0 {
		t.Fatalf("detach must clear anchor state, got %+v", detached)
	}

	parked, err := f.svc.ParkUnit(ctx, f.projectID, sat.ID, &root.ID)
	if err != nil {
		t.Fatalf("ParkUnit: %v", err)
	}
	if parked.AtticParentID == nil || *parked.AtticParentID != root.ID {
		t.Fatalf("park must set the attic parent, got %+v", parked)
	}

	unparked, err := f.svc.ParkUnit(ctx, f.projectID, sat.ID, nil)
	if err != nil {
		t.Fatalf("ParkUnit(nil): %v", err)
	}
	if unparked.AtticParentID != nil {
		t.Fatalf("unpark must clear the attic parent, got %+v", unparked)
	}

	missing := uuid.New()
	if _, err := f.svc.ParkUnit(ctx, f.projectID, sat.ID, &missing); err != graph.ErrUnitNotFound {
		t.Fatalf("parking over a missing unit: err = %v, want ErrUnitNotFound", err)
	}
}

func TestUndoRedoWriteThrough(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()

	u := f.createClip(t, "scene", 8, 0, 0)
	if _, ok := f.units.rows[u.ID]; !ok {
		t.Fatal("create must write through")
	}

	state, err := f.svc.Undo(ctx, f.projectID)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !state.Applied || state.Command != "create_unit" || state.CanUndo || !state.CanRedo {
		t.Fatalf("undo state = %+v", state)
	}
	if _, ok := f.units.rows[u.ID]; ok {
		t.Fatal("undone create must delete the stored row")
	}

	state, err = f.svc.Redo(ctx, f.projectID)
	if err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if !state.Applied || state.CanRedo {
		t.Fatalf("redo state = %+v", state)
	}
	row, ok := f.units.rows[u.ID]
	if !ok {
		t.Fatal("redone create must restore the stored row")
	}
	if row.Label != "scene" || row.ClipOut == nil || *row.ClipOut != 8 {
		t.Fatalf("restored row diverged from the snapshot: %+v", row)
	}

	// Nothing left to redo.
	state, err = f.svc.Redo(ctx, f.projectID)
	if err != nil {
		t.Fatalf("Redo (empty): %v", err)
	}
	if state.Applied {
		t.Fatal("redo on an empty stack must be a no-op")
	}
}

func TestFailedWriteThroughRollsBack(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()

	u := f.createClip(t, "scene", 8, 0, 0)

	f.units.failSave = true
	_, err := f.svc.MoveUnit(ctx, f.projectID, u.ID, 500, 500)
	if err == nil {
		t.Fatal("move must surface the store failure")
	}
	f.units.failSave = false

	views, err := f.svc.ListUnits(ctx, f.projectID)
	if err != nil {
		t.Fatalf("ListUnits: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("unit count = %d, want 1", len(views))
	}
	if got := views[0].Unit; got.X != 0 || got.Y != 0 {
		t.Fatalf("failed write-through must roll the in-memory move back, got x=%v y=%v", got.X, got.Y)
	}

	// The rolled-back command must not be undoable.
	state, err := f.svc.Undo(ctx, f.projectID)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if state.Command != "create_unit" {
		t.Fatalf("next undo = %q, want the create that preceded the failed move", state.Command)
	}
}

func TestFailedWriteThroughPreservesRedo(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()

	a := f.createClip(t, "scene", 8, 0, 0)
	b := f.createClip(t, "cutaway", 3, 100, 24)
	if state, err := f.svc.Undo(ctx, f.projectID); err != nil || !state.CanRedo {
		t.Fatalf("Undo: state=%+v err=%v", state, err)
	}

	f.units.failSave = true
	if _, err := f.svc.MoveUnit(ctx, f.projectID, a.ID, 500, 500); err == nil {
		t.Fatal("move must surface the store failure")
	}
	f.units.failSave = false

	// The failed command never stuck, so the undone create is still
	// redoable.
	state, err := f.svc.Redo(ctx, f.projectID)
	if err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if !state.Applied || state.Command != "create_unit" {
		t.Fatalf("redo state = %+v, want the undone create back", state)
	}
	if _, ok := f.units.rows[b.ID]; !ok {
		t.Fatal("redone create must restore the stored row")
	}
}

func TestOpenProjectResetsHistory(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()

	u := f.createClip(t, "scene", 8, 120, 0)
	if err := f.svc.OpenProject(ctx, f.projectID); err != nil {
		t.Fatalf("OpenProject: %v", err)
	}

	// History does not survive a reopen, but the stored units do.
	state, err := f.svc.Undo(ctx, f.projectID)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if state.Applied || state.CanUndo {
		t.Fatalf("reopened project must start with empty history, got %+v", state)
	}
	views, err := f.svc.ListUnits(ctx, f.projectID)
	if err != nil {
		t.Fatalf("ListUnits: %v", err)
	}
	if len(views) != 1 || views[0].Unit.ID != u.ID {
		t.Fatalf("reopen must load persisted units, got %d views", len(views))
	}
}

func TestOpenProjectUnknownProject(t *testing.T) {
	f := newStoryFixture(t)
	if err := f.svc.OpenProject(context.Background(), uuid.New()); err == nil {
		t.Fatal("opening a project that does not exist must fail")
	}
}

func TestDeleteUnitLeavesChildrenDangling(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()

	root := f.createClip(t, "scene", 8, 0, 0)
	sat := f.createClip(t, "cutaway", 3, 30, 24)
	if v, _, err := f.svc.AttachUnit(ctx, f.projectID, sat.ID, AttachInput{AnchorID: root.ID}); err != nil || !v.Accepted {
		t.Fatalf("attach: verdict=%+v err=%v", v, err)
	}

	if err := f.svc.DeleteUnit(ctx, f.projectID, root.ID); err != nil {
		t.Fatalf("DeleteUnit: %v", err)
	}
	if _, ok := f.units.rows[root.ID]; ok {
		t.Fatal("deleted unit must be removed from the store")
	}

	// The orphan keeps its anchor reference and lays out as a root.
	row := f.units.rows[sat.ID]
	if row.AnchorID == nil || *row.AnchorID != root.ID {
		t.Fatalf("child must keep its dangling anchor, got %+v", row)
	}
	pos, err := f.svc.ResolveUnit(ctx, f.projectID, sat.ID)
	if err != nil {
		t.Fatalf("ResolveUnit: %v", err)
	}
	if pos != (graph.Position{}) {
		t.Fatalf("dangling unit must resolve as a root, got %+v", pos)
	}
}
