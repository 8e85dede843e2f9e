// Package engine orchestrates the live layout session of a diagram: slot
// allocation, stack positioning, flowline routing, and the transition
// between the normal canvas layout and the priority matrix layout.
//
// The engine owns the task position map and the rendered path strings.
// All geometry is committed synchronously; the animation driver only
// defers how the committed positions are presented. Readers that need the
// settled visual state await the completion signals, bounded by the
// configured ceiling so a dropped signal can never hang a session.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowboardhq/flowboard/pkg/config"
	"github.com/flowboardhq/flowboard/pkg/errors"
	"github.com/flowboardhq/flowboard/pkg/flowline"
	"github.com/flowboardhq/flowboard/pkg/geometry"
	"github.com/flowboardhq/flowboard/pkg/layout"
	"github.com/flowboardhq/flowboard/pkg/observability"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

// Mode identifies the active layout of a session.
type Mode string

const (
	// ModeNormal is the free canvas layout with anchored task stacks.
	ModeNormal Mode = "normal"
	// ModeMatrix is the four-quadrant priority matrix layout.
	ModeMatrix Mode = "matrix"
)

// opMatrixTransition names the matrix enter/exit operation for the
// re-entrancy guard. One transition at a time; a second request while one
// is in flight is rejected, not queued.
const opMatrixTransition = "matrix-transition"

// Fallback node dimensions used for flowline connection points when no
// render surface has measured the node yet.
const (
	defaultNodeWidth  = 160.0
	defaultNodeHeight = 64.0
)

// Surface reports measured element geometry back from a renderer. All
// methods may be called concurrently with engine operations.
type Surface interface {
	// NodeRect returns the rendered bounding box of a node, if measured.
	NodeRect(id string) (geometry.Rect, bool)
}

// Engine is a layout session over one diagram store.
type Engine struct {
	cfg        config.Config
	store      topology.Store
	positioner *layout.Positioner
	router     *flowline.Router
	matrix     *layout.MatrixLayout
	driver     Driver
	surface    Surface
	logger     *log.Logger

	mu           sync.Mutex
	mode         Mode
	matrixOrigin geometry.Point
	taskPos      map[string]geometry.Point
	paths        map[topology.Flowline]string
	snapshot     *layout.Snapshot
	inflight     map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithDriver sets the animation driver. Defaults to InstantDriver.
func WithDriver(d Driver) Option { return func(e *Engine) { e.driver = d } }

// WithSurface attaches a render surface for node measurements.
func WithSurface(s Surface) Option { return func(e *Engine) { e.surface = s } }

// WithLogger sets the session logger. Defaults to the package default.
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithMatrixOrigin sets the canvas point the matrix grid grows from.
func WithMatrixOrigin(p geometry.Point) Option { return func(e *Engine) { e.matrixOrigin = p } }

// New creates a layout session in normal mode over the given store.
func New(cfg config.Config, store topology.Store, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		store:    store,
		router:   flowline.NewRouter(cfg.Flow),
		matrix:   layout.NewMatrixLayout(cfg.Matrix),
		driver:   InstantDriver{},
		logger:   log.Default(),
		mode:     ModeNormal,
		taskPos:  make(map[string]geometry.Point),
		paths:    make(map[topology.Flowline]string),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.positioner = layout.NewPositioner(cfg.Stack, store, e.logger)
	return e
}

// Mode returns the session's active layout mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// TaskPosition returns the committed position of a task.
func (e *Engine) TaskPosition(id string) (geometry.Point, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.taskPos[id]
	return p, ok
}

// SatellitePosition returns the position of the task's next-action slot
// element, derived from the task's committed position.
func (e *Engine) SatellitePosition(id string) (geometry.Point, bool) {
	p, ok := e.TaskPosition(id)
	if !ok {
		return geometry.Point{}, false
	}
	return e.positioner.SatellitePosition(p), true
}

// Paths returns a copy of the rendered path string per flowline.
func (e *Engine) Paths() map[topology.Flowline]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[topology.Flowline]string, len(e.paths))
	for f, p := range e.paths {
		out[f] = p
	}
	return out
}

// Path returns the rendered path string for one flowline.
func (e *Engine) Path(source, target string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for f, p := range e.paths {
		if f.Source == source && f.Target == target {
			return p, true
		}
	}
	return "", false
}

// =============================================================================
// Node operations
// =============================================================================

// AddNode inserts a node into the diagram.
func (e *Engine) AddNode(n topology.Node) (topology.Node, error) {
	return e.store.AddNode(n)
}

// MoveNode repositions a node and carries its anchored stack along:
// every task under the node is repositioned from the new anchor point and
// every flowline touching the node is rerouted.
func (e *Engine) MoveNode(ctx context.Context, id string, p geometry.Point) error {
	if err := e.store.SetNodePosition(id, p); err != nil {
		return err
	}

	comps := e.restack(id)
	e.rerouteTouching(id)
	return e.await(ctx, "move-node", comps)
}

// DeleteNode removes a node. The store's guards apply: the sole start
// node and anchors with attached tasks are rejected. Flowlines touching
// the node cascade, so their rendered paths are dropped too.
func (e *Engine) DeleteNode(id string) error {
	touching := e.store.FlowlinesTouching(id)
	if err := e.store.DeleteNode(id); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, f := range touching {
		delete(e.paths, f)
	}
	return nil
}

// =============================================================================
// Task operations
// =============================================================================

// CreateTask allocates the lowest free slot under the anchor, inserts the
// task, and positions it. In matrix mode the new task is also placed into
// its quadrant.
func (e *Engine) CreateTask(ctx context.Context, anchorID string, tags []topology.Tag) (topology.Task, error) {
	if _, ok := e.store.Node(anchorID); !ok {
		return topology.Task{}, errors.New(errors.ErrCodeNodeNotFound, "anchor node %s not found", anchorID)
	}

	slot := layout.FindFreeSlot(e.store.TasksForAnchor(anchorID))
	task, err := e.store.AddTask(topology.Task{Anchor: anchorID, Slot: slot, Tags: tags})
	if err != nil {
		return topology.Task{}, err
	}

	pos := e.positioner.PositionOf(anchorID, slot)
	e.mu.Lock()
	e.taskPos[task.ID] = pos
	matrixMode := e.mode == ModeMatrix
	e.mu.Unlock()

	var comps []Completion
	if matrixMode {
		comps = e.replaceMatrix()
	} else {
		comps = []Completion{e.animate(task.ID, pos, 0)}
	}
	return task, e.await(ctx, "create-task", comps)
}

// DeleteTask removes a task, compacts the surviving siblings down to a
// contiguous slot range, and repositions the stack.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	task, ok := e.store.Task(id)
	if !ok {
		return errors.New(errors.ErrCodeTaskNotFound, "task %s not found", id)
	}
	if err := e.store.DeleteTask(id); err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.taskPos, id)
	matrixMode := e.mode == ModeMatrix
	e.mu.Unlock()

	for _, ch := range layout.Compact(e.store.TasksForAnchor(task.Anchor)) {
		if err := e.store.SetSlot(ch.TaskID, ch.NewSlot); err != nil {
			return err
		}
	}

	var comps []Completion
	if matrixMode {
		comps = e.replaceMatrix()
	} else {
		comps = e.restack(task.Anchor)
	}
	return e.await(ctx, "delete-task", comps)
}

// ReassignTask moves a task to a new anchor, allocating a free slot there
// and compacting the stack it left. Both stacks are repositioned.
func (e *Engine) ReassignTask(ctx context.Context, taskID, anchorID string) error {
	task, ok := e.store.Task(taskID)
	if !ok {
		return errors.New(errors.ErrCodeTaskNotFound, "task %s not found", taskID)
	}
	if _, ok := e.store.Node(anchorID); !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "anchor node %s not found", anchorID)
	}
	if task.Anchor == anchorID {
		return nil
	}

	slot := layout.FindFreeSlot(e.store.TasksForAnchor(anchorID))
	if err := e.store.SetAnchor(taskID, anchorID, slot); err != nil {
		return err
	}
	for _, ch := range layout.Compact(e.store.TasksForAnchor(task.Anchor)) {
		if err := e.store.SetSlot(ch.TaskID, ch.NewSlot); err != nil {
			return err
		}
	}

	comps := e.restack(task.Anchor)
	comps = append(comps, e.restack(anchorID)...)
	return e.await(ctx, "reassign-task", comps)
}

// ReassignTasks moves every listed task from oldAnchor to newAnchor as
// one operation, so an anchor can be emptied before its node is deleted.
// Validation runs up front; no task moves unless all of them can.
func (e *Engine) ReassignTasks(ctx context.Context, oldAnchor, newAnchor string, taskIDs []string) error {
	if oldAnchor == newAnchor {
		return errors.New(errors.ErrCodeInvalidInput, "old and new anchors are both %s", oldAnchor)
	}
	if _, ok := e.store.Node(oldAnchor); !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "anchor node %s not found", oldAnchor)
	}
	if _, ok := e.store.Node(newAnchor); !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "anchor node %s not found", newAnchor)
	}
	for _, id := range taskIDs {
		task, ok := e.store.Task(id)
		if !ok {
			return errors.New(errors.ErrCodeTaskNotFound, "task %s not found", id)
		}
		if task.Anchor != oldAnchor {
			return errors.New(errors.ErrCodeInvalidInput, "task %s is anchored to %s, not %s", id, task.Anchor, oldAnchor)
		}
	}

	for _, id := range taskIDs {
		slot := layout.FindFreeSlot(e.store.TasksForAnchor(newAnchor))
		if err := e.store.SetAnchor(id, newAnchor, slot); err != nil {
			return err
		}
	}
	for _, ch := range layout.Compact(e.store.TasksForAnchor(oldAnchor)) {
		if err := e.store.SetSlot(ch.TaskID, ch.NewSlot); err != nil {
			return err
		}
	}

	comps := e.restack(oldAnchor)
	comps = append(comps, e.restack(newAnchor)...)
	return e.await(ctx, "reassign-tasks", comps)
}

// ReturnTask sends a task back to the anchor it last came from. Tasks
// that never moved stay put.
func (e *Engine) ReturnTask(ctx context.Context, taskID string) error {
	task, ok := e.store.Task(taskID)
	if !ok {
		return errors.New(errors.ErrCodeTaskNotFound, "task %s not found", taskID)
	}
	if task.PrevAnchor == "" || task.PrevAnchor == task.Anchor {
		return nil
	}
	if _, ok := e.store.Node(task.PrevAnchor); !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "previous anchor %s no longer exists", task.PrevAnchor)
	}
	return e.ReassignTask(ctx, taskID, task.PrevAnchor)
}

// SetTaskTags replaces a task's tags. In matrix mode a changed urgency or
// importance tag moves the task to its new quadrant.
func (e *Engine) SetTaskTags(ctx context.Context, taskID string, tags []topology.Tag) error {
	if err := e.store.SetTags(taskID, tags); err != nil {
		return err
	}

	e.mu.Lock()
	matrixMode := e.mode == ModeMatrix
	e.mu.Unlock()
	if !matrixMode {
		return nil
	}
	return e.await(ctx, "retag-task", e.replaceMatrix())
}

// SetTaskHeight records a task's measured rendered height and pushes
// later-slotted siblings down to absorb the change.
func (e *Engine) SetTaskHeight(ctx context.Context, taskID string, height float64) error {
	task, ok := e.store.Task(taskID)
	if !ok {
		return errors.New(errors.ErrCodeTaskNotFound, "task %s not found", taskID)
	}
	if err := e.store.SetTaskHeight(taskID, height); err != nil {
		return err
	}

	e.mu.Lock()
	matrixMode := e.mode == ModeMatrix
	e.mu.Unlock()
	if matrixMode {
		// Heights do not affect quadrant placement. The new height is
		// picked up when the session exits back to normal mode.
		return nil
	}
	return e.await(ctx, "resize-task", e.restack(task.Anchor))
}

// =============================================================================
// Flowline operations
// =============================================================================

// Connect adds a flowline between two nodes and routes its path.
func (e *Engine) Connect(source, target string, pathType topology.PathType) (topology.Flowline, error) {
	f, err := e.store.AddFlowline(source, target, pathType)
	if err != nil {
		return f, err
	}
	e.route(f)
	return f, nil
}

// Disconnect removes a flowline and its rendered path.
func (e *Engine) Disconnect(source, target string) error {
	f, ok := e.store.Flowline(source, target)
	if !ok {
		return errors.New(errors.ErrCodeFlowlineNotFound, "flowline %s -> %s not found", source, target)
	}
	if err := e.store.RemoveFlowline(source, target); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.paths, f)
	return nil
}

// SetPathType switches a flowline's routing geometry and reroutes it.
func (e *Engine) SetPathType(source, target string, pathType topology.PathType) error {
	old, ok := e.store.Flowline(source, target)
	if !ok {
		return errors.New(errors.ErrCodeFlowlineNotFound, "flowline %s -> %s not found", source, target)
	}
	if err := e.store.SetPathType(source, target, pathType); err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.paths, old)
	e.mu.Unlock()

	f, _ := e.store.Flowline(source, target)
	e.route(f)
	return nil
}

// RouteAll recomputes every flowline path from current node geometry.
func (e *Engine) RouteAll() {
	for _, f := range e.store.Flowlines() {
		e.route(f)
	}
}

// Reflow recomputes every task position from live anchors and slots and
// reroutes every flowline. Used when hydrating a session from a stored
// document, where no positions have been committed yet.
func (e *Engine) Reflow(ctx context.Context) error {
	var comps []Completion
	for _, n := range e.store.Nodes() {
		comps = append(comps, e.restack(n.ID)...)
	}
	e.RouteAll()
	return e.await(ctx, "reflow", comps)
}

// =============================================================================
// Matrix transitions
// =============================================================================

// EnterMatrix snapshots the current layout and animates every task into
// its priority quadrant. Entering while already in matrix mode is a
// no-op; entering while another transition is in flight is rejected.
func (e *Engine) EnterMatrix(ctx context.Context) error {
	if err := e.begin(opMatrixTransition); err != nil {
		return err
	}
	defer e.end(opMatrixTransition)

	e.mu.Lock()
	if e.mode == ModeMatrix {
		e.mu.Unlock()
		return nil
	}
	snap := layout.CaptureSnapshot(e.store, e.taskPos, e.paths)
	e.snapshot = &snap
	e.mode = ModeMatrix
	e.mu.Unlock()

	start := time.Now()
	observability.Transition().OnTransitionStart(ctx, string(ModeNormal), string(ModeMatrix))

	comps := e.replaceMatrix()

	err := e.await(ctx, opMatrixTransition, comps)
	observability.Transition().OnTransitionComplete(ctx, string(ModeNormal), string(ModeMatrix), time.Since(start), err)
	return err
}

// ExitMatrix restores node positions from the entry snapshot and
// recomputes every task position from its live anchor and slot. Stacks
// edited during matrix mode settle into their current shape rather than
// their snapshotted one.
func (e *Engine) ExitMatrix(ctx context.Context) error {
	if err := e.begin(opMatrixTransition); err != nil {
		return err
	}
	defer e.end(opMatrixTransition)

	e.mu.Lock()
	if e.mode != ModeMatrix {
		e.mu.Unlock()
		return nil
	}
	snap := e.snapshot
	e.snapshot = nil
	e.mode = ModeNormal
	e.mu.Unlock()

	start := time.Now()
	observability.Transition().OnTransitionStart(ctx, string(ModeMatrix), string(ModeNormal))

	if snap != nil {
		snap.RestoreNodes(e.store)
	}

	var comps []Completion
	i := 0
	for _, t := range e.store.Tasks() {
		pos := e.positioner.PositionOf(t.Anchor, t.Slot)
		e.mu.Lock()
		e.taskPos[t.ID] = pos
		e.mu.Unlock()
		comps = append(comps, e.animate(t.ID, pos, i))
		i++
	}
	e.RouteAll()

	err := e.await(ctx, opMatrixTransition, comps)
	observability.Transition().OnTransitionComplete(ctx, string(ModeMatrix), string(ModeNormal), time.Since(start), err)
	return err
}

// =============================================================================
// Internals
// =============================================================================

// begin acquires the named-operation guard.
func (e *Engine) begin(op string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[op]; busy {
		return errors.New(errors.ErrCodeReentrantTransition, "operation %s already in flight", op)
	}
	e.inflight[op] = struct{}{}
	return nil
}

func (e *Engine) end(op string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, op)
}

// restack recomputes and commits every task position under the anchor,
// returning the animation completions. The anchor's satellite elements
// follow their tasks, so no separate pass is needed.
func (e *Engine) restack(anchorID string) []Completion {
	start := time.Now()
	positions := e.positioner.PositionAll(anchorID)

	e.mu.Lock()
	for id, pos := range positions {
		e.taskPos[id] = pos
	}
	e.mu.Unlock()

	comps := make([]Completion, 0, len(positions))
	i := 0
	for _, t := range e.store.TasksForAnchor(anchorID) {
		if pos, ok := positions[t.ID]; ok {
			comps = append(comps, e.animate(t.ID, pos, i))
			i++
		}
	}
	observability.Layout().OnStackComputed(context.Background(), anchorID, len(positions), time.Since(start))
	return comps
}

// replaceMatrix recomputes the full matrix placement and commits it.
func (e *Engine) replaceMatrix() []Completion {
	start := time.Now()

	e.mu.Lock()
	origin := e.matrixOrigin
	e.mu.Unlock()

	cards := e.matrix.Place(e.store.Tasks(), origin)

	e.mu.Lock()
	for _, c := range cards {
		e.taskPos[c.TaskID] = c.Position
	}
	e.mu.Unlock()

	comps := make([]Completion, 0, len(cards))
	for i, c := range cards {
		comps = append(comps, e.animate(c.TaskID, c.Position, i))
	}
	observability.Layout().OnMatrixComputed(context.Background(), len(cards), time.Since(start))
	return comps
}

// animate hands one committed move to the driver with the stagger delay
// folded into the duration.
func (e *Engine) animate(id string, to geometry.Point, index int) Completion {
	d := e.cfg.Animation.MoveDuration.Std() + time.Duration(index)*e.cfg.Animation.StaggerDelay.Std()
	return e.driver.Animate(id, to, d, e.cfg.Animation.Easing)
}

// route computes and stores the path string for one flowline. Routing
// failures are logged, never fatal: a flowline with no path is redrawn on
// the next geometry change.
func (e *Engine) route(f topology.Flowline) {
	start := time.Now()
	src := e.nodeRect(f.Source)
	tgt := e.nodeRect(f.Target)

	eps, err := e.router.ConnectionPoints(src, tgt)
	if err != nil {
		e.logger.Warn("connection points failed", "source", f.Source, "target", f.Target, "err", err)
		return
	}
	path, err := e.router.ComputePath(eps.Source, eps.Target, f.PathType)
	if err != nil {
		e.logger.Warn("path routing failed", "source", f.Source, "target", f.Target, "err", err)
		return
	}

	e.mu.Lock()
	e.paths[f] = path
	e.mu.Unlock()
	observability.Layout().OnPathComputed(context.Background(), string(f.PathType), time.Since(start))
}

// rerouteTouching recomputes every path with the node as an endpoint.
func (e *Engine) rerouteTouching(nodeID string) {
	for _, f := range e.store.FlowlinesTouching(nodeID) {
		e.route(f)
	}
}

// nodeRect returns the node's rendered bounding box, preferring the
// attached surface's measurement over the default dimensions.
func (e *Engine) nodeRect(id string) geometry.Rect {
	if e.surface != nil {
		if r, ok := e.surface.NodeRect(id); ok {
			return r
		}
	}
	n, ok := e.store.Node(id)
	if !ok {
		return geometry.Rect{}
	}
	return geometry.Rect{
		X:      n.Position.X,
		Y:      n.Position.Y,
		Width:  defaultNodeWidth,
		Height: defaultNodeHeight,
	}
}

// await blocks until every completion fires, the context is cancelled, or
// the configured ceiling elapses. Geometry is already committed by the
// time await runs, so both abnormal exits resolve to a consistent state:
// cancellation halts the remaining animations, and a ceiling hit is
// logged and released rather than left hanging.
func (e *Engine) await(ctx context.Context, op string, comps []Completion) error {
	if len(comps) == 0 {
		return nil
	}

	ceiling := e.cfg.Animation.CompletionCeiling.Std()
	timer := time.NewTimer(ceiling)
	defer timer.Stop()
	start := time.Now()

	for _, c := range comps {
		select {
		case <-c:
		case <-ctx.Done():
			e.driver.CancelAll()
			return errors.Wrap(errors.ErrCodeTransitionInterrupted, ctx.Err(), "%s interrupted", op)
		case <-timer.C:
			waited := time.Since(start)
			e.logger.Warn("completion wait hit ceiling, resolving", "op", op, "waited", waited)
			observability.Transition().OnTransitionOverrun(ctx, op, waited)
			return nil
		}
	}
	return nil
}
