package layout

import (
	"github.com/charmbracelet/log"

	"github.com/flowboardhq/flowboard/pkg/config"
	"github.com/flowboardhq/flowboard/pkg/geometry"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

// Positioner computes absolute task positions from anchor positions and
// slot assignments. Positions are a pure function of (anchor position,
// slot, sibling heights): the stack "gravity" depends on each task's
// measured rendered height, so a task growing taller pushes every
// later-slotted sibling down.
type Positioner struct {
	cfg    config.Stack
	store  topology.Store
	logger *log.Logger
}

// NewPositioner creates a positioner reading from the given store.
// A nil logger falls back to the package default.
func NewPositioner(cfg config.Stack, store topology.Store, logger *log.Logger) *Positioner {
	if logger == nil {
		logger = log.Default()
	}
	return &Positioner{cfg: cfg, store: store, logger: logger}
}

// PositionOf returns the canvas position for the task at the given slot
// under the anchor: x is the anchor's x, y is the anchor's y plus the
// fixed stack offset plus the heights (and gaps) of all lower-slotted
// siblings.
//
// If the anchor cannot be found the identity position is returned and the
// miss is logged. This path can run during teardown, so it never fails.
func (p *Positioner) PositionOf(anchorID string, slot int) geometry.Point {
	anchor, ok := p.store.Node(anchorID)
	if !ok {
		p.logger.Warn("positioning against missing anchor", "anchor", anchorID, "slot", slot)
		return geometry.Point{}
	}

	y := anchor.Position.Y + p.cfg.Offset
	for _, t := range p.store.TasksForAnchor(anchorID) {
		if t.Slot >= slot {
			break
		}
		y += p.taskHeight(t) + p.cfg.Gap
	}

	return geometry.Point{X: anchor.Position.X, Y: y}
}

// PositionAll returns the position of every task under the anchor, keyed
// by task ID. One pass over the sorted siblings, so repositioning a whole
// stack after a height change is O(n).
func (p *Positioner) PositionAll(anchorID string) map[string]geometry.Point {
	anchor, ok := p.store.Node(anchorID)
	if !ok {
		p.logger.Warn("positioning against missing anchor", "anchor", anchorID)
		return nil
	}

	out := make(map[string]geometry.Point)
	y := anchor.Position.Y + p.cfg.Offset
	for _, t := range p.store.TasksForAnchor(anchorID) {
		out[t.ID] = geometry.Point{X: anchor.Position.X, Y: y}
		y += p.taskHeight(t) + p.cfg.Gap
	}
	return out
}

// SatellitePosition returns the position of a task's next-action slot
// element: always a fixed offset to the right of the task itself.
func (p *Positioner) SatellitePosition(taskPos geometry.Point) geometry.Point {
	return geometry.Point{X: taskPos.X + p.cfg.SatelliteOffset, Y: taskPos.Y}
}

// taskHeight returns the measured height, falling back to the configured
// default for tasks that have not been rendered yet.
func (p *Positioner) taskHeight(t topology.Task) float64 {
	if t.Height > 0 {
		return t.Height
	}
	return p.cfg.DefaultTaskHeight
}
