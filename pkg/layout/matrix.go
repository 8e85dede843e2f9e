package layout

import (
	"github.com/flowboardhq/flowboard/pkg/config"
	"github.com/flowboardhq/flowboard/pkg/geometry"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

// Quadrant identifies one of the four Eisenhower matrix regions.
type Quadrant int

// Quadrant numbering follows the matrix layout: importance selects the
// row, urgency the column.
const (
	QuadrantImportant       Quadrant = 1 // important, not urgent
	QuadrantImportantUrgent Quadrant = 2 // important, urgent
	QuadrantNeither         Quadrant = 3 // not important, not urgent
	QuadrantUrgent          Quadrant = 4 // not important, urgent
)

// traits is the folded result of a task's tag sequence.
type traits struct {
	urgent    bool
	important bool
}

// foldTags reduces a tag sequence to the final urgency/importance pair.
// Tags are visited in order and the last tag per category wins; a
// category that never appears stays false.
func foldTags(tags []topology.Tag) traits {
	var tr traits
	for _, tag := range tags {
		switch tag.Category {
		case topology.TagCategoryUrgency:
			tr.urgent = tag.Option == topology.TagUrgent
		case topology.TagCategoryImportance:
			tr.important = tag.Option == topology.TagImportant
		}
	}
	return tr
}

// Classify maps a task's tag sequence to its matrix quadrant. The
// mapping is total over the urgency/importance pair; the final default
// exists only as a completeness guard and also covers the no-tags case.
func Classify(tags []topology.Tag) Quadrant {
	tr := foldTags(tags)
	switch {
	case tr.important && !tr.urgent:
		return QuadrantImportant
	case tr.important && tr.urgent:
		return QuadrantImportantUrgent
	case !tr.important && tr.urgent:
		return QuadrantUrgent
	default:
		return QuadrantNeither
	}
}

// Card is a task placed inside the matrix.
type Card struct {
	TaskID   string
	Quadrant Quadrant
	Position geometry.Point
}

// MatrixLayout computes matrix placements from the live task population.
type MatrixLayout struct {
	cfg config.Matrix
}

// NewMatrixLayout creates a matrix layout with the given dimensions.
func NewMatrixLayout(cfg config.Matrix) *MatrixLayout {
	return &MatrixLayout{cfg: cfg}
}

// QuadrantOrigin returns the top-left corner of a quadrant relative to
// the matrix origin. Important quadrants occupy the top row, urgent
// quadrants the right column.
func (m *MatrixLayout) QuadrantOrigin(q Quadrant) geometry.Point {
	var col, row float64
	switch q {
	case QuadrantImportant:
		col, row = 0, 0
	case QuadrantImportantUrgent:
		col, row = 1, 0
	case QuadrantNeither:
		col, row = 0, 1
	case QuadrantUrgent:
		col, row = 1, 1
	}
	return geometry.Point{
		X: col * m.cfg.QuadrantWidth,
		Y: row * m.cfg.QuadrantHeight,
	}
}

// Place lays the given tasks out into the four quadrants. Within a
// quadrant, cards fill a fixed-column grid (column = index mod columns,
// row = index div columns) inset by the quadrant padding. Per-axis
// clamping keeps every card inside its quadrant: overfull quadrants
// compress cards toward the far edge instead of overflowing.
//
// Task order is preserved per quadrant, so placement is deterministic
// for a given task sequence.
func (m *MatrixLayout) Place(tasks []topology.Task, origin geometry.Point) []Card {
	counts := make(map[Quadrant]int)
	cards := make([]Card, 0, len(tasks))

	for _, t := range tasks {
		q := Classify(t.Tags)
		i := counts[q]
		counts[q]++

		col := float64(i % m.cfg.Columns)
		row := float64(i / m.cfg.Columns)

		dx := m.cfg.Padding + col*(m.cfg.CardWidth+m.cfg.CellGap)
		dy := m.cfg.Padding + row*(m.cfg.CardHeight+m.cfg.CellGap)

		// Cards never cross the quadrant's far edge.
		dx = geometry.Clamp(dx, 0, m.cfg.QuadrantWidth-m.cfg.CardWidth)
		dy = geometry.Clamp(dy, 0, m.cfg.QuadrantHeight-m.cfg.CardHeight)

		qo := m.QuadrantOrigin(q)
		cards = append(cards, Card{
			TaskID:   t.ID,
			Quadrant: q,
			Position: geometry.Point{
				X: origin.X + qo.X + dx,
				Y: origin.Y + qo.Y + dy,
			},
		})
	}
	return cards
}
