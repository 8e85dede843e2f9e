package layout

import (
	"testing"

	"github.com/flowboardhq/flowboard/pkg/config"
	"github.com/flowboardhq/flowboard/pkg/geometry"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

func urgency(opt string) topology.Tag {
	return topology.Tag{Category: topology.TagCategoryUrgency, Option: opt}
}

func importance(opt string) topology.Tag {
	return topology.Tag{Category: topology.TagCategoryImportance, Option: opt}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		tags []topology.Tag
		want Quadrant
	}{
		{name: "NoTags", tags: nil, want: QuadrantNeither},
		{name: "ImportantOnly", tags: []topology.Tag{importance(topology.TagImportant)}, want: QuadrantImportant},
		{name: "UrgentOnly", tags: []topology.Tag{urgency(topology.TagUrgent)}, want: QuadrantUrgent},
		{
			name: "ImportantAndUrgent",
			tags: []topology.Tag{importance(topology.TagImportant), urgency(topology.TagUrgent)},
			want: QuadrantImportantUrgent,
		},
		{
			name: "ExplicitlyNeither",
			tags: []topology.Tag{importance(topology.TagNotImportant), urgency(topology.TagNotUrgent)},
			want: QuadrantNeither,
		},
		{
			name: "LastUrgencyTagWins",
			tags: []topology.Tag{urgency(topology.TagUrgent), urgency(topology.TagNotUrgent)},
			want: QuadrantNeither,
		},
		{
			name: "LastImportanceTagWins",
			tags: []topology.Tag{importance(topology.TagNotImportant), importance(topology.TagImportant)},
			want: QuadrantImportant,
		},
		{
			name: "CategoriesFoldIndependently",
			tags: []topology.Tag{
				importance(topology.TagImportant),
				urgency(topology.TagUrgent),
				urgency(topology.TagNotUrgent),
			},
			want: QuadrantImportant,
		},
		{
			name: "UnknownCategoriesIgnored",
			tags: []topology.Tag{{Category: "deadline", Option: "friday"}, urgency(topology.TagUrgent)},
			want: QuadrantUrgent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.tags); got != tt.want {
				t.Errorf("Classify = %d, want %d", got, tt.want)
			}
		})
	}
}

// Quadrant totality: every combination of {urgent, not-urgent, absent} ×
// {important, not-important, absent} maps to exactly one of 1..4.
func TestClassifyTotality(t *testing.T) {
	urgencyOpts := [][]topology.Tag{nil, {urgency(topology.TagUrgent)}, {urgency(topology.TagNotUrgent)}}
	importanceOpts := [][]topology.Tag{nil, {importance(topology.TagImportant)}, {importance(topology.TagNotImportant)}}

	for _, u := range urgencyOpts {
		for _, im := range importanceOpts {
			tags := append(append([]topology.Tag{}, u...), im...)
			q := Classify(tags)
			if q < QuadrantImportant || q > QuadrantUrgent {
				t.Errorf("Classify(%+v) = %d, outside 1..4", tags, q)
			}
		}
	}
}

func testMatrix() *MatrixLayout {
	return NewMatrixLayout(config.Matrix{
		QuadrantWidth:  460,
		QuadrantHeight: 340,
		Padding:        24,
		CardWidth:      200,
		CardHeight:     56,
		Columns:        2,
		CellGap:        12,
	})
}

func TestQuadrantOrigins(t *testing.T) {
	m := testMatrix()
	tests := []struct {
		q    Quadrant
		want geometry.Point
	}{
		{QuadrantImportant, geometry.Point{X: 0, Y: 0}},
		{QuadrantImportantUrgent, geometry.Point{X: 460, Y: 0}},
		{QuadrantNeither, geometry.Point{X: 0, Y: 340}},
		{QuadrantUrgent, geometry.Point{X: 460, Y: 340}},
	}
	for _, tt := range tests {
		if got := m.QuadrantOrigin(tt.q); got != tt.want {
			t.Errorf("QuadrantOrigin(%d) = %+v, want %+v", tt.q, got, tt.want)
		}
	}
}

func TestPlaceGrid(t *testing.T) {
	m := testMatrix()
	tags := []topology.Tag{importance(topology.TagImportant), urgency(topology.TagUrgent)}
	tasks := []topology.Task{
		{ID: "t0", Tags: tags},
		{ID: "t1", Tags: tags},
		{ID: "t2", Tags: tags},
	}

	cards := m.Place(tasks, geometry.Point{})
	if len(cards) != 3 {
		t.Fatalf("cards = %d, want 3", len(cards))
	}

	// Quadrant 2 origin is (460, 0); padding 24; cell pitch 212x68.
	want := []geometry.Point{
		{X: 484, Y: 24},
		{X: 696, Y: 24},
		{X: 484, Y: 92},
	}
	for i, c := range cards {
		if c.Quadrant != QuadrantImportantUrgent {
			t.Errorf("cards[%d].Quadrant = %d, want 2", i, c.Quadrant)
		}
		if c.Position != want[i] {
			t.Errorf("cards[%d].Position = %+v, want %+v", i, c.Position, want[i])
		}
	}
}

func TestPlaceClampsToQuadrant(t *testing.T) {
	m := testMatrix()

	// Enough cards to overrun the quadrant height.
	var tasks []topology.Task
	for i := 0; i < 30; i++ {
		tasks = append(tasks, topology.Task{ID: topology.NewID()})
	}

	for _, c := range m.Place(tasks, geometry.Point{}) {
		qo := m.QuadrantOrigin(c.Quadrant)
		dx := c.Position.X - qo.X
		dy := c.Position.Y - qo.Y
		if dx < 0 || dx > 460-200 {
			t.Errorf("card %s x-offset %v outside [0, 260]", c.TaskID, dx)
		}
		if dy < 0 || dy > 340-56 {
			t.Errorf("card %s y-offset %v outside [0, 284]", c.TaskID, dy)
		}
	}
}

func TestPlaceAppliesOrigin(t *testing.T) {
	m := testMatrix()
	cards := m.Place([]topology.Task{{ID: "t"}}, geometry.Point{X: 1000, Y: 500})
	// Quadrant 3 origin (0, 340) + padding 24 + matrix origin.
	want := geometry.Point{X: 1024, Y: 864}
	if cards[0].Position != want {
		t.Errorf("Position = %+v, want %+v", cards[0].Position, want)
	}
}
