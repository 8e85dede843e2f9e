// Package topology holds the diagram data model: nodes, tasks, and
// flowlines, plus the mutable store the layout engine operates on.
//
// Nodes are the root entities. Tasks hold a non-owning back-reference to
// their anchor node; flowlines hold non-owning references to both endpoint
// nodes. The store enforces the lifecycle rules: a node with attached
// tasks cannot be deleted until its tasks are reassigned, the start node
// is never deletable, and at most one flowline exists per ordered node
// pair.
package topology

import (
	"github.com/google/uuid"

	"github.com/flowboardhq/flowboard/pkg/geometry"
)

// NodeKind classifies the visual shape and semantics of a node.
type NodeKind string

// Supported node kinds.
const (
	KindProcess  NodeKind = "process"
	KindDecision NodeKind = "decision"
	KindTerminal NodeKind = "terminal"
)

// Valid reports whether the kind is one of the supported node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindProcess, KindDecision, KindTerminal:
		return true
	}
	return false
}

// Node is a diagram node placed on the canvas.
type Node struct {
	ID       string         `json:"id" bson:"id"`
	Kind     NodeKind       `json:"kind" bson:"kind"`
	Label    string         `json:"label,omitempty" bson:"label,omitempty"`
	Position geometry.Point `json:"position" bson:"position"`

	// Start marks the diagram entry node. The start node cannot be
	// deleted while it is the only one.
	Start bool `json:"start,omitempty" bson:"start,omitempty"`
}

// Tag categories with layout meaning. Other categories are carried along
// but ignored by the matrix classifier.
const (
	TagCategoryUrgency    = "urgency"
	TagCategoryImportance = "importance"
)

// Tag option values recognized by the matrix classifier.
const (
	TagUrgent       = "urgent"
	TagNotUrgent    = "not-urgent"
	TagImportant    = "important"
	TagNotImportant = "not-important"
)

// Tag is a single banner tag attached to a task. Order matters: the
// matrix classifier applies a last-tag-wins rule per category.
type Tag struct {
	Category    string `json:"category" bson:"category"`
	Option      string `json:"option" bson:"option"`
	Date        string `json:"date,omitempty" bson:"date,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Link        string `json:"link,omitempty" bson:"link,omitempty"`
	Completed   bool   `json:"completed,omitempty" bson:"completed,omitempty"`
}

// Task is a stacked banner anchored to a node.
type Task struct {
	ID     string `json:"id" bson:"id"`
	Anchor string `json:"anchor" bson:"anchor"`
	Slot   int    `json:"slot" bson:"slot"`

	// PrevAnchor records the anchor before the last advance, enabling
	// the reverse operation. Empty when the task never moved.
	PrevAnchor string `json:"prev_anchor,omitempty" bson:"prev_anchor,omitempty"`

	Tags []Tag `json:"tags,omitempty" bson:"tags,omitempty"`

	// Height is the measured rendered footprint, refreshed by the render
	// surface after each draw. Zero means "not measured yet"; positioning
	// falls back to the configured default card height.
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`
}

// PathType selects the flowline routing geometry.
type PathType string

// Supported flowline path types.
const (
	PathStraight      PathType = "straight"
	PathPerpendicular PathType = "perpendicular"
	PathCurved        PathType = "curved"
	PathBezier        PathType = "bezier"
	PathStepped       PathType = "stepped"
)

// Valid reports whether the path type is supported by the router.
func (p PathType) Valid() bool {
	switch p {
	case PathStraight, PathPerpendicular, PathCurved, PathBezier, PathStepped:
		return true
	}
	return false
}

// Flowline is a directed connector between two distinct nodes.
// Identity is the ordered (Source, Target) pair.
type Flowline struct {
	Source   string   `json:"source" bson:"source"`
	Target   string   `json:"target" bson:"target"`
	PathType PathType `json:"path_type" bson:"path_type"`
}

// Diagram is the canonical serialization format for a whole diagram.
// Used for API responses, storage, and caching. The format is designed
// for round-trip fidelity: export → re-import produces identical state.
type Diagram struct {
	ID        string     `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string     `json:"name,omitempty" bson:"name,omitempty"`
	Nodes     []Node     `json:"nodes" bson:"nodes"`
	Tasks     []Task     `json:"tasks" bson:"tasks"`
	Flowlines []Flowline `json:"flowlines" bson:"flowlines"`
}

// NewID returns a fresh opaque element identifier.
func NewID() string { return uuid.NewString() }
