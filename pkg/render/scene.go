// Package render turns a layout session into visual artifacts: inline
// SVG, rasterized PNG, and Graphviz DOT for structural views.
//
// Rendering is split in two stages. BuildScene freezes the session into a
// plain Scene value, then each sink (SVG, PNG, DOT) walks the scene
// without touching live engine state. That keeps sinks deterministic and
// testable from hand-built scenes.
package render

import (
	"cmp"
	"slices"

	"github.com/flowboardhq/flowboard/pkg/config"
	"github.com/flowboardhq/flowboard/pkg/engine"
	"github.com/flowboardhq/flowboard/pkg/geometry"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

// sceneMargin pads the computed bounds on every side.
const sceneMargin = 40.0

// SceneNode is a drawable node.
type SceneNode struct {
	ID    string
	Kind  topology.NodeKind
	Label string
	Rect  geometry.Rect
}

// SceneTask is a drawable task card.
type SceneTask struct {
	ID        string
	Anchor    string
	Label     string
	Rect      geometry.Rect
	Satellite geometry.Point
	Completed bool
}

// SceneFlow is a drawable flowline with its precomputed path.
type SceneFlow struct {
	Source   string
	Target   string
	PathType topology.PathType
	Path     string
}

// Scene is the drawable state of a layout session, frozen at build time.
type Scene struct {
	Name      string
	Mode      engine.Mode
	Nodes     []SceneNode
	Tasks     []SceneTask
	Flowlines []SceneFlow
	Width     float64
	Height    float64
}

// BuildScene freezes the session into a scene. Elements are sorted by ID
// so the same session always yields the same scene.
func BuildScene(eng *engine.Engine, store topology.Store, cfg config.Config) Scene {
	s := Scene{Mode: eng.Mode()}

	nodeW := 160.0
	nodeH := 64.0
	for _, n := range store.Nodes() {
		s.Nodes = append(s.Nodes, SceneNode{
			ID:    n.ID,
			Kind:  n.Kind,
			Label: n.Label,
			Rect:  geometry.Rect{X: n.Position.X, Y: n.Position.Y, Width: nodeW, Height: nodeH},
		})
	}
	slices.SortFunc(s.Nodes, func(a, b SceneNode) int { return cmp.Compare(a.ID, b.ID) })

	for _, t := range store.Tasks() {
		pos, ok := eng.TaskPosition(t.ID)
		if !ok {
			continue
		}
		h := t.Height
		if h <= 0 {
			h = cfg.Stack.DefaultTaskHeight
		}
		sat, _ := eng.SatellitePosition(t.ID)
		s.Tasks = append(s.Tasks, SceneTask{
			ID:        t.ID,
			Anchor:    t.Anchor,
			Label:     taskLabel(t),
			Rect:      geometry.Rect{X: pos.X, Y: pos.Y, Width: cfg.Matrix.CardWidth, Height: h},
			Satellite: sat,
			Completed: taskCompleted(t),
		})
	}
	slices.SortFunc(s.Tasks, func(a, b SceneTask) int { return cmp.Compare(a.ID, b.ID) })

	paths := eng.Paths()
	for _, f := range store.Flowlines() {
		s.Flowlines = append(s.Flowlines, SceneFlow{
			Source:   f.Source,
			Target:   f.Target,
			PathType: f.PathType,
			Path:     paths[f],
		})
	}
	slices.SortFunc(s.Flowlines, func(a, b SceneFlow) int {
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})

	s.Width, s.Height = sceneBounds(s)
	return s
}

func taskLabel(t topology.Task) string {
	for _, tag := range t.Tags {
		if tag.Description != "" {
			return tag.Description
		}
	}
	return t.ID
}

func taskCompleted(t topology.Task) bool {
	for _, tag := range t.Tags {
		if tag.Completed {
			return true
		}
	}
	return false
}

func sceneBounds(s Scene) (float64, float64) {
	var maxX, maxY float64
	grow := func(r geometry.Rect) {
		maxX = max(maxX, r.X+r.Width)
		maxY = max(maxY, r.Y+r.Height)
	}
	for _, n := range s.Nodes {
		grow(n.Rect)
	}
	for _, t := range s.Tasks {
		grow(t.Rect)
		maxX = max(maxX, t.Satellite.X)
		maxY = max(maxY, t.Satellite.Y)
	}
	return maxX + sceneMargin, maxY + sceneMargin
}
