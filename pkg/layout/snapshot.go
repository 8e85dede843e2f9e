package layout

import (
	"maps"

	"github.com/flowboardhq/flowboard/pkg/geometry"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

// Snapshot captures every element position (and every flowline's rendered
// path) before a reversible layout transition. The reverse transition
// restores from the snapshot rather than re-deriving from live state,
// because in-flight animations may leave transient values behind.
type Snapshot struct {
	Nodes map[string]geometry.Point
	Tasks map[string]geometry.Point
	Paths map[topology.Flowline]string
}

// CaptureSnapshot copies the current node positions from the store, the
// task positions from the engine's position map, and the rendered path
// strings. All maps are copied; later mutations do not leak into the
// snapshot.
func CaptureSnapshot(store topology.Store, taskPositions map[string]geometry.Point, paths map[topology.Flowline]string) Snapshot {
	s := Snapshot{
		Nodes: make(map[string]geometry.Point),
		Tasks: make(map[string]geometry.Point, len(taskPositions)),
		Paths: make(map[topology.Flowline]string, len(paths)),
	}
	for _, n := range store.Nodes() {
		s.Nodes[n.ID] = n.Position
	}
	maps.Copy(s.Tasks, taskPositions)
	maps.Copy(s.Paths, paths)
	return s
}

// RestoreNodes writes the snapshotted node positions back to the store.
// Nodes created after the snapshot keep their current position; nodes
// deleted since are skipped.
func (s Snapshot) RestoreNodes(store topology.Store) {
	for id, pos := range s.Nodes {
		if _, ok := store.Node(id); ok {
			_ = store.SetNodePosition(id, pos)
		}
	}
}
