package topology

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/flowboardhq/flowboard/pkg/errors"
	"github.com/flowboardhq/flowboard/pkg/geometry"
)

func mustAddNode(t *testing.T, s *MemStore, n Node) Node {
	t.Helper()
	added, err := s.AddNode(n)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	return added
}

func mustAddTask(t *testing.T, s *MemStore, task Task) Task {
	t.Helper()
	added, err := s.AddTask(task)
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	return added
}

func TestAddNode(t *testing.T) {
	s := NewMemStore()

	first := mustAddNode(t, s, Node{Kind: KindTerminal, Label: "Start"})
	if !first.Start {
		t.Error("first node should become the start node")
	}
	if first.ID == "" {
		t.Error("AddNode should assign an ID")
	}

	second := mustAddNode(t, s, Node{Kind: KindProcess, Label: "Work"})
	if second.Start {
		t.Error("second node should not be a start node")
	}

	if _, err := s.AddNode(Node{Kind: "cloud"}); !errors.Is(err, errors.ErrCodeInvalidNodeKind) {
		t.Errorf("invalid kind: err = %v, want INVALID_NODE_KIND", err)
	}
}

func TestDeleteStartNodeRejected(t *testing.T) {
	s := NewMemStore()
	start := mustAddNode(t, s, Node{Kind: KindTerminal})
	mustAddNode(t, s, Node{Kind: KindProcess})

	err := s.DeleteNode(start.ID)
	if !errors.Is(err, errors.ErrCodeCannotDeleteStart) {
		t.Fatalf("err = %v, want CANNOT_DELETE_START_NODE", err)
	}
	if _, ok := s.Node(start.ID); !ok {
		t.Error("start node should still exist after rejected delete")
	}
}

func TestDeleteNodeWithTasksRejected(t *testing.T) {
	s := NewMemStore()
	mustAddNode(t, s, Node{Kind: KindTerminal})
	n := mustAddNode(t, s, Node{Kind: KindProcess})
	mustAddTask(t, s, Task{Anchor: n.ID, Slot: 0})
	mustAddTask(t, s, Task{Anchor: n.ID, Slot: 1})

	err := s.DeleteNode(n.ID)
	if !errors.Is(err, errors.ErrCodeOrphanTask) {
		t.Fatalf("err = %v, want ORPHAN_TASK", err)
	}

	// Delete must not partially apply.
	if _, ok := s.Node(n.ID); !ok {
		t.Error("node should survive rejected delete")
	}
	if got := len(s.TasksForAnchor(n.ID)); got != 2 {
		t.Errorf("tasks = %d, want 2", got)
	}
}

func TestDeleteNodeCascadesFlowlines(t *testing.T) {
	s := NewMemStore()
	a := mustAddNode(t, s, Node{Kind: KindTerminal})
	b := mustAddNode(t, s, Node{Kind: KindProcess})
	c := mustAddNode(t, s, Node{Kind: KindProcess})
	if _, err := s.AddFlowline(a.ID, b.ID, PathCurved); err != nil {
		t.Fatalf("AddFlowline: %v", err)
	}
	if _, err := s.AddFlowline(b.ID, c.ID, PathStraight); err != nil {
		t.Fatalf("AddFlowline: %v", err)
	}

	if err := s.DeleteNode(b.ID); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if got := len(s.Flowlines()); got != 0 {
		t.Errorf("flowlines after delete = %d, want 0", got)
	}
}

func TestAddFlowlineGuards(t *testing.T) {
	s := NewMemStore()
	a := mustAddNode(t, s, Node{Kind: KindTerminal})
	b := mustAddNode(t, s, Node{Kind: KindProcess})

	if _, err := s.AddFlowline(a.ID, a.ID, PathStraight); !errors.Is(err, errors.ErrCodeSelfFlowline) {
		t.Errorf("self flowline: err = %v, want SELF_FLOWLINE", err)
	}

	first, err := s.AddFlowline(a.ID, b.ID, PathBezier)
	if err != nil {
		t.Fatalf("AddFlowline: %v", err)
	}

	// A duplicate returns the existing flowline alongside the error.
	dup, err := s.AddFlowline(a.ID, b.ID, PathStepped)
	if !errors.Is(err, errors.ErrCodeDuplicateFlowline) {
		t.Fatalf("duplicate: err = %v, want DUPLICATE_FLOWLINE", err)
	}
	if dup != first {
		t.Errorf("duplicate returned %+v, want existing %+v", dup, first)
	}
	if got := len(s.Flowlines()); got != 1 {
		t.Errorf("flowlines = %d, want 1", got)
	}

	// The reverse direction is a distinct identity.
	if _, err := s.AddFlowline(b.ID, a.ID, PathStraight); err != nil {
		t.Errorf("reverse direction should be allowed: %v", err)
	}
}

func TestSetAnchorRecordsPrevious(t *testing.T) {
	s := NewMemStore()
	a := mustAddNode(t, s, Node{Kind: KindTerminal})
	b := mustAddNode(t, s, Node{Kind: KindProcess})
	task := mustAddTask(t, s, Task{Anchor: a.ID, Slot: 0})

	if err := s.SetAnchor(task.ID, b.ID, 0); err != nil {
		t.Fatalf("SetAnchor: %v", err)
	}
	got, _ := s.Task(task.ID)
	if got.Anchor != b.ID || got.PrevAnchor != a.ID {
		t.Errorf("task = %+v, want anchor %s prev %s", got, b.ID, a.ID)
	}
}

func TestTasksForAnchorSorted(t *testing.T) {
	s := NewMemStore()
	n := mustAddNode(t, s, Node{Kind: KindProcess})
	mustAddTask(t, s, Task{Anchor: n.ID, Slot: 2})
	mustAddTask(t, s, Task{Anchor: n.ID, Slot: 0})
	mustAddTask(t, s, Task{Anchor: n.ID, Slot: 1})

	tasks := s.TasksForAnchor(n.ID)
	for i, task := range tasks {
		if task.Slot != i {
			t.Errorf("tasks[%d].Slot = %d, want %d", i, task.Slot, i)
		}
	}
}

func TestFlowlinesTouching(t *testing.T) {
	s := NewMemStore()
	a := mustAddNode(t, s, Node{Kind: KindTerminal})
	b := mustAddNode(t, s, Node{Kind: KindProcess})
	c := mustAddNode(t, s, Node{Kind: KindProcess})
	s.AddFlowline(a.ID, b.ID, PathStraight)
	s.AddFlowline(b.ID, c.ID, PathStraight)
	s.AddFlowline(a.ID, c.ID, PathStraight)

	if got := len(s.FlowlinesTouching(b.ID)); got != 2 {
		t.Errorf("flowlines touching b = %d, want 2", got)
	}
	if got := len(s.FlowlinesTouching(a.ID)); got != 2 {
		t.Errorf("flowlines touching a = %d, want 2", got)
	}
}

func TestExportLoadRoundTrip(t *testing.T) {
	s := NewMemStore()
	a := mustAddNode(t, s, Node{Kind: KindTerminal, Label: "Start", Position: geometry.Point{X: 10, Y: 20}})
	b := mustAddNode(t, s, Node{Kind: KindDecision, Label: "Fork", Position: geometry.Point{X: 300, Y: 20}})
	mustAddTask(t, s, Task{Anchor: b.ID, Slot: 0, Tags: []Tag{{Category: TagCategoryUrgency, Option: TagUrgent}}})
	s.AddFlowline(a.ID, b.ID, PathPerpendicular)

	exported := s.Export()

	// JSON round trip preserves the full document.
	data, err := json.Marshal(exported)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Diagram
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored := NewMemStore()
	if err := restored.Load(decoded); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(restored.Export(), exported) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", restored.Export(), exported)
	}
}

func TestLoadRejectsDanglingReferences(t *testing.T) {
	s := NewMemStore()
	err := s.Load(Diagram{
		Nodes: []Node{{ID: "a", Kind: KindProcess}},
		Tasks: []Task{{ID: "t", Anchor: "missing"}},
	})
	if !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Fatalf("err = %v, want NODE_NOT_FOUND", err)
	}
}

func TestMemDiagramStore(t *testing.T) {
	ctx := t.Context()
	ds := NewMemDiagramStore()

	id, err := ds.Save(ctx, Diagram{Name: "flow"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := ds.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "flow" {
		t.Errorf("Name = %q, want flow", got.Name)
	}

	if _, err := ds.Get(ctx, "nope"); !errors.Is(err, errors.ErrCodeDiagramNotFound) {
		t.Errorf("missing: err = %v, want DIAGRAM_NOT_FOUND", err)
	}

	if err := ds.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if list, _ := ds.List(ctx); len(list) != 0 {
		t.Errorf("List after delete = %d entries, want 0", len(list))
	}
}
