package topology

import (
	"slices"
	"sync"

	"github.com/flowboardhq/flowboard/pkg/errors"
	"github.com/flowboardhq/flowboard/pkg/geometry"
)

// Store is the mutable topology the engine operates on. Implementations
// provide pure accessors and mutators; all layout decisions (slot
// allocation, compaction, positioning) happen in the layout packages.
//
// Lifecycle integrity is enforced here: DeleteNode rejects nodes that
// still have attached tasks (ORPHAN_TASK) or are the sole start node
// (CANNOT_DELETE_START_NODE), and AddFlowline rejects self-references and
// duplicates.
type Store interface {
	AddNode(n Node) (Node, error)
	Node(id string) (Node, bool)
	Nodes() []Node
	StartNode() (Node, bool)
	SetNodePosition(id string, p geometry.Point) error
	SetLabel(id, label string) error
	DeleteNode(id string) error

	AddTask(t Task) (Task, error)
	Task(id string) (Task, bool)
	Tasks() []Task
	TasksForAnchor(anchor string) []Task
	SetSlot(taskID string, slot int) error
	SetAnchor(taskID, anchor string, slot int) error
	SetTags(taskID string, tags []Tag) error
	SetTaskHeight(taskID string, height float64) error
	DeleteTask(id string) error

	AddFlowline(source, target string, pathType PathType) (Flowline, error)
	Flowline(source, target string) (Flowline, bool)
	Flowlines() []Flowline
	FlowlinesTouching(nodeID string) []Flowline
	SetPathType(source, target string, pathType PathType) error
	RemoveFlowline(source, target string) error

	Export() Diagram
	Load(d Diagram) error
}

// flowKey identifies a flowline by its ordered endpoint pair.
type flowKey struct{ source, target string }

// MemStore is the in-memory Store implementation. It is safe for
// concurrent readers; writes are serialized by an internal mutex, though
// the engine itself mutates from a single logical timeline.
type MemStore struct {
	mu        sync.RWMutex
	nodes     map[string]*Node
	tasks     map[string]*Task
	flowlines map[flowKey]*Flowline
	order     []string // node insertion order, for deterministic listings
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes:     make(map[string]*Node),
		tasks:     make(map[string]*Task),
		flowlines: make(map[flowKey]*Flowline),
	}
}

// AddNode adds a node, assigning an ID if empty. The first node added
// becomes the start node unless the diagram already has one.
func (s *MemStore) AddNode(n Node) (Node, error) {
	if !n.Kind.Valid() {
		return Node{}, errors.New(errors.ErrCodeInvalidNodeKind, "unknown node kind %q", n.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = NewID()
	}
	if _, exists := s.nodes[n.ID]; exists {
		return Node{}, errors.New(errors.ErrCodeInvalidInput, "duplicate node id %q", n.ID)
	}
	if len(s.nodes) == 0 && !s.hasStartLocked() {
		n.Start = true
	}

	node := n
	s.nodes[node.ID] = &node
	s.order = append(s.order, node.ID)
	return node, nil
}

// Node returns the node with the given ID.
func (s *MemStore) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns all nodes in insertion order.
func (s *MemStore) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Node, 0, len(s.nodes))
	for _, id := range s.order {
		if n, ok := s.nodes[id]; ok {
			out = append(out, *n)
		}
	}
	return out
}

// StartNode returns the diagram's start node, if any.
func (s *MemStore) StartNode() (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if n, ok := s.nodes[id]; ok && n.Start {
			return *n, true
		}
	}
	return Node{}, false
}

func (s *MemStore) hasStartLocked() bool {
	for _, n := range s.nodes {
		if n.Start {
			return true
		}
	}
	return false
}

// SetNodePosition moves a node in canvas space.
func (s *MemStore) SetNodePosition(id string, p geometry.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	n.Position = p
	return nil
}

// SetLabel updates a node's display label.
func (s *MemStore) SetLabel(id, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	n.Label = label
	return nil
}

// DeleteNode removes a node and every flowline touching it.
//
// Deletion is all-or-nothing: if the node still has attached tasks the
// call fails with ORPHAN_TASK and the topology is unchanged. Callers must
// reassign tasks to another anchor first. The sole start node is never
// deletable.
func (s *MemStore) DeleteNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	if n.Start && s.startCountLocked() == 1 {
		return errors.New(errors.ErrCodeCannotDeleteStart, "the start node cannot be deleted")
	}
	if c := s.taskCountLocked(id); c > 0 {
		return errors.New(errors.ErrCodeOrphanTask,
			"node %q has %d attached tasks; reassign them before deleting", id, c)
	}

	delete(s.nodes, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	for k := range s.flowlines {
		if k.source == id || k.target == id {
			delete(s.flowlines, k)
		}
	}
	return nil
}

func (s *MemStore) startCountLocked() int {
	c := 0
	for _, n := range s.nodes {
		if n.Start {
			c++
		}
	}
	return c
}

func (s *MemStore) taskCountLocked(anchor string) int {
	c := 0
	for _, t := range s.tasks {
		if t.Anchor == anchor {
			c++
		}
	}
	return c
}

// AddTask adds a task, assigning an ID if empty. The slot must already be
// allocated by the slot allocator; the store only validates the anchor.
func (s *MemStore) AddTask(t Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[t.Anchor]; !ok {
		return Task{}, errors.New(errors.ErrCodeNodeNotFound, "anchor node %q not found", t.Anchor)
	}
	if t.Slot < 0 {
		return Task{}, errors.New(errors.ErrCodeInvalidInput, "slot must be non-negative, got %d", t.Slot)
	}
	if t.ID == "" {
		t.ID = NewID()
	}
	if _, exists := s.tasks[t.ID]; exists {
		return Task{}, errors.New(errors.ErrCodeInvalidInput, "duplicate task id %q", t.ID)
	}

	task := t
	s.tasks[task.ID] = &task
	return task, nil
}

// Task returns the task with the given ID.
func (s *MemStore) Task(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Tasks returns all tasks, ordered by anchor then slot for determinism.
func (s *MemStore) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b Task) int {
		if a.Anchor != b.Anchor {
			if a.Anchor < b.Anchor {
				return -1
			}
			return 1
		}
		return a.Slot - b.Slot
	})
	return out
}

// TasksForAnchor returns the tasks anchored to a node, sorted by slot
// ascending.
func (s *MemStore) TasksForAnchor(anchor string) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Task
	for _, t := range s.tasks {
		if t.Anchor == anchor {
			out = append(out, *t)
		}
	}
	slices.SortFunc(out, func(a, b Task) int { return a.Slot - b.Slot })
	return out
}

// SetSlot reassigns a task's slot within its current anchor.
func (s *MemStore) SetSlot(taskID string, slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return errors.New(errors.ErrCodeTaskNotFound, "task %q not found", taskID)
	}
	if slot < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "slot must be non-negative, got %d", slot)
	}
	t.Slot = slot
	return nil
}

// SetAnchor moves a task to a new anchor at the given slot, recording the
// previous anchor for the reverse operation.
func (s *MemStore) SetAnchor(taskID, anchor string, slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return errors.New(errors.ErrCodeTaskNotFound, "task %q not found", taskID)
	}
	if _, ok := s.nodes[anchor]; !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "anchor node %q not found", anchor)
	}
	if slot < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "slot must be non-negative, got %d", slot)
	}
	if anchor != t.Anchor {
		t.PrevAnchor = t.Anchor
	}
	t.Anchor = anchor
	t.Slot = slot
	return nil
}

// SetTags replaces a task's tag list.
func (s *MemStore) SetTags(taskID string, tags []Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return errors.New(errors.ErrCodeTaskNotFound, "task %q not found", taskID)
	}
	t.Tags = slices.Clone(tags)
	return nil
}

// SetTaskHeight records a task's measured rendered height.
func (s *MemStore) SetTaskHeight(taskID string, height float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return errors.New(errors.ErrCodeTaskNotFound, "task %q not found", taskID)
	}
	t.Height = height
	return nil
}

// DeleteTask removes a task. The caller is expected to compact the
// anchor's slots afterwards.
func (s *MemStore) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return errors.New(errors.ErrCodeTaskNotFound, "task %q not found", id)
	}
	delete(s.tasks, id)
	return nil
}

// AddFlowline connects two distinct existing nodes. At most one flowline
// exists per ordered pair: a duplicate request returns the existing
// flowline together with a DUPLICATE_FLOWLINE error, never a second copy.
func (s *MemStore) AddFlowline(source, target string, pathType PathType) (Flowline, error) {
	if !pathType.Valid() {
		return Flowline{}, errors.New(errors.ErrCodeInvalidPathType, "unknown path type %q", pathType)
	}
	if source == target {
		return Flowline{}, errors.New(errors.ErrCodeSelfFlowline, "flowline source and target must differ")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[source]; !ok {
		return Flowline{}, errors.New(errors.ErrCodeNodeNotFound, "source node %q not found", source)
	}
	if _, ok := s.nodes[target]; !ok {
		return Flowline{}, errors.New(errors.ErrCodeNodeNotFound, "target node %q not found", target)
	}

	key := flowKey{source, target}
	if existing, ok := s.flowlines[key]; ok {
		return *existing, errors.New(errors.ErrCodeDuplicateFlowline,
			"flowline %s -> %s already exists", source, target)
	}

	fl := Flowline{Source: source, Target: target, PathType: pathType}
	s.flowlines[key] = &fl
	return fl, nil
}

// Flowline returns the flowline for the ordered pair, if present.
func (s *MemStore) Flowline(source, target string) (Flowline, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fl, ok := s.flowlines[flowKey{source, target}]
	if !ok {
		return Flowline{}, false
	}
	return *fl, true
}

// Flowlines returns all flowlines, sorted by (source, target).
func (s *MemStore) Flowlines() []Flowline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Flowline, 0, len(s.flowlines))
	for _, fl := range s.flowlines {
		out = append(out, *fl)
	}
	sortFlowlines(out)
	return out
}

// FlowlinesTouching returns every flowline with the node as either
// endpoint.
func (s *MemStore) FlowlinesTouching(nodeID string) []Flowline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Flowline
	for _, fl := range s.flowlines {
		if fl.Source == nodeID || fl.Target == nodeID {
			out = append(out, *fl)
		}
	}
	sortFlowlines(out)
	return out
}

// SetPathType changes the routing geometry of an existing flowline.
func (s *MemStore) SetPathType(source, target string, pathType PathType) error {
	if !pathType.Valid() {
		return errors.New(errors.ErrCodeInvalidPathType, "unknown path type %q", pathType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fl, ok := s.flowlines[flowKey{source, target}]
	if !ok {
		return errors.New(errors.ErrCodeFlowlineNotFound, "flowline %s -> %s not found", source, target)
	}
	fl.PathType = pathType
	return nil
}

// RemoveFlowline deletes the flowline for the ordered pair.
func (s *MemStore) RemoveFlowline(source, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := flowKey{source, target}
	if _, ok := s.flowlines[key]; !ok {
		return errors.New(errors.ErrCodeFlowlineNotFound, "flowline %s -> %s not found", source, target)
	}
	delete(s.flowlines, key)
	return nil
}

// Export serializes the full topology. Output ordering is deterministic
// so exports of identical state are byte-identical.
func (s *MemStore) Export() Diagram {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := Diagram{
		Nodes:     make([]Node, 0, len(s.nodes)),
		Tasks:     make([]Task, 0, len(s.tasks)),
		Flowlines: make([]Flowline, 0, len(s.flowlines)),
	}
	for _, id := range s.order {
		if n, ok := s.nodes[id]; ok {
			d.Nodes = append(d.Nodes, *n)
		}
	}
	for _, t := range s.tasks {
		d.Tasks = append(d.Tasks, *t)
	}
	slices.SortFunc(d.Tasks, func(a, b Task) int {
		if a.Anchor != b.Anchor {
			if a.Anchor < b.Anchor {
				return -1
			}
			return 1
		}
		return a.Slot - b.Slot
	})
	for _, fl := range s.flowlines {
		d.Flowlines = append(d.Flowlines, *fl)
	}
	sortFlowlines(d.Flowlines)
	return d
}

// Load replaces the store contents with the diagram. Returns an error and
// leaves the store unchanged if the diagram references missing nodes.
func (s *MemStore) Load(d Diagram) error {
	nodes := make(map[string]*Node, len(d.Nodes))
	order := make([]string, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		if !n.Kind.Valid() {
			return errors.New(errors.ErrCodeInvalidNodeKind, "node %q has unknown kind %q", n.ID, n.Kind)
		}
		node := n
		nodes[node.ID] = &node
		order = append(order, node.ID)
	}

	tasks := make(map[string]*Task, len(d.Tasks))
	for _, t := range d.Tasks {
		if _, ok := nodes[t.Anchor]; !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "task %q references missing anchor %q", t.ID, t.Anchor)
		}
		task := t
		tasks[task.ID] = &task
	}

	flowlines := make(map[flowKey]*Flowline, len(d.Flowlines))
	for _, fl := range d.Flowlines {
		if _, ok := nodes[fl.Source]; !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "flowline references missing source %q", fl.Source)
		}
		if _, ok := nodes[fl.Target]; !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "flowline references missing target %q", fl.Target)
		}
		line := fl
		flowlines[flowKey{line.Source, line.Target}] = &line
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = nodes
	s.tasks = tasks
	s.flowlines = flowlines
	s.order = order
	return nil
}

func sortFlowlines(fls []Flowline) {
	slices.SortFunc(fls, func(a, b Flowline) int {
		if a.Source != b.Source {
			if a.Source < b.Source {
				return -1
			}
			return 1
		}
		if a.Target < b.Target {
			return -1
		}
		if a.Target > b.Target {
			return 1
		}
		return 0
	})
}

// Ensure MemStore implements Store.
var _ Store = (*MemStore)(nil)
