// Package layout implements the slot allocator, the task stack
// positioner, the Eisenhower matrix reflow, and the position snapshots
// the engine takes before reversible transitions.
//
// The allocator and positioner treat anchors independently: changing one
// anchor's tasks never affects another anchor's computed positions.
package layout

import (
	"slices"

	"github.com/flowboardhq/flowboard/pkg/topology"
)

// FindFreeSlot returns the lowest non-negative slot index not used by any
// of the given tasks. Gaps are filled before appending: tasks at slots
// {0, 2} yield 1, not 3.
//
// Runs in O(n log n) over the tasks of a single anchor.
func FindFreeSlot(tasks []topology.Task) int {
	used := make([]int, 0, len(tasks))
	for _, t := range tasks {
		if t.Slot >= 0 {
			used = append(used, t.Slot)
		}
	}
	slices.Sort(used)

	free := 0
	for _, s := range used {
		if s > free {
			break
		}
		if s == free {
			free++
		}
	}
	return free
}

// SlotChange records a task whose slot number changed during compaction.
type SlotChange struct {
	TaskID  string
	OldSlot int
	NewSlot int
}

// Compact reassigns the tasks of one anchor to slots 0..n-1, preserving
// their relative slot order, and returns only the tasks whose slot
// actually changed. Each returned change must be applied to the store and
// the task repositioned.
//
// After compaction the anchor's slot set is exactly {0, 1, ..., n-1}.
func Compact(tasks []topology.Task) []SlotChange {
	ordered := slices.Clone(tasks)
	slices.SortFunc(ordered, func(a, b topology.Task) int { return a.Slot - b.Slot })

	var changes []SlotChange
	for i, t := range ordered {
		if t.Slot != i {
			changes = append(changes, SlotChange{TaskID: t.ID, OldSlot: t.Slot, NewSlot: i})
		}
	}
	return changes
}
