package job

import (
	"errors"
	"fmt"

	"github.com/cubefield/server/internal/core/ecs"
)

// ErrSlotBusy is returned when a slot already has an in-flight job.
var ErrSlotBusy = errors.New("job: slot already computing")

// Handle records one in-flight job against the slot it will land on.
type Handle struct {
	Slot ecs.EntityID
	Task *Task
}

// Table maps slots to their in-flight jobs. Owned by the tick loop; a slot
// without an entry is not computing.
type Table struct {
	handles *ecs.PtrComponentStore[Handle]
	nextID  uint64
}

func NewTable() *Table {
	return &Table{handles: ecs.NewPtrComponentStore[Handle]()}
}

// NextID allocates a job id.
func (t *Table) NextID() uint64 {
	t.nextID++
	return t.nextID
}

// Track registers task as the in-flight job of slot.
func (t *Table) Track(slot ecs.EntityID, task *Task) error {
	if t.handles.Has(slot) {
		return fmt.Errorf("track job %d on %s: %w", task.ID(), slot, ErrSlotBusy)
	}
	t.handles.Set(slot, &Handle{Slot: slot, Task: task})
	return nil
}

func (t *Table) Get(slot ecs.EntityID) (*Handle, bool) {
	return t.handles.Get(slot)
}

// Remove drops the handle. The job itself is not interrupted.
func (t *Table) Remove(slot ecs.EntityID) {
	t.handles.Remove(slot)
}

func (t *Table) Len() int { return t.handles.Len() }

// Each visits every handle. fn may Remove the visited slot.
func (t *Table) Each(fn func(*Handle)) {
	t.handles.Each(func(_ ecs.EntityID, h *Handle) { fn(h) })
}
