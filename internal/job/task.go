package job

import (
	"time"

	"github.com/cubefield/server/internal/command"
)

// Task is the future of one submitted job. The pool resolves it at most
// once; Poll hands the result out at most once.
type Task struct {
	id        uint64
	submitted time.Time
	done      chan command.Batch
}

func newTask(id uint64) *Task {
	return &Task{
		id:        id,
		submitted: time.Now(),
		done:      make(chan command.Batch, 1),
	}
}

func (t *Task) ID() uint64 { return t.id }

// Age is the wall time since submission.
func (t *Task) Age() time.Duration { return time.Since(t.submitted) }

// Poll checks for a result without blocking. ok is true exactly once, on the
// first call after the job finished.
func (t *Task) Poll() (b command.Batch, ok bool) {
	select {
	case b = <-t.done:
		return b, true
	default:
		return command.Batch{}, false
	}
}

func (t *Task) resolve(b command.Batch) {
	t.done <- b
}
