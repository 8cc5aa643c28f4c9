package system

import (
	"time"

	"github.com/cubefield/server/internal/command"
	coresys "github.com/cubefield/server/internal/core/system"
	"github.com/cubefield/server/internal/job"
	"go.uber.org/zap"
)

// TaskPollSystem checks every in-flight job once per tick without blocking.
// A finished job's batch moves to the command queue and its handle is
// dropped; unfinished jobs are left for the next tick. Phase 2 (Update).
type TaskPollSystem struct {
	tasks *job.Table
	queue *command.Queue
	log   *zap.Logger

	observed uint64
}

func NewTaskPollSystem(tasks *job.Table, queue *command.Queue, log *zap.Logger) *TaskPollSystem {
	return &TaskPollSystem{tasks: tasks, queue: queue, log: log}
}

func (s *TaskPollSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *TaskPollSystem) Update(_ time.Duration) {
	s.tasks.Each(func(h *job.Handle) {
		b, ok := h.Task.Poll()
		if !ok {
			return
		}
		s.queue.Append(b)
		s.tasks.Remove(h.Slot)
		s.observed++
		s.log.Debug("job completed",
			zap.Uint64("job", h.Task.ID()),
			zap.Stringer("slot", h.Slot),
			zap.Duration("age", h.Task.Age()),
		)
	})
}

// Observed returns how many completions this system has handed to the queue.
func (s *TaskPollSystem) Observed() uint64 { return s.observed }
