package system

import (
	"time"

	"github.com/cubefield/server/internal/command"
	"github.com/cubefield/server/internal/core/event"
	coresys "github.com/cubefield/server/internal/core/system"
	"github.com/cubefield/server/internal/world"
	"go.uber.org/zap"
)

// ScreenFunc reports the name of the active screen.
type ScreenFunc func() string

// CommandApplySystem is the single point where queued job results mutate
// the world. Phase 3 (Apply).
type CommandApplySystem struct {
	queue  *command.Queue
	ctx    command.Context
	screen ScreenFunc
}

func NewCommandApplySystem(queue *command.Queue, ws *world.State, bus *event.Bus, screen ScreenFunc, log *zap.Logger) *CommandApplySystem {
	return &CommandApplySystem{
		queue:  queue,
		ctx:    command.Context{World: ws, Bus: bus, Log: log},
		screen: screen,
	}
}

func (s *CommandApplySystem) Phase() coresys.Phase { return coresys.PhaseApply }

func (s *CommandApplySystem) Update(_ time.Duration) {
	if s.queue.Len() == 0 {
		return
	}
	s.ctx.Screen = s.screen()
	batches, ops := s.queue.Apply(&s.ctx)
	s.ctx.Log.Debug("applied deferred mutations", zap.Int("batches", batches), zap.Int("ops", ops))
}
