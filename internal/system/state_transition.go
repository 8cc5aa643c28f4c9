package system

import (
	"time"

	"github.com/cubefield/server/internal/core/event"
	coresys "github.com/cubefield/server/internal/core/system"
	"github.com/cubefield/server/internal/state"
)

// StateTransitionSystem applies the requested screen change, running the
// old screen's exit hooks and the new one's enter hooks. The first tick
// runs the initial screen's enter hooks. Phase 0 (Transition).
type StateTransitionSystem[D any] struct {
	machine *state.Machine[D]
	deps    D
	bus     *event.Bus
}

func NewStateTransitionSystem[D any](m *state.Machine[D], deps D, bus *event.Bus) *StateTransitionSystem[D] {
	return &StateTransitionSystem[D]{machine: m, deps: deps, bus: bus}
}

func (s *StateTransitionSystem[D]) Phase() coresys.Phase { return coresys.PhaseTransition }

func (s *StateTransitionSystem[D]) Update(_ time.Duration) {
	if !s.machine.Started() {
		s.machine.Start(s.deps)
		event.Emit(s.bus, event.StateChanged{To: s.machine.Current().String()})
	}
	if from, to, changed := s.machine.Apply(s.deps); changed {
		event.Emit(s.bus, event.StateChanged{From: from.String(), To: to.String()})
	}
}
