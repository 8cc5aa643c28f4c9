package system

import (
	"time"

	"github.com/cubefield/server/internal/core/event"
	coresys "github.com/cubefield/server/internal/core/system"
	"github.com/cubefield/server/internal/world"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end
// and announces every destroyed entity. Phase 6 (Cleanup).
type CleanupSystem struct {
	world *world.State
	bus   *event.Bus
}

func NewCleanupSystem(ws *world.State, bus *event.Bus) *CleanupSystem {
	return &CleanupSystem{world: ws, bus: bus}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	for _, id := range s.world.Flush() {
		event.Emit(s.bus, event.EntityDespawned{Entity: id})
	}
}
