package event

import (
	"github.com/cubefield/server/internal/component"
	"github.com/cubefield/server/internal/core/ecs"
)

// EntitySpawned is emitted when a completed job's batch materializes an entity.
type EntitySpawned struct {
	Entity   ecs.EntityID
	JobID    uint64
	Position component.Vec3
	Mesh     string
	Material string
	Screen   string
	Orphan   bool // the job's screen was no longer active when it landed
}

// EntityDespawned is emitted by the cleanup system for every destroyed entity.
type EntityDespawned struct {
	Entity ecs.EntityID
}

// StateChanged is emitted after exit and enter hooks have run.
type StateChanged struct {
	From string
	To   string
}
