package component

import "github.com/cubefield/server/internal/core/ecs"

// Parent points at the owning entity.
type Parent struct {
	ID ecs.EntityID
}

// Children lists owned entities, despawned together with their owner.
type Children struct {
	IDs []ecs.EntityID
}
