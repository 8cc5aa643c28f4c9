// Package command holds the deferred mutation queue: completed background
// jobs describe world changes as tagged operations, and the tick loop applies
// them at one point per tick.
package command

import (
	"github.com/cubefield/server/internal/asset"
	"github.com/cubefield/server/internal/component"
	"github.com/cubefield/server/internal/core/ecs"
	"github.com/cubefield/server/internal/core/event"
	"github.com/cubefield/server/internal/world"
	"go.uber.org/zap"
)

// Kind identifies an operation variant.
type Kind uint8

const (
	KindSpawnRenderable Kind = iota + 1
	KindClearComputeTask
	KindDespawn
)

func (k Kind) String() string {
	switch k {
	case KindSpawnRenderable:
		return "spawn_renderable"
	case KindClearComputeTask:
		return "clear_compute_task"
	case KindDespawn:
		return "despawn"
	}
	return "unknown"
}

// Context is everything an operation may touch while being applied.
type Context struct {
	World  *world.State
	Bus    *event.Bus
	Screen string // currently active screen
	Log    *zap.Logger
}

// Op is one world mutation. Ops carry plain values and handle clones only,
// so they can be built on any goroutine and applied on the tick loop.
type Op interface {
	Kind() Kind
	Apply(ctx *Context)
}

// SpawnRenderable materializes a job result on its reserved slot entity.
// If the slot is gone a fresh entity is used so the result is never dropped.
type SpawnRenderable struct {
	Slot     ecs.EntityID
	JobID    uint64
	Position component.Vec3
	Mesh     asset.Handle[asset.Mesh]
	Material asset.Handle[asset.Material]
	Tag      component.ScreenTag
}

func (SpawnRenderable) Kind() Kind { return KindSpawnRenderable }

func (op SpawnRenderable) Apply(ctx *Context) {
	ws := ctx.World
	id := op.Slot
	if !ws.Alive(id) {
		id = ws.Spawn()
		ctx.Log.Debug("slot gone, spawning result on a new entity",
			zap.Stringer("slot", op.Slot), zap.Stringer("entity", id))
	}
	tag := op.Tag
	ws.Transforms.Set(id, &component.Transform{Translation: op.Position})
	ws.Renderables.Set(id, &component.Renderable{Mesh: op.Mesh, Material: op.Material})
	ws.Tags.Set(id, &tag)

	orphan := op.Tag.Screen != ctx.Screen
	if orphan {
		ctx.Log.Debug("job landed after its screen exited",
			zap.Uint64("job", op.JobID), zap.String("screen", op.Tag.Screen), zap.String("active", ctx.Screen))
	}
	event.Emit(ctx.Bus, event.EntitySpawned{
		Entity:   id,
		JobID:    op.JobID,
		Position: op.Position,
		Mesh:     op.Mesh.Key(),
		Material: op.Material.Key(),
		Screen:   op.Tag.Screen,
		Orphan:   orphan,
	})
}

// ClearComputeTask removes the in-flight marker from a slot.
type ClearComputeTask struct {
	Slot ecs.EntityID
}

func (ClearComputeTask) Kind() Kind { return KindClearComputeTask }

func (op ClearComputeTask) Apply(ctx *Context) {
	ctx.World.Computing.Remove(op.Slot)
}

// Despawn queues an entity and its descendants for end-of-tick destruction.
type Despawn struct {
	Entity ecs.EntityID
}

func (Despawn) Kind() Kind { return KindDespawn }

func (op Despawn) Apply(ctx *Context) {
	ctx.World.DespawnRecursive(op.Entity)
}
