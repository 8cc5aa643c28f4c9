package world

import (
	"github.com/cubefield/server/internal/component"
	"github.com/cubefield/server/internal/core/ecs"
)

// State is the shared mutable world: the ECS world plus one store per
// component type. Tick-loop only.
type State struct {
	ecs *ecs.World

	Transforms  *ecs.PtrComponentStore[component.Transform]
	Renderables *ecs.PtrComponentStore[component.Renderable]
	Tags        *ecs.PtrComponentStore[component.ScreenTag]
	Computing   *ecs.PtrComponentStore[component.ComputeTask]
	Parents     *ecs.PtrComponentStore[component.Parent]
	Children    *ecs.PtrComponentStore[component.Children]
	Cameras     *ecs.PtrComponentStore[component.Camera]
	Lights      *ecs.PtrComponentStore[component.PointLight]
	Nodes       *ecs.PtrComponentStore[component.UINode]
}

func NewState() *State {
	w := ecs.NewWorld()
	reg := w.Registry()
	return &State{
		ecs:         w,
		Transforms:  ecs.NewStore[component.Transform](reg),
		Renderables: ecs.NewStore[component.Renderable](reg),
		Tags:        ecs.NewStore[component.ScreenTag](reg),
		Computing:   ecs.NewStore[component.ComputeTask](reg),
		Parents:     ecs.NewStore[component.Parent](reg),
		Children:    ecs.NewStore[component.Children](reg),
		Cameras:     ecs.NewStore[component.Camera](reg),
		Lights:      ecs.NewStore[component.PointLight](reg),
		Nodes:       ecs.NewStore[component.UINode](reg),
	}
}

// ECS exposes the underlying world for the cleanup system.
func (s *State) ECS() *ecs.World { return s.ecs }

// Spawn allocates an empty entity.
func (s *State) Spawn() ecs.EntityID {
	return s.ecs.CreateEntity()
}

// SpawnTagged allocates an entity carrying tag.
func (s *State) SpawnTagged(tag component.ScreenTag) ecs.EntityID {
	id := s.ecs.CreateEntity()
	s.Tags.Set(id, &tag)
	return id
}

// Alive reports whether id is allocated and not queued for destruction.
func (s *State) Alive(id ecs.EntityID) bool {
	return s.ecs.Alive(id) && !s.ecs.Marked(id)
}

// AddChild records that parent owns child.
func (s *State) AddChild(parent, child ecs.EntityID) {
	s.Parents.Set(child, &component.Parent{ID: parent})
	if c, ok := s.Children.Get(parent); ok {
		c.IDs = append(c.IDs, child)
		return
	}
	s.Children.Set(parent, &component.Children{IDs: []ecs.EntityID{child}})
}

// DespawnRecursive queues id and everything it owns for destruction at the
// end of the tick.
func (s *State) DespawnRecursive(id ecs.EntityID) {
	if !s.ecs.Alive(id) || s.ecs.Marked(id) {
		return
	}
	s.ecs.MarkForDestruction(id)
	if c, ok := s.Children.Get(id); ok {
		for _, child := range c.IDs {
			s.DespawnRecursive(child)
		}
	}
	if p, ok := s.Parents.Get(id); ok && !s.ecs.Marked(p.ID) {
		s.detach(p.ID, id)
	}
}

// DespawnTagged queues every entity carrying tag, and its descendants, for
// destruction. Returns how many tagged roots were queued.
func (s *State) DespawnTagged(tag component.ScreenTag) int {
	n := 0
	for _, id := range s.Tags.IDs() {
		t, _ := s.Tags.Get(id)
		if *t != tag || s.ecs.Marked(id) {
			continue
		}
		s.DespawnRecursive(id)
		n++
	}
	return n
}

// CountTagged returns how many live entities carry tag.
func (s *State) CountTagged(tag component.ScreenTag) int {
	n := 0
	s.Tags.Each(func(id ecs.EntityID, t *component.ScreenTag) {
		if *t == tag && !s.ecs.Marked(id) {
			n++
		}
	})
	return n
}

// EachRenderable visits every live entity that has both a transform and a
// renderable.
func (s *State) EachRenderable(fn func(ecs.EntityID, *component.Transform, *component.Renderable)) {
	ecs.Each2(s.Transforms, s.Renderables, func(id ecs.EntityID, t *component.Transform, r *component.Renderable) {
		if s.ecs.Marked(id) {
			return
		}
		fn(id, t, r)
	})
}

// CountRenderables returns the number of entities EachRenderable would visit.
func (s *State) CountRenderables() int {
	n := 0
	s.EachRenderable(func(ecs.EntityID, *component.Transform, *component.Renderable) { n++ })
	return n
}

// Flush destroys everything queued this tick and releases the asset
// references held by destroyed renderables.
func (s *State) Flush() []ecs.EntityID {
	for _, id := range s.pendingRenderables() {
		r, _ := s.Renderables.Get(id)
		r.Mesh.Release()
		r.Material.Release()
	}
	return s.ecs.FlushDestroyQueue()
}

func (s *State) pendingRenderables() []ecs.EntityID {
	if s.ecs.PendingDestruction() == 0 {
		return nil
	}
	var ids []ecs.EntityID
	s.Renderables.Each(func(id ecs.EntityID, _ *component.Renderable) {
		if s.ecs.Marked(id) {
			ids = append(ids, id)
		}
	})
	return ids
}

// Live returns the number of allocated entities.
func (s *State) Live() int { return s.ecs.Pool().Live() }

func (s *State) detach(parent, child ecs.EntityID) {
	c, ok := s.Children.Get(parent)
	if !ok {
		return
	}
	for i, id := range c.IDs {
		if id == child {
			c.IDs = append(c.IDs[:i], c.IDs[i+1:]...)
			return
		}
	}
}
