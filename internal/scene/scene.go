// Package scene holds the screen lifecycle hooks: what each screen spawns
// when it becomes active and what it removes when it goes away.
package scene

import (
	"fmt"
	"math/rand/v2"

	"github.com/cubefield/server/internal/asset"
	"github.com/cubefield/server/internal/component"
	"github.com/cubefield/server/internal/core/ecs"
	"github.com/cubefield/server/internal/data"
	"github.com/cubefield/server/internal/job"
	"github.com/cubefield/server/internal/state"
	"github.com/cubefield/server/internal/world"
	"go.uber.org/zap"
)

// Deps is what the hooks work with. Built once in main and handed to the
// state machine; every field is owned by the tick loop except Pool and
// Assets, which are safe for concurrent use.
type Deps struct {
	World  *world.State
	Assets *asset.Server
	Pool   *job.Pool
	Tasks  *job.Table
	Rand   *rand.Rand // seeds per-job sources; tick loop only
	Placer job.Placer
	Scene  *data.SceneDef
	Delay  job.DelayRange
	Log    *zap.Logger
}

// Register installs the hooks of every screen on m.
func Register(m *state.Machine[*Deps]) {
	m.OnEnter(state.Splash, EnterSplash)
	m.OnExit(state.Splash, Despawn(state.Splash))

	m.OnEnter(state.Menu, RegisterAssets, SetupEnvironment, SpawnMenuUI, SpawnGrid)
	m.OnExit(state.Menu, Despawn(state.Menu))
}

// Despawn returns an exit hook removing every entity tagged for s. In-flight
// jobs started by s keep running; their results still land later.
func Despawn(s state.GameState) state.Hook[*Deps] {
	return func(d *Deps) {
		n := d.World.DespawnTagged(s.Tag())
		d.Log.Debug("screen despawned",
			zap.Stringer("state", s),
			zap.Int("roots", n),
			zap.Int("in_flight", d.Tasks.Len()),
		)
	}
}

// EnterSplash spawns the splash screen root.
func EnterSplash(d *Deps) {
	id := d.World.SpawnTagged(state.Splash.Tag())
	d.World.Nodes.Set(id, &component.UINode{Name: "splash"})
}

// RegisterAssets publishes the scene's meshes and materials. Keys already
// registered by an earlier visit are left untouched.
func RegisterAssets(d *Deps) {
	for _, m := range d.Scene.Meshes {
		h, created := d.Assets.Meshes.Register(m.Key, asset.Mesh{Shape: m.Shape, Size: m.Size})
		h.Release()
		if created {
			d.Log.Debug("mesh registered", zap.String("key", m.Key))
		}
	}
	for _, m := range d.Scene.Materials {
		h, created := d.Assets.Materials.Register(m.Key, asset.Material{Color: m.Color})
		h.Release()
		if created {
			d.Log.Debug("material registered", zap.String("key", m.Key))
		}
	}
}

// SetupEnvironment spawns a camera looking at the middle of the grid and a
// point light.
func SetupEnvironment(d *Deps) {
	tag := state.Menu.Tag()
	c := d.Scene.Center() * spacing(d.Scene)

	cam := d.World.SpawnTagged(tag)
	d.World.Transforms.Set(cam, &component.Transform{
		Translation: component.Vec3{X: c, Y: c, Z: d.Scene.Camera.Distance},
	})
	d.World.Cameras.Set(cam, &component.Camera{
		Target: component.Vec3{X: c, Y: c},
		Order:  d.Scene.Camera.Order,
	})

	p := d.Scene.Light.Position
	light := d.World.SpawnTagged(tag)
	d.World.Transforms.Set(light, &component.Transform{
		Translation: component.Vec3{X: p[0], Y: p[1], Z: p[2]},
	})
	d.World.Lights.Set(light, &component.PointLight{Intensity: d.Scene.Light.Intensity})
}

// SpawnMenuUI spawns the menu root and one child per panel. Only the root
// is tagged; the panels go with it through the hierarchy.
func SpawnMenuUI(d *Deps) {
	root := d.World.SpawnTagged(state.Menu.Tag())
	d.World.Nodes.Set(root, &component.UINode{Name: "menu"})
	for _, name := range d.Scene.Panels {
		panel := d.World.Spawn()
		d.World.Nodes.Set(panel, &component.UINode{Name: name})
		d.World.AddChild(root, panel)
	}
}

// SpawnGrid starts one spawn job per cell of the grid cube.
func SpawnGrid(d *Deps) {
	mesh := d.Assets.Meshes.MustGet(d.Scene.Grid.Mesh)
	defer mesh.Release()
	mat := d.Assets.Materials.MustGet(d.Scene.Grid.Material)
	defer mat.Release()

	n := d.Scene.Grid.Size
	started := 0
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				cell := component.Cell{X: x, Y: y, Z: z}
				if _, err := SpawnCube(d, cell, mesh, mat, d.Delay); err != nil {
					d.Log.Warn("spawn job not started", zap.Any("cell", cell), zap.Error(err))
					continue
				}
				started++
			}
		}
	}
	d.Log.Info("grid jobs started", zap.Int("jobs", started), zap.Int("in_flight", d.Tasks.Len()))
}

// SpawnCube reserves an untagged slot entity for cell, submits the job that
// computes its cube and records the job against the slot. The job holds its
// own clones of mesh and mat.
func SpawnCube(d *Deps, cell component.Cell, mesh asset.Handle[asset.Mesh], mat asset.Handle[asset.Material], delay job.DelayRange) (ecs.EntityID, error) {
	placer := d.Placer
	if placer == nil {
		placer = job.GridPlacer{Spacing: spacing(d.Scene)}
	}
	id := d.Tasks.NextID()
	slot := d.World.Spawn()
	j := &job.SpawnJob{
		ID:       id,
		Slot:     slot,
		Cell:     cell,
		Mesh:     mesh.Clone(),
		Material: mat.Clone(),
		Tag:      state.Menu.Tag(),
		Delay:    delay,
		Rand:     rand.New(rand.NewPCG(d.Rand.Uint64(), d.Rand.Uint64())),
		Placer:   placer,
	}
	task, err := d.Pool.Submit(id, j)
	if err != nil {
		j.Mesh.Release()
		j.Material.Release()
		d.World.DespawnRecursive(slot)
		return 0, fmt.Errorf("submit job %d: %w", id, err)
	}
	if err := d.Tasks.Track(slot, task); err != nil {
		return 0, err
	}
	d.World.Computing.Set(slot, &component.ComputeTask{JobID: id, Cell: cell})
	return slot, nil
}

func spacing(def *data.SceneDef) float32 {
	if def.Grid.Spacing <= 0 {
		return 1
	}
	return def.Grid.Spacing
}
