package scene

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/cubefield/server/internal/asset"
	"github.com/cubefield/server/internal/command"
	"github.com/cubefield/server/internal/component"
	"github.com/cubefield/server/internal/core/event"
	coresys "github.com/cubefield/server/internal/core/system"
	"github.com/cubefield/server/internal/data"
	"github.com/cubefield/server/internal/job"
	"github.com/cubefield/server/internal/state"
	"github.com/cubefield/server/internal/system"
	"github.com/cubefield/server/internal/world"
	"go.uber.org/zap"
)

type app struct {
	deps    *Deps
	machine *state.Machine[*Deps]
	runner  *coresys.Runner
	bus     *event.Bus
	spawned []event.EntitySpawned
}

func testScene(size int) *data.SceneDef {
	return &data.SceneDef{
		Grid:      data.GridDef{Size: size, Spacing: 1, Mesh: "cube", Material: "cube"},
		Meshes:    []data.MeshDef{{Key: "cube", Shape: "cuboid", Size: [3]float32{0.5, 0.5, 0.5}}},
		Materials: []data.MaterialDef{{Key: "cube", Color: [4]float32{1, 0.5, 0.5, 1}}},
		Camera:    data.CameraDef{Distance: 15, Order: 1},
		Light:     data.LightDef{Position: [3]float32{4, 12, 15}, Intensity: 1500},
		Panels:    []string{"title", "buttons"},
	}
}

func newApp(t *testing.T, initial state.GameState, def *data.SceneDef, delay job.DelayRange) *app {
	t.Helper()
	log := zap.NewNop()
	a := &app{
		deps: &Deps{
			World:  world.NewState(),
			Assets: asset.NewServer(),
			Pool:   job.NewPool(job.WithWorkers(2)),
			Tasks:  job.NewTable(),
			Rand:   rand.New(rand.NewPCG(1, 2)),
			Scene:  def,
			Delay:  delay,
			Log:    log,
		},
		runner: coresys.NewRunner(),
		bus:    event.NewBus(),
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.deps.Pool.Stop(ctx)
	})

	a.machine = state.NewMachine[*Deps](initial, log)
	Register(a.machine)

	queue := command.NewQueue()
	a.runner.Register(system.NewStateTransitionSystem(a.machine, a.deps, a.bus))
	a.runner.Register(system.NewEventDispatchSystem(a.bus))
	a.runner.Register(system.NewTaskPollSystem(a.deps.Tasks, queue, log))
	a.runner.Register(system.NewCommandApplySystem(queue, a.deps.World, a.bus,
		func() string { return a.machine.Current().String() }, log))
	a.runner.Register(system.NewCleanupSystem(a.deps.World, a.bus))

	event.Subscribe(a.bus, func(e event.EntitySpawned) { a.spawned = append(a.spawned, e) })
	return a
}

func (a *app) tick() { a.runner.Tick(time.Millisecond) }

func (a *app) drain(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for a.deps.Tasks.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("%d jobs still pending", a.deps.Tasks.Len())
		}
		a.tick()
		time.Sleep(time.Millisecond)
	}
	a.tick() // deliver the last spawn events
}

func TestMenuEnterSpawnsEnvironmentAndJobs(t *testing.T) {
	a := newApp(t, state.Menu, testScene(3), job.DelayRange{Min: time.Hour, Max: time.Hour})
	a.tick()

	ws := a.deps.World
	if a.deps.Tasks.Len() != 27 {
		t.Fatalf("in flight = %d, want 27", a.deps.Tasks.Len())
	}
	if ws.Computing.Len() != 27 {
		t.Fatalf("compute markers = %d, want 27", ws.Computing.Len())
	}
	if ws.Cameras.Len() != 1 || ws.Lights.Len() != 1 {
		t.Fatal("camera or light missing")
	}
	// camera, light, menu root
	if n := ws.CountTagged(state.Menu.Tag()); n != 3 {
		t.Fatalf("tagged = %d, want 3", n)
	}
	if ws.Nodes.Len() != 3 {
		t.Fatalf("ui nodes = %d, want root and 2 panels", ws.Nodes.Len())
	}
	for _, id := range ws.Cameras.IDs() {
		cam, _ := ws.Cameras.Get(id)
		tr, _ := ws.Transforms.Get(id)
		if cam.Target.X != 1 || cam.Target.Y != 1 || tr.Translation.Z != 15 {
			t.Fatalf("camera at %+v looking at %+v", tr.Translation, cam.Target)
		}
	}
	if !a.deps.Assets.Meshes.Has("cube") || !a.deps.Assets.Materials.Has("cube") {
		t.Fatal("assets not registered")
	}
}

func TestMenuExitRemovesEverythingItTagged(t *testing.T) {
	a := newApp(t, state.Menu, testScene(2), job.DelayRange{Max: 5 * time.Millisecond})
	a.tick()
	a.drain(t)

	ws := a.deps.World
	if n := ws.CountRenderables(); n != 8 {
		t.Fatalf("renderables = %d, want 8", n)
	}
	if n := ws.CountTagged(state.Menu.Tag()); n != 11 {
		t.Fatalf("tagged = %d, want 8 cubes plus camera, light and root", n)
	}
	for _, e := range a.spawned {
		if e.Screen != "Menu" || e.Orphan {
			t.Fatalf("spawn event = %+v", e)
		}
	}

	a.machine.Set(state.Splash)
	a.tick()

	if n := ws.CountTagged(state.Menu.Tag()); n != 0 {
		t.Fatalf("menu entities left = %d", n)
	}
	if ws.CountRenderables() != 0 || ws.Cameras.Len() != 0 {
		t.Fatal("menu content survived exit")
	}
	if ws.Nodes.Len() != 1 || ws.CountTagged(state.Splash.Tag()) != 1 {
		t.Fatal("want only the splash root left among ui nodes")
	}

	mesh := a.deps.Assets.Meshes.MustGet("cube")
	defer mesh.Release()
	if mesh.Refs() != 2 {
		t.Fatalf("mesh refs = %d, want store plus this handle", mesh.Refs())
	}
}

func TestLateCompletionAfterExitStillLands(t *testing.T) {
	a := newApp(t, state.Menu, testScene(1), job.DelayRange{Min: 150 * time.Millisecond, Max: 150 * time.Millisecond})
	a.tick()
	if a.deps.Tasks.Len() != 1 {
		t.Fatalf("in flight = %d, want 1", a.deps.Tasks.Len())
	}

	a.machine.Set(state.Splash)
	a.tick()

	ws := a.deps.World
	if n := ws.CountTagged(state.Menu.Tag()); n != 0 {
		t.Fatalf("menu entities right after exit = %d, want 0", n)
	}
	if a.deps.Tasks.Len() != 1 {
		t.Fatal("exit must not cancel in-flight jobs")
	}

	a.drain(t)

	if n := ws.CountTagged(state.Menu.Tag()); n != 1 {
		t.Fatalf("menu entities after late completion = %d, want 1", n)
	}
	if ws.CountRenderables() != 1 {
		t.Fatalf("renderables = %d, want 1", ws.CountRenderables())
	}
	if len(a.spawned) != 1 || !a.spawned[0].Orphan || a.spawned[0].Screen != "Menu" {
		t.Fatalf("spawn events = %+v", a.spawned)
	}
}

func TestReenteringMenuKeepsRegisteredAssets(t *testing.T) {
	a := newApp(t, state.Menu, testScene(1), job.DelayRange{Max: time.Millisecond})
	a.tick()
	first := a.deps.Assets.Meshes.MustGet("cube")
	defer first.Release()

	a.machine.Set(state.Splash)
	a.tick()
	a.deps.Scene.Meshes[0].Shape = "sphere"
	a.machine.Set(state.Menu)
	a.tick()

	again := a.deps.Assets.Meshes.MustGet("cube")
	defer again.Release()
	if !again.Same(first) || again.Value().Shape != "cuboid" {
		t.Fatal("re-registration replaced the published mesh")
	}
	if a.deps.Assets.Meshes.Count() != 1 {
		t.Fatalf("meshes = %d, want 1", a.deps.Assets.Meshes.Count())
	}
}

func TestSpawnCubeAfterPoolStop(t *testing.T) {
	a := newApp(t, state.Menu, testScene(1), job.DelayRange{})
	RegisterAssets(a.deps)
	_ = a.deps.Pool.Stop(context.Background())

	mesh := a.deps.Assets.Meshes.MustGet("cube")
	defer mesh.Release()
	mat := a.deps.Assets.Materials.MustGet("cube")
	defer mat.Release()

	if _, err := SpawnCube(a.deps, component.Cell{}, mesh, mat, a.deps.Delay); err == nil {
		t.Fatal("expected error from stopped pool")
	}
	if a.deps.Tasks.Len() != 0 {
		t.Fatal("failed submit left a handle")
	}
	if mesh.Refs() != 2 {
		t.Fatalf("mesh refs = %d, job clones were not released", mesh.Refs())
	}
}
