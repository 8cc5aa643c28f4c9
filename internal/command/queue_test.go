package command

import (
	"testing"

	"github.com/cubefield/server/internal/asset"
	"github.com/cubefield/server/internal/component"
	"github.com/cubefield/server/internal/core/ecs"
	"github.com/cubefield/server/internal/core/event"
	"github.com/cubefield/server/internal/world"
	"go.uber.org/zap"
)

var menu = component.ScreenTag{Screen: "Menu"}

type fixture struct {
	ws   *world.State
	bus  *event.Bus
	mesh asset.Handle[asset.Mesh]
	mat  asset.Handle[asset.Material]
}

func newFixture() *fixture {
	srv := asset.NewServer()
	mesh, _ := srv.Meshes.Register("box", asset.Mesh{Shape: "cuboid"})
	mat, _ := srv.Materials.Register("box", asset.Material{Color: [4]float32{1, 0.2, 0.3, 1}})
	return &fixture{ws: world.NewState(), bus: event.NewBus(), mesh: mesh, mat: mat}
}

func (f *fixture) ctx(screen string) *Context {
	return &Context{World: f.ws, Bus: f.bus, Screen: screen, Log: zap.NewNop()}
}

func (f *fixture) spawnBatch(job uint64, slot ecs.EntityID, pos component.Vec3) Batch {
	return Batch{JobID: job, Ops: []Op{
		SpawnRenderable{Slot: slot, JobID: job, Position: pos, Mesh: f.mesh.Clone(), Material: f.mat.Clone(), Tag: menu},
		ClearComputeTask{Slot: slot},
	}}
}

type recordOp struct {
	name string
	log  *[]string
}

func (recordOp) Kind() Kind         { return KindDespawn }
func (o recordOp) Apply(_ *Context) { *o.log = append(*o.log, o.name) }

func TestApplyRunsBatchesInAppendOrderOnce(t *testing.T) {
	f := newFixture()
	var log []string
	q := NewQueue()
	q.Append(Batch{JobID: 2, Ops: []Op{recordOp{"2a", &log}, recordOp{"2b", &log}}})
	q.Append(Batch{JobID: 1, Ops: []Op{recordOp{"1a", &log}}})
	q.Append(Batch{JobID: 3})

	if q.Len() != 2 {
		t.Fatalf("len = %d, empty batch must be dropped", q.Len())
	}
	batches, ops := q.Apply(f.ctx("Menu"))
	if batches != 2 || ops != 3 {
		t.Fatalf("applied %d batches / %d ops", batches, ops)
	}
	want := []string{"2a", "2b", "1a"}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("order = %v, want %v", log, want)
		}
	}

	q.Apply(f.ctx("Menu"))
	if len(log) != 3 || q.Len() != 0 || q.Applied() != 2 {
		t.Fatalf("second apply re-ran ops: %v", log)
	}
}

func TestSpawnRenderableLandsOnSlot(t *testing.T) {
	f := newFixture()
	slot := f.ws.Spawn()
	f.ws.Computing.Set(slot, &component.ComputeTask{JobID: 7})

	q := NewQueue()
	q.Append(f.spawnBatch(7, slot, component.Vec3{X: 1}))
	q.Apply(f.ctx("Menu"))

	tr, ok := f.ws.Transforms.Get(slot)
	if !ok || tr.Translation.X != 1 {
		t.Fatalf("transform = %+v", tr)
	}
	if f.ws.Computing.Has(slot) {
		t.Fatal("compute marker not cleared")
	}
	if f.ws.CountTagged(menu) != 1 {
		t.Fatal("spawned entity is not tagged")
	}

	var spawned []event.EntitySpawned
	event.Subscribe(f.bus, func(e event.EntitySpawned) { spawned = append(spawned, e) })
	f.bus.SwapBuffers()
	f.bus.DispatchAll()
	if len(spawned) != 1 || spawned[0].Mesh != "box" || spawned[0].Orphan {
		t.Fatalf("spawned events = %+v", spawned)
	}
}

func TestSpawnRenderableAfterScreenExitIsOrphan(t *testing.T) {
	f := newFixture()
	slot := f.ws.Spawn()
	f.ws.DespawnRecursive(slot)
	f.ws.Flush()

	var spawned []event.EntitySpawned
	event.Subscribe(f.bus, func(e event.EntitySpawned) { spawned = append(spawned, e) })

	q := NewQueue()
	q.Append(f.spawnBatch(1, slot, component.Vec3{}))
	q.Apply(f.ctx("Splash"))

	if f.ws.CountRenderables() != 1 {
		t.Fatal("late completion was dropped")
	}
	f.bus.SwapBuffers()
	f.bus.DispatchAll()
	if len(spawned) != 1 || !spawned[0].Orphan || spawned[0].Entity == slot {
		t.Fatalf("spawned events = %+v", spawned)
	}
}

func TestBatchOrderDoesNotChangeResult(t *testing.T) {
	positions := func(reverse bool) map[component.Vec3]bool {
		f := newFixture()
		a, b := f.ws.Spawn(), f.ws.Spawn()
		ba := f.spawnBatch(1, a, component.Vec3{X: 1})
		bb := f.spawnBatch(2, b, component.Vec3{Y: 1})
		q := NewQueue()
		if reverse {
			q.Append(bb)
			q.Append(ba)
		} else {
			q.Append(ba)
			q.Append(bb)
		}
		q.Apply(f.ctx("Menu"))
		out := map[component.Vec3]bool{}
		f.ws.EachRenderable(func(_ ecs.EntityID, tr *component.Transform, _ *component.Renderable) {
			out[tr.Translation] = true
		})
		return out
	}

	fwd, rev := positions(false), positions(true)
	if len(fwd) != 2 || len(rev) != 2 {
		t.Fatalf("entity sets %v / %v", fwd, rev)
	}
	for p := range fwd {
		if !rev[p] {
			t.Fatalf("position %+v missing when batches are reversed", p)
		}
	}
}

func TestDespawnOpRemovesHierarchyAtFlush(t *testing.T) {
	f := newFixture()
	root := f.ws.SpawnTagged(menu)
	child := f.ws.Spawn()
	f.ws.AddChild(root, child)

	q := NewQueue()
	q.Append(Batch{JobID: 1, Ops: []Op{Despawn{Entity: root}}})
	q.Apply(f.ctx("Menu"))

	if f.ws.Alive(root) || f.ws.Alive(child) {
		t.Fatal("despawned entities still reported alive")
	}
	if got := len(f.ws.Flush()); got != 2 {
		t.Fatalf("destroyed = %d, want 2", got)
	}
}
