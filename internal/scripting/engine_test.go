package scripting

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cubefield/server/internal/component"
	"go.uber.org/zap"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "placement.lua")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPlaceCallsScript(t *testing.T) {
	e, err := NewEngine(writeScript(t, `
function place(x, y, z)
  return x * 2, y + 0.5, -z
end
`), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	p, err := e.Place(context.Background(), component.Cell{X: 1, Y: 2, Z: 3})
	if err != nil {
		t.Fatal(err)
	}
	want := component.Vec3{X: 2, Y: 2.5, Z: -3}
	if p.Position != want || p.Cell.Z != 3 {
		t.Fatalf("placement = %+v, want %+v", p, want)
	}
}

func TestPlaceIsSafeForConcurrentJobs(t *testing.T) {
	e, err := NewEngine(writeScript(t, `function place(x, y, z) return x, y, z end`), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := e.Place(context.Background(), component.Cell{X: i})
			if err != nil {
				t.Error(err)
				return
			}
			if p.Position.X != float32(i) {
				t.Errorf("cell %d placed at %v", i, p.Position)
			}
		}(i)
	}
	wg.Wait()
	if e.VMs() < 1 || e.VMs() > 33 {
		t.Fatalf("vms = %d", e.VMs())
	}
}

func TestNewEngineRequiresPlace(t *testing.T) {
	_, err := NewEngine(writeScript(t, `function other() end`), zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "place") {
		t.Fatalf("err = %v", err)
	}
}

func TestPlaceRejectsNonNumbers(t *testing.T) {
	e, err := NewEngine(writeScript(t, `function place(x, y, z) return "a", y, z end`), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if _, err := e.Place(context.Background(), component.Cell{}); err == nil {
		t.Fatal("expected type error")
	}
}

func TestPlaceAfterClose(t *testing.T) {
	e, err := NewEngine(writeScript(t, `function place(x, y, z) return x, y, z end`), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	e.Close()
	if _, err := e.Place(context.Background(), component.Cell{}); err == nil {
		t.Fatal("expected error from closed engine")
	}
}
