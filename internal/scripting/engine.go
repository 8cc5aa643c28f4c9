// Package scripting evaluates Lua placement formulas inside background jobs.
package scripting

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/cubefield/server/internal/component"
	"github.com/cubefield/server/internal/job"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

const placeFunc = "place"

// Engine runs a compiled placement script. The chunk is compiled once; each
// concurrent caller borrows its own VM from a pool because an LState is not
// safe for concurrent use.
type Engine struct {
	path  string
	proto *lua.FunctionProto
	log   *zap.Logger

	mu    sync.Mutex
	saved []*lua.LState
	live  int
}

var _ job.Placer = (*Engine)(nil)

// NewEngine compiles the script at path and checks that it defines place(x, y, z).
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	chunk, err := parse.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}

	e := &Engine{path: path, proto: proto, log: log}
	vm, err := e.newState()
	if err != nil {
		return nil, err
	}
	e.put(vm)
	log.Debug("loaded placement script", zap.String("file", path))
	return e, nil
}

// Place calls the script's place(x, y, z) and expects three numbers back.
func (e *Engine) Place(ctx context.Context, cell component.Cell) (job.Placement, error) {
	vm, err := e.get()
	if err != nil {
		return job.Placement{}, err
	}
	vm.SetContext(ctx)
	defer func() {
		vm.RemoveContext()
		e.put(vm)
	}()

	if err := vm.CallByParam(lua.P{
		Fn:      vm.GetGlobal(placeFunc),
		NRet:    3,
		Protect: true,
	}, lua.LNumber(cell.X), lua.LNumber(cell.Y), lua.LNumber(cell.Z)); err != nil {
		return job.Placement{}, fmt.Errorf("lua %s%v: %w", placeFunc, cell, err)
	}
	ret := [3]lua.LValue{vm.Get(-3), vm.Get(-2), vm.Get(-1)}
	vm.Pop(3)

	var pos [3]float32
	for i, v := range ret {
		n, ok := v.(lua.LNumber)
		if !ok {
			return job.Placement{}, fmt.Errorf("lua %s%v: result %d is %s, want number",
				placeFunc, cell, i+1, v.Type())
		}
		pos[i] = float32(n)
	}
	return job.Placement{
		Cell:     cell,
		Position: component.Vec3{X: pos[0], Y: pos[1], Z: pos[2]},
	}, nil
}

// VMs returns how many Lua states the engine has created.
func (e *Engine) VMs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

// Close shuts down pooled VMs. VMs still borrowed are closed when returned.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, vm := range e.saved {
		vm.Close()
	}
	e.saved = nil
	e.proto = nil
}

func (e *Engine) newState() (*lua.LState, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.Push(vm.NewFunctionFromProto(e.proto))
	if err := vm.PCall(0, lua.MultRet, nil); err != nil {
		vm.Close()
		return nil, fmt.Errorf("run %s: %w", e.path, err)
	}
	if vm.GetGlobal(placeFunc).Type() != lua.LTFunction {
		vm.Close()
		return nil, fmt.Errorf("%s does not define %s(x, y, z)", e.path, placeFunc)
	}
	e.mu.Lock()
	e.live++
	e.mu.Unlock()
	return vm, nil
}

func (e *Engine) get() (*lua.LState, error) {
	e.mu.Lock()
	if e.proto == nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("placement engine %s is closed", e.path)
	}
	if n := len(e.saved); n > 0 {
		vm := e.saved[n-1]
		e.saved = e.saved[:n-1]
		e.mu.Unlock()
		return vm, nil
	}
	e.mu.Unlock()
	return e.newState()
}

func (e *Engine) put(vm *lua.LState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.proto == nil {
		vm.Close()
		return
	}
	e.saved = append(e.saved, vm)
}
