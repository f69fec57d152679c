package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/l1jgo/mars/internal/component"
	"github.com/l1jgo/mars/internal/core/ecs"
	"github.com/l1jgo/mars/internal/core/status"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to scripts as MARS_API.
const APIVersion = 1

// Engine wraps a single gopher-lua VM holding the step functions of a scene.
// Single-goroutine access only (game loop). Reload swaps the VM in place, so
// step funcs handed out earlier pick up new definitions.
type Engine struct {
	vm  *lua.LState
	dir string
	log *zap.Logger

	engine     *ecs.Engine
	transforms *ecs.System[component.Transform]
	watcher    *Watcher
}

// NewEngine creates a Lua engine and loads all scripts from dir. A missing
// dir gives an empty VM.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{dir: dir, log: log}
	vm, err := e.newVM()
	if err != nil {
		return nil, err
	}
	e.vm = vm
	return e, nil
}

// BindEngine lets scripts call mars_stop.
func (e *Engine) BindEngine(en *ecs.Engine) { e.engine = en }

// BindTransforms lets scripts read and move transforms.
func (e *Engine) BindTransforms(s *ecs.System[component.Transform]) { e.transforms = s }

func (e *Engine) newVM() (*lua.LState, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("MARS_API", lua.LNumber(APIVersion))
	vm.SetGlobal("mars_log", vm.NewFunction(e.luaLog))
	vm.SetGlobal("mars_stop", vm.NewFunction(e.luaStop))
	vm.SetGlobal("mars_transform", vm.NewFunction(e.luaTransform))
	vm.SetGlobal("mars_place", vm.NewFunction(e.luaPlace))
	if err := e.loadDir(vm, e.dir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return vm, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(vm *lua.LState, dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Reload re-runs every script in a fresh VM. On failure the old VM stays
// in service.
func (e *Engine) Reload() error {
	vm, err := e.newVM()
	if err != nil {
		e.log.Error("lua reload failed, keeping previous scripts", zap.Error(err))
		return err
	}
	e.vm.Close()
	e.vm = vm
	e.log.Info("lua scripts reloaded", zap.String("dir", e.dir))
	return nil
}

// DoString runs a chunk in the current VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

func (e *Engine) HasFunc(name string) bool {
	return e.vm.GetGlobal(name).Type() == lua.LTFunction
}

// Call invokes a global function with no arguments. A missing function is
// not an error, which suits optional hooks like on_init.
func (e *Engine) Call(name string) error {
	fn := e.vm.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("lua %s: %w", name, err)
	}
	return nil
}

// Step returns a StepFunc calling the global Lua function name with the
// entity id (hex string) and dt. The function fails the step by returning
// false or an error message; nil and true mean success.
func (e *Engine) Step(name string) component.StepFunc {
	return func(entity ecs.ID, dt float64) error {
		fn := e.vm.GetGlobal(name)
		if fn.Type() != lua.LTFunction {
			return fmt.Errorf("lua step %s: %w", name, status.KeyNotFound)
		}
		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, lua.LString(entity.String()), lua.LNumber(dt)); err != nil {
			return fmt.Errorf("lua step %s: %w", name, err)
		}
		ret := e.vm.Get(-1)
		e.vm.Pop(1)
		switch v := ret.(type) {
		case lua.LBool:
			if !bool(v) {
				return fmt.Errorf("lua step %s returned false", name)
			}
		case lua.LString:
			return fmt.Errorf("lua step %s: %s", name, string(v))
		}
		return nil
	}
}

// Close stops the watcher, if any, and shuts the VM down.
func (e *Engine) Close() {
	if e.watcher != nil {
		_ = e.watcher.Close()
		e.watcher = nil
	}
	e.vm.Close()
}

// ---------- host API ----------

func parseID(L *lua.LState, n int) ecs.ID {
	s := L.CheckString(n)
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil || !ecs.ID(v).Valid() {
		L.ArgError(n, "entity id expected")
		return ecs.Null
	}
	return ecs.ID(v)
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1), zap.String("source", "lua"))
	return 0
}

func (e *Engine) luaStop(L *lua.LState) int {
	if e.engine == nil {
		L.RaiseError("mars_stop: no engine bound")
		return 0
	}
	e.engine.Stop()
	return 0
}

// mars_transform(id) -> x, y | nil
func (e *Engine) luaTransform(L *lua.LState) int {
	id := parseID(L, 1)
	if e.transforms == nil {
		L.Push(lua.LNil)
		return 1
	}
	t, ok := e.transforms.Component(id)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(t.X))
	L.Push(lua.LNumber(t.Y))
	return 2
}

// mars_place(id, x, y) -> bool
func (e *Engine) luaPlace(L *lua.LState) int {
	id := parseID(L, 1)
	x := float64(L.CheckNumber(2))
	y := float64(L.CheckNumber(3))
	if e.transforms == nil {
		L.Push(lua.LFalse)
		return 1
	}
	t, ok := e.transforms.Component(id)
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	t.Place(x, y)
	L.Push(lua.LTrue)
	return 1
}
