package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/chronicle-rp/server/internal/charvar"
	"github.com/chronicle-rp/server/internal/data"
	"github.com/chronicle-rp/server/internal/hooks"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for ruleset scripts. Scripts run at
// boot, before the var registry seals, and extend the server through the
// `chronicle` module: extra vars, factions, classes, and lifecycle hooks.
// Single-goroutine access only (boot + game loop).
type Engine struct {
	vm       *lua.LState
	reg      *charvar.Registry
	factions *data.FactionTable
	classes  *data.ClassTable
	bus      *hooks.Bus
	log      *zap.Logger
}

// NewEngine creates a Lua engine with the `chronicle` module installed.
func NewEngine(reg *charvar.Registry, factions *data.FactionTable, classes *data.ClassTable, bus *hooks.Bus, log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, reg: reg, factions: factions, classes: classes, bus: bus, log: log}
	e.installModule()
	return e
}

// LoadRuleset loads all .lua files in the scripts directory, root first, then
// each subdirectory in name order.
func (e *Engine) LoadRuleset(scriptsDir string) error {
	if err := e.loadDir(scriptsDir); err != nil {
		return fmt.Errorf("load ruleset scripts: %w", err)
	}

	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var subs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subs = append(subs, entry.Name())
		}
	}
	sort.Strings(subs)
	for _, sub := range subs {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			return fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
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
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) installModule() {
	mod := e.vm.NewTable()
	mod.RawSetString("register_var", e.vm.NewFunction(e.luaRegisterVar))
	mod.RawSetString("register_faction", e.vm.NewFunction(e.luaRegisterFaction))
	mod.RawSetString("register_class", e.vm.NewFunction(e.luaRegisterClass))
	mod.RawSetString("on_create_check", e.vm.NewFunction(e.luaOnCreateCheck))
	e.vm.SetGlobal("chronicle", mod)
}

// luaRegisterVar bridges chronicle.register_var{...} to the Go registry.
// Lua validate functions receive (value, account) and return either the
// accepted (possibly transformed) value, or false plus a rejection code.
func (e *Engine) luaRegisterVar(L *lua.LState) int {
	tbl := L.CheckTable(1)

	v := &charvar.Var{
		Name:    lStr(tbl, "name"),
		Field:   lStr(tbl, "field"),
		Type:    storageTypeFromName(lStr(tbl, "type")),
		Default: fromLua(tbl.RawGetString("default")),
		Order:   lInt(tbl, "order"),
		Flags:   flagsFromTable(tbl),
	}
	if v.Name == "" {
		L.RaiseError("register_var: name is required")
		return 0
	}

	if fn, ok := tbl.RawGetString("validate").(*lua.LFunction); ok {
		v.Validate = e.wrapValidate(v.Name, fn)
	}
	if fn, ok := tbl.RawGetString("adjust").(*lua.LFunction); ok {
		v.Adjust = e.wrapAdjust(v.Name, fn)
	}

	e.reg.Register(v)
	return 0
}

func (e *Engine) luaRegisterFaction(L *lua.LState) int {
	tbl := L.CheckTable(1)
	f := &data.Faction{
		UniqueID:    lStr(tbl, "unique_id"),
		Name:        lStr(tbl, "name"),
		Description: lStr(tbl, "description"),
		Color:       lStr(tbl, "color"),
		IsDefault:   tbl.RawGetString("is_default") == lua.LTrue,
		Pay:         lInt(tbl, "pay"),
	}
	if f.UniqueID == "" {
		L.RaiseError("register_faction: unique_id is required")
		return 0
	}
	e.factions.Add(f)
	return 0
}

func (e *Engine) luaRegisterClass(L *lua.LState) int {
	tbl := L.CheckTable(1)
	c := &data.Class{
		UniqueID:  lStr(tbl, "unique_id"),
		Name:      lStr(tbl, "name"),
		Faction:   lStr(tbl, "faction"),
		IsDefault: tbl.RawGetString("is_default") == lua.LTrue,
		Pay:       lInt(tbl, "pay"),
		Limit:     lInt(tbl, "limit"),
	}
	if c.UniqueID == "" {
		L.RaiseError("register_class: unique_id is required")
		return 0
	}
	e.classes.Add(c)
	return 0
}

// luaOnCreateCheck registers a creation veto. The Lua function receives the
// requesting account and the creation payload as a table; returning false
// plus an optional reason blocks the creation.
func (e *Engine) luaOnCreateCheck(L *lua.LState) int {
	fn := L.CheckFunction(1)
	e.bus.OnVeto(hooks.CanCreateCharacter, func(args ...any) (bool, string, []any) {
		account := ""
		var payload *charvar.Payload
		if len(args) > 0 {
			account, _ = args[0].(string)
		}
		if len(args) > 1 {
			payload, _ = args[1].(*charvar.Payload)
		}

		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    2,
			Protect: true,
		}, lua.LString(account), e.payloadTable(payload)); err != nil {
			e.log.Error("lua create check error", zap.Error(err))
			return true, "", nil
		}

		reason := e.vm.Get(-1)
		verdict := e.vm.Get(-2)
		e.vm.Pop(2)

		if verdict == lua.LFalse {
			return false, lua.LVAsString(reason), nil
		}
		return true, "", nil
	})
	return 0
}

func (e *Engine) wrapValidate(varName string, fn *lua.LFunction) charvar.ValidateFunc {
	return func(value any, _ *charvar.Payload, actor charvar.Actor) (any, error) {
		account := ""
		if actor != nil {
			account = actor.Account()
		}
		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    2,
			Protect: true,
		}, toLua(e.vm, value), lua.LString(account)); err != nil {
			e.log.Error("lua validate error",
				zap.String("var", varName), zap.Error(err))
			return nil, charvar.Reject("script_error")
		}

		code := e.vm.Get(-1)
		ret := e.vm.Get(-2)
		e.vm.Pop(2)

		if ret == lua.LFalse {
			return nil, charvar.Reject(lua.LVAsString(code))
		}
		if ret == lua.LNil {
			return nil, nil
		}
		return fromLua(ret), nil
	}
}

func (e *Engine) wrapAdjust(varName string, fn *lua.LFunction) charvar.AdjustFunc {
	return func(_ charvar.Actor, _ *charvar.Payload, value any, out map[string]any) {
		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, toLua(e.vm, value)); err != nil {
			e.log.Error("lua adjust error",
				zap.String("var", varName), zap.Error(err))
			return
		}

		result := e.vm.Get(-1)
		e.vm.Pop(1)

		rt, ok := result.(*lua.LTable)
		if !ok {
			return
		}
		rt.ForEach(func(k, v lua.LValue) {
			out[lua.LVAsString(k)] = fromLua(v)
		})
	}
}

func (e *Engine) payloadTable(p *charvar.Payload) *lua.LTable {
	t := e.vm.NewTable()
	if p == nil {
		return t
	}
	for _, name := range p.Names() {
		t.RawSetString(name, toLua(e.vm, p.Get(name)))
	}
	return t
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// --- Lua helpers ---

func storageTypeFromName(name string) charvar.StorageType {
	switch name {
	case "text":
		return charvar.TypeText
	case "number":
		return charvar.TypeNumber
	case "bool":
		return charvar.TypeBool
	case "id":
		return charvar.TypeID
	default:
		return charvar.TypeString
	}
}

func flagsFromTable(t *lua.LTable) charvar.Flags {
	var f charvar.Flags
	if t.RawGetString("no_display") == lua.LTrue {
		f |= charvar.NoDisplay
	}
	if t.RawGetString("no_networking") == lua.LTrue {
		f |= charvar.NoNetworking
	}
	if t.RawGetString("not_modifiable") == lua.LTrue {
		f |= charvar.NotModifiable
	}
	if t.RawGetString("initial_only") == lua.LTrue {
		f |= charvar.SaveLoadInitialOnly
	}
	if t.RawGetString("local") == lua.LTrue {
		f |= charvar.Local
	}
	return f
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	v := t.RawGetString(key)
	if v == lua.LNil {
		return ""
	}
	return lua.LVAsString(v)
}

// toLua converts a Go value into its Lua representation.
func toLua(vm *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case float64:
		return lua.LNumber(x)
	case int:
		return lua.LNumber(x)
	case int32:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case map[string]any:
		t := vm.NewTable()
		for k, val := range x {
			t.RawSetString(k, toLua(vm, val))
		}
		return t
	case []any:
		t := vm.NewTable()
		for i, val := range x {
			t.RawSetInt(i+1, toLua(vm, val))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

// fromLua converts a Lua value into its Go representation. Tables with only
// consecutive integer keys become slices, everything else a string-keyed map.
func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(x)
	case lua.LString:
		return string(x)
	case lua.LNumber:
		return float64(x)
	case *lua.LTable:
		maxN := x.MaxN()
		if maxN > 0 {
			out := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				out = append(out, fromLua(x.RawGetInt(i)))
			}
			return out
		}
		out := make(map[string]any)
		x.ForEach(func(k, val lua.LValue) {
			out[lua.LVAsString(k)] = fromLua(val)
		})
		return out
	default:
		return nil
	}
}
