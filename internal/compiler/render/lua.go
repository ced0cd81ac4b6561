package render

import (
	"fmt"
	"math"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/flatmessage/flatmsg/internal/compiler/document"
)

// LuaEngine renders templates with embedded Lua. {{ expr }} prints the value
// of a Lua expression and {% code %} runs a Lua statement. A newline right
// after %} is dropped, and blanks between two code blocks are trimmed, so
// control flow can sit on lines of its own.
type LuaEngine struct{}

// NewLuaEngine creates the Lua engine
func NewLuaEngine() *LuaEngine {
	return &LuaEngine{}
}

// Name implements Engine
func (e *LuaEngine) Name() string { return "lua" }

// Render implements Engine. Every render runs in a fresh Lua state.
func (e *LuaEngine) Render(doc document.Map, source string, helpers *Helpers) (string, error) {
	chunk, err := compileLua(source)
	if err != nil {
		return "", err
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	if err := openLuaLibs(L); err != nil {
		return "", err
	}
	setLuaGlobals(L, doc)
	registerLuaHelpers(L, helpers)

	fn, err := L.LoadString(chunk)
	if err != nil {
		return "", fmt.Errorf("compile template: %w", err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return "", err
	}

	out := L.Get(-1)
	L.Pop(1)
	return lua.LVAsString(out), nil
}

// compileLua turns a template into a Lua chunk that collects the output
// pieces in _ret and returns them concatenated
func compileLua(tmpl string) (string, error) {
	var b strings.Builder
	b.WriteString("local _ret = {}\n")
	b.WriteString("local function _emit(v) if v ~= nil then _ret[#_ret+1] = tostring(v) end end\n")

	text := func(s string) {
		if s == "" {
			return
		}
		level := longBracketLevel(s)
		// a long bracket drops the newline that directly follows it
		fmt.Fprintf(&b, "_ret[#_ret+1] = [%s[\n%s]%s]\n", level, s, level)
	}

	pos := 0
	for pos < len(tmpl) {
		expr := strings.Index(tmpl[pos:], "{{")
		code := strings.Index(tmpl[pos:], "{%")

		switch {
		case expr >= 0 && (code < 0 || expr < code):
			start := pos + expr
			text(tmpl[pos:start])
			end := strings.Index(tmpl[start+2:], "}}")
			if end < 0 {
				return "", fmt.Errorf("end tag '}}' missing for expression at offset %d", start)
			}
			end += start + 2
			fmt.Fprintf(&b, "_emit(%s)\n", tmpl[start+2:end])
			pos = end + 2

		case code >= 0:
			start := pos + code
			pending := tmpl[pos:start]
			if pos >= 2 && tmpl[pos-2:pos] == "%}" {
				pending = trimBetweenBlocks(pending)
			}
			text(pending)
			end := strings.Index(tmpl[start+2:], "%}")
			if end < 0 {
				return "", fmt.Errorf("end tag '%%}' missing for block at offset %d", start)
			}
			end += start + 2
			b.WriteString(tmpl[start+2 : end])
			b.WriteByte('\n')
			pos = end + 2

			if strings.HasPrefix(tmpl[pos:], "\r\n") {
				pos += 2
			} else if strings.HasPrefix(tmpl[pos:], "\n") {
				pos++
			}

		default:
			text(tmpl[pos:])
			pos = len(tmpl)
		}
	}

	b.WriteString("return table.concat(_ret)\n")
	return b.String(), nil
}

// trimBetweenBlocks drops trailing blanks and at most one line break
func trimBetweenBlocks(s string) string {
	s = strings.TrimRight(s, " ")
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// longBracketLevel picks the shortest run of '=' whose brackets do not
// occur in s, a trailing ']' of s included
func longBracketLevel(s string) string {
	level := ""
	for strings.Contains(s+"]", "]"+level+"]") || strings.Contains(s, "["+level+"[") {
		level += "="
	}
	return level
}

func openLuaLibs(L *lua.LState) error {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return err
		}
	}

	// the base library can reach the file system
	for _, name := range []string{"dofile", "loadfile"} {
		L.SetGlobal(name, lua.LNil)
	}
	return nil
}

func setLuaGlobals(L *lua.LState, doc document.Map) {
	for key, value := range doc {
		L.SetGlobal(key, toLua(L, value))
	}

	// module, protocol and the entries of imports answer to .name
	module := L.NewTable()
	module.RawSetString("name", toLua(L, doc["fullModule"]))
	module.RawSetString("path", toLua(L, doc["modulePath"]))
	module.RawSetString("shortName", toLua(L, doc["moduleName"]))
	L.SetGlobal("module", module)

	protocol := L.NewTable()
	protocol.RawSetString("name", toLua(L, doc["protocol"]))
	L.SetGlobal("protocol", protocol)

	if imports, ok := L.GetGlobal("imports").(*lua.LTable); ok {
		imports.ForEach(func(_, entry lua.LValue) {
			if t, ok := entry.(*lua.LTable); ok {
				t.RawSetString("name", t.RawGetString("fullImport"))
			}
		})
	}
}

func registerLuaHelpers(L *lua.LState, h *Helpers) {
	nodeName := func(fn func(node any, name string) lua.LValue) lua.LGFunction {
		return func(L *lua.LState) int {
			node := fromLua(L.Get(1))
			L.Push(fn(node, L.CheckString(2)))
			return 1
		}
	}
	typeName := func(fn func(string) bool) lua.LGFunction {
		return func(L *lua.LState) int {
			L.Push(lua.LBool(fn(L.CheckString(1))))
			return 1
		}
	}
	str := func(fn func(string) string) lua.LGFunction {
		return func(L *lua.LState) int {
			L.Push(lua.LString(fn(L.CheckString(1))))
			return 1
		}
	}

	funcs := map[string]lua.LGFunction{
		"hasAnnotation": nodeName(func(node any, name string) lua.LValue {
			return lua.LBool(h.HasAnnotation(node, name))
		}),
		"annotationValue": nodeName(func(node any, name string) lua.LValue {
			return toLua(L, h.AnnotationValue(node, name))
		}),
		"hasSpecifier": nodeName(func(node any, name string) lua.LValue {
			return lua.LBool(h.HasSpecifier(node, name))
		}),
		"getAnnotationsWithName": nodeName(func(node any, name string) lua.LValue {
			return toLua(L, h.GetAnnotationsWithName(node, name))
		}),
		"isUserDefined":     typeName(h.IsUserDefined),
		"isUserDefinedData": typeName(h.IsUserDefinedData),
		"storageType":       str(h.StorageType),
		"upper":             str(h.Upper),
		"lower":             str(h.Lower),
		"title":             str(h.Title),
		"snake":             str(h.Snake),
		"join": func(L *lua.LState) int {
			L.Push(lua.LString(h.Join(L.CheckString(1), fromLua(L.Get(2)))))
			return 1
		},
		"default": func(L *lua.LState) int {
			L.Push(toLua(L, h.Default(fromLua(L.Get(1)), fromLua(L.Get(2)))))
			return 1
		},
	}

	for name, fn := range funcs {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}

// toLua converts a document value into a Lua value. Lists become
// 1-based array tables.
func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int64:
		return lua.LNumber(x)
	case int:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case map[string]any:
		t := L.CreateTable(0, len(x))
		for k, val := range x {
			t.RawSetString(k, toLua(L, val))
		}
		return t
	case []any:
		t := L.CreateTable(len(x), 0)
		for i, val := range x {
			t.RawSetInt(i+1, toLua(L, val))
		}
		return t
	case []string:
		t := L.CreateTable(len(x), 0)
		for i, val := range x {
			t.RawSetInt(i+1, lua.LString(val))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(x))
	}
}

// fromLua converts a Lua value back into a document value. Tables with an
// array part become lists; integral numbers become int64.
func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(x)
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		f := float64(x)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case *lua.LTable:
		if n := x.MaxN(); n > 0 {
			list := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				list = append(list, fromLua(x.RawGetInt(i)))
			}
			return list
		}
		m := make(map[string]any)
		x.ForEach(func(k, val lua.LValue) {
			if key, ok := k.(lua.LString); ok {
				m[string(key)] = fromLua(val)
			}
		})
		return m
	default:
		return v.String()
	}
}
