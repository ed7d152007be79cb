package api

import (
	"context"
	"log/slog"

	lua "github.com/yuin/gopher-lua"
)

// LogModule implements the ks.log API module.
type LogModule struct {
	ctx *Context
}

// NewLogModule creates a new log module.
func NewLogModule(ctx *Context) *LogModule {
	return &LogModule{ctx: ctx}
}

// Name returns the module name.
func (m *LogModule) Name() string {
	return "log"
}

// Register registers the module into the Lua state.
func (m *LogModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "debug", L.NewFunction(m.logAt(slog.LevelDebug)))
	L.SetField(mod, "info", L.NewFunction(m.logAt(slog.LevelInfo)))
	L.SetField(mod, "warn", L.NewFunction(m.logAt(slog.LevelWarn)))
	L.SetField(mod, "error", L.NewFunction(m.logAt(slog.LevelError)))

	L.SetGlobal("_ks_log", mod)
	return nil
}

// logAt returns a function of the form level(msg [, fields]).
// Fields is a table whose string keys become log attributes.
func (m *LogModule) logAt(level slog.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		msg := L.CheckString(1)
		var attrs []slog.Attr
		if tbl := L.OptTable(2, nil); tbl != nil {
			tbl.ForEach(func(k, v lua.LValue) {
				if key, ok := k.(lua.LString); ok {
					attrs = append(attrs, luaAttr(string(key), v))
				}
			})
		}
		attrs = append(attrs, slog.String("source", "lua"))
		m.ctx.logger().LogAttrs(context.Background(), level, msg, attrs...)
		return 0
	}
}

func luaAttr(key string, v lua.LValue) slog.Attr {
	switch val := v.(type) {
	case lua.LBool:
		return slog.Bool(key, bool(val))
	case lua.LNumber:
		return slog.Float64(key, float64(val))
	default:
		return slog.String(key, v.String())
	}
}
