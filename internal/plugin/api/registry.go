package api

import (
	"fmt"
	"log/slog"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/undotree/internal/history"
)

// APIVersion is reported to scripts as ks.api_version.
const APIVersion = 1

// Module represents a Lua API module.
type Module interface {
	// Name returns the module name (e.g., "history", "log").
	Name() string

	// Register registers the module functions into the Lua state.
	// The module should register itself under _ks_<name> global.
	Register(L *lua.LState) error
}

// Registry manages API modules and their registration.
type Registry struct {
	modules map[string]Module
}

// NewRegistry creates a new API registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Module),
	}
}

// Register adds a module to the registry.
func (r *Registry) Register(mod Module) error {
	if _, exists := r.modules[mod.Name()]; exists {
		return fmt.Errorf("module %q already registered", mod.Name())
	}

	r.modules[mod.Name()] = mod
	return nil
}

// Get returns a module by name.
func (r *Registry) Get(name string) (Module, bool) {
	mod, ok := r.modules[name]
	return mod, ok
}

// List returns all registered module names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InjectAll registers all modules into the Lua state and installs the
// aggregating "ks" module.
func (r *Registry) InjectAll(L *lua.LState) error {
	names := r.List()
	for _, name := range names {
		if err := r.modules[name].Register(L); err != nil {
			return fmt.Errorf("failed to register module %q: %w", name, err)
		}
	}

	installKSLoader(L, names)
	return nil
}

// installKSLoader collects the _ks_<name> globals into a "ks" table.
// Scripts use: local ks = require("ks")
func installKSLoader(L *lua.LState, names []string) {
	ksModule := L.NewTable()

	for _, name := range names {
		globalName := "_ks_" + name
		val := L.GetGlobal(globalName)
		if val != lua.LNil {
			L.SetField(ksModule, name, val)
			// Clean up internal global
			L.SetGlobal(globalName, lua.LNil)
		}
	}

	L.SetField(ksModule, "api_version", lua.LNumber(APIVersion))

	L.PreloadModule("ks", func(L *lua.LState) int {
		L.Push(ksModule)
		return 1
	})
}

// DefaultRegistry creates a registry with all standard modules registered.
func DefaultRegistry(ctx *Context) (*Registry, error) {
	r := NewRegistry()

	modules := []Module{
		NewHistoryModule(ctx),
		NewLogModule(ctx),
	}

	for _, mod := range modules {
		if err := r.Register(mod); err != nil {
			return nil, fmt.Errorf("failed to register module %q: %w", mod.Name(), err)
		}
	}

	return r, nil
}

// Context provides access to application state for API modules.
type Context struct {
	// Tree is the root coordinator scripts operate on.
	Tree *history.Coordinator

	// Logger receives script log output. Nil means slog.Default().
	Logger *slog.Logger
}

func (c *Context) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
