// Package api provides the Lua API modules exposed to history scripts.
//
// Scripts reach the history tree through the "ks" namespace, which
// aggregates the submodules:
//
//   - ks.history: undo/redo on the tree, and recording of Lua-defined changes
//   - ks.log: structured log output
//
// # Architecture
//
// Each API module implements the Module interface:
//
//	type Module interface {
//	    Name() string
//	    Register(L *lua.LState) error
//	}
//
// A module registers itself under the _ks_<name> global. Registry.InjectAll
// registers every module and then folds the globals into a preloaded "ks"
// module, so scripts use:
//
//	local ks = require("ks")
//	ks.history.record("mesh", "Extrude",
//	    function() depth = depth + 1 end,
//	    function() depth = depth - 1 end)
//	ks.history.undo()
//
// # Context
//
// The Context struct gives modules access to the tree and the logger:
//
//	ctx := &api.Context{Tree: root, Logger: logger}
//	reg, err := api.DefaultRegistry(ctx)
package api
