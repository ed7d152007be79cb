// Package config describes and loads the configuration of a history tree.
//
// A configuration names the root coordinator, the defaults every node
// inherits, the log level and a flat list of nodes. Each node names its
// parent, which must be the root or a group declared earlier in the list:
//
//	[history]
//	root = "editor"
//	policy = "operation-log"
//	max_entries = 500
//
//	[[nodes]]
//	id = "scene"
//	kind = "group"
//
//	[[nodes]]
//	id = "mesh"
//	kind = "stack"
//	parent = "scene"
//	max_pending = 64
//
// Files are read as TOML or YAML depending on their extension. A missing
// file is not an error; the defaults are used instead.
package config
