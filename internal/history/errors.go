package history

import "errors"

// Errors returned when a history tree is assembled incorrectly.
// These are integration faults; undo and redo never return errors.
var (
	// ErrNilChild indicates a nil node was passed to AddChild.
	ErrNilChild = errors.New("nil child")

	// ErrDuplicateID indicates a direct child with the same id already exists.
	ErrDuplicateID = errors.New("duplicate child id")

	// ErrAlreadyAttached indicates the node already has a parent.
	ErrAlreadyAttached = errors.New("node already attached to a parent")

	// ErrCycle indicates attaching the node would make it its own ancestor.
	ErrCycle = errors.New("attaching node would create a cycle")

	// ErrNodeNotFound indicates no node with the given id exists in the tree.
	ErrNodeNotFound = errors.New("node not found")
)
