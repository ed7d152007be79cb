package history

import (
	"log/slog"

	"github.com/google/uuid"
)

// Node is a member of a history tree: either a *Stack or a *Coordinator.
// The set is closed; other packages cannot implement Node.
type Node interface {
	// ID returns the node's unique id.
	ID() string

	// Parent returns the owning coordinator, or nil for a root.
	Parent() *Coordinator

	CanUndo() bool
	CanRedo() bool
	PerformUndo() bool
	PerformRedo() bool

	// LatestOperation describes what the next PerformUndo would revert.
	LatestOperation() (OperationInfo, bool)

	// NextRedoOperation describes what the next PerformRedo would apply.
	NextRedoOperation() (OperationInfo, bool)

	// ProcessPendingQueue flushes buffered candidates and returns how many
	// were flushed.
	ProcessPendingQueue() int
	PendingCount() int
	HasPendingRecords() bool

	// Clear drops all history below and including this node.
	Clear()

	// TreeInfo returns a diagnostic snapshot of the node and its subtree.
	TreeInfo() TreeInfo

	// Subscribe registers fn for every event raised by or bubbled through
	// this node.
	Subscribe(fn Subscriber) *Subscription

	base() *nodeBase
	collectIDs(ids map[string]bool)
}

// nodeBase holds state common to stacks and coordinators.
type nodeBase struct {
	id     string
	parent *Coordinator // non-owning, used for bubbling and lookups
	logger *slog.Logger
	events notifier

	// busy is the dispatch depth; only meaningful on a tree's root.
	busy int
}

func newNodeBase(id string, logger *slog.Logger) nodeBase {
	if id == "" {
		id = uuid.NewString()
	}
	return nodeBase{id: id, logger: logger}
}

// ID returns the node's id.
func (b *nodeBase) ID() string {
	return b.id
}

// Parent returns the owning coordinator, or nil.
func (b *nodeBase) Parent() *Coordinator {
	return b.parent
}

// Subscribe registers fn for events raised by or bubbled through this node.
func (b *nodeBase) Subscribe(fn Subscriber) *Subscription {
	return b.events.subscribe(fn)
}

func (b *nodeBase) base() *nodeBase {
	return b
}

// root returns the topmost ancestor's base, or b itself.
func (b *nodeBase) root() *nodeBase {
	n := b
	for n.parent != nil {
		n = &n.parent.nodeBase
	}
	return n
}

// rootCoordinator returns the topmost coordinator above b, or nil when b
// is not attached.
func (b *nodeBase) rootCoordinator() *Coordinator {
	var top *Coordinator
	for p := b.parent; p != nil; p = p.parent {
		top = p
	}
	return top
}

// hold marks the tree as dispatching until the returned func is called.
func (b *nodeBase) hold() func() {
	r := b.root()
	r.busy++
	return func() { r.busy-- }
}

// suppressed reports whether the tree is dispatching an undo or redo.
func (b *nodeBase) suppressed() bool {
	return b.root().busy > 0
}

// log returns the nearest configured logger on the path to the root.
func (b *nodeBase) log() *slog.Logger {
	for n := b; n != nil; {
		if n.logger != nil {
			return n.logger
		}
		if n.parent == nil {
			break
		}
		n = &n.parent.nodeBase
	}
	return slog.Default()
}

// publish notifies local subscribers and bubbles ev to the parent.
func (b *nodeBase) publish(ev Event) {
	b.events.notify(ev)
	if b.parent != nil {
		b.parent.receive(ev)
	}
}

// isNilNode reports whether n is nil or a typed nil pointer.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Stack:
		return v == nil
	case *Coordinator:
		return v == nil
	default:
		return false
	}
}
