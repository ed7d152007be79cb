package history

import (
	"fmt"
	"log/slog"
)

// Coordinator is a composite node that owns stacks and nested coordinators
// and presents one Undo/Redo surface over all of them.
//
// It keeps an undo log and a redo log of entries in the order it observed
// commits from its subtree. That order, not wall-clock time, decides which
// child an Undo or Redo targets.
type Coordinator struct {
	nodeBase

	children []Node

	undoLog opLog
	redoLog opLog

	// sealed is set after an undo or redo so the next commit never
	// coalesces into an entry that precedes it.
	sealed bool

	// inflight holds the entries this coordinator is delegating, innermost
	// last. The event each delegation produces is already reflected in the
	// logs and is skipped once; every other event is synced.
	inflight []inflightEntry

	focus  string
	policy Policy

	discarded int
}

// NewCoordinator creates a new coordinator. An empty id is replaced with a
// generated one.
func NewCoordinator(id string, opts ...Option) *Coordinator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Coordinator{
		nodeBase: newNodeBase(id, o.logger),
		policy:   o.policy,
	}
}

// AddChild attaches n as a direct child.
// It fails for nil nodes, nodes that already have a parent, duplicate
// direct-child ids, and attachments that would create a cycle.
func (c *Coordinator) AddChild(n Node) error {
	if isNilNode(n) {
		return fmt.Errorf("add child to %q: %w", c.id, ErrNilChild)
	}
	b := n.base()
	if b.parent != nil {
		return fmt.Errorf("add child %q to %q: %w", b.id, c.id, ErrAlreadyAttached)
	}
	if sub, ok := n.(*Coordinator); ok {
		for p := c; p != nil; p = p.parent {
			if p == sub {
				return fmt.Errorf("add child %q to %q: %w", b.id, c.id, ErrCycle)
			}
		}
	}
	for _, child := range c.children {
		if child.ID() == b.id {
			return fmt.Errorf("add child %q to %q: %w", b.id, c.id, ErrDuplicateID)
		}
	}

	b.parent = c
	c.children = append(c.children, n)
	return nil
}

// MustAddChild is like AddChild but panics on failure.
// Use it where a malformed tree is a programming error.
func (c *Coordinator) MustAddChild(n Node) {
	if err := c.AddChild(n); err != nil {
		panic(err)
	}
}

// RemoveChild detaches the direct child with the given id.
// Every log entry referencing the child's subtree is purged here and in
// every ancestor.
func (c *Coordinator) RemoveChild(id string) (Node, bool) {
	idx := -1
	for i, child := range c.children {
		if child.ID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	child := c.children[idx]
	c.children = append(c.children[:idx], c.children[idx+1:]...)
	child.base().parent = nil

	ids := make(map[string]bool)
	child.collectIDs(ids)
	for p := c; p != nil; p = p.parent {
		p.purge(ids)
	}

	if c.focus == id {
		c.setFocus("")
	}
	return child, true
}

// Children returns the direct children in attachment order.
func (c *Coordinator) Children() []Node {
	out := make([]Node, len(c.children))
	copy(out, c.children)
	return out
}

// FindByID searches the subtree depth-first, including c itself.
// The first match wins; ids duplicated at different depths are not
// disambiguated.
func (c *Coordinator) FindByID(id string) (Node, bool) {
	if c.id == id {
		return c, true
	}
	for _, child := range c.children {
		if child.ID() == id {
			return child, true
		}
		if sub, ok := child.(*Coordinator); ok {
			if n, ok := sub.FindByID(id); ok {
				return n, true
			}
		}
	}
	return nil, false
}

// SetFocus sets the focused direct child. An empty id clears focus.
func (c *Coordinator) SetFocus(id string) error {
	if id != "" && c.child(id) == nil {
		return fmt.Errorf("focus %q in %q: %w", id, c.id, ErrNodeNotFound)
	}
	c.setFocus(id)
	return nil
}

func (c *Coordinator) setFocus(id string) {
	if c.focus == id {
		return
	}
	c.focus = id
	c.publish(Event{Type: EventFocusChanged, Source: c.id, Focus: id})
}

// Focus returns the focused child id, or "".
func (c *Coordinator) Focus() string {
	return c.focus
}

// SetPolicy changes the resolution policy.
func (c *Coordinator) SetPolicy(p Policy) {
	c.policy = p
}

// Policy returns the resolution policy.
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// CanUndo flushes pending queues and reports whether an undo would succeed
// in finding a target. Stale entries at the log tail are pruned.
func (c *Coordinator) CanUndo() bool {
	c.ProcessPendingQueue()
	if child := c.focusTarget(); child != nil {
		return child.CanUndo()
	}
	_, ok := c.resolveTail(&c.undoLog, undoDirection)
	return ok
}

// CanRedo flushes pending queues and reports whether a redo would succeed
// in finding a target.
func (c *Coordinator) CanRedo() bool {
	c.ProcessPendingQueue()
	if child := c.focusTarget(); child != nil {
		return child.CanRedo()
	}
	_, ok := c.resolveTail(&c.redoLog, redoDirection)
	return ok
}

// PerformUndo undoes the most recent change in the subtree.
// Returns false if nothing could be undone; never panics on stale entries.
func (c *Coordinator) PerformUndo() bool {
	c.ProcessPendingQueue()
	if child := c.focusTarget(); child != nil {
		return child.PerformUndo()
	}
	return c.perform(&c.undoLog, &c.redoLog, undoDirection)
}

// PerformRedo redoes the most recently undone change in the subtree.
func (c *Coordinator) PerformRedo() bool {
	c.ProcessPendingQueue()
	if child := c.focusTarget(); child != nil {
		return child.PerformRedo()
	}
	return c.perform(&c.redoLog, &c.undoLog, redoDirection)
}

// LatestOperation describes the change the next PerformUndo would revert.
func (c *Coordinator) LatestOperation() (OperationInfo, bool) {
	c.ProcessPendingQueue()
	if child := c.focusTarget(); child != nil {
		return child.LatestOperation()
	}
	target, ok := c.resolveTail(&c.undoLog, undoDirection)
	if !ok {
		return OperationInfo{}, false
	}
	return target.LatestOperation()
}

// NextRedoOperation describes the change the next PerformRedo would apply.
func (c *Coordinator) NextRedoOperation() (OperationInfo, bool) {
	c.ProcessPendingQueue()
	if child := c.focusTarget(); child != nil {
		return child.NextRedoOperation()
	}
	target, ok := c.resolveTail(&c.redoLog, redoDirection)
	if !ok {
		return OperationInfo{}, false
	}
	return target.NextRedoOperation()
}

// ProcessPendingQueue flushes every pending queue in the subtree and
// returns the total number of candidates flushed.
func (c *Coordinator) ProcessPendingQueue() int {
	if c.suppressed() {
		return 0
	}
	total := 0
	for _, child := range c.Children() {
		total += child.ProcessPendingQueue()
	}
	return total
}

// PendingCount returns the number of candidates buffered in the subtree.
func (c *Coordinator) PendingCount() int {
	total := 0
	for _, child := range c.children {
		total += child.PendingCount()
	}
	return total
}

// HasPendingRecords returns true if any queue in the subtree has candidates.
func (c *Coordinator) HasPendingRecords() bool {
	return c.PendingCount() > 0
}

// Clear drops all history in the subtree and both logs.
func (c *Coordinator) Clear() {
	for _, child := range c.Children() {
		child.Clear()
	}
	c.undoLog = nil
	c.redoLog = nil
	c.sealed = true
}

// UndoLog returns a copy of the undo log, oldest first.
func (c *Coordinator) UndoLog() []Entry {
	return c.undoLog.clone()
}

// RedoLog returns a copy of the redo log, oldest first.
func (c *Coordinator) RedoLog() []Entry {
	return c.redoLog.clone()
}

// Discarded returns how many stale entries have been pruned from the logs.
func (c *Coordinator) Discarded() int {
	return c.discarded
}

// child returns the direct child with the given id, or nil.
func (c *Coordinator) child(id string) Node {
	for _, child := range c.children {
		if child.ID() == id {
			return child
		}
	}
	return nil
}

// focusTarget returns the focused child when the focus-priority policy
// applies, or nil to fall back to the operation log.
func (c *Coordinator) focusTarget() Node {
	if c.policy != PolicyFocusPriority || c.focus == "" {
		return nil
	}
	return c.child(c.focus)
}

// resolve maps an entry to the node it references, or nil when the entry
// is stale for the given direction.
func (c *Coordinator) resolve(e Entry, dir direction) Node {
	target, ok := c.FindByID(e.StackID)
	if !ok || target == Node(c) {
		return nil
	}
	if !dir.can(target) {
		return nil
	}
	return target
}

// resolveTail prunes stale entries from the tail of log and returns the
// target of the first live one.
func (c *Coordinator) resolveTail(log *opLog, dir direction) (Node, bool) {
	for {
		e, ok := log.tail()
		if !ok {
			return nil, false
		}
		if target := c.resolve(e, dir); target != nil {
			return target, true
		}
		log.pop()
		c.discard(e, dir)
	}
}

// perform pops entries from the from log until one resolves, moves it to
// the to log and delegates to its target. Stale entries are discarded.
func (c *Coordinator) perform(from, to *opLog, dir direction) bool {
	for {
		e, ok := from.pop()
		if !ok {
			return false
		}
		target := c.resolve(e, dir)
		if target == nil {
			c.discard(e, dir)
			continue
		}

		to.push(e)
		c.sealed = true

		depth := len(c.inflight)
		c.inflight = append(c.inflight, inflightEntry{entry: e, event: dir.event})
		release := c.hold()
		done := dir.perform(target)
		release()
		if len(c.inflight) > depth {
			// No event answered the delegation
			c.inflight = c.inflight[:depth]
		}

		if !done {
			// Target refused; put the entry back where it was
			to.removeLast(e)
			from.push(e)
			c.log().Debug("delegation failed",
				slog.String("coordinator", c.id),
				slog.String("op", dir.name),
				slog.String("entry", e.String()),
			)
		}
		return done
	}
}

func (c *Coordinator) discard(e Entry, dir direction) {
	c.discarded++
	c.log().Debug("discarded stale log entry",
		slog.String("coordinator", c.id),
		slog.String("op", dir.name),
		slog.String("entry", e.String()),
	)
}

type inflightEntry struct {
	entry Entry
	event EventType
}

// settle marks the most recent in-flight delegation matching e and t as
// answered and reports whether there was one.
func (c *Coordinator) settle(e Entry, t EventType) bool {
	for i := len(c.inflight) - 1; i >= 0; i-- {
		if f := c.inflight[i]; f.entry == e && f.event == t {
			c.inflight = append(c.inflight[:i], c.inflight[i+1:]...)
			return true
		}
	}
	return false
}

// tailIs reports whether a commit of e would coalesce into the undo log.
func (c *Coordinator) tailIs(e Entry) bool {
	if c.sealed {
		return false
	}
	t, ok := c.undoLog.tail()
	return ok && t == e
}

// receive handles an event bubbling up from a child, then republishes it.
func (c *Coordinator) receive(ev Event) {
	switch ev.Type {
	case EventRecordCommitted:
		c.observeCommit(ev)
	case EventUndoPerformed:
		if !c.settle(ev.Entry, ev.Type) {
			// Undo performed below us by someone else; keep our logs in step
			if c.undoLog.removeLast(ev.Entry) {
				c.redoLog.push(ev.Entry)
			}
		}
		c.sealed = true
	case EventRedoPerformed:
		if !c.settle(ev.Entry, ev.Type) {
			c.redoLog.removeLast(ev.Entry)
			c.undoLog.push(ev.Entry)
		}
		c.sealed = true
	case EventCleared:
		c.purge(map[string]bool{ev.Source: true})
	}

	c.publish(ev)
}

// observeCommit appends a committed record to the undo log, or coalesces
// it into an identical tail, and invalidates the redo log.
func (c *Coordinator) observeCommit(ev Event) {
	c.redoLog = nil
	if ev.Coalesced && c.tailIs(ev.Entry) {
		return
	}
	c.undoLog.push(ev.Entry)
	c.sealed = false
}

// purge removes every entry referencing ids from both logs.
func (c *Coordinator) purge(ids map[string]bool) {
	n := c.undoLog.purge(ids) + c.redoLog.purge(ids)
	if n > 0 {
		c.log().Debug("purged log entries",
			slog.String("coordinator", c.id),
			slog.Int("count", n),
		)
	}
}

// TreeInfo returns a diagnostic snapshot of the coordinator and its
// subtree. It does not flush queues or prune logs.
func (c *Coordinator) TreeInfo() TreeInfo {
	info := TreeInfo{
		ID:        c.id,
		Kind:      KindGroup,
		CanUndo:   c.hasLive(c.undoLog, undoDirection),
		CanRedo:   c.hasLive(c.redoLog, redoDirection),
		UndoCount: len(c.undoLog),
		RedoCount: len(c.redoLog),
		Pending:   c.PendingCount(),
		Focus:     c.focus,
		Policy:    c.policy.String(),
		UndoLog:   c.undoLog.clone(),
		RedoLog:   c.redoLog.clone(),
	}
	for _, child := range c.children {
		info.Children = append(info.Children, child.TreeInfo())
	}
	return info
}

// hasLive reports whether any entry in log still resolves, without
// modifying the log.
func (c *Coordinator) hasLive(log opLog, dir direction) bool {
	for i := len(log) - 1; i >= 0; i-- {
		target, ok := c.FindByID(log[i].StackID)
		if !ok || target == Node(c) {
			continue
		}
		// Asking a nested coordinator would flush its queues
		if _, ok := target.(*Coordinator); ok {
			return true
		}
		if dir.can(target) {
			return true
		}
	}
	return false
}

func (c *Coordinator) collectIDs(ids map[string]bool) {
	ids[c.id] = true
	for _, child := range c.children {
		child.collectIDs(ids)
	}
}
