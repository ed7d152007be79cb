package history

import (
	"log/slog"
	"time"
)

// stackEntry wraps a record with metadata.
type stackEntry struct {
	record    Record
	group     GroupID
	timestamp time.Time
}

func (e *stackEntry) info(stackID string) OperationInfo {
	return OperationInfo{
		Description: e.record.Description(),
		StackID:     stackID,
		GroupID:     e.group,
		Timestamp:   e.timestamp,
	}
}

// Stack manages the linear undo/redo history of one subsystem.
//
// Records live in exactly one of two piles: available (undoable) and undone
// (redoable). Recording a new change discards the undone pile.
type Stack struct {
	nodeBase

	available []*stackEntry
	undone    []*stackEntry

	// sealed is set after undo, redo or clear so the next record starts a
	// new unit even if it shares the tail's group.
	sealed bool

	// Scope state
	scoped      bool
	scopeName   string
	scopeGroup  GroupID
	scopeRecord []Record

	queue      *PendingQueue
	maxPending int

	// Configuration
	maxEntries int

	suppressedCount int
}

// NewStack creates a new history stack. An empty id is replaced with a
// generated one.
func NewStack(id string, opts ...Option) *Stack {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Stack{
		nodeBase:   newNodeBase(id, o.logger),
		maxEntries: o.maxEntries,
		maxPending: o.maxPending,
	}
}

// Record commits rec to the stack under group.
//
// When group matches the tail record's group and nothing else has been
// committed in the tree since, rec is folded into the tail: mergeable
// records are merged, others become steps of a CompoundRecord. NoGroup
// records always start a new unit.
//
// Record is dropped while the tree is dispatching an undo or redo.
func (s *Stack) Record(rec Record, group GroupID) {
	if rec == nil {
		return
	}
	if s.suppressed() {
		s.suppress("record", rec.Description())
		return
	}

	if s.scoped {
		s.scopeRecord = append(s.scopeRecord, rec)
		return
	}

	s.commit(rec, group)
}

// commit adds a record without checking scope or suppression.
func (s *Stack) commit(rec Record, group GroupID) {
	coalesced := false
	if group == NoGroup {
		group = newGroupID()
	} else if s.canFold(group) {
		tail := s.available[len(s.available)-1]
		tail.record = mergeRecords(tail.record, rec)
		tail.timestamp = time.Now()
		coalesced = true
	}

	if !coalesced {
		s.available = append(s.available, &stackEntry{
			record:    rec,
			group:     group,
			timestamp: time.Now(),
		})
		s.trim()
	}

	// New edit kills the redo future
	s.undone = nil
	s.sealed = false

	tail := s.available[len(s.available)-1]
	if coalesced {
		s.log().Debug("coalesced record",
			slog.String("stack", s.id),
			slog.String("group", string(group)),
		)
	}
	s.publish(Event{
		Type:        EventRecordCommitted,
		Source:      s.id,
		Entry:       Entry{StackID: s.id, GroupID: group},
		Description: tail.record.Description(),
		Coalesced:   coalesced,
	})
}

// canFold reports whether a record of group may join the tail record.
func (s *Stack) canFold(group GroupID) bool {
	if s.sealed || len(s.available) == 0 {
		return false
	}
	if s.available[len(s.available)-1].group != group {
		return false
	}
	if root := s.rootCoordinator(); root != nil {
		return root.tailIs(Entry{StackID: s.id, GroupID: group})
	}
	return true
}

// trim enforces max entries by dropping the oldest records.
func (s *Stack) trim() {
	if s.maxEntries > 0 && len(s.available) > s.maxEntries {
		excess := len(s.available) - s.maxEntries
		s.available = s.available[excess:]
	}
}

func (s *Stack) suppress(op, desc string) {
	s.suppressedCount++
	s.log().Debug("suppressed during undo/redo dispatch",
		slog.String("stack", s.id),
		slog.String("op", op),
		slog.String("record", desc),
	)
}

// PerformUndo flushes the pending queue, then undoes the most recent record.
// Returns false with no side effect if there is nothing to undo or the
// record fails to undo.
func (s *Stack) PerformUndo() bool {
	s.ProcessPendingQueue()
	if len(s.available) == 0 {
		return false
	}

	entry := s.available[len(s.available)-1]
	s.available = s.available[:len(s.available)-1]

	release := s.hold()
	defer release()

	if err := entry.record.Undo(); err != nil {
		// Restore entry on failure
		s.available = append(s.available, entry)
		s.log().Warn("undo failed",
			slog.String("stack", s.id),
			slog.String("record", entry.record.Description()),
			slog.Any("error", err),
		)
		return false
	}

	s.undone = append(s.undone, entry)
	s.sealed = true
	s.publish(Event{
		Type:        EventUndoPerformed,
		Source:      s.id,
		Entry:       Entry{StackID: s.id, GroupID: entry.group},
		Description: entry.record.Description(),
	})
	return true
}

// PerformRedo flushes the pending queue, then redoes the most recently
// undone record. A flushed candidate clears the redo history first.
func (s *Stack) PerformRedo() bool {
	s.ProcessPendingQueue()
	if len(s.undone) == 0 {
		return false
	}

	entry := s.undone[len(s.undone)-1]
	s.undone = s.undone[:len(s.undone)-1]

	release := s.hold()
	defer release()

	if err := entry.record.Redo(); err != nil {
		s.undone = append(s.undone, entry)
		s.log().Warn("redo failed",
			slog.String("stack", s.id),
			slog.String("record", entry.record.Description()),
			slog.Any("error", err),
		)
		return false
	}

	s.available = append(s.available, entry)
	s.sealed = true
	s.publish(Event{
		Type:        EventRedoPerformed,
		Source:      s.id,
		Entry:       Entry{StackID: s.id, GroupID: entry.group},
		Description: entry.record.Description(),
	})
	return true
}

// CanUndo returns true if undo is available.
func (s *Stack) CanUndo() bool {
	return len(s.available) > 0
}

// CanRedo returns true if redo is available.
func (s *Stack) CanRedo() bool {
	return len(s.undone) > 0
}

// UndoCount returns the number of undo operations available.
func (s *Stack) UndoCount() int {
	return len(s.available)
}

// RedoCount returns the number of redo operations available.
func (s *Stack) RedoCount() int {
	return len(s.undone)
}

// Clear removes all undo/redo history and any pending candidates.
func (s *Stack) Clear() {
	s.available = nil
	s.undone = nil
	s.sealed = true
	s.scoped = false
	s.scopeRecord = nil
	if s.queue != nil {
		s.queue.discard()
	}

	s.publish(Event{Type: EventCleared, Source: s.id})
}

// UndoInfo returns info about available undo operations, oldest first.
func (s *Stack) UndoInfo() []OperationInfo {
	result := make([]OperationInfo, len(s.available))
	for i, entry := range s.available {
		result[i] = entry.info(s.id)
	}
	return result
}

// RedoInfo returns info about available redo operations, oldest first.
func (s *Stack) RedoInfo() []OperationInfo {
	result := make([]OperationInfo, len(s.undone))
	for i, entry := range s.undone {
		result[i] = entry.info(s.id)
	}
	return result
}

// LatestOperation returns info about the next undo operation without
// removing it.
func (s *Stack) LatestOperation() (OperationInfo, bool) {
	if len(s.available) == 0 {
		return OperationInfo{}, false
	}
	return s.available[len(s.available)-1].info(s.id), true
}

// NextRedoOperation returns info about the next redo operation without
// removing it.
func (s *Stack) NextRedoOperation() (OperationInfo, bool) {
	if len(s.undone) == 0 {
		return OperationInfo{}, false
	}
	return s.undone[len(s.undone)-1].info(s.id), true
}

// SetMaxEntries changes the maximum number of undo entries.
// If the current stack is larger, oldest entries are removed.
func (s *Stack) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	s.maxEntries = max
	s.trim()
}

// MaxEntries returns the maximum number of undo entries.
func (s *Stack) MaxEntries() int {
	return s.maxEntries
}

// Suppressed returns how many records were dropped because they arrived
// while an undo or redo was being dispatched.
func (s *Stack) Suppressed() int {
	return s.suppressedCount
}

// TreeInfo returns a diagnostic snapshot of the stack.
func (s *Stack) TreeInfo() TreeInfo {
	return TreeInfo{
		ID:        s.id,
		Kind:      KindStack,
		CanUndo:   s.CanUndo(),
		CanRedo:   s.CanRedo(),
		UndoCount: len(s.available),
		RedoCount: len(s.undone),
		Pending:   s.PendingCount(),
	}
}

func (s *Stack) collectIDs(ids map[string]bool) {
	ids[s.id] = true
}
