package history

// BeginScope starts collecting records into one undo unit.
// Records pushed while scoped are committed together as a CompoundRecord
// named name when EndScope is called.
func (s *Stack) BeginScope(name string, group GroupID) {
	if s.scoped {
		// Already scoped, ignore nested calls
		return
	}

	s.scoped = true
	s.scopeName = name
	s.scopeGroup = group
	s.scopeRecord = nil
}

// EndScope finishes a scope and commits the collected records.
func (s *Stack) EndScope() {
	if !s.scoped {
		return
	}

	s.scoped = false
	records := s.scopeRecord
	s.scopeRecord = nil

	if len(records) == 0 {
		return
	}
	if s.suppressed() {
		s.suppress("scope", s.scopeName)
		return
	}

	var rec Record
	if len(records) == 1 && s.scopeName == "" {
		rec = records[0]
	} else {
		rec = NewCompoundRecord(s.scopeName, records...)
	}
	s.commit(rec, s.scopeGroup)
}

// CancelScope discards a scope without adding to history.
// Note: changes already applied by the collected records still stand.
func (s *Stack) CancelScope() {
	s.scoped = false
	s.scopeRecord = nil
}

// IsScoped returns true if a scope is open.
func (s *Stack) IsScoped() bool {
	return s.scoped
}

// Scope provides a convenient way to group records using defer.
// Usage:
//
//	func dragVertices(mesh *Stack) {
//	    defer mesh.Scope("Drag Vertices", "drag").End()
//	    // ... multiple records ...
//	}
type Scope struct {
	stack  *Stack
	active bool
}

// Scope starts a new scope.
// Call End() or use with defer to properly close it.
func (s *Stack) Scope(name string, group GroupID) *Scope {
	s.BeginScope(name, group)
	return &Scope{
		stack:  s,
		active: true,
	}
}

// End ends the scope.
// Safe to call multiple times; only the first call has effect.
func (sc *Scope) End() {
	if sc.active {
		sc.stack.EndScope()
		sc.active = false
	}
}

// Cancel cancels the scope without creating a compound record.
func (sc *Scope) Cancel() {
	if sc.active {
		sc.stack.CancelScope()
		sc.active = false
	}
}

// Transaction runs fn within a scope.
// If fn returns an error, the scope is cancelled.
func (s *Stack) Transaction(name string, group GroupID, fn func() error) error {
	s.BeginScope(name, group)

	if err := fn(); err != nil {
		s.CancelScope()
		return err
	}

	s.EndScope()
	return nil
}

// Checkpoint represents a point in a stack's history that can be returned to.
type Checkpoint struct {
	undoDepth int
}

// CreateCheckpoint creates a checkpoint at the current history position.
func (s *Stack) CreateCheckpoint() Checkpoint {
	return Checkpoint{undoDepth: len(s.available)}
}

// UndoToCheckpoint undoes all records since the checkpoint.
// Returns false if an undo failed before the checkpoint was reached.
func (s *Stack) UndoToCheckpoint(cp Checkpoint) bool {
	for s.UndoCount() > cp.undoDepth {
		if !s.PerformUndo() {
			return false
		}
	}
	return true
}

// RedoToCheckpoint redoes records up to the checkpoint depth.
// Note: This only works if the redo pile still holds the records.
func (s *Stack) RedoToCheckpoint(cp Checkpoint) bool {
	for s.UndoCount() < cp.undoDepth && s.CanRedo() {
		if !s.PerformRedo() {
			return false
		}
	}
	return s.UndoCount() >= cp.undoDepth
}
