package history

import (
	"fmt"
)

// Record represents one reversible change owned by a single stack.
type Record interface {
	// Undo reverts the change and returns an error if it fails.
	Undo() error

	// Redo re-applies the change and returns an error if it fails.
	Redo() error

	// Description returns a human-readable description of the change.
	Description() string
}

// Merger is implemented by records that can absorb a later record of the
// same edit group. Merge returns the combined record and true, or false if
// the two cannot be combined.
type Merger interface {
	Merge(next Record) (Record, bool)
}

// Action is a record built from a redo/undo function pair.
type Action struct {
	Name   string
	RedoFn func() error
	UndoFn func() error
}

// NewAction creates a new action record.
func NewAction(name string, redo, undo func() error) *Action {
	return &Action{
		Name:   name,
		RedoFn: redo,
		UndoFn: undo,
	}
}

// Undo runs the undo function.
func (a *Action) Undo() error {
	if a.UndoFn == nil {
		return nil
	}
	return a.UndoFn()
}

// Redo runs the redo function.
func (a *Action) Redo() error {
	if a.RedoFn == nil {
		return nil
	}
	return a.RedoFn()
}

// Description returns the action name.
func (a *Action) Description() string {
	return a.Name
}

// Snapshot is a record that restores whole values of T.
// Undo applies Before, Redo applies After.
type Snapshot[T any] struct {
	Name   string
	Before T
	After  T
	Apply  func(T) error
}

// NewSnapshot creates a new snapshot record.
func NewSnapshot[T any](name string, before, after T, apply func(T) error) *Snapshot[T] {
	return &Snapshot[T]{
		Name:   name,
		Before: before,
		After:  after,
		Apply:  apply,
	}
}

// Undo applies the before state.
func (s *Snapshot[T]) Undo() error {
	if s.Apply == nil {
		return nil
	}
	return s.Apply(s.Before)
}

// Redo applies the after state.
func (s *Snapshot[T]) Redo() error {
	if s.Apply == nil {
		return nil
	}
	return s.Apply(s.After)
}

// Description returns the snapshot name.
func (s *Snapshot[T]) Description() string {
	return s.Name
}

// Merge keeps the earliest before state and the latest after state.
// Only snapshots of the same type merge.
func (s *Snapshot[T]) Merge(next Record) (Record, bool) {
	n, ok := next.(*Snapshot[T])
	if !ok {
		return nil, false
	}
	name := s.Name
	if name == "" {
		name = n.Name
	}
	apply := n.Apply
	if apply == nil {
		apply = s.Apply
	}
	return &Snapshot[T]{
		Name:   name,
		Before: s.Before,
		After:  n.After,
		Apply:  apply,
	}, true
}

// CompoundRecord groups multiple records as one undo unit.
type CompoundRecord struct {
	Name    string
	Records []Record
}

// NewCompoundRecord creates a new compound record.
func NewCompoundRecord(name string, records ...Record) *CompoundRecord {
	return &CompoundRecord{
		Name:    name,
		Records: records,
	}
}

// Redo re-applies all records in order.
func (c *CompoundRecord) Redo() error {
	for i, rec := range c.Records {
		if err := rec.Redo(); err != nil {
			// On error, try to revert what we've done
			for j := i - 1; j >= 0; j-- {
				_ = c.Records[j].Undo()
			}
			return fmt.Errorf("redo compound record '%s' step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Undo reverts all records in reverse order.
func (c *CompoundRecord) Undo() error {
	for i := len(c.Records) - 1; i >= 0; i-- {
		if err := c.Records[i].Undo(); err != nil {
			for j := i + 1; j < len(c.Records); j++ {
				_ = c.Records[j].Redo()
			}
			return fmt.Errorf("undo compound record '%s' step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Description returns the compound record's name.
func (c *CompoundRecord) Description() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Records) == 1 {
		return c.Records[0].Description()
	}
	return fmt.Sprintf("%d operations", len(c.Records))
}

// Add adds a record to the compound record.
func (c *CompoundRecord) Add(rec Record) {
	c.Records = append(c.Records, rec)
}

// IsEmpty returns true if the compound record has no records.
func (c *CompoundRecord) IsEmpty() bool {
	return len(c.Records) == 0
}

// Merge absorbs next into the compound. A mergeable last step is merged in
// place; anything else is appended as a new step.
func (c *CompoundRecord) Merge(next Record) (Record, bool) {
	out := &CompoundRecord{Name: c.Name, Records: append([]Record(nil), c.Records...)}
	if n := len(out.Records); n > 0 {
		if m, ok := out.Records[n-1].(Merger); ok {
			if merged, ok := m.Merge(next); ok {
				out.Records[n-1] = merged
				return out, true
			}
		}
	}
	out.Records = append(out.Records, next)
	return out, true
}

// mergeRecords folds next into prev. Records that cannot merge end up as
// consecutive steps of a CompoundRecord.
func mergeRecords(prev, next Record) Record {
	if m, ok := prev.(Merger); ok {
		if merged, ok := m.Merge(next); ok {
			return merged
		}
	}
	return NewCompoundRecord(prev.Description(), prev, next)
}

// mergeRun folds a run of records left to right.
func mergeRun(run []Record) Record {
	if len(run) == 0 {
		return nil
	}
	out := run[0]
	for _, rec := range run[1:] {
		out = mergeRecords(out, rec)
	}
	return out
}
