package history

import (
	"fmt"
	"strings"
)

// Policy selects which child a coordinator-level Undo/Redo targets.
type Policy int

const (
	// PolicyOperationLog follows the coordinator's operation log: the most
	// recently committed change is undone first, whichever child made it.
	PolicyOperationLog Policy = iota

	// PolicyFocusPriority always targets the focused child and falls back
	// to the operation log when no child has focus. Only valid when at most
	// one child can record at a time.
	PolicyFocusPriority
)

// Ordering by wall-clock timestamps across children is deliberately not
// offered: two children recording within one clock tick compare equal and
// their undo order becomes undefined.

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyOperationLog:
		return "operation-log"
	case PolicyFocusPriority:
		return "focus-priority"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name. The empty string selects
// PolicyOperationLog.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "operation-log", "operation_log", "log":
		return PolicyOperationLog, nil
	case "focus-priority", "focus_priority", "focus":
		return PolicyFocusPriority, nil
	default:
		return PolicyOperationLog, fmt.Errorf("unknown resolution policy %q", s)
	}
}

// direction abstracts over undo and redo so resolution is written once.
type direction struct {
	name    string
	event   EventType
	can     func(Node) bool
	perform func(Node) bool
}

var (
	undoDirection = direction{
		name:    "undo",
		event:   EventUndoPerformed,
		can:     Node.CanUndo,
		perform: Node.PerformUndo,
	}
	redoDirection = direction{
		name:    "redo",
		event:   EventRedoPerformed,
		can:     Node.CanRedo,
		perform: Node.PerformRedo,
	}
)
