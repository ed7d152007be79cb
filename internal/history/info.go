package history

import (
	"fmt"
	"strings"
)

// Node kinds reported in TreeInfo.
const (
	KindStack = "stack"
	KindGroup = "group"
)

// TreeInfo is a diagnostic snapshot of a node and its subtree.
type TreeInfo struct {
	ID        string     `yaml:"id" toml:"id"`
	Kind      string     `yaml:"kind" toml:"kind"`
	CanUndo   bool       `yaml:"can_undo" toml:"can_undo"`
	CanRedo   bool       `yaml:"can_redo" toml:"can_redo"`
	UndoCount int        `yaml:"undo_count" toml:"undo_count"`
	RedoCount int        `yaml:"redo_count" toml:"redo_count"`
	Pending   int        `yaml:"pending,omitempty" toml:"pending,omitempty"`
	Focus     string     `yaml:"focus,omitempty" toml:"focus,omitempty"`
	Policy    string     `yaml:"policy,omitempty" toml:"policy,omitempty"`
	UndoLog   []Entry    `yaml:"undo_log,omitempty" toml:"undo_log,omitempty"`
	RedoLog   []Entry    `yaml:"redo_log,omitempty" toml:"redo_log,omitempty"`
	Children  []TreeInfo `yaml:"children,omitempty" toml:"children,omitempty"`
}

// Find returns the snapshot of the node with the given id, searching
// depth-first.
func (t TreeInfo) Find(id string) (TreeInfo, bool) {
	if t.ID == id {
		return t, true
	}
	for _, child := range t.Children {
		if found, ok := child.Find(id); ok {
			return found, true
		}
	}
	return TreeInfo{}, false
}

// String renders the tree as an indented outline.
func (t TreeInfo) String() string {
	var sb strings.Builder
	t.write(&sb, 0)
	return sb.String()
}

func (t TreeInfo) write(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s%s %s undo=%d redo=%d", indent, t.Kind, t.ID, t.UndoCount, t.RedoCount)
	if t.Pending > 0 {
		fmt.Fprintf(sb, " pending=%d", t.Pending)
	}
	if t.Focus != "" {
		fmt.Fprintf(sb, " focus=%s", t.Focus)
	}
	sb.WriteByte('\n')
	for _, child := range t.Children {
		child.write(sb, depth+1)
	}
}
