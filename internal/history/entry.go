package history

import (
	"time"

	"github.com/google/uuid"
)

// GroupID distinguishes logically distinct edits within one stack.
// Consecutive records with the same group id collapse into one undo unit.
type GroupID string

// NoGroup marks a record that never coalesces with its neighbours.
const NoGroup GroupID = ""

// newGroupID returns a group id that no caller-supplied id will match.
func newGroupID() GroupID {
	return GroupID("auto-" + uuid.NewString())
}

// Entry is an operation log entry: a non-owning reference to the stack that
// committed a change and the group the change belongs to.
type Entry struct {
	StackID string  `yaml:"stack" toml:"stack"`
	GroupID GroupID `yaml:"group" toml:"group"`
}

// String returns the entry as "group@stack".
func (e Entry) String() string {
	return string(e.GroupID) + "@" + e.StackID
}

// OperationInfo provides read-only info about a recorded change.
// Used for rendering labels such as "Undo Move Vertex".
type OperationInfo struct {
	Description string    // Human-readable description
	StackID     string    // Stack that owns the record
	GroupID     GroupID   // Edit group of the record
	Timestamp   time.Time // When the record was committed
}

// opLog is an ordered sequence of entries used as a stack.
type opLog []Entry

func (l opLog) tail() (Entry, bool) {
	if len(l) == 0 {
		return Entry{}, false
	}
	return l[len(l)-1], true
}

func (l *opLog) push(e Entry) {
	*l = append(*l, e)
}

func (l *opLog) pop() (Entry, bool) {
	e, ok := l.tail()
	if ok {
		*l = (*l)[:len(*l)-1]
	}
	return e, ok
}

// removeLast removes the most recent occurrence of e.
func (l *opLog) removeLast(e Entry) bool {
	for i := len(*l) - 1; i >= 0; i-- {
		if (*l)[i] == e {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return true
		}
	}
	return false
}

// purge removes every entry whose stack id is in ids and returns the count.
func (l *opLog) purge(ids map[string]bool) int {
	kept := (*l)[:0]
	removed := 0
	for _, e := range *l {
		if ids[e.StackID] {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	*l = kept
	return removed
}

func (l opLog) clone() []Entry {
	if len(l) == 0 {
		return nil
	}
	out := make([]Entry, len(l))
	copy(out, l)
	return out
}
