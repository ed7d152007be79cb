package history

// EventType represents the kind of history notification.
type EventType int

const (
	// EventRecordCommitted indicates a record reached a stack.
	EventRecordCommitted EventType = iota

	// EventUndoPerformed indicates a stack undid a record.
	EventUndoPerformed

	// EventRedoPerformed indicates a stack redid a record.
	EventRedoPerformed

	// EventFocusChanged indicates a coordinator's focused child changed.
	EventFocusChanged

	// EventQueueProcessed indicates a pending queue was flushed.
	EventQueueProcessed

	// EventCleared indicates a stack dropped its whole history.
	EventCleared
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventRecordCommitted:
		return "record-committed"
	case EventUndoPerformed:
		return "undo-performed"
	case EventRedoPerformed:
		return "redo-performed"
	case EventFocusChanged:
		return "focus-changed"
	case EventQueueProcessed:
		return "queue-processed"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event is a history notification. Events bubble unchanged from the
// originating node through every ancestor coordinator.
type Event struct {
	// Type is the kind of event.
	Type EventType

	// Source is the id of the node that raised the event.
	Source string

	// Entry identifies the record for commit, undo and redo events.
	Entry Entry

	// Description is the record description, if any.
	Description string

	// Count is the number of candidates flushed for queue events.
	Count int

	// Coalesced is true when a committed record was folded into the
	// stack's tail instead of being appended.
	Coalesced bool

	// Focus is the new focused child id for focus events.
	Focus string
}

// Subscriber is called synchronously for every event a node publishes.
type Subscriber func(ev Event)

// Subscription represents an active subscriber registration.
type Subscription struct {
	id       uint64
	notifier *notifier
}

// Unsubscribe removes this subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
		s.notifier = nil
	}
}

type subscriberEntry struct {
	id uint64
	fn Subscriber
}

// notifier is an ordered subscriber list owned by one node.
type notifier struct {
	subs   []subscriberEntry
	nextID uint64
}

func (n *notifier) subscribe(fn Subscriber) *Subscription {
	id := n.nextID
	n.nextID++
	n.subs = append(n.subs, subscriberEntry{id: id, fn: fn})
	return &Subscription{id: id, notifier: n}
}

func (n *notifier) unsubscribe(id uint64) {
	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

// notify delivers ev in subscription order. The list is copied first so a
// subscriber may unsubscribe itself.
func (n *notifier) notify(ev Event) {
	if len(n.subs) == 0 {
		return
	}
	subs := make([]subscriberEntry, len(n.subs))
	copy(subs, n.subs)
	for _, s := range subs {
		if s.fn != nil {
			s.fn(ev)
		}
	}
}

func (n *notifier) count() int {
	return len(n.subs)
}
