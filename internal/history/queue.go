package history

// pendingItem is a buffered candidate and the group open when it arrived.
type pendingItem struct {
	record Record
	group  GroupID
}

// PendingQueue buffers high-frequency candidates in front of a stack.
//
// Candidates are held until ProcessPendingQueue, which merges each run of
// consecutive same-group candidates into one record (earliest before state,
// latest after state) and records it on the stack.
type PendingQueue struct {
	stack *Stack
	group GroupID
	items []pendingItem

	// maxPending flushes automatically when reached; zero disables it.
	maxPending int
}

// Queue returns the stack's pending queue, creating it on first use.
func (s *Stack) Queue() *PendingQueue {
	if s.queue == nil {
		s.queue = &PendingQueue{stack: s, maxPending: s.maxPending}
	}
	return s.queue
}

// SetGroup opens a group; later candidates are buffered under it.
// NoGroup closes the current group.
func (q *PendingQueue) SetGroup(group GroupID) {
	q.group = group
}

// Group returns the currently open group.
func (q *PendingQueue) Group() GroupID {
	return q.group
}

// Enqueue buffers a candidate under the open group. The stack is not
// touched until the queue is processed.
func (q *PendingQueue) Enqueue(rec Record) {
	if rec == nil {
		return
	}
	if q.stack.suppressed() {
		q.stack.suppress("enqueue", rec.Description())
		return
	}

	q.items = append(q.items, pendingItem{record: rec, group: q.group})

	if q.maxPending > 0 && len(q.items) >= q.maxPending {
		q.ProcessPendingQueue()
	}
}

// ProcessPendingQueue merges the buffered candidates and records them on
// the stack. Returns the number of candidates flushed.
// Nothing is flushed while the tree is dispatching an undo or redo.
func (q *PendingQueue) ProcessPendingQueue() int {
	if len(q.items) == 0 || q.stack.suppressed() {
		return 0
	}

	items := q.items
	q.items = nil

	start := 0
	for i := 1; i <= len(items); i++ {
		if i < len(items) && items[i].group == items[start].group {
			continue
		}
		run := make([]Record, 0, i-start)
		for _, it := range items[start:i] {
			run = append(run, it.record)
		}
		q.stack.Record(mergeRun(run), items[start].group)
		start = i
	}

	q.stack.publish(Event{
		Type:   EventQueueProcessed,
		Source: q.stack.id,
		Count:  len(items),
	})
	return len(items)
}

// PendingCount returns the number of buffered candidates.
func (q *PendingQueue) PendingCount() int {
	return len(q.items)
}

// HasPendingRecords returns true if any candidate is buffered.
func (q *PendingQueue) HasPendingRecords() bool {
	return len(q.items) > 0
}

// discard drops buffered candidates without recording them.
func (q *PendingQueue) discard() {
	q.items = nil
}

// ProcessPendingQueue flushes the stack's pending queue, if any.
func (s *Stack) ProcessPendingQueue() int {
	if s.queue == nil {
		return 0
	}
	return s.queue.ProcessPendingQueue()
}

// PendingCount returns the number of candidates buffered for the stack.
func (s *Stack) PendingCount() int {
	if s.queue == nil {
		return 0
	}
	return s.queue.PendingCount()
}

// HasPendingRecords returns true if the stack has buffered candidates.
func (s *Stack) HasPendingRecords() bool {
	return s.PendingCount() > 0
}
