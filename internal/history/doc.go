// Package history provides multi-stack undo/redo for the editor.
//
// Every subsystem that tracks changes (mesh topology, camera, selection,
// materials, UV layout) owns its own linear history, while the user sees a
// single Undo/Redo command. This package unifies the two views.
//
// # Records
//
// A Record is one reversible change. Built-in records include:
//   - Action: a redo/undo function pair
//   - Snapshot: a before/after value applied through a setter
//   - CompoundRecord: several records undone as one unit
//
// # Stacks
//
// A Stack is the linear history of one subsystem:
//
//	mesh := history.NewStack("mesh")
//	mesh.Record(history.NewAction("Move Vertex", redo, undo), "drag-42")
//	mesh.PerformUndo()
//
// Records sharing a group id with the stack's tail are folded into a single
// undo unit, so a burst of "Move Vertex" updates from one drag undoes in one
// step. Records recorded with NoGroup are never folded.
//
// # Pending Queues
//
// High-frequency producers can buffer candidates in a PendingQueue in front
// of a stack. ProcessPendingQueue merges each buffered run into one record
// before it reaches the stack.
//
// # Coordinators
//
// A Coordinator owns stacks and nested coordinators and keeps a global
// operation log of (stack id, group id) entries in the order it observed
// commits:
//
//	root := history.NewCoordinator("root")
//	root.MustAddChild(mesh)
//	root.MustAddChild(camera)
//
//	root.PerformUndo() // undoes the most recent change, whichever stack made it
//
// Undo pops the log tail, finds the referenced stack by id and delegates to
// it. Entries whose stack was removed or can no longer undo are discarded
// and the next entry is tried, so a stale log never breaks the command.
//
// # Ordering
//
// The log defines the order. Wall-clock timestamps are not used: two stacks
// recording within the same clock tick would compare equal and undo in an
// undefined order. A focus-priority policy that always targets one child is
// available for hosts where only one child can record at a time.
//
// # Events
//
// Nodes publish RecordCommitted, UndoPerformed, RedoPerformed, FocusChanged,
// QueueProcessed and Cleared events. Events bubble unchanged from the
// originating stack through every ancestor coordinator.
//
// # Threading
//
// The package is single-threaded and synchronous. Nodes are not safe for
// concurrent use. While an undo or redo is being dispatched, recording
// anywhere in the same tree is suppressed.
package history
