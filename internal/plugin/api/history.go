package api

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/undotree/internal/history"
)

// HistoryModule implements the ks.history API module.
type HistoryModule struct {
	ctx *Context
}

// NewHistoryModule creates a new history module.
func NewHistoryModule(ctx *Context) *HistoryModule {
	return &HistoryModule{ctx: ctx}
}

// Name returns the module name.
func (m *HistoryModule) Name() string {
	return "history"
}

// Register registers the module into the Lua state.
func (m *HistoryModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	// Consumer side
	L.SetField(mod, "undo", L.NewFunction(m.undo))
	L.SetField(mod, "redo", L.NewFunction(m.redo))
	L.SetField(mod, "can_undo", L.NewFunction(m.canUndo))
	L.SetField(mod, "can_redo", L.NewFunction(m.canRedo))
	L.SetField(mod, "latest", L.NewFunction(m.latest))
	L.SetField(mod, "next_redo", L.NewFunction(m.nextRedo))
	L.SetField(mod, "process_pending", L.NewFunction(m.processPending))
	L.SetField(mod, "pending", L.NewFunction(m.pending))
	L.SetField(mod, "focus", L.NewFunction(m.focus))
	L.SetField(mod, "clear", L.NewFunction(m.clear))
	L.SetField(mod, "undo_log", L.NewFunction(m.undoLog))
	L.SetField(mod, "redo_log", L.NewFunction(m.redoLog))
	L.SetField(mod, "tree", L.NewFunction(m.tree))

	// Producer side
	L.SetField(mod, "record", L.NewFunction(m.record))
	L.SetField(mod, "enqueue", L.NewFunction(m.enqueue))
	L.SetField(mod, "set_group", L.NewFunction(m.setGroup))

	L.SetGlobal("_ks_history", mod)
	return nil
}

// node resolves the optional node id argument at idx; absent means the
// root of the tree.
func (m *HistoryModule) node(L *lua.LState, idx int) history.Node {
	if m.ctx.Tree == nil {
		L.RaiseError("no history tree available")
		return nil
	}
	id := L.OptString(idx, "")
	if id == "" {
		return m.ctx.Tree
	}
	n, ok := m.ctx.Tree.FindByID(id)
	if !ok {
		L.ArgError(idx, fmt.Sprintf("unknown node %q", id))
		return nil
	}
	return n
}

// coordinator resolves the optional coordinator id argument at idx.
func (m *HistoryModule) coordinator(L *lua.LState, idx int) *history.Coordinator {
	c, ok := m.node(L, idx).(*history.Coordinator)
	if !ok {
		L.ArgError(idx, "not a group")
		return nil
	}
	return c
}

// stack resolves the required stack id argument at idx.
func (m *HistoryModule) stack(L *lua.LState, idx int) *history.Stack {
	L.CheckString(idx)
	s, ok := m.node(L, idx).(*history.Stack)
	if !ok {
		L.ArgError(idx, "not a stack")
		return nil
	}
	return s
}

// undo([node_id]) -> bool
// Undoes the most recent change below the node.
func (m *HistoryModule) undo(L *lua.LState) int {
	L.Push(lua.LBool(m.node(L, 1).PerformUndo()))
	return 1
}

// redo([node_id]) -> bool
// Redoes the most recently undone change below the node.
func (m *HistoryModule) redo(L *lua.LState) int {
	L.Push(lua.LBool(m.node(L, 1).PerformRedo()))
	return 1
}

// can_undo([node_id]) -> bool
func (m *HistoryModule) canUndo(L *lua.LState) int {
	L.Push(lua.LBool(m.node(L, 1).CanUndo()))
	return 1
}

// can_redo([node_id]) -> bool
func (m *HistoryModule) canRedo(L *lua.LState) int {
	L.Push(lua.LBool(m.node(L, 1).CanRedo()))
	return 1
}

// latest([node_id]) -> string or nil
// Returns the description of the change the next undo would revert.
func (m *HistoryModule) latest(L *lua.LState) int {
	info, ok := m.node(L, 1).LatestOperation()
	pushInfo(L, info, ok)
	return 1
}

// next_redo([node_id]) -> string or nil
// Returns the description of the change the next redo would apply.
func (m *HistoryModule) nextRedo(L *lua.LState) int {
	info, ok := m.node(L, 1).NextRedoOperation()
	pushInfo(L, info, ok)
	return 1
}

func pushInfo(L *lua.LState, info history.OperationInfo, ok bool) {
	if !ok {
		L.Push(lua.LNil)
		return
	}
	L.Push(lua.LString(info.Description))
}

// process_pending([node_id]) -> number
// Flushes pending queues and returns how many candidates were flushed.
func (m *HistoryModule) processPending(L *lua.LState) int {
	L.Push(lua.LNumber(m.node(L, 1).ProcessPendingQueue()))
	return 1
}

// pending([node_id]) -> number
func (m *HistoryModule) pending(L *lua.LState) int {
	L.Push(lua.LNumber(m.node(L, 1).PendingCount()))
	return 1
}

// focus([child_id [, group_id]]) -> bool
// Sets the focused child of a group; no child id clears focus.
func (m *HistoryModule) focus(L *lua.LState) int {
	child := L.OptString(1, "")
	c := m.coordinator(L, 2)
	if err := c.SetFocus(child); err != nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LTrue)
	return 1
}

// clear([node_id])
func (m *HistoryModule) clear(L *lua.LState) int {
	m.node(L, 1).Clear()
	return 0
}

// undo_log([group_id]) -> table
// Returns the undo log as "group@stack" strings, oldest first.
func (m *HistoryModule) undoLog(L *lua.LState) int {
	L.Push(entryTable(L, m.coordinator(L, 1).UndoLog()))
	return 1
}

// redo_log([group_id]) -> table
func (m *HistoryModule) redoLog(L *lua.LState) int {
	L.Push(entryTable(L, m.coordinator(L, 1).RedoLog()))
	return 1
}

func entryTable(L *lua.LState, entries []history.Entry) *lua.LTable {
	tbl := L.CreateTable(len(entries), 0)
	for _, e := range entries {
		tbl.Append(lua.LString(e.String()))
	}
	return tbl
}

// tree([node_id]) -> string
// Returns an indented outline of the subtree.
func (m *HistoryModule) tree(L *lua.LState) int {
	L.Push(lua.LString(m.node(L, 1).TreeInfo().String()))
	return 1
}

// record(stack_id, label, redo_fn, undo_fn [, group]) -> bool
// Applies redo_fn once and records the change on the stack. Returns false
// when the record was dropped because an undo or redo is in progress.
func (m *HistoryModule) record(L *lua.LState) int {
	s := m.stack(L, 1)
	rec := newLuaRecord(L)
	group := history.GroupID(L.OptString(5, ""))

	if err := rec.Redo(); err != nil {
		L.RaiseError("record: %v", err)
		return 0
	}

	before := s.Suppressed()
	s.Record(rec, group)
	L.Push(lua.LBool(s.Suppressed() == before))
	return 1
}

// enqueue(stack_id, label, redo_fn, undo_fn [, group]) -> bool
// Applies redo_fn once and buffers the change in the stack's pending
// queue. A group argument opens that group on the queue first.
func (m *HistoryModule) enqueue(L *lua.LState) int {
	s := m.stack(L, 1)
	rec := newLuaRecord(L)

	if err := rec.Redo(); err != nil {
		L.RaiseError("enqueue: %v", err)
		return 0
	}

	q := s.Queue()
	if L.GetTop() >= 5 {
		q.SetGroup(history.GroupID(L.CheckString(5)))
	}
	before := s.Suppressed()
	q.Enqueue(rec)
	L.Push(lua.LBool(s.Suppressed() == before))
	return 1
}

// set_group(stack_id [, group])
// Opens a group on the stack's pending queue; no group closes it.
func (m *HistoryModule) setGroup(L *lua.LState) int {
	s := m.stack(L, 1)
	s.Queue().SetGroup(history.GroupID(L.OptString(2, "")))
	return 0
}

// luaRecord is a reversible change whose halves are Lua functions.
// A function that returns false refuses the operation.
type luaRecord struct {
	L     *lua.LState
	label string
	redo  *lua.LFunction
	undo  *lua.LFunction
}

// newLuaRecord reads label, redo_fn and undo_fn from arguments 2 to 4.
func newLuaRecord(L *lua.LState) *luaRecord {
	return &luaRecord{
		L:     L,
		label: L.CheckString(2),
		redo:  L.CheckFunction(3),
		undo:  L.CheckFunction(4),
	}
}

func (r *luaRecord) Undo() error {
	return r.call(r.undo, "undo")
}

func (r *luaRecord) Redo() error {
	return r.call(r.redo, "redo")
}

func (r *luaRecord) Description() string {
	return r.label
}

func (r *luaRecord) call(fn *lua.LFunction, op string) error {
	if err := r.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		return fmt.Errorf("%s %q: %w", op, r.label, err)
	}
	ret := r.L.Get(-1)
	r.L.Pop(1)
	if ret == lua.LFalse {
		return fmt.Errorf("%s %q: refused", op, r.label)
	}
	return nil
}
