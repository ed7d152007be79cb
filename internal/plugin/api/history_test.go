package api

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/undotree/internal/history"
)

func setupHistoryTest(t *testing.T) (*lua.LState, *history.Coordinator) {
	t.Helper()

	root := history.NewCoordinator("root")
	scene := history.NewCoordinator("scene")
	root.MustAddChild(scene)
	scene.MustAddChild(history.NewStack("mesh"))
	root.MustAddChild(history.NewStack("camera"))

	mod := NewHistoryModule(&Context{Tree: root})

	L := lua.NewState()
	t.Cleanup(func() { L.Close() })

	if err := mod.Register(L); err != nil {
		t.Fatalf("Register error = %v", err)
	}

	return L, root
}

func TestHistoryModuleName(t *testing.T) {
	mod := NewHistoryModule(&Context{})
	if mod.Name() != "history" {
		t.Errorf("Name() = %q, want %q", mod.Name(), "history")
	}
}

func TestHistoryRecordUndoRedo(t *testing.T) {
	L, root := setupHistoryTest(t)

	err := L.DoString(`
		depth = 0
		zoom = 1
		ok1 = _ks_history.record("mesh", "Extrude",
			function() depth = depth + 1 end,
			function() depth = depth - 1 end)
		ok2 = _ks_history.record("camera", "Zoom",
			function() zoom = zoom * 2 end,
			function() zoom = zoom / 2 end)
		after_record = depth .. "/" .. zoom

		latest = _ks_history.latest()
		_ks_history.undo()
		after_undo1 = depth .. "/" .. zoom
		_ks_history.undo()
		after_undo2 = depth .. "/" .. zoom
		exhausted = _ks_history.undo()
		_ks_history.redo()
		after_redo = depth .. "/" .. zoom
		next_redo = _ks_history.next_redo()
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	tests := []struct {
		global string
		want   string
	}{
		{"ok1", "true"},
		{"ok2", "true"},
		{"after_record", "1/2"},
		{"latest", "Zoom"},
		{"after_undo1", "1/1"},
		{"after_undo2", "0/1"},
		{"exhausted", "false"},
		{"after_redo", "1/1"},
		{"next_redo", "Zoom"},
	}
	for _, tt := range tests {
		if got := L.GetGlobal(tt.global).String(); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.global, got, tt.want)
		}
	}

	if len(root.UndoLog()) != 1 || len(root.RedoLog()) != 1 {
		t.Errorf("logs = %v / %v", root.UndoLog(), root.RedoLog())
	}
}

func TestHistoryRecordCoalescesByGroup(t *testing.T) {
	L, root := setupHistoryTest(t)

	err := L.DoString(`
		x = 0
		for i = 1, 3 do
			_ks_history.record("mesh", "Move", function() x = x + 1 end, function() x = x - 1 end, "drag")
		end
		log = _ks_history.undo_log()
		_ks_history.undo()
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	if got := L.GetGlobal("x").(lua.LNumber); got != 0 {
		t.Errorf("x = %v, want 0", got)
	}
	log := L.GetGlobal("log").(*lua.LTable)
	if log.Len() != 1 || log.RawGetInt(1).String() != "drag@mesh" {
		t.Errorf("undo_log() len = %d, first = %v", log.Len(), log.RawGetInt(1))
	}
	if root.CanUndo() {
		t.Error("CanUndo() = true, group was not one unit")
	}
}

func TestHistoryUndoTargetsNode(t *testing.T) {
	L, _ := setupHistoryTest(t)

	err := L.DoString(`
		a, b = 0, 0
		_ks_history.record("mesh", "A", function() a = a + 1 end, function() a = a - 1 end)
		_ks_history.record("camera", "B", function() b = b + 1 end, function() b = b - 1 end)
		scene_undo = _ks_history.undo("scene")
		scene_can = _ks_history.can_undo("scene")
		root_can = _ks_history.can_undo()
		camera_redo = _ks_history.can_redo("camera")
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	if L.GetGlobal("a").(lua.LNumber) != 0 || L.GetGlobal("b").(lua.LNumber) != 1 {
		t.Errorf("a, b = %v, %v, want 0, 1", L.GetGlobal("a"), L.GetGlobal("b"))
	}
	for global, want := range map[string]lua.LValue{
		"scene_undo":  lua.LTrue,
		"scene_can":   lua.LFalse,
		"root_can":    lua.LTrue,
		"camera_redo": lua.LFalse,
	} {
		if got := L.GetGlobal(global); got != want {
			t.Errorf("%s = %v, want %v", global, got, want)
		}
	}
}

func TestHistoryUnknownNode(t *testing.T) {
	L, _ := setupHistoryTest(t)

	err := L.DoString(`_ks_history.undo("nope")`)
	if err == nil || !strings.Contains(err.Error(), "unknown node") {
		t.Errorf("undo(nope) error = %v", err)
	}

	err = L.DoString(`_ks_history.record("scene", "x", function() end, function() end)`)
	if err == nil || !strings.Contains(err.Error(), "not a stack") {
		t.Errorf("record on group error = %v", err)
	}
}

func TestHistoryRefusedUndo(t *testing.T) {
	L, root := setupHistoryTest(t)

	err := L.DoString(`
		_ks_history.record("mesh", "Locked", function() end, function() return false end)
		result = _ks_history.undo()
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	if L.GetGlobal("result") != lua.LFalse {
		t.Errorf("undo() = %v, want false", L.GetGlobal("result"))
	}
	if !root.CanUndo() {
		t.Error("refused record was lost")
	}
}

func TestHistoryRecordDuringUndoIsDropped(t *testing.T) {
	L, root := setupHistoryTest(t)

	err := L.DoString(`
		nested = nil
		_ks_history.record("mesh", "Outer", function() end, function()
			nested = _ks_history.record("camera", "Inner", function() end, function() end)
		end)
		_ks_history.undo()
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	if L.GetGlobal("nested") != lua.LFalse {
		t.Errorf("nested record = %v, want false", L.GetGlobal("nested"))
	}
	camera, _ := root.FindByID("camera")
	if camera.CanUndo() {
		t.Error("nested record reached the camera stack")
	}
}

func TestHistoryEnqueue(t *testing.T) {
	L, root := setupHistoryTest(t)

	err := L.DoString(`
		x = 0
		for i = 1, 4 do
			_ks_history.enqueue("camera", "Pan", function() x = x + 1 end, function() x = x - 1 end, "pan")
		end
		pending = _ks_history.pending()
		flushed = _ks_history.process_pending()
		_ks_history.set_group("camera")
		_ks_history.undo()
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	if L.GetGlobal("pending").(lua.LNumber) != 4 {
		t.Errorf("pending() = %v, want 4", L.GetGlobal("pending"))
	}
	if L.GetGlobal("flushed").(lua.LNumber) != 4 {
		t.Errorf("process_pending() = %v, want 4", L.GetGlobal("flushed"))
	}
	if L.GetGlobal("x").(lua.LNumber) != 0 {
		t.Errorf("x = %v, want 0 after undoing the batch", L.GetGlobal("x"))
	}
	if root.CanUndo() {
		t.Error("batch was not a single undo unit")
	}
}

func TestHistoryFocus(t *testing.T) {
	L, root := setupHistoryTest(t)
	root.SetPolicy(history.PolicyFocusPriority)

	err := L.DoString(`
		a, b = 0, 0
		_ks_history.record("mesh", "A", function() a = a + 1 end, function() a = a - 1 end)
		_ks_history.record("camera", "B", function() b = b + 1 end, function() b = b - 1 end)
		focused = _ks_history.focus("scene")
		missing = _ks_history.focus("nope")
		_ks_history.undo()
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	if L.GetGlobal("focused") != lua.LTrue || L.GetGlobal("missing") != lua.LFalse {
		t.Errorf("focus results = %v, %v", L.GetGlobal("focused"), L.GetGlobal("missing"))
	}
	if root.Focus() != "scene" {
		t.Errorf("Focus() = %q, want scene", root.Focus())
	}
	if L.GetGlobal("a").(lua.LNumber) != 0 || L.GetGlobal("b").(lua.LNumber) != 1 {
		t.Errorf("a, b = %v, %v, want 0, 1", L.GetGlobal("a"), L.GetGlobal("b"))
	}
}

func TestHistoryClearAndTree(t *testing.T) {
	L, root := setupHistoryTest(t)

	err := L.DoString(`
		_ks_history.record("mesh", "A", function() end, function() end)
		before = _ks_history.tree()
		_ks_history.clear()
		can = _ks_history.can_undo()
		latest = _ks_history.latest()
		redo_log = _ks_history.redo_log()
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	if !strings.Contains(L.GetGlobal("before").String(), "stack mesh undo=1") {
		t.Errorf("tree() = %q", L.GetGlobal("before").String())
	}
	if L.GetGlobal("can") != lua.LFalse || L.GetGlobal("latest") != lua.LNil {
		t.Errorf("after clear: can=%v latest=%v", L.GetGlobal("can"), L.GetGlobal("latest"))
	}
	if L.GetGlobal("redo_log").(*lua.LTable).Len() != 0 {
		t.Error("redo_log() not empty")
	}
	if root.CanUndo() {
		t.Error("clear() did not reach the tree")
	}
}

func TestHistoryRecordRaisesOnFailingApply(t *testing.T) {
	L, root := setupHistoryTest(t)

	err := L.DoString(`_ks_history.record("mesh", "Bad", function() error("boom") end, function() end)`)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %v, want boom", err)
	}
	if root.CanUndo() {
		t.Error("failed change was recorded")
	}
}

func TestHistoryNoTree(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	NewHistoryModule(&Context{}).Register(L)

	if err := L.DoString(`_ks_history.undo()`); err == nil {
		t.Error("undo() without tree succeeded")
	}
}
