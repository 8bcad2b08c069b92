package state

import "testing"

func TestManagerSetCreatesIntermediateMaps(t *testing.T) {
	m := New()
	if err := m.Set("a.b.c", "value"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := m.Get("a.b.c")
	if !ok {
		t.Fatal("expected a.b.c to be set")
	}
	if got != "value" {
		t.Errorf("got %v, want %q", got, "value")
	}
}

func TestManagerGetMissingPathReturnsFalse(t *testing.T) {
	m := New()
	_, ok := m.Get("missing.path")
	if ok {
		t.Error("expected ok=false for a missing path")
	}
}

func TestManagerGetEmptyPathReturnsWholeState(t *testing.T) {
	m := New()
	m.ApplyInitial(map[string]interface{}{"x": 1.0})

	got, ok := m.Get("")
	if !ok {
		t.Fatal("expected ok=true for the whole-state read")
	}
	asMap, isMap := got.(map[string]interface{})
	if !isMap || asMap["x"] != 1.0 {
		t.Errorf("got %v, want a map containing x=1", got)
	}
}

func TestManagerApplyInitialThenSetIsObservable(t *testing.T) {
	m := New()
	m.ApplyInitial(map[string]interface{}{"count": 0.0})

	if err := m.Set("count", 1.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := m.Get("count")
	if got != 1.0 {
		t.Errorf("count = %v, want 1", got)
	}
}

func TestManagerSetDescendsIntoExistingSlice(t *testing.T) {
	m := New()
	m.ApplyInitial(map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"name": "first"},
		},
	})

	if err := m.Set("items.0.name", "renamed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := m.Get("items.0.name")
	if got != "renamed" {
		t.Errorf("got %v, want %q", got, "renamed")
	}
}

func TestManagerSetSliceIndexOutOfRange(t *testing.T) {
	m := New()
	m.ApplyInitial(map[string]interface{}{"items": []interface{}{"a"}})

	if err := m.Set("items.5", "b"); err != ErrIndexOutOfRange {
		t.Errorf("err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestManagerSetNonMappingSegment(t *testing.T) {
	m := New()
	m.ApplyInitial(map[string]interface{}{"leaf": "scalar"})

	if err := m.Set("leaf.child", "x"); err != ErrNotAMapping {
		t.Errorf("err = %v, want ErrNotAMapping", err)
	}
}

func TestManagerSetInvalidPathRejected(t *testing.T) {
	m := New()
	if err := m.Set("$bad path", "x"); err != ErrInvalidPath {
		t.Errorf("err = %v, want ErrInvalidPath", err)
	}
}

func TestManagerSnapshotIsDeepCopy(t *testing.T) {
	m := New()
	m.ApplyInitial(map[string]interface{}{"nested": map[string]interface{}{"v": 1.0}})

	snap := m.Snapshot()
	nested := snap["nested"].(map[string]interface{})
	nested["v"] = 99.0

	got, _ := m.Get("nested.v")
	if got != 1.0 {
		t.Errorf("mutating a snapshot leaked into live state: got %v, want 1", got)
	}
}

func TestManagerGetReturnsDeepCopy(t *testing.T) {
	m := New()
	m.ApplyInitial(map[string]interface{}{"nested": map[string]interface{}{"v": 1.0}})

	got, _ := m.Get("nested")
	gotMap := got.(map[string]interface{})
	gotMap["v"] = 99.0

	again, _ := m.Get("nested.v")
	if again != 1.0 {
		t.Errorf("mutating a Get result leaked into live state: got %v, want 1", again)
	}
}
