package nodes

import "testing"

func TestForEachExecuteWalksItemsThenDone(t *testing.T) {
	ctx := newFakeCtx()
	config := map[string]interface{}{
		"items": []interface{}{"a", "b", "c"},
	}

	for i, want := range []string{"a", "b", "c"} {
		edges, err := ForEach{}.Execute(ctx, config)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		body, ok := edges["body"]
		if !ok {
			t.Fatalf("iteration %d: expected body edge, got %v", i, edges)
		}
		if body != want {
			t.Errorf("iteration %d: body = %v, want %v", i, body, want)
		}
		item, _ := ctx.Get("item")
		if item != want {
			t.Errorf("iteration %d: state item = %v, want %v", i, item, want)
		}
	}

	edges, err := ForEach{}.Execute(ctx, config)
	if err != nil {
		t.Fatalf("unexpected error on exhaustion: %v", err)
	}
	if _, ok := edges["done"]; !ok {
		t.Errorf("expected done edge after exhausting items, got %v", edges)
	}

	// A subsequent call on the same ctx restarts from the beginning since
	// the index was reset on exhaustion.
	edges, err = ForEach{}.Execute(ctx, config)
	if err != nil {
		t.Fatalf("unexpected error on restart: %v", err)
	}
	if edges["body"] != "a" {
		t.Errorf("expected loop to restart at first item, got %v", edges)
	}
}

func TestForEachExecuteMissingItems(t *testing.T) {
	_, err := ForEach{}.Execute(newFakeCtx(), map[string]interface{}{})
	if err == nil {
		t.Fatal("expected error for missing items field")
	}
}
