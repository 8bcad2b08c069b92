package nodes

import "testing"

func TestSwitchExecuteFirstMatchWins(t *testing.T) {
	config := map[string]interface{}{
		"value": 5.0,
		"cases": []interface{}{
			map[string]interface{}{"when": "item < 3", "edge": "small"},
			map[string]interface{}{"when": "item < 10", "edge": "medium"},
			map[string]interface{}{"when": "item < 100", "edge": "large"},
		},
	}

	edges, err := Switch{}.Execute(newFakeCtx(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := edges["medium"]; !ok {
		t.Errorf("expected first matching case (medium) to win, got %v", edges)
	}
}

func TestSwitchExecuteFallsBackToDefault(t *testing.T) {
	config := map[string]interface{}{
		"value": 500.0,
		"cases": []interface{}{
			map[string]interface{}{"when": "item < 3"},
		},
	}

	edges, err := Switch{}.Execute(newFakeCtx(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := edges["default"]; !ok {
		t.Errorf("expected default edge when no case matches, got %v", edges)
	}
}

func TestSwitchExecuteSkipsMalformedCase(t *testing.T) {
	config := map[string]interface{}{
		"value": 5.0,
		"cases": []interface{}{
			map[string]interface{}{"when": "item.nonexistent.field.access", "edge": "bad"},
			map[string]interface{}{"when": "item == 5", "edge": "good"},
		},
	}

	edges, err := Switch{}.Execute(newFakeCtx(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := edges["good"]; !ok {
		t.Errorf("expected malformed case to be skipped in favor of the next match, got %v", edges)
	}
}
