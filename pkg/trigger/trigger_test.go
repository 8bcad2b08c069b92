package trigger

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/loomrun/loom/pkg/engine"
	"github.com/loomrun/loom/pkg/nodes"
	"github.com/loomrun/loom/pkg/registry"
	"github.com/loomrun/loom/pkg/types"
)

const sumWorkflowJSON = `{
	"id": "sum",
	"name": "Sum",
	"version": "1.0.0",
	"workflow": [
		{"math": {"operation": "add", "values": [1, 2]}}
	]
}`

func TestTriggerInvokeRunsWorkflow(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(nodes.Math{})

	eng := engine.New(reg, nil)
	workflows := NewMemoryWorkflows()

	var def types.WorkflowDefinition
	if err := json.Unmarshal([]byte(sumWorkflowJSON), &def); err != nil {
		t.Fatalf("unexpected error decoding fixture: %v", err)
	}
	workflows.Put(&def)

	tr := New(eng, reg, nil, workflows)
	record, err := tr.Invoke(context.Background(), "sum", types.TriggerManual, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != types.StatusCompleted {
		t.Errorf("status = %v, want completed", record.Status)
	}
	if record.FinalState["mathResult"] != 3.0 {
		t.Errorf("mathResult = %v, want 3", record.FinalState["mathResult"])
	}
}

func TestTriggerInvokeUnknownWorkflow(t *testing.T) {
	reg := registry.New()
	eng := engine.New(reg, nil)
	tr := New(eng, reg, nil, NewMemoryWorkflows())

	_, err := tr.Invoke(context.Background(), "missing", types.TriggerManual, nil)
	if err == nil {
		t.Fatal("expected error for unknown workflow")
	}
}
