package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/loomrun/loom/pkg/config"
	"github.com/loomrun/loom/pkg/nodes"
	"github.com/loomrun/loom/pkg/parser"
	"github.com/loomrun/loom/pkg/plan"
	"github.com/loomrun/loom/pkg/registry"
	"github.com/loomrun/loom/pkg/store"
	"github.com/loomrun/loom/pkg/types"
)

// fakeNode is a registry.Node whose behavior is scripted per test: it
// returns a fixed EdgeMap/error, optionally recording every ExecutionContext
// it is called with.
type fakeNode struct {
	id    string
	calls int
	fn    func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error)
}

func (n *fakeNode) Metadata() registry.Metadata {
	return registry.Metadata{ID: n.id, Name: n.id, Version: "1.0.0"}
}

func (n *fakeNode) Execute(ctx registry.ExecutionContext, cfg map[string]interface{}) (registry.EdgeMap, error) {
	n.calls++
	return n.fn(ctx, cfg, n.calls)
}

func newRegistry(nodes ...*fakeNode) *registry.Registry {
	reg := registry.New()
	for _, n := range nodes {
		reg.MustRegister(n)
	}
	return reg
}

func testConfig() *config.Config {
	cfg := config.Testing()
	cfg.DefaultLoopMaxIterations = 10
	return cfg
}

func TestEngine_Execute_SequentialFallThrough(t *testing.T) {
	a := &fakeNode{id: "a", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		ctx.Set("a.ran", true)
		return nil, nil
	}}
	b := &fakeNode{id: "b", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		ctx.Set("b.ran", true)
		return nil, nil
	}}

	p := &plan.Plan{
		WorkflowID: "wf-seq",
		Entry:      0,
		Nodes: []plan.Node{
			{Kind: plan.KindInvoke, StepName: "a", NodeType: "a", Next: 1},
			{Kind: plan.KindInvoke, StepName: "b", NodeType: "b", Next: plan.NoNext},
		},
	}

	eng := New(newRegistry(a, b), testConfig())
	record, err := eng.Execute(context.Background(), p, types.TriggerManual, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if record.Status != types.StatusCompleted {
		t.Fatalf("status = %v, want completed", record.Status)
	}
	if record.FinalState["a"].(map[string]interface{})["ran"] != true {
		t.Errorf("expected a.ran true, got %v", record.FinalState["a"])
	}
	if record.FinalState["b"].(map[string]interface{})["ran"] != true {
		t.Errorf("expected b.ran true, got %v", record.FinalState["b"])
	}
}

func TestEngine_Execute_DeclaredEdgeRouting(t *testing.T) {
	// "check" declares both "yes" and "no" edges; only "yes" is produced.
	check := &fakeNode{id: "check", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		return registry.EdgeMap{"yes": "took-yes"}, nil
	}}
	onYes := &fakeNode{id: "onYes", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		ctx.Set("visited", "yes-branch")
		return nil, nil
	}}
	onNo := &fakeNode{id: "onNo", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		ctx.Set("visited", "no-branch")
		return nil, nil
	}}

	p := &plan.Plan{
		WorkflowID: "wf-branch",
		Entry:      0,
		Nodes: []plan.Node{
			{
				Kind: plan.KindInvoke, StepName: "check", NodeType: "check",
				EdgeOrder: []string{"yes", "no"},
				Edges:     map[string]int{"yes": 1, "no": 2},
				Next:      3,
			},
			{Kind: plan.KindInvoke, StepName: "onYes", NodeType: "onYes", Next: plan.NoNext},
			{Kind: plan.KindInvoke, StepName: "onNo", NodeType: "onNo", Next: plan.NoNext},
			{Kind: plan.KindStateSetter, Path: "unreached", Value: true, Next: plan.NoNext},
		},
	}

	eng := New(newRegistry(check, onYes, onNo), testConfig())
	record, err := eng.Execute(context.Background(), p, types.TriggerManual, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if record.FinalState["visited"] != "yes-branch" {
		t.Errorf("visited = %v, want yes-branch", record.FinalState["visited"])
	}
	if _, ok := record.FinalState["unreached"]; ok {
		t.Errorf("fall-through step after a taken edge must not run")
	}
	edgeCtx, ok := record.FinalState["_edgeContext"]
	if !ok || edgeCtx != "took-yes" {
		t.Errorf("_edgeContext = %v, want took-yes", edgeCtx)
	}
}

func TestEngine_Execute_UndeclaredEdgeFallsThrough(t *testing.T) {
	// node returns "maybe", which exists but is not declared on the step.
	node := &fakeNode{id: "n", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		return registry.EdgeMap{"maybe": "x"}, nil
	}}
	p := &plan.Plan{
		WorkflowID: "wf-undeclared",
		Entry:      0,
		Nodes: []plan.Node{
			{Kind: plan.KindInvoke, StepName: "n", NodeType: "n", Next: 1},
			{Kind: plan.KindStateSetter, Path: "reached", Value: true, Next: plan.NoNext},
		},
	}
	eng := New(newRegistry(node), testConfig())
	record, err := eng.Execute(context.Background(), p, types.TriggerManual, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if record.FinalState["reached"] != true {
		t.Errorf("expected fall-through to Next when the produced edge isn't declared")
	}
	if record.FinalState["_edgeContext"] != "x" {
		t.Errorf("_edgeContext = %v, want x (an undeclared edge is still recorded as taken)", record.FinalState["_edgeContext"])
	}
}

func TestEngine_Execute_NodeErrorWithDeclaredErrorEdge(t *testing.T) {
	failing := &fakeNode{id: "failing", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		return nil, errors.New("boom")
	}}
	recover := &fakeNode{id: "recover", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		ctx.Set("recovered", true)
		return nil, nil
	}}
	p := &plan.Plan{
		WorkflowID: "wf-err-edge",
		Entry:      0,
		Nodes: []plan.Node{
			{
				Kind: plan.KindInvoke, StepName: "failing", NodeType: "failing",
				EdgeOrder: []string{"error"},
				Edges:     map[string]int{"error": 1},
				Next:      plan.NoNext,
			},
			{Kind: plan.KindInvoke, StepName: "recover", NodeType: "recover", Next: plan.NoNext},
		},
	}
	eng := New(newRegistry(failing, recover), testConfig())
	record, err := eng.Execute(context.Background(), p, types.TriggerManual, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil (error routed)", err)
	}
	if record.Status != types.StatusCompleted {
		t.Fatalf("status = %v, want completed", record.Status)
	}
	if record.FinalState["recovered"] != true {
		t.Errorf("expected error edge to route to recover node")
	}
}

func TestEngine_Execute_NodeErrorWithoutEdgeFailsExecution(t *testing.T) {
	failing := &fakeNode{id: "failing", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		return nil, errors.New("boom")
	}}
	p := &plan.Plan{
		WorkflowID: "wf-err-fatal",
		Entry:      0,
		Nodes: []plan.Node{
			{Kind: plan.KindInvoke, StepName: "failing", NodeType: "failing", Next: plan.NoNext},
		},
	}
	eng := New(newRegistry(failing), testConfig())
	record, err := eng.Execute(context.Background(), p, types.TriggerManual, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	var nodeErr *NodeError
	if !errors.As(err, &nodeErr) {
		t.Fatalf("expected *NodeError, got %T: %v", err, err)
	}
	if record.Status != types.StatusFailed {
		t.Errorf("status = %v, want failed", record.Status)
	}
}

func TestEngine_Execute_UnknownNodeTypeIsEngineFault(t *testing.T) {
	p := &plan.Plan{
		WorkflowID: "wf-unknown",
		Entry:      0,
		Nodes: []plan.Node{
			{Kind: plan.KindInvoke, StepName: "ghost", NodeType: "ghost", Next: plan.NoNext},
		},
	}
	eng := New(newRegistry(), testConfig())
	_, err := eng.Execute(context.Background(), p, types.TriggerManual, nil)
	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected *EngineError, got %T: %v", err, err)
	}
}

func TestEngine_Execute_LoopRunsBodyThenTerminates(t *testing.T) {
	// Loop node takes "body" on its first three invocations (by the fake's
	// call counter), then falls through.
	loopNode := &fakeNode{id: "loop", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		if call <= 3 {
			return registry.EdgeMap{"body": call}, nil
		}
		return nil, nil
	}}
	bodyNode := &fakeNode{id: "bodyStep", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		cur, _ := ctx.Get("iterations")
		n := 0
		if v, ok := cur.(float64); ok {
			n = int(v)
		}
		ctx.Set("iterations", float64(n+1))
		return nil, nil
	}}

	p := &plan.Plan{
		WorkflowID: "wf-loop",
		Entry:      0,
		Nodes: []plan.Node{
			{
				Kind: plan.KindInvoke, StepName: "loop", NodeType: "loop", IsLoop: true,
				EdgeOrder: []string{"body"},
				Edges:     map[string]int{"body": 1},
				Next:      2,
			},
			{Kind: plan.KindInvoke, StepName: "bodyStep", NodeType: "bodyStep", Next: 2},
			{Kind: plan.KindStateSetter, Path: "done", Value: true, Next: plan.NoNext},
		},
	}

	eng := New(newRegistry(loopNode, bodyNode), testConfig())
	record, err := eng.Execute(context.Background(), p, types.TriggerManual, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if record.FinalState["iterations"] != 3.0 {
		t.Errorf("iterations = %v, want 3", record.FinalState["iterations"])
	}
	if record.FinalState["done"] != true {
		t.Errorf("expected loop fall-through to run after it stops taking body")
	}
}

func TestEngine_Execute_LoopCapExceeded(t *testing.T) {
	alwaysBody := &fakeNode{id: "loop", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		return registry.EdgeMap{"body": nil}, nil
	}}
	bodyNode := &fakeNode{id: "bodyStep", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		return nil, nil
	}}
	p := &plan.Plan{
		WorkflowID: "wf-loop-cap",
		Entry:      0,
		Nodes: []plan.Node{
			{
				Kind: plan.KindInvoke, StepName: "loop", NodeType: "loop", IsLoop: true,
				EdgeOrder: []string{"body"},
				Edges:     map[string]int{"body": 1},
				Next:      plan.NoNext,
			},
			{Kind: plan.KindInvoke, StepName: "bodyStep", NodeType: "bodyStep", Next: plan.NoNext},
		},
	}
	cfg := testConfig()
	cfg.DefaultLoopMaxIterations = 3
	eng := New(newRegistry(alwaysBody, bodyNode), cfg)
	_, err := eng.Execute(context.Background(), p, types.TriggerManual, nil)
	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected *EngineError for loop cap, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrLoopCapExceeded) {
		t.Errorf("expected ErrLoopCapExceeded, got %v", err)
	}
}

func TestEngine_Execute_PersistsToStore(t *testing.T) {
	a := &fakeNode{id: "a", fn: func(ctx registry.ExecutionContext, cfg map[string]interface{}, call int) (registry.EdgeMap, error) {
		return nil, nil
	}}
	p := &plan.Plan{
		WorkflowID: "wf-store",
		Entry:      0,
		Nodes: []plan.Node{
			{Kind: plan.KindInvoke, StepName: "a", NodeType: "a", Next: plan.NoNext},
		},
	}
	mem := store.NewMemory()
	eng := New(newRegistry(a), testConfig(), WithStore(mem))
	record, err := eng.Execute(context.Background(), p, types.TriggerManual, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	stored, err := mem.GetExecution(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("GetExecution: %v", err)
	}
	if len(stored.Logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(stored.Logs))
	}
	if stored.Status != types.StatusCompleted {
		t.Errorf("stored status = %v, want completed", stored.Status)
	}
}

// TestEngine_Execute_ErrorFallThroughScenario exercises the math node's
// unknown-operation case through the real parser and node library (not
// fakeNode stand-ins): a math step with an undeclared error edge must let
// execution fall through to completion, with the edge payload still
// recorded in _edgeContext.
func TestEngine_Execute_ErrorFallThroughScenario(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(nodes.Math{})
	reg.MustRegister(nodes.Transform{})

	var def types.WorkflowDefinition
	defJSON := `{
		"id": "wf-error-fallthrough", "name": "ErrorFallThrough", "version": "1.0.0",
		"workflow": [
			{"math": {"operation": "invalid-op", "values": [1, 2, 3]}},
			{"transform": {"operation": "uppercase", "data": "hi"}}
		]
	}`
	if err := json.Unmarshal([]byte(defJSON), &def); err != nil {
		t.Fatalf("decoding definition: %v", err)
	}

	p, _, err := parser.Parse(&def, reg, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	eng := New(reg, testConfig())
	record, err := eng.Execute(context.Background(), p, types.TriggerManual, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if record.Status != types.StatusCompleted {
		t.Fatalf("status = %v, want completed", record.Status)
	}
	edgeCtx, ok := record.FinalState["_edgeContext"].(map[string]interface{})
	if !ok {
		t.Fatalf("_edgeContext = %v, want a populated map", record.FinalState["_edgeContext"])
	}
	if edgeCtx["error"] == nil {
		t.Errorf("_edgeContext.error not populated by the math node: %v", edgeCtx)
	}
	if record.FinalState["transformResult"] != "HI" {
		t.Errorf("transformResult = %v, want HI", record.FinalState["transformResult"])
	}
}
