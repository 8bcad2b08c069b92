package parser

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/loomrun/loom/pkg/config"
	"github.com/loomrun/loom/pkg/plan"
	"github.com/loomrun/loom/pkg/registry"
	"github.com/loomrun/loom/pkg/types"
)

type stubNode struct {
	id      string
	outputs []string
}

func (n stubNode) Metadata() registry.Metadata {
	return registry.Metadata{ID: n.id, Version: "1.0.0", Outputs: n.outputs}
}

func (n stubNode) Execute(ctx registry.ExecutionContext, cfg map[string]interface{}) (registry.EdgeMap, error) {
	return registry.EdgeMap{"success": nil}, nil
}

func testRegistry(t *testing.T, ids ...string) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, id := range ids {
		reg.MustRegister(stubNode{id: id})
	}
	return reg
}

func mustDef(t *testing.T, js string) *types.WorkflowDefinition {
	t.Helper()
	var def types.WorkflowDefinition
	if err := json.Unmarshal([]byte(js), &def); err != nil {
		t.Fatalf("decoding definition: %v", err)
	}
	return &def
}

func TestParseSimpleSequence(t *testing.T) {
	reg := testRegistry(t, "log", "math")
	def := mustDef(t, `{
		"id": "wf1", "name": "Test", "version": "1.0.0",
		"workflow": ["log", "math"]
	}`)

	p, warnings, err := Parse(def, reg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(p.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(p.Nodes))
	}
	first := p.At(p.Entry)
	if first.NodeType != "log" {
		t.Errorf("entry node = %q, want log", first.NodeType)
	}
	if first.Next == plan.NoNext {
		t.Error("expected the first node to flow into the second")
	}
	second := p.At(first.Next)
	if second.NodeType != "math" {
		t.Errorf("second node = %q, want math", second.NodeType)
	}
	if second.Next != plan.NoNext {
		t.Error("expected the last node's Next to be NoNext")
	}
}

func TestParseRejectsMissingID(t *testing.T) {
	reg := testRegistry(t, "log")
	def := mustDef(t, `{"name": "Test", "version": "1.0.0", "workflow": ["log"]}`)

	_, _, err := Parse(def, reg, nil)
	var defErr *DefinitionError
	if !errors.As(err, &defErr) || !errors.Is(err, ErrMissingID) {
		t.Fatalf("err = %v, want DefinitionError wrapping ErrMissingID", err)
	}
}

func TestParseRejectsInvalidVersion(t *testing.T) {
	reg := testRegistry(t, "log")
	def := mustDef(t, `{"id": "wf1", "name": "Test", "version": "v1", "workflow": ["log"]}`)

	_, _, err := Parse(def, reg, nil)
	if !errors.Is(err, ErrInvalidVersion) {
		t.Fatalf("err = %v, want ErrInvalidVersion", err)
	}
}

func TestParseRejectsEmptyWorkflow(t *testing.T) {
	reg := testRegistry(t, "log")
	def := mustDef(t, `{"id": "wf1", "name": "Test", "version": "1.0.0", "workflow": []}`)

	_, _, err := Parse(def, reg, nil)
	if !errors.Is(err, ErrEmptyWorkflow) {
		t.Fatalf("err = %v, want ErrEmptyWorkflow", err)
	}
}

func TestParseUnknownNodeTypeReportsSuggestions(t *testing.T) {
	reg := testRegistry(t, "math")
	def := mustDef(t, `{"id": "wf1", "name": "Test", "version": "1.0.0", "workflow": ["maht"]}`)

	_, _, err := Parse(def, reg, nil)
	var defErr *DefinitionError
	if !errors.As(err, &defErr) {
		t.Fatalf("err = %v, want *DefinitionError", err)
	}
	if !errors.Is(err, ErrUnknownNodeType) {
		t.Fatalf("err = %v, want ErrUnknownNodeType", err)
	}
	if len(defErr.Suggestions) == 0 || defErr.Suggestions[0] != "math" {
		t.Errorf("suggestions = %v, want [math]", defErr.Suggestions)
	}
}

func TestParseRejectsInvalidStatePath(t *testing.T) {
	reg := testRegistry(t, "log")
	def := mustDef(t, `{"id": "wf1", "name": "Test", "version": "1.0.0", "workflow": [{"$.$bad": 1}]}`)

	_, _, err := Parse(def, reg, nil)
	if !errors.Is(err, ErrInvalidStatePath) {
		t.Fatalf("err = %v, want ErrInvalidStatePath", err)
	}
}

func TestParseResolvesEdgeByName(t *testing.T) {
	reg := testRegistry(t, "switch", "log")
	def := mustDef(t, `{
		"id": "wf1", "name": "Test", "version": "1.0.0",
		"workflow": [
			{"switch": {"success?": "log"}},
			"log"
		]
	}`)

	p, _, err := Parse(def, reg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry := p.At(p.Entry)
	target, ok := entry.Edges["success"]
	if !ok {
		t.Fatal("expected a success edge on the switch node")
	}
	if p.At(target).NodeType != "log" {
		t.Errorf("edge target node type = %q, want log", p.At(target).NodeType)
	}
}

func TestParseUnresolvedEdgeTarget(t *testing.T) {
	reg := testRegistry(t, "switch")
	def := mustDef(t, `{
		"id": "wf1", "name": "Test", "version": "1.0.0",
		"workflow": [{"switch": {"success?": "nonexistent"}}]
	}`)

	_, _, err := Parse(def, reg, nil)
	if !errors.Is(err, ErrUnresolvedEdgeTarget) {
		t.Fatalf("err = %v, want ErrUnresolvedEdgeTarget", err)
	}
}

func TestParseEdgeTargetArrayBuildsAnonymousBranch(t *testing.T) {
	reg := testRegistry(t, "switch", "log", "math")
	def := mustDef(t, `{
		"id": "wf1", "name": "Test", "version": "1.0.0",
		"workflow": [
			{"switch": {"success?": ["log", "math"]}}
		]
	}`)

	p, _, err := Parse(def, reg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry := p.At(p.Entry)
	target, ok := entry.Edges["success"]
	if !ok {
		t.Fatal("expected a success edge")
	}
	branchFirst := p.At(target)
	if branchFirst.NodeType != "log" {
		t.Errorf("branch first node = %q, want log", branchFirst.NodeType)
	}
	branchSecond := p.At(branchFirst.Next)
	if branchSecond.NodeType != "math" {
		t.Errorf("branch second node = %q, want math", branchSecond.NodeType)
	}
}

func TestParseInlineBlockContainer(t *testing.T) {
	reg := testRegistry(t, "switch", "log")
	def := mustDef(t, `{
		"id": "wf1", "name": "Test", "version": "1.0.0",
		"workflow": [
			{"switch": {"success?": {"log": {}}}}
		]
	}`)

	p, _, err := Parse(def, reg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry := p.At(p.Entry)
	target, ok := entry.Edges["success"]
	if !ok {
		t.Fatal("expected a success edge")
	}
	container := p.At(target)
	if container.Kind != plan.KindContainer {
		t.Errorf("edge target kind = %v, want KindContainer", container.Kind)
	}
	if len(container.Sequence) != 1 {
		t.Fatalf("expected one child in the container sequence, got %d", len(container.Sequence))
	}
	if p.At(container.Sequence[0]).NodeType != "log" {
		t.Error("expected the container's child to be the log node")
	}
}

func TestParseLoopSuffixMarksIsLoop(t *testing.T) {
	reg := testRegistry(t, "log")
	def := mustDef(t, `{
		"id": "wf1", "name": "Test", "version": "1.0.0",
		"workflow": [{"log...": {}}]
	}`)

	p, _, err := Parse(def, reg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.At(p.Entry).IsLoop {
		t.Error("expected the log... step to be marked as a loop")
	}
}

func TestParseEnforcesMaxNodes(t *testing.T) {
	reg := testRegistry(t, "log")
	def := mustDef(t, `{
		"id": "wf1", "name": "Test", "version": "1.0.0",
		"workflow": ["log", "log", "log"]
	}`)
	cfg := config.Default()
	cfg.MaxNodes = 2

	_, _, err := Parse(def, reg, cfg)
	if !errors.Is(err, ErrTooManyNodes) {
		t.Fatalf("err = %v, want ErrTooManyNodes", err)
	}
}

func TestParseWarnsOnUndeclaredErrorEdge(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(stubNode{id: "risky", outputs: []string{"success", "error"}})
	def := mustDef(t, `{
		"id": "wf1", "name": "Test", "version": "1.0.0",
		"workflow": ["risky"]
	}`)

	_, warnings, err := Parse(def, reg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
}

func TestSuggestionsOrdersByEditDistance(t *testing.T) {
	got := Suggestions("mth", []string{"math", "log", "maths", "switch"})
	want := []string{"math", "maths", "log"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSuggestionsEmptyWhenNoCandidateIsClose(t *testing.T) {
	got := Suggestions("zzzzzzzzzz", []string{"math", "log"})
	if len(got) != 0 {
		t.Errorf("got %v, want no suggestions", got)
	}
}
