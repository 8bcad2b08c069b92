package middleware

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/loomrun/loom/pkg/registry"
)

// mockSizeLimitContext is a minimal registry.ExecutionContext for size-limit tests.
type mockSizeLimitContext struct{}

func (m *mockSizeLimitContext) Context() context.Context    { return context.Background() }
func (m *mockSizeLimitContext) NodeID() string               { return "test" }
func (m *mockSizeLimitContext) WorkflowID() string            { return "wf" }
func (m *mockSizeLimitContext) ExecutionID() string           { return "exec" }
func (m *mockSizeLimitContext) Input() interface{}            { return nil }
func (m *mockSizeLimitContext) Get(path string) (interface{}, bool) { return nil, false }
func (m *mockSizeLimitContext) Set(path string, value interface{}) {}
func (m *mockSizeLimitContext) Logger() *slog.Logger          { return slog.Default() }

var sizeLimitNode = NodeRef{ID: "test", Type: "number"}

// TestSizeLimitMiddleware_InputSizeLimit tests config size limiting
func TestSizeLimitMiddleware_InputSizeLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:     100, // 100 bytes
		EnforceInputSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	ctx := &mockSizeLimitContext{}

	largeValue := strings.Repeat("x", 200) // 200 bytes
	cfg := map[string]interface{}{"value": largeValue}

	handler := func(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}) (registry.EdgeMap, error) {
		return registry.EdgeMap{"result": "ok"}, nil
	}

	_, err := m.Process(ctx, sizeLimitNode, cfg, handler)
	if err == nil {
		t.Error("expected error for large input, got nil")
	}

	if !strings.Contains(err.Error(), "input size limit exceeded") {
		t.Errorf("expected size limit error, got: %v", err)
	}
}

// TestSizeLimitMiddleware_ResultSizeLimit tests result size limiting
func TestSizeLimitMiddleware_ResultSizeLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxResultSize:     100, // 100 bytes
		EnforceResultSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	ctx := &mockSizeLimitContext{}

	largeResult := strings.Repeat("x", 200)
	handler := func(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}) (registry.EdgeMap, error) {
		return registry.EdgeMap{"result": largeResult}, nil
	}

	_, err := m.Process(ctx, sizeLimitNode, nil, handler)
	if err == nil {
		t.Error("expected error for large result, got nil")
	}

	if !strings.Contains(err.Error(), "result size limit exceeded") {
		t.Errorf("expected result size limit error, got: %v", err)
	}
}

// TestSizeLimitMiddleware_StringLengthLimit tests string length limiting
func TestSizeLimitMiddleware_StringLengthLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:     1000, // Set high enough to not trigger first
		MaxStringLength:  50,
		EnforceInputSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	ctx := &mockSizeLimitContext{}

	longString := strings.Repeat("x", 100)
	cfg := map[string]interface{}{"value": longString}

	handler := func(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}) (registry.EdgeMap, error) {
		return registry.EdgeMap{"result": "ok"}, nil
	}

	_, err := m.Process(ctx, sizeLimitNode, cfg, handler)
	if err == nil {
		t.Error("expected error for long string, got nil")
	}

	if !strings.Contains(err.Error(), "string length") {
		t.Errorf("expected string length error, got: %v", err)
	}
}

// TestSizeLimitMiddleware_ArrayLengthLimit tests array length limiting
func TestSizeLimitMiddleware_ArrayLengthLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:     10000, // Set high enough to not trigger first
		MaxArrayLength:   10,
		EnforceInputSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	ctx := &mockSizeLimitContext{}

	// Array with 20 elements
	longArray := make([]interface{}, 20)
	for i := 0; i < 20; i++ {
		longArray[i] = i
	}
	cfg := map[string]interface{}{"items": longArray}

	handler := func(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}) (registry.EdgeMap, error) {
		return registry.EdgeMap{"result": "ok"}, nil
	}

	_, err := m.Process(ctx, sizeLimitNode, cfg, handler)
	if err == nil {
		t.Error("expected error for long array, got nil")
	}

	if !strings.Contains(err.Error(), "array length") {
		t.Errorf("expected array length error, got: %v", err)
	}
}

// TestSizeLimitMiddleware_AllowedInputs tests that allowed config fields pass
func TestSizeLimitMiddleware_AllowedInputs(t *testing.T) {
	m := NewSizeLimitMiddleware()
	ctx := &mockSizeLimitContext{}

	cfg := map[string]interface{}{"a": "hello", "b": 42, "c": true}

	executionCount := 0
	handler := func(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}) (registry.EdgeMap, error) {
		executionCount++
		return registry.EdgeMap{"result": "ok"}, nil
	}

	edges, err := m.Process(ctx, sizeLimitNode, cfg, handler)
	if err != nil {
		t.Errorf("expected no error for valid config, got: %v", err)
	}

	if edges["result"] != "ok" {
		t.Errorf("expected 'ok', got %v", edges["result"])
	}

	if executionCount != 1 {
		t.Errorf("expected handler to be called once, got %d", executionCount)
	}
}

// TestSizeLimitMiddleware_DisabledLimits tests with limits disabled
func TestSizeLimitMiddleware_DisabledLimits(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:      10,
		MaxResultSize:     10,
		EnforceInputSize:  false,
		EnforceResultSize: false,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	ctx := &mockSizeLimitContext{}

	largeValue := strings.Repeat("x", 100)
	cfg := map[string]interface{}{"value": largeValue}

	largeResult := strings.Repeat("y", 100)
	handler := func(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}) (registry.EdgeMap, error) {
		return registry.EdgeMap{"result": largeResult}, nil
	}

	edges, err := m.Process(ctx, sizeLimitNode, cfg, handler)
	if err != nil {
		t.Errorf("expected no error with disabled limits, got: %v", err)
	}

	if edges["result"] != largeResult {
		t.Error("result should be returned even if large when limits disabled")
	}
}

// TestSizeLimitMiddleware_Name tests the Name method
func TestSizeLimitMiddleware_Name(t *testing.T) {
	m := NewSizeLimitMiddleware()

	if m.Name() != "SizeLimit" {
		t.Errorf("expected 'SizeLimit', got %s", m.Name())
	}
}

// TestValidateWorkflowSize_NodeCount tests step count validation
func TestValidateWorkflowSize_NodeCount(t *testing.T) {
	config := SizeLimitConfig{
		MaxNodeCount: 5,
	}

	steps := make([]NodeRef, 10)
	for i := 0; i < 10; i++ {
		steps[i] = NodeRef{ID: string(rune('a' + i)), Type: "number"}
	}

	err := ValidateWorkflowSize(len(steps), steps, config)
	if err == nil {
		t.Error("expected error for too many steps, got nil")
	}

	if !strings.Contains(err.Error(), "steps") {
		t.Errorf("expected step count error, got: %v", err)
	}
}

// TestValidateWorkflowSize_ValidWorkflow tests valid workflow passes
func TestValidateWorkflowSize_ValidWorkflow(t *testing.T) {
	config := DefaultSizeLimitConfig()

	steps := []NodeRef{
		{ID: "1", Type: "number"},
		{ID: "2", Type: "number"},
		{ID: "3", Type: "number"},
	}

	err := ValidateWorkflowSize(len(steps), steps, config)
	if err != nil {
		t.Errorf("expected no error for valid workflow, got: %v", err)
	}
}

// TestSizeLimitMiddleware_NestedStructures tests nested data validation
func TestSizeLimitMiddleware_NestedStructures(t *testing.T) {
	config := SizeLimitConfig{
		MaxStringLength:  20,
		EnforceInputSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	ctx := &mockSizeLimitContext{}

	// Nested structure with long string
	nestedData := map[string]interface{}{
		"outer": map[string]interface{}{
			"inner": strings.Repeat("x", 50), // Exceeds limit
		},
	}
	cfg := map[string]interface{}{"data": nestedData}

	handler := func(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}) (registry.EdgeMap, error) {
		return registry.EdgeMap{"result": "ok"}, nil
	}

	_, err := m.Process(ctx, sizeLimitNode, cfg, handler)
	if err == nil {
		t.Error("expected error for nested string exceeding limit, got nil")
	}
}
