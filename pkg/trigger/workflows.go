package trigger

import (
	"context"
	"fmt"
	"sync"

	"github.com/loomrun/loom/pkg/types"
)

// MemoryWorkflows is a WorkflowProvider backed by an in-memory map, for
// single-process deployments and tests. A host backed by a database
// implements WorkflowProvider directly against its own storage.
type MemoryWorkflows struct {
	mu        sync.RWMutex
	workflows map[string]*types.WorkflowDefinition
}

// NewMemoryWorkflows returns an empty provider.
func NewMemoryWorkflows() *MemoryWorkflows {
	return &MemoryWorkflows{workflows: make(map[string]*types.WorkflowDefinition)}
}

// Put registers or replaces def under its own ID.
func (w *MemoryWorkflows) Put(def *types.WorkflowDefinition) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.workflows[def.ID] = def
}

// GetWorkflow implements WorkflowProvider.
func (w *MemoryWorkflows) GetWorkflow(ctx context.Context, workflowID string) (*types.WorkflowDefinition, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	def, ok := w.workflows[workflowID]
	if !ok {
		return nil, fmt.Errorf("workflow not found: %s", workflowID)
	}
	return def, nil
}
