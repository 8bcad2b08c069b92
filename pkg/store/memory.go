package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/loomrun/loom/pkg/types"
)

// Memory is an in-memory Store, suitable for tests and single-process
// deployments without durable history. Grounded on the teacher's
// RWMutex-guarded map-of-structs registry idiom.
type Memory struct {
	mu          sync.RWMutex
	executions  map[string]*types.ExecutionRecord
	automations map[string]*types.Automation
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		executions:  make(map[string]*types.ExecutionRecord),
		automations: make(map[string]*types.Automation),
	}
}

// CreateAutomation implements AutomationStore.
func (m *Memory) CreateAutomation(ctx context.Context, automation *types.Automation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.automations[automation.ID]; exists {
		return ErrAlreadyExists
	}
	m.automations[automation.ID] = automation.Clone()
	return nil
}

// UpdateAutomation implements AutomationStore.
func (m *Memory) UpdateAutomation(ctx context.Context, automation *types.Automation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.automations[automation.ID]; !exists {
		return ErrNotFound
	}
	m.automations[automation.ID] = automation.Clone()
	return nil
}

// DeleteAutomation implements AutomationStore.
func (m *Memory) DeleteAutomation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.automations[id]; !exists {
		return ErrNotFound
	}
	delete(m.automations, id)
	return nil
}

// GetAutomation implements AutomationStore.
func (m *Memory) GetAutomation(ctx context.Context, id string) (*types.Automation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	automation, ok := m.automations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return automation.Clone(), nil
}

// ListAutomations implements AutomationStore.
func (m *Memory) ListAutomations(ctx context.Context) ([]*types.Automation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.Automation, 0, len(m.automations))
	for _, a := range m.automations {
		out = append(out, a.Clone())
	}
	return out, nil
}

// CreateExecution stores record under record.ID. Re-creating an id already
// present is rejected with ErrAlreadyExists.
func (m *Memory) CreateExecution(ctx context.Context, record *types.ExecutionRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.executions[record.ID]; exists {
		return "", ErrAlreadyExists
	}
	clone := *record
	clone.Logs = append([]types.NodeLogEntry(nil), record.Logs...)
	m.executions[record.ID] = &clone
	return record.ID, nil
}

// AppendLog appends entry to the execution's log sequence.
func (m *Memory) AppendLog(ctx context.Context, executionID string, entry types.NodeLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.executions[executionID]
	if !ok {
		return ErrNotFound
	}
	record.Logs = append(record.Logs, entry)
	return nil
}

// FinalizeExecution sets an execution's terminal status and final state.
func (m *Memory) FinalizeExecution(ctx context.Context, executionID string, status types.ExecutionStatus, finalState map[string]interface{}, endedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.executions[executionID]
	if !ok {
		return ErrNotFound
	}
	record.Status = status
	record.FinalState = finalState
	ended := endedAt
	record.EndedAt = &ended
	return nil
}

// GetExecution returns a copy of the stored record for id.
func (m *Memory) GetExecution(ctx context.Context, id string) (*types.ExecutionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.executions[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *record
	clone.Logs = append([]types.NodeLogEntry(nil), record.Logs...)
	return &clone, nil
}

// ListExecutions returns executions matching filter, newest-started first.
func (m *Memory) ListExecutions(ctx context.Context, filter Filter) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*types.ExecutionRecord, 0, len(m.executions))
	for _, record := range m.executions {
		if filter.WorkflowID != "" && record.WorkflowID != filter.WorkflowID {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		clone := *record
		clone.Logs = append([]types.NodeLogEntry(nil), record.Logs...)
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	total := len(matched)
	if filter.Offset > 0 && filter.Offset < len(matched) {
		matched = matched[filter.Offset:]
	} else if filter.Offset >= len(matched) {
		matched = nil
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return Page{Executions: matched, Total: total}, nil
}
