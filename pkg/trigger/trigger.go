package trigger

import (
	"context"
	"fmt"

	"github.com/loomrun/loom/pkg/config"
	"github.com/loomrun/loom/pkg/engine"
	"github.com/loomrun/loom/pkg/parser"
	"github.com/loomrun/loom/pkg/registry"
	"github.com/loomrun/loom/pkg/types"
)

// WorkflowProvider resolves a workflow id to its definition. The trigger
// layer itself has no opinion on where workflow definitions live (a file, a
// database, an in-memory map); it only needs to look one up by id.
type WorkflowProvider interface {
	GetWorkflow(ctx context.Context, workflowID string) (*types.WorkflowDefinition, error)
}

// Trigger is the C5 entrypoint: invoke(workflowId, triggerKind,
// triggerPayload) → executionId, as named in the external contract. Every
// invocation source (manual HTTP call, webhook dispatch, cron fire) routes
// through the same Invoke method.
type Trigger struct {
	eng       *engine.Engine
	reg       *registry.Registry
	cfg       *config.Config
	workflows WorkflowProvider
}

// New returns a Trigger that parses workflows through reg/cfg and executes
// them against eng.
func New(eng *engine.Engine, reg *registry.Registry, cfg *config.Config, workflows WorkflowProvider) *Trigger {
	return &Trigger{eng: eng, reg: reg, cfg: cfg, workflows: workflows}
}

// Invoke resolves workflowID, parses it, and runs it to completion under
// the given trigger kind and payload. For a manual trigger, payload is the
// caller-supplied input; for webhook, the parsed request (method, headers,
// body, query); for cron, nil. The returned ExecutionRecord carries the
// execution id the engine assigned.
func (t *Trigger) Invoke(ctx context.Context, workflowID string, kind types.TriggerKind, payload interface{}) (*types.ExecutionRecord, error) {
	def, err := t.workflows.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, &Error{Reason: fmt.Sprintf("resolving workflow %s", workflowID), Err: err}
	}

	p, _, err := parser.Parse(def, t.reg, t.cfg)
	if err != nil {
		return nil, &Error{Reason: fmt.Sprintf("parsing workflow %s", workflowID), Err: err}
	}

	return t.eng.Execute(ctx, p, kind, payload)
}

// WebhookPayload is the normalized shape of an inbound webhook request
// handed to Invoke as the trigger payload, per the external contract's
// "parsed request (method, headers, body, query)".
type WebhookPayload struct {
	Method  string                 `json:"method"`
	Path    string                 `json:"path"`
	Headers map[string][]string    `json:"headers"`
	Query   map[string][]string    `json:"query"`
	Body    interface{}            `json:"body"`
}
