package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/loomrun/loom/pkg/store"
	"github.com/loomrun/loom/pkg/trigger"
	"github.com/loomrun/loom/pkg/types"
)

// decodeJSONBody reads r.Body and, if non-empty, decodes it as JSON into v.
// A malformed or non-JSON body is not fatal to the webhook; v is simply
// left nil and the raw invocation proceeds.
func decodeJSONBody(r *http.Request, v *interface{}) error {
	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Invoker is the collaborator a matched request dispatches through.
// trigger.Trigger satisfies this directly; tests can substitute a stub.
type Invoker interface {
	Invoke(ctx context.Context, workflowID string, kind types.TriggerKind, payload interface{}) (*types.ExecutionRecord, error)
}

type routeKey struct {
	method string
	path   string
}

// Dispatcher maps inbound webhook requests to the automation that owns
// their (method, path), rebuilding the table from st on demand. Matching
// requests are dispatched asynchronously; the HTTP caller gets an immediate
// acknowledgement rather than waiting on the workflow to finish.
type Dispatcher struct {
	mu     sync.RWMutex
	routes map[routeKey]string

	store   store.AutomationStore
	invoker Invoker
	logger  *slog.Logger
}

// New returns a Dispatcher with an empty route table. Call Rebuild before
// serving requests, and again after any automation create/update/delete.
func New(st store.AutomationStore, invoker Invoker, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		routes:  make(map[routeKey]string),
		store:   st,
		invoker: invoker,
		logger:  logger,
	}
}

// Rebuild recomputes the route table from every enabled webhook automation
// in the store. Two automations claiming the same (method, path) is a
// collision; the later one in listing order wins and is logged.
func (d *Dispatcher) Rebuild(ctx context.Context) error {
	automations, err := d.store.ListAutomations(ctx)
	if err != nil {
		return fmt.Errorf("listing automations to rebuild webhook routes: %w", err)
	}

	routes := make(map[routeKey]string)
	for _, a := range automations {
		if !a.Enabled || a.TriggerConfig.Type != types.AutomationTriggerWebhook {
			continue
		}
		key := routeKey{method: strings.ToUpper(a.TriggerConfig.Method), path: a.TriggerConfig.Path}
		if existing, collides := routes[key]; collides {
			d.logger.Warn("webhook route collision, later automation wins", "method", key.method, "path", key.path, "displaced", existing, "automation_id", a.ID)
		}
		routes[key] = a.ID
	}

	d.mu.Lock()
	d.routes = routes
	d.mu.Unlock()
	return nil
}

// Dispatch resolves (method, path) to an automation and, if found, invokes
// its workflow in the background under the webhook trigger kind. It reports
// whether a route matched, not whether the dispatched run succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, method, path string, payload trigger.WebhookPayload) bool {
	d.mu.RLock()
	automationID, ok := d.routes[routeKey{method: strings.ToUpper(method), path: path}]
	d.mu.RUnlock()
	if !ok {
		return false
	}

	go d.run(automationID, payload)
	return true
}

func (d *Dispatcher) run(automationID string, payload trigger.WebhookPayload) {
	ctx := context.Background()
	automation, err := d.store.GetAutomation(ctx, automationID)
	if err != nil {
		d.logger.Error("webhook dispatch: automation vanished before run", "automation_id", automationID, "error", err)
		return
	}
	if !automation.Enabled {
		d.logger.Warn("webhook dispatch: automation disabled since route was matched", "automation_id", automationID)
		return
	}

	if _, err := d.invoker.Invoke(ctx, automation.WorkflowID, types.TriggerWebhook, payload); err != nil {
		d.logger.Error("webhook dispatch failed", "automation_id", automationID, "error", err)
	}
}

// ServeHTTP implements the "/api/webhooks/{path...}" endpoint: it strips
// prefix, builds a trigger.WebhookPayload from the request, and dispatches
// it. Unmatched requests get a 404.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/webhooks")
	if path == "" {
		path = "/"
	}

	var body interface{}
	if r.Body != nil {
		_ = decodeJSONBody(r, &body)
	}

	payload := trigger.WebhookPayload{
		Method:  r.Method,
		Path:    path,
		Headers: map[string][]string(r.Header),
		Query:   map[string][]string(r.URL.Query()),
		Body:    body,
	}

	if !d.Dispatch(r.Context(), r.Method, path, payload) {
		http.Error(w, "no automation registered for this webhook", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
