// Package engine walks a resolved plan.Plan, invoking nodes from a
// registry.Registry, following declared edges, driving loop nodes, and
// recording per-node log entries through a store.Store. It replaces the
// teacher's topological, parallel DAG executor with a single-threaded
// sequential walker, since the plan this module consumes has already been
// linearized (with explicit loop-back points) by pkg/parser.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/loomrun/loom/pkg/config"
	"github.com/loomrun/loom/pkg/logging"
	"github.com/loomrun/loom/pkg/middleware"
	"github.com/loomrun/loom/pkg/observer"
	"github.com/loomrun/loom/pkg/plan"
	"github.com/loomrun/loom/pkg/registry"
	"github.com/loomrun/loom/pkg/state"
	"github.com/loomrun/loom/pkg/store"
	"github.com/loomrun/loom/pkg/types"
)

// Engine drives plans against a node registry. A single Engine is safe for
// concurrent use: Execute builds a fresh state.Manager and execContext per
// call, so concurrent executions never share mutable state.
type Engine struct {
	reg       *registry.Registry
	cfg       *config.Config
	chain     *middleware.Chain
	store     store.Store
	logger    *logging.Logger
	observers []observer.Observer
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithMiddleware appends m to the engine's middleware chain, wrapping
// every node call in registration order.
func WithMiddleware(m middleware.Middleware) Option {
	return func(e *Engine) { e.chain.Use(m) }
}

// WithStore sets the execution store. Without one, the engine still
// executes but never persists execution records or node logs.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithLogger overrides the engine's structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an Engine that dispatches through reg, bound by cfg (nil
// selects config.Default()).
func New(reg *registry.Registry, cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		reg:    reg,
		cfg:    cfg,
		chain:  middleware.NewChain(),
		logger: logging.New(logging.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterObserver adds an observer notified of workflow/node lifecycle
// events for the lifetime of the engine (shared across every Execute
// call).
func (e *Engine) RegisterObserver(o observer.Observer) {
	e.observers = append(e.observers, o)
}

// Execute runs p to completion (or terminal failure/cancellation),
// returning the resulting ExecutionRecord. input is the trigger payload:
// the caller-supplied object for a manual trigger, the parsed request for
// a webhook, or nil for cron.
func (e *Engine) Execute(ctx context.Context, p *plan.Plan, trigger types.TriggerKind, input interface{}) (*types.ExecutionRecord, error) {
	if p == nil {
		return nil, &EngineError{Err: errors.New("plan is nil")}
	}

	if e.cfg.MaxExecutionTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.MaxExecutionTime)
		defer cancel()
	}

	executionID := uuid.New().String()
	startedAt := time.Now()

	record := &types.ExecutionRecord{
		ID:          executionID,
		WorkflowID:  p.WorkflowID,
		TriggerKind: trigger,
		StartedAt:   startedAt,
		Status:      types.StatusRunning,
	}
	if e.store != nil {
		if _, err := e.store.CreateExecution(ctx, record); err != nil {
			return nil, fmt.Errorf("creating execution record: %w", err)
		}
	}

	sm := state.New()
	sm.ApplyInitial(p.InitialState)

	ectx := &execContext{
		ctx:         ctx,
		workflowID:  p.WorkflowID,
		executionID: executionID,
		input:       input,
		state:       sm,
		logger:      e.logger.GetSlogLogger(),
	}

	e.emit(ctx, observer.Event{
		Type:        observer.EventWorkflowStart,
		Status:      observer.StatusStarted,
		Timestamp:   startedAt,
		ExecutionID: executionID,
		WorkflowID:  p.WorkflowID,
	})

	nodesExecuted, walkErr := e.walk(ectx, p)

	endedAt := time.Now()
	status := types.StatusCompleted
	var finalErr error
	switch {
	case errors.Is(walkErr, context.Canceled):
		status = types.StatusCancelled
	case errors.Is(walkErr, context.DeadlineExceeded):
		status = types.StatusCancelled
		finalErr = &EngineError{Err: ErrExecutionTimedOut}
	case walkErr != nil:
		status = types.StatusFailed
		finalErr = walkErr
	}

	finalState := sm.Snapshot()
	record.Status = status
	record.FinalState = finalState
	record.EndedAt = &endedAt

	if e.store != nil {
		if err := e.store.FinalizeExecution(ctx, executionID, status, finalState, endedAt); err != nil {
			e.logger.WithError(err).Warn("failed to finalize execution in store")
		}
	}

	e.emit(ctx, observer.Event{
		Type:        observer.EventWorkflowEnd,
		Status:      workflowEndStatus(finalErr),
		Timestamp:   endedAt,
		ExecutionID: executionID,
		WorkflowID:  p.WorkflowID,
		Error:       finalErr,
		Metadata:    map[string]interface{}{"nodes_executed": nodesExecuted},
	})

	return record, finalErr
}

func workflowEndStatus(err error) observer.ExecutionStatus {
	if err != nil {
		return observer.StatusFailure
	}
	return observer.StatusCompleted
}

// walk drives the plan from its entry node to completion, returning the
// number of node invocations performed and the terminal error, if any.
func (e *Engine) walk(ectx *execContext, p *plan.Plan) (int, error) {
	idx := p.Entry
	nodesExecuted := 0

	for idx != plan.NoNext {
		select {
		case <-ectx.ctx.Done():
			return nodesExecuted, ectx.ctx.Err()
		default:
		}

		node := p.At(idx)
		if node == nil {
			return nodesExecuted, &EngineError{Err: fmt.Errorf("%w: index %d", ErrUnresolvedEdgeTarget, idx)}
		}

		next, counted, err := e.step(ectx, p, idx, node)
		nodesExecuted += counted
		if err != nil {
			return nodesExecuted, err
		}
		idx = next
	}

	return nodesExecuted, nil
}

// step executes exactly one plan node (or, for a container, descends into
// its first child) and returns the arena index to run next, along with
// how many node invocations it performed (0 for state setters and
// containers, 1+ for invoke nodes; a loop counts every iteration).
func (e *Engine) step(ectx *execContext, p *plan.Plan, idx int, node *plan.Node) (int, int, error) {
	switch node.Kind {
	case plan.KindStateSetter:
		if err := ectx.state.Set(node.Path, node.Value); err != nil {
			return 0, 0, &EngineError{NodeID: node.Path, Err: fmt.Errorf("applying state setter: %w", err)}
		}
		return node.Next, 0, nil

	case plan.KindContainer:
		if len(node.Sequence) == 0 {
			return node.Next, 0, nil
		}
		return node.Sequence[0], 0, nil

	case plan.KindInvoke:
		if node.IsLoop {
			next, count, err := e.runLoop(ectx, p, idx, node)
			return next, count, err
		}
		next, err := e.invoke(ectx, p, idx, node)
		return next, 1, err

	default:
		return 0, 0, &EngineError{Err: fmt.Errorf("unknown plan node kind %q", node.Kind)}
	}
}

// invoke calls one non-loop node once, resolves its edges, and returns the
// next arena index to run.
func (e *Engine) invoke(ectx *execContext, p *plan.Plan, idx int, node *plan.Node) (int, error) {
	nodeCtx := ectx.forNode(node.StepName)
	start := time.Now()

	e.emit(ectx.ctx, observer.Event{
		Type:        observer.EventNodeStart,
		Status:      observer.StatusStarted,
		Timestamp:   start,
		ExecutionID: ectx.executionID,
		WorkflowID:  ectx.workflowID,
		NodeID:      node.StepName,
		NodeType:    node.NodeType,
		StartTime:   start,
	})

	var logEntry *types.NodeLogEntry
	if e.store != nil {
		entry := types.NodeLogEntry{
			NodeID:        node.StepName,
			ConfigSummary: summarizeConfig(node.Config),
			StartedAt:     start,
		}
		logEntry = &entry
	}

	edges, nodeErr := e.callNode(nodeCtx, node)

	next, takenEdge, takenPayload, routeErr := e.resolveAfterCall(node, edges, nodeErr)
	if routeErr != nil {
		e.finishLog(ectx, logEntry, "", nil, routeErr, start)
		e.emitNodeEnd(ectx, node, start, nil, routeErr)
		return 0, routeErr
	}

	if takenEdge != "" {
		_ = ectx.state.Set("_edgeContext", takenPayload)
	}

	e.finishLog(ectx, logEntry, takenEdge, takenPayload, nodeErr, start)
	e.emitNodeEnd(ectx, node, start, takenPayload, nodeErr)

	return next, nil
}

// callNode invokes the node through the middleware chain, translating an
// unregistered node type into an EngineError (an engine-level fault, never
// routed through a declared error edge).
func (e *Engine) callNode(ectx *execContext, node *plan.Node) (registry.EdgeMap, error) {
	ref := middleware.NodeRef{ID: node.StepName, Type: node.NodeType}

	handler := func(ctx registry.ExecutionContext, ref middleware.NodeRef, cfg map[string]interface{}) (registry.EdgeMap, error) {
		n, err := e.reg.Get(ref.Type)
		if err != nil {
			return nil, &EngineError{NodeID: ref.ID, Err: fmt.Errorf("%w: %s", ErrUnknownNodeAtRuntime, ref.Type)}
		}
		return n.Execute(ctx, cfg)
	}

	return e.chain.Execute(ectx, ref, node.Config, handler)
}

// resolveAfterCall turns a node's call result into the next arena index.
// It distinguishes three outcomes: a declared edge matched (route there),
// the node failed with no matching edge (terminal NodeError), or an
// EngineError already produced by callNode (passed through unchanged).
func (e *Engine) resolveAfterCall(node *plan.Node, edges registry.EdgeMap, nodeErr error) (next int, takenEdge string, takenPayload interface{}, err error) {
	var engineErr *EngineError
	if errors.As(nodeErr, &engineErr) {
		return 0, "", nil, engineErr
	}

	if nodeErr != nil {
		payload := map[string]interface{}{"error": nodeErr.Error(), "nodeId": node.StepName}
		if target, ok := resolveDeclaredEdge(node, registry.EdgeMap{"error": payload}); ok {
			return target, "error", payload, nil
		}
		return 0, "", nil, &NodeError{NodeID: node.StepName, Err: nodeErr}
	}

	if name, target, ok := resolveDeclaredEdgeNamed(node, edges); ok {
		return target, name, edges[name], nil
	}

	// The node returned an edge the step never declared with "<edge>?".
	// Routing still falls through to node.Next, but the edge is still
	// recorded as taken: _edgeContext must reflect whatever the node
	// reported, even when nothing in the step config names it.
	if name, payload, ok := firstEdge(edges); ok {
		return node.Next, name, payload, nil
	}
	return node.Next, "", nil, nil
}

// firstEdge picks one entry out of edges for recording as the taken edge
// when no declared edge matched. edges is a map with no inherent order, so
// this sorts by name for determinism; callers never depend on which
// undeclared edge "wins" when a node reports more than one.
func firstEdge(edges registry.EdgeMap) (string, interface{}, bool) {
	if len(edges) == 0 {
		return "", nil, false
	}
	names := make([]string, 0, len(edges))
	for name := range edges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0], edges[names[0]], true
}

// resolveDeclaredEdge reports whether any edge in edges is both present and
// declared in node's EdgeOrder, preferring the first declared match.
func resolveDeclaredEdge(node *plan.Node, edges registry.EdgeMap) (int, bool) {
	_, target, ok := resolveDeclaredEdgeNamed(node, edges)
	return target, ok
}

func resolveDeclaredEdgeNamed(node *plan.Node, edges registry.EdgeMap) (string, int, bool) {
	for _, name := range node.EdgeOrder {
		if _, present := edges[name]; !present {
			continue
		}
		if target, ok := node.Edges[name]; ok {
			return name, target, true
		}
	}
	return "", 0, false
}

// runLoop drives a loop ("...") node to completion, re-invoking it after
// every "body" edge routes into and returns from its subtree. It stops
// when the node's own call returns any other declared edge (or falls
// through), or when the body path never loops back (it reaches plan.NoNext
// without passing through the loop's own continuation).
func (e *Engine) runLoop(ectx *execContext, p *plan.Plan, loopIdx int, node *plan.Node) (int, int, error) {
	cap := e.cfg.DefaultLoopMaxIterations
	if v, ok := node.Config["maxIterations"]; ok {
		if f, ok := v.(float64); ok && f > 0 {
			cap = int(f)
		}
	}
	if cap <= 0 {
		cap = 10000
	}

	iterations := 0
	invocations := 0

	for {
		nodeCtx := ectx.forNode(node.StepName)
		start := time.Now()

		e.emit(ectx.ctx, observer.Event{
			Type:        observer.EventNodeStart,
			Status:      observer.StatusStarted,
			Timestamp:   start,
			ExecutionID: ectx.executionID,
			WorkflowID:  ectx.workflowID,
			NodeID:      node.StepName,
			NodeType:    node.NodeType,
			StartTime:   start,
		})

		var logEntry *types.NodeLogEntry
		if e.store != nil {
			entry := types.NodeLogEntry{
				NodeID:        node.StepName,
				ConfigSummary: summarizeConfig(node.Config),
				StartedAt:     start,
			}
			logEntry = &entry
		}

		edges, nodeErr := e.callNode(nodeCtx, node)
		invocations++

		next, takenEdge, payload, err := e.resolveAfterCall(node, edges, nodeErr)
		if err != nil {
			e.finishLog(ectx, logEntry, "", nil, err, start)
			e.emitNodeEnd(ectx, node, start, nil, err)
			return 0, invocations, err
		}
		if takenEdge != "" {
			_ = ectx.state.Set("_edgeContext", payload)
		}
		e.finishLog(ectx, logEntry, takenEdge, payload, nodeErr, start)
		e.emitNodeEnd(ectx, node, start, payload, nodeErr)

		if takenEdge != loopBodyEdge {
			return next, invocations, nil
		}

		iterations++
		if iterations > cap {
			return 0, invocations, &EngineError{NodeID: node.StepName, Err: fmt.Errorf("%w: %q (cap %d)", ErrLoopCapExceeded, node.StepName, cap)}
		}

		reachedStop, err := e.runBody(ectx, p, next, node.Next)
		if err != nil {
			return 0, invocations, err
		}
		if !reachedStop {
			return plan.NoNext, invocations, nil
		}
		// loop: re-invoke the loop node
	}
}

// loopBodyEdge is the conventional edge name a loop node declares to mark
// its body subtree.
const loopBodyEdge = "body"

// runBody walks the body subtree starting at idx, stopping as soon as it
// would reach stopAt (the loop node's own continuation). reachedStop is
// false if the path instead runs all the way to plan.NoNext without ever
// equaling stopAt, meaning a node inside the body routed the execution
// past the loop entirely.
//
// stopAt is itself checked before the plan.NoNext check: when the loop
// node is the last step of its enclosing sequence, its own Next (and so
// stopAt) is plan.NoNext, and reaching it still means "loop again", not
// "execution over".
func (e *Engine) runBody(ectx *execContext, p *plan.Plan, idx int, stopAt int) (bool, error) {
	for {
		if idx == stopAt {
			return true, nil
		}
		if idx == plan.NoNext {
			return false, nil
		}
		node := p.At(idx)
		if node == nil {
			return false, &EngineError{Err: fmt.Errorf("%w: index %d", ErrUnresolvedEdgeTarget, idx)}
		}
		next, _, err := e.step(ectx, p, idx, node)
		if err != nil {
			return false, err
		}
		idx = next
	}
}

func (e *Engine) finishLog(ectx *execContext, entry *types.NodeLogEntry, edgeTaken string, output interface{}, nodeErr error, start time.Time) {
	if entry == nil {
		return
	}
	entry.EndedAt = time.Now()
	entry.EdgeTaken = edgeTaken
	entry.Output = truncatePayload(output, e.cfg.MaxLogPayloadSize)
	if nodeErr != nil {
		entry.Error = nodeErr.Error()
	}
	if e.store != nil {
		if err := e.store.AppendLog(ectx.ctx, ectx.executionID, *entry); err != nil {
			e.logger.WithError(err).Warn("failed to append node log")
		}
	}
}

func (e *Engine) emitNodeEnd(ectx *execContext, node *plan.Node, start time.Time, result interface{}, nodeErr error) {
	eventType := observer.EventNodeSuccess
	status := observer.StatusSuccess
	if nodeErr != nil {
		eventType = observer.EventNodeFailure
		status = observer.StatusFailure
	}
	e.emit(ectx.ctx, observer.Event{
		Type:        eventType,
		Status:      status,
		Timestamp:   time.Now(),
		ExecutionID: ectx.executionID,
		WorkflowID:  ectx.workflowID,
		NodeID:      node.StepName,
		NodeType:    node.NodeType,
		StartTime:   start,
		ElapsedTime: time.Since(start),
		Result:      result,
		Error:       nodeErr,
	})
}

func (e *Engine) emit(ctx context.Context, event observer.Event) {
	for _, o := range e.observers {
		o.OnEvent(ctx, event)
	}
}

// summarizeConfig returns a shallow copy of a node's configuration for
// storage in a NodeLogEntry, so the stored log can't alias (and later
// observe mutation of) the plan's own config map.
func summarizeConfig(cfg map[string]interface{}) map[string]interface{} {
	if cfg == nil {
		return nil
	}
	out := make(map[string]interface{}, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}

// truncatePayload bounds a logged output payload to maxBytes (0 = unlimited),
// the size cap a NodeLogEntry's stored output is truncated to. Only string
// payloads are truncated; any other value is returned unchanged.
func truncatePayload(v interface{}, maxBytes int) interface{} {
	if maxBytes <= 0 {
		return v
	}
	s, ok := v.(string)
	if !ok || len(s) <= maxBytes {
		return v
	}
	return s[:maxBytes] + "...(truncated)"
}
