// Package observer provides an event-driven observer pattern for workflow execution.
//
// # Overview
//
// The observer package implements the observer pattern to enable monitoring,
// logging, and reacting to workflow execution events. Observers can track
// workflow lifecycle, step execution, and errors without coupling to the
// engine implementation.
//
// # Features
//
//   - Event-driven: a single OnEvent hook covers every lifecycle stage
//   - Multiple observers: the engine calls its registered observers one
//     after another, in registration order
//   - Error events: track failures without stopping execution
//   - Asynchronous fan-out: Manager.Notify calls each observer in its own
//     goroutine, so events delivered through a Manager have no fixed order
//
// # Observer Interface
//
//	type Observer interface {
//	    OnEvent(ctx context.Context, event Event)
//	}
//
// Event carries a Type (workflow_start, workflow_end, node_start, node_end,
// node_success, node_failure), a Status, timing, and, for node-level events,
// the NodeID and NodeType that produced it.
//
// # Basic Usage
//
//	import "github.com/loomrun/loom/pkg/observer"
//
//	eng := engine.New(reg, cfg)
//	eng.RegisterObserver(observer.NewConsoleObserver())
//	record, err := eng.Execute(ctx, plan, types.TriggerManual, input)
//
// # Custom Observer Example
//
//	type MetricsObserver struct {
//	    metrics MetricsCollector
//	}
//
//	func (o *MetricsObserver) OnEvent(ctx context.Context, event observer.Event) {
//	    switch event.Type {
//	    case observer.EventNodeSuccess:
//	        o.metrics.Increment("node.completed", map[string]string{"type": event.NodeType})
//	    case observer.EventNodeFailure:
//	        o.metrics.Increment("node.failed", map[string]string{"type": event.NodeType})
//	    }
//	}
//
// # Built-in Observers
//
// NoOpObserver ignores every event. ConsoleObserver writes each event's
// type, status, ids and elapsed time through a Logger (DefaultLogger unless
// one is given): workflow events at Info (Error when the workflow failed),
// node failures at Warn, other node events at Debug.
//
// # Error Handling
//
// Manager.Notify recovers a panic raised by an observer and discards it
// without logging; the other observers still receive the event. The engine
// calls its registered observers directly and does not recover a panic
// raised by one.
//
// # Thread Safety
//
// Observer methods may be called concurrently from multiple goroutines.
// Implementations must be thread-safe using appropriate synchronization.
package observer
