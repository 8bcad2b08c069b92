// Package nodes is the baseline node library the engine ships with: one
// registry.Node implementation per workflow primitive named in the node
// library's representative set (arithmetic, logic, text transforms,
// data-shape utilities, loop/switch control-flow adapters, HTTP egress, a
// credential-broker front, and the retry/timeout/cache wrapper nodes).
//
// Every node here is stateless across executions except where a node's own
// contract requires shared state across calls (Cache's TTL store, the
// credential broker). Config is read directly out of the
// map[string]interface{} the engine passes to Execute, following the
// teacher's own type-coercion-at-the-edge idiom rather than a typed config
// struct per node.
package nodes
