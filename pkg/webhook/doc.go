// Package webhook maintains the (method, path) -> automationId routing
// table described in the external contract's Webhook Dispatcher component,
// and serves inbound requests at "/api/webhooks/{path...}", dispatching a
// match via the trigger layer and acknowledging before the workflow finishes
// running.
package webhook
