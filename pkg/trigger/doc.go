// Package trigger normalizes the three invocation sources named in the
// engine's external contract (manual, webhook, cron) into a single
// entrypoint: parse the named workflow, hand the payload to pkg/engine, and
// return the resulting execution record. It owns none of the scheduling or
// routing logic that decides *when* to call Invoke — pkg/scheduler and
// pkg/webhook both call through here — only the normalization itself.
package trigger
