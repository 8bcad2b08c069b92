package nodes

import (
	"fmt"
	"math"
	"time"

	"github.com/loomrun/loom/pkg/registry"
)

// Retry wraps another registered node type, re-invoking it on failure with
// exponential, linear, or constant backoff. Grounded on the teacher's
// RetryExecutor for the backoff-strategy arithmetic and default values;
// adapted from the teacher's stub (which inspected a static input for an
// "error" field and never actually re-ran anything) into a real wrapper
// that looks the wrapped node up in the registry and calls it again.
type Retry struct {
	reg *registry.Registry
}

// NewRetry returns a Retry node that resolves wrapped node types through
// reg.
func NewRetry(reg *registry.Registry) *Retry {
	return &Retry{reg: reg}
}

// Metadata implements registry.Node.
func (Retry) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "retry",
		Name:    "Retry",
		Version: "1.0.0",
		Inputs:  []string{"node", "nodeConfig", "maxAttempts", "backoffStrategy"},
		Outputs: []string{},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (n *Retry) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	nodeType, err := configString(config, "node")
	if err != nil {
		return nil, err
	}
	nodeConfig, _ := config["nodeConfig"].(map[string]interface{})

	wrapped, err := n.reg.Get(nodeType)
	if err != nil {
		return nil, fmt.Errorf("retry: resolving wrapped node %s: %w", nodeType, err)
	}

	maxAttempts := configInt(config, "maxAttempts", 3)
	strategy := optionalConfigString(config, "backoffStrategy", "exponential")
	initialDelay := configDuration(config, "initialDelay", 1*time.Second)
	maxDelay := configDuration(config, "maxDelay", 30*time.Second)
	multiplier := 2.0
	if v, ok := config["multiplier"]; ok {
		if f, ok := toFloat64(v); ok {
			multiplier = f
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		edges, execErr := wrapped.Execute(ctx, nodeConfig)
		if execErr == nil {
			return edges, nil
		}
		lastErr = execErr

		if attempt == maxAttempts {
			break
		}

		delay := backoffDelay(strategy, initialDelay, multiplier, attempt)
		if delay > maxDelay {
			delay = maxDelay
		}
		select {
		case <-ctx.Context().Done():
			return nil, ctx.Context().Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("retry: %s failed after %d attempts: %w", nodeType, maxAttempts, lastErr)
}

func backoffDelay(strategy string, initial time.Duration, multiplier float64, attempt int) time.Duration {
	switch strategy {
	case "linear":
		return initial * time.Duration(attempt)
	case "constant":
		return initial
	default: // exponential
		return time.Duration(float64(initial) * math.Pow(multiplier, float64(attempt-1)))
	}
}

func configDuration(config map[string]interface{}, field string, def time.Duration) time.Duration {
	s := optionalConfigString(config, field, "")
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
