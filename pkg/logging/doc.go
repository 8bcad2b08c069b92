// Package logging provides structured logging capabilities for the workflow engine.
//
// # Overview
//
// Logger is a thin wrapper over log/slog. It writes JSON by default, or
// slog's key=value text format when Config.Pretty is set, to any io.Writer.
//
// # Log Levels
//
// Config.Level is one of "debug", "info", "warn" (or "warning") and
// "error"; any other value, including "", means "info". Messages below the
// level are dropped.
//
// # Basic Usage
//
//	import "github.com/loomrun/loom/pkg/logging"
//
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Output: os.Stdout,
//	})
//
//	logger.Info("workflow started")
//	logger.Infof("ran %d steps", count)
//
// Config fields:
//
//	Level         string    // minimum level (default "info")
//	Output        io.Writer // destination (nil means os.Stdout)
//	Pretty        bool      // text output instead of JSON
//	IncludeCaller bool      // add the source location (slog AddSource)
//
// DefaultConfig returns Level "info", Output os.Stdout, JSON output and no
// caller information.
//
// # Structured Fields
//
// Each message method takes only the message string. Fields are attached
// by deriving a new Logger, which leaves the original unchanged:
//
//	logger.
//	    WithWorkflowID("wf-123").
//	    WithExecutionID("exec-456").
//	    WithNodeID("node-789").
//	    WithNodeType("fetchApi").
//	    WithField("duration_ms", 145).
//	    Info("step completed")
//
// WithFields adds several fields from a map and WithError adds an "error"
// field. The field keys written by the helpers are workflow_id,
// execution_id, node_id and node_type.
//
// # Output Format
//
// JSON output uses slog's standard keys:
//
//	{"time":"2024-01-15T10:30:00Z","level":"INFO","msg":"step completed","workflow_id":"wf-123","execution_id":"exec-456"}
//
// Text output (Pretty):
//
//	time=2024-01-15T10:30:00Z level=INFO msg="step completed" workflow_id=wf-123 execution_id=exec-456
//
// # Context Integration
//
// WithContext stores the Logger in a context.Context and FromContext
// retrieves it; FromContext returns a new Logger built from DefaultConfig
// when the context holds none. Fields are not read from the context.
//
// Fatal and Fatalf log at error level and then call os.Exit(1).
// GetSlogLogger returns the underlying *slog.Logger.
//
// # Thread Safety
//
// A Logger holds no mutable state of its own; concurrent use is as safe as
// the slog handler and the configured io.Writer.
//
// # Testing
//
// For testing, write to a buffer and inspect the JSON:
//
//	buf := &bytes.Buffer{}
//	logger := logging.New(logging.Config{Level: "debug", Output: buf})
//	logger.Info("expected message")
//	// buf.String() contains "expected message"
package logging
