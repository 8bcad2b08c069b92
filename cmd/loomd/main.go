// Command loomd starts the loom workflow orchestration HTTP API server:
// workflow execution and validation, automation CRUD, the cron scheduler,
// and the webhook dispatcher.
//
// Usage:
//
//	loomd [flags]
//
// Flags:
//
//	-addr string
//	    Server address (default ":8080")
//	-read-timeout duration
//	    HTTP read timeout (default 30s)
//	-write-timeout duration
//	    HTTP write timeout (default 30s)
//	-shutdown-timeout duration
//	    Graceful shutdown grace period, also used as the cron scheduler's
//	    in-flight drain budget (default 10s)
//	-max-execution-time duration
//	    Maximum workflow execution time (default 1m)
//	-max-node-executions int
//	    Maximum node executions per workflow
//
// The server exposes the following endpoints:
//
//	POST   /api/v1/workflow/execute                    - Execute a workflow inline
//	POST   /api/v1/workflow/validate                   - Validate a workflow
//	GET    /api/v1/workflows/allnodes                   - List registered node types
//	PUT    /api/v1/workflows/{id}                        - Register a workflow definition
//	GET    /api/v1/workflows/{id}                        - Fetch a workflow definition
//	GET    /api/v1/executions/{id}                       - Fetch an execution record
//	POST   /api/v1/automations                          - Create an automation
//	PUT    /api/v1/automations/{id}                      - Update an automation
//	DELETE /api/v1/automations/{id}                      - Delete an automation
//	PUT    /api/v1/automations/{id}/toggle               - Enable/disable an automation
//	POST   /api/v1/automations/{id}/execute              - Run an automation on demand
//	POST   /api/v1/automations/{id}/reschedule           - Rebind an automation's cron timer
//	GET    /api/v1/automations/{id}/executions           - List an automation's executions
//	POST   /api/v1/automations/cron/validate             - Validate a cron expression
//	GET    /api/v1/automations/scheduler/status          - Live cron job table
//	ANY    /api/webhooks/{path...}                       - Webhook dispatch
//	GET    /health, /health/live, /health/ready          - Health checks
//	GET    /metrics                                      - Prometheus metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loomrun/loom/pkg/config"
	"github.com/loomrun/loom/pkg/nodes"
	"github.com/loomrun/loom/pkg/registry"
	"github.com/loomrun/loom/pkg/server"
	"github.com/loomrun/loom/pkg/store"
)

func main() {
	addr := flag.String("addr", ":8080", "Server address")
	readTimeout := flag.Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := flag.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown grace period")
	maxExecutionTime := flag.Duration("max-execution-time", time.Minute, "Maximum workflow execution time")
	maxNodeExecutions := flag.Int("max-node-executions", 10000, "Maximum node executions per workflow")

	flag.Parse()

	serverConfig := server.Config{
		Address:            *addr,
		ReadTimeout:        *readTimeout,
		WriteTimeout:       *writeTimeout,
		ShutdownTimeout:    *shutdownTimeout,
		MaxRequestBodySize: 10 * 1024 * 1024,
		EnableCORS:         true,
	}

	engineConfig := config.Default()
	engineConfig.MaxExecutionTime = *maxExecutionTime
	engineConfig.MaxNodeExecutions = *maxNodeExecutions

	// No external credential broker is wired at this boundary; Connect
	// nodes are omitted from the registry until a host supplies one.
	reg := registry.New()
	nodes.Register(reg, engineConfig, nil)

	st := store.NewMemory()

	srv, err := server.New(serverConfig, engineConfig, reg, st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		fmt.Printf("Starting loom workflow engine on %s\n", *addr)
		fmt.Printf("Health check:      http://localhost%s/health\n", *addr)
		fmt.Printf("Metrics:           http://localhost%s/metrics\n", *addr)
		fmt.Printf("Workflow execute:  http://localhost%s/api/v1/workflow/execute\n", *addr)
		fmt.Printf("Scheduler status:  http://localhost%s/api/v1/automations/scheduler/status\n", *addr)
		fmt.Println("\nPress Ctrl+C to shutdown")

		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	case sig := <-sigChan:
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Println("shutting down gracefully...")

		ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("server stopped")
	}
}
