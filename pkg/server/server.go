package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loomrun/loom/pkg/engine"
	engcfg "github.com/loomrun/loom/pkg/config"
	"github.com/loomrun/loom/pkg/health"
	"github.com/loomrun/loom/pkg/logging"
	"github.com/loomrun/loom/pkg/parser"
	"github.com/loomrun/loom/pkg/registry"
	"github.com/loomrun/loom/pkg/scheduler"
	"github.com/loomrun/loom/pkg/store"
	"github.com/loomrun/loom/pkg/telemetry"
	"github.com/loomrun/loom/pkg/trigger"
	"github.com/loomrun/loom/pkg/types"
	"github.com/loomrun/loom/pkg/webhook"
)

// Config holds server configuration
type Config struct {
	// Address to listen on (e.g., ":8080")
	Address string
	
	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration
	
	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration
	
	// ShutdownTimeout for graceful shutdown
	ShutdownTimeout time.Duration
	
	// MaxRequestBodySize limits request body size
	MaxRequestBodySize int64
	
	// EnableCORS enables CORS headers
	EnableCORS bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Address:            ":8080",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024, // 10MB
		EnableCORS:         true,
	}
}

// Server is the HTTP API server. It holds a node registry, an engine
// config, and one engine built in New and shared by every execution, since
// engine.Engine.Execute is already safe for concurrent calls.
type Server struct {
	config            Config
	httpServer        *http.Server
	healthChecker     *health.Checker
	telemetryProvider *telemetry.Provider
	logger            *logging.Logger
	reg               *registry.Registry
	engineConfig      *engcfg.Config
	eng               *engine.Engine
	store             store.Store
	automationStore   store.AutomationStore
	workflows         *trigger.MemoryWorkflows
	trigger           *trigger.Trigger
	scheduler         *scheduler.Scheduler
	dispatcher        *webhook.Dispatcher
}

// New creates a new server instance. reg is the node registry exposed to
// parsed workflows; engineConfig may be nil (config.Default() applies). A
// nil st defaults to an in-memory execution store.
func New(config Config, engineConfig *engcfg.Config, reg *registry.Registry, st store.Store) (*Server, error) {
	if engineConfig == nil {
		engineConfig = engcfg.Default()
	}
	if st == nil {
		st = store.NewMemory()
	}

	// Create logger
	logger := logging.New(logging.DefaultConfig())

	// Create telemetry provider
	telemetryConfig := telemetry.DefaultConfig()
	telemetryProvider, err := telemetry.NewProvider(context.Background(), telemetryConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry provider: %w", err)
	}

	// Create health checker
	healthChecker := health.NewChecker("loom-workflow-engine", "0.1.0")

	// Register basic health checks
	healthChecker.RegisterCheck("engine", func(ctx context.Context) error {
		// Basic check - always healthy if server is running
		return nil
	}, 5*time.Second, true)

	eng := engine.New(reg, engineConfig, engine.WithStore(st), engine.WithLogger(logger))
	eng.RegisterObserver(telemetry.NewTelemetryObserver(telemetryProvider))

	automationStore, ok := st.(store.AutomationStore)
	if !ok {
		automationStore = store.NewMemory()
	}
	workflows := trigger.NewMemoryWorkflows()
	trig := trigger.New(eng, reg, engineConfig, workflows)
	sched := scheduler.New(automationStore, trig, nil, config.ShutdownTimeout)
	dispatcher := webhook.New(automationStore, trig, nil)

	server := &Server{
		config:            config,
		healthChecker:     healthChecker,
		telemetryProvider: telemetryProvider,
		logger:            logger,
		reg:               reg,
		engineConfig:      engineConfig,
		eng:               eng,
		store:             st,
		automationStore:   automationStore,
		workflows:         workflows,
		trigger:           trig,
		scheduler:         sched,
		dispatcher:        dispatcher,
	}

	// Create HTTP server
	mux := http.NewServeMux()
	server.registerRoutes(mux)

	server.httpServer = &http.Server{
		Addr:         config.Address,
		Handler:      server.middlewareChain(mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return server, nil
}

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health endpoints
	mux.HandleFunc("/health", s.healthChecker.HTTPHandler())
	mux.HandleFunc("/health/live", s.healthChecker.LivenessHandler())
	mux.HandleFunc("/health/ready", s.healthChecker.ReadinessHandler())
	
	// Metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())
	
	// API endpoints
	mux.HandleFunc("/api/v1/workflow/execute", s.handleExecuteWorkflow)
	mux.HandleFunc("/api/v1/workflow/validate", s.handleValidateWorkflow)
	mux.HandleFunc("/api/v1/workflows/allnodes", s.handleListNodes)
	mux.HandleFunc("/api/v1/workflows/", s.handleWorkflowByID)
	mux.HandleFunc("/api/v1/executions/", s.handleGetExecution)

	// Automation endpoints
	mux.HandleFunc("/api/v1/automations", s.handleCreateAutomation)
	mux.HandleFunc("/api/v1/automations/cron/validate", s.handleValidateCron)
	mux.HandleFunc("/api/v1/automations/scheduler/status", s.handleSchedulerStatus)
	mux.HandleFunc("/api/v1/automations/", s.handleAutomationByID)

	// Webhook dispatch
	mux.Handle("/api/webhooks/", s.dispatcher)
}

// middlewareChain applies middleware to the handler
func (s *Server) middlewareChain(handler http.Handler) http.Handler {
	// Apply CORS if enabled
	if s.config.EnableCORS {
		handler = s.corsMiddleware(handler)
	}
	
	// Apply logging middleware
	handler = s.loggingMiddleware(handler)
	
	// Apply recovery middleware
	handler = s.recoveryMiddleware(handler)
	
	return handler
}

// handleExecuteWorkflow parses a workflow definition and runs it to
// completion against the server's shared registry and engine config.
func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var req struct {
		Workflow types.WorkflowDefinition `json:"workflow"`
		Input    interface{}              `json:"input"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request body", http.StatusBadRequest, err)
		return
	}

	p, warnings, err := parser.Parse(&req.Workflow, s.reg, s.engineConfig)
	if err != nil {
		s.writeErrorResponse(w, "Failed to parse workflow", http.StatusBadRequest, err)
		return
	}

	startTime := time.Now()
	record, err := s.eng.Execute(r.Context(), p, types.TriggerManual, req.Input)
	duration := time.Since(startTime)

	if err != nil {
		s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"success":        false,
			"error":          err.Error(),
			"execution":      record,
			"execution_time": duration.String(),
			"warnings":       warnings,
		})
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"execution":      record,
		"execution_time": duration.String(),
		"warnings":       warnings,
	})
}

// handleValidateWorkflow parses (but does not execute) a workflow
// definition, reporting parse errors and non-fatal warnings.
func (s *Server) handleValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var def types.WorkflowDefinition
	if err := json.Unmarshal(body, &def); err != nil {
		s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	_, warnings, err := parser.Parse(&def, s.reg, s.engineConfig)
	if err != nil {
		s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"valid":    true,
		"warnings": warnings,
	})
}

// handleListNodes reports every node type registered with the server, for
// editor tooling to build a palette from.
func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"nodes": s.reg.List(),
	})
}

// handleGetExecution returns a persisted execution record by id
// ("/api/v1/executions/{id}").
func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Path[len("/api/v1/executions/"):]
	if id == "" {
		http.Error(w, "execution id required", http.StatusBadRequest)
		return
	}
	record, err := s.store.GetExecution(r.Context(), id)
	if err != nil {
		s.writeErrorResponse(w, "execution not found", http.StatusNotFound, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, record)
}

// handleWorkflowByID registers ("PUT") or retrieves ("GET") a workflow
// definition by id, so automations have something to reference by
// workflowId. Persistence here is the reference in-memory implementation;
// a host backed by a database wires its own trigger.WorkflowProvider
// instead.
func (s *Server) handleWorkflowByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/workflows/")
	if id == "" {
		http.Error(w, "workflow id required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxRequestBodySize))
		if err != nil {
			s.writeErrorResponse(w, "failed to read request body", http.StatusBadRequest, err)
			return
		}
		var def types.WorkflowDefinition
		if err := json.Unmarshal(body, &def); err != nil {
			s.writeErrorResponse(w, "invalid workflow definition", http.StatusBadRequest, err)
			return
		}
		def.ID = id
		if _, _, err := parser.Parse(&def, s.reg, s.engineConfig); err != nil {
			s.writeErrorResponse(w, "failed to parse workflow", http.StatusBadRequest, err)
			return
		}
		s.workflows.Put(&def)
		s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"id": id})

	case http.MethodGet:
		def, err := s.workflows.GetWorkflow(r.Context(), id)
		if err != nil {
			s.writeErrorResponse(w, "workflow not found", http.StatusNotFound, err)
			return
		}
		s.writeJSONResponse(w, http.StatusOK, def)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCreateAutomation handles "POST /api/v1/automations".
func (s *Server) handleCreateAutomation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxRequestBodySize))
	if err != nil {
		s.writeErrorResponse(w, "failed to read request body", http.StatusBadRequest, err)
		return
	}
	var automation types.Automation
	if err := json.Unmarshal(body, &automation); err != nil {
		s.writeErrorResponse(w, "invalid automation", http.StatusBadRequest, err)
		return
	}

	if err := s.automationStore.CreateAutomation(r.Context(), &automation); err != nil {
		s.writeErrorResponse(w, "failed to create automation", http.StatusInternalServerError, err)
		return
	}
	s.armAutomation(r.Context(), &automation)
	s.writeJSONResponse(w, http.StatusCreated, &automation)
}

// handleAutomationByID dispatches the "/api/v1/automations/{id}..." family:
// update, delete, toggle, execute, reschedule, and the executions list.
func (s *Server) handleAutomationByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/automations/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		http.Error(w, "automation id required", http.StatusBadRequest)
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodPut:
		s.updateAutomation(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		s.deleteAutomation(w, r, id)
	case action == "toggle" && r.Method == http.MethodPut:
		s.toggleAutomation(w, r, id)
	case action == "execute" && r.Method == http.MethodPost:
		s.executeAutomation(w, r, id)
	case action == "reschedule" && r.Method == http.MethodPost:
		s.rescheduleAutomation(w, r, id)
	case action == "executions" && r.Method == http.MethodGet:
		s.listAutomationExecutions(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) updateAutomation(w http.ResponseWriter, r *http.Request, id string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxRequestBodySize))
	if err != nil {
		s.writeErrorResponse(w, "failed to read request body", http.StatusBadRequest, err)
		return
	}
	var automation types.Automation
	if err := json.Unmarshal(body, &automation); err != nil {
		s.writeErrorResponse(w, "invalid automation", http.StatusBadRequest, err)
		return
	}
	automation.ID = id

	if err := s.automationStore.UpdateAutomation(r.Context(), &automation); err != nil {
		s.writeErrorResponse(w, "failed to update automation", http.StatusInternalServerError, err)
		return
	}
	s.scheduler.Unschedule(id)
	s.armAutomation(r.Context(), &automation)
	s.writeJSONResponse(w, http.StatusOK, &automation)
}

func (s *Server) deleteAutomation(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.automationStore.DeleteAutomation(r.Context(), id); err != nil {
		s.writeErrorResponse(w, "failed to delete automation", http.StatusInternalServerError, err)
		return
	}
	s.scheduler.Unschedule(id)
	_ = s.dispatcher.Rebuild(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleAutomation(w http.ResponseWriter, r *http.Request, id string) {
	automation, err := s.automationStore.GetAutomation(r.Context(), id)
	if err != nil {
		s.writeErrorResponse(w, "automation not found", http.StatusNotFound, err)
		return
	}
	automation.Enabled = !automation.Enabled
	if err := s.automationStore.UpdateAutomation(r.Context(), automation); err != nil {
		s.writeErrorResponse(w, "failed to toggle automation", http.StatusInternalServerError, err)
		return
	}

	s.scheduler.Unschedule(id)
	if automation.Enabled {
		s.armAutomation(r.Context(), automation)
	} else {
		_ = s.dispatcher.Rebuild(r.Context())
	}
	s.writeJSONResponse(w, http.StatusOK, automation)
}

func (s *Server) executeAutomation(w http.ResponseWriter, r *http.Request, id string) {
	automation, err := s.automationStore.GetAutomation(r.Context(), id)
	if err != nil {
		s.writeErrorResponse(w, "automation not found", http.StatusNotFound, err)
		return
	}
	if !automation.Enabled {
		s.writeErrorResponse(w, "automation is disabled", http.StatusConflict, fmt.Errorf("automation %s disabled", id))
		return
	}
	record, err := s.trigger.Invoke(r.Context(), automation.WorkflowID, types.TriggerManual, nil)
	if err != nil {
		s.writeErrorResponse(w, "failed to execute automation", http.StatusInternalServerError, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, record)
}

func (s *Server) rescheduleAutomation(w http.ResponseWriter, r *http.Request, id string) {
	automation, err := s.automationStore.GetAutomation(r.Context(), id)
	if err != nil {
		s.writeErrorResponse(w, "automation not found", http.StatusNotFound, err)
		return
	}
	if err := s.scheduler.Reschedule(r.Context(), automation); err != nil {
		s.writeErrorResponse(w, "failed to reschedule automation", http.StatusBadRequest, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, automation)
}

func (s *Server) listAutomationExecutions(w http.ResponseWriter, r *http.Request, id string) {
	automation, err := s.automationStore.GetAutomation(r.Context(), id)
	if err != nil {
		s.writeErrorResponse(w, "automation not found", http.StatusNotFound, err)
		return
	}
	page, err := s.store.ListExecutions(r.Context(), store.Filter{WorkflowID: automation.WorkflowID})
	if err != nil {
		s.writeErrorResponse(w, "failed to list executions", http.StatusInternalServerError, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, page)
}

// armAutomation schedules a cron automation or rebuilds the webhook route
// table, depending on its trigger type; immediate automations need neither.
func (s *Server) armAutomation(ctx context.Context, automation *types.Automation) {
	switch automation.TriggerConfig.Type {
	case types.AutomationTriggerCron:
		if err := s.scheduler.Schedule(ctx, automation); err != nil {
			s.logger.WithError(err).WithField("automation_id", automation.ID).Warn("failed to schedule automation")
		}
	case types.AutomationTriggerWebhook:
		if err := s.dispatcher.Rebuild(ctx); err != nil {
			s.logger.WithError(err).Warn("failed to rebuild webhook routes")
		}
	}
}

// handleValidateCron backs "POST /api/v1/automations/cron/validate".
func (s *Server) handleValidateCron(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		CronExpression string `json:"cronExpression"`
		Timezone       string `json:"timezone"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, s.config.MaxRequestBodySize)).Decode(&req); err != nil {
		s.writeErrorResponse(w, "invalid request body", http.StatusBadRequest, err)
		return
	}

	next, err := scheduler.ValidateExpression(req.CronExpression, req.Timezone)
	if err != nil {
		s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"valid":   false,
			"message": err.Error(),
		})
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"nextRun": next,
	})
}

// handleSchedulerStatus backs "GET /api/v1/automations/scheduler/status".
func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"jobs": s.scheduler.Statuses(),
	})
}

// writeJSONResponse writes a JSON response
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

// writeErrorResponse writes an error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int, err error) {
	s.logger.WithError(err).WithField("status_code", statusCode).Error(message)
	
	s.writeJSONResponse(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
		"details": err.Error(),
	})
}

// Start starts the HTTP server, first arming every enabled automation's
// cron job and webhook route.
func (s *Server) Start() error {
	if err := s.dispatcher.Rebuild(context.Background()); err != nil {
		s.logger.WithError(err).Warn("failed to build initial webhook routes")
	}
	if err := s.scheduler.Start(context.Background()); err != nil {
		s.logger.WithError(err).Warn("failed to start cron scheduler")
	}

	s.logger.WithField("address", s.config.Address).Info("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	s.scheduler.Stop()

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}

	// Shutdown telemetry
	if err := s.telemetryProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown telemetry: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		
		// Create response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		
		next.ServeHTTP(rw, r)
		
		duration := time.Since(startTime)
		
		s.logger.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": rw.statusCode,
			"duration_ms": duration.Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("http request")
	})
}

// recoveryMiddleware recovers from panics
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithField("error", fmt.Sprintf("%v", err)).
					WithField("path", r.URL.Path).
					Error("panic recovered")
				
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
