package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"cosmossdk.io/math"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/elys-network/imbtc-strategy/internal/logger"
	"github.com/elys-network/imbtc-strategy/internal/state"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

// StrategyReader is the read-only view of the strategy the API serves.
type StrategyReader interface {
	Status() types.StrategyStatus
	HarvestTrigger(callCost math.Int) bool
	TendTrigger(callCost math.Int) bool
}

// Executor serializes reads against keeper writes.
type Executor interface {
	Do(fn func() error) error
}

// ReportSource serves stored harvest reports.
type ReportSource interface {
	RecentReports(ctx context.Context, limit int) ([]state.StoredHarvestReport, error)
	LatestReport(ctx context.Context) (state.StoredHarvestReport, error)
	ReportByID(ctx context.Context, id string) (state.StoredHarvestReport, error)
	Summary(ctx context.Context) (types.ReportSummary, error)
	Ping(ctx context.Context) error
}

// Config wires the server. Reports is optional; report endpoints answer 503 without it.
type Config struct {
	Port     string
	Strategy StrategyReader
	Executor Executor
	Reports  ReportSource
}

// WebServer serves strategy status, trigger checks, stored reports and Prometheus metrics.
type WebServer struct {
	logger   zerolog.Logger
	router   *mux.Router
	port     string
	strategy StrategyReader
	executor Executor
	reports  ReportSource
	started  time.Time
}

// NewWebServer creates a new web server instance
func NewWebServer(cfg Config) (*WebServer, error) {
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("web server strategy cannot be nil")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("web server executor cannot be nil")
	}
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		logger:   logger.GetForComponent("web_server"),
		router:   mux.NewRouter(),
		port:     port,
		strategy: cfg.Strategy,
		executor: cfg.Executor,
		reports:  cfg.Reports,
		started:  time.Now(),
	}
	server.setupRoutes()
	return server, nil
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/strategy", ws.handleGetStrategy).Methods("GET")
	api.HandleFunc("/triggers", ws.handleGetTriggers).Methods("GET")
	api.HandleFunc("/reports", ws.handleGetReports).Methods("GET")
	api.HandleFunc("/reports/latest", ws.handleGetLatestReport).Methods("GET")
	api.HandleFunc("/reports/{id}", ws.handleGetReport).Methods("GET")
	api.HandleFunc("/summary", ws.handleGetSummary).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Handler exposes the router, mainly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	ws.logger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ws.logger.Info().Msg("Shutting down web server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (ws *WebServer) status() (types.StrategyStatus, error) {
	var status types.StrategyStatus
	err := ws.executor.Do(func() error {
		status = ws.strategy.Status()
		return nil
	})
	return status, err
}

// handleHealth reports process, strategy and database health.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	healthy := true
	status, err := ws.status()
	if err != nil {
		healthy = false
	}

	database := "disabled"
	if ws.reports != nil {
		database = "ok"
		if err := ws.reports.Ping(r.Context()); err != nil {
			ws.logger.Warn().Err(err).Msg("Database ping failed")
			database = "unreachable"
			healthy = false
		}
	}

	overall := "OK"
	statusCode := http.StatusOK
	if !healthy {
		overall = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	ws.writeJSONResponse(w, statusCode, map[string]interface{}{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
			"uptime_seconds":   int64(time.Since(ws.started).Seconds()),
		},
		"strategy": map[string]interface{}{
			"name":           status.Name,
			"emergency_exit": status.EmergencyExit,
			"migrated":       status.Migrated,
			"last_report":    status.LastReport,
		},
		"database": database,
	})
}

func (ws *WebServer) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	status, err := ws.status()
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to read strategy status")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to read strategy status")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, status)
}

// handleGetTriggers evaluates both keeper triggers for an optional callCost (want base units).
func (ws *WebServer) handleGetTriggers(w http.ResponseWriter, r *http.Request) {
	callCost := math.ZeroInt()
	if raw := r.URL.Query().Get("callCost"); raw != "" {
		parsed, ok := math.NewIntFromString(raw)
		if !ok || parsed.IsNegative() {
			ws.writeErrorResponse(w, http.StatusBadRequest, "callCost must be a non-negative integer")
			return
		}
		callCost = parsed
	}

	var harvest, tend bool
	err := ws.executor.Do(func() error {
		harvest = ws.strategy.HarvestTrigger(callCost)
		tend = ws.strategy.TendTrigger(callCost)
		return nil
	})
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to evaluate triggers")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to evaluate triggers")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"harvest":   harvest,
		"tend":      tend,
		"call_cost": callCost.String(),
		"timestamp": time.Now().UTC(),
	})
}

func (ws *WebServer) requireReports(w http.ResponseWriter) bool {
	if ws.reports == nil {
		ws.writeErrorResponse(w, http.StatusServiceUnavailable, "Persistence is disabled")
		return false
	}
	return true
}

// handleGetReports returns recent harvest reports
func (ws *WebServer) handleGetReports(w http.ResponseWriter, r *http.Request) {
	if !ws.requireReports(w) {
		return
	}
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	reports, err := ws.reports.RecentReports(r.Context(), limit)
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to get recent reports")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve reports")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
		"limit":   limit,
	})
}

func (ws *WebServer) handleGetLatestReport(w http.ResponseWriter, r *http.Request) {
	if !ws.requireReports(w) {
		return
	}
	report, err := ws.reports.LatestReport(r.Context())
	ws.writeReport(w, report, err)
}

func (ws *WebServer) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if !ws.requireReports(w) {
		return
	}
	report, err := ws.reports.ReportByID(r.Context(), mux.Vars(r)["id"])
	ws.writeReport(w, report, err)
}

func (ws *WebServer) writeReport(w http.ResponseWriter, report state.StoredHarvestReport, err error) {
	switch {
	case errors.Is(err, state.ErrReportNotFound):
		ws.writeErrorResponse(w, http.StatusNotFound, "Report not found")
	case err != nil:
		ws.logger.Error().Err(err).Msg("Failed to get report")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve report")
	default:
		ws.writeJSONResponse(w, http.StatusOK, report)
	}
}

func (ws *WebServer) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	if !ws.requireReports(w) {
		return
	}
	summary, err := ws.reports.Summary(r.Context())
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to get report summary")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve summary")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, summary)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		ws.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	ws.writeJSONResponse(w, statusCode, map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		ws.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
