package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/manmeet-sys/vakil-gpt-sub002/internal/audit"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/config"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/logging"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/metrics"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/middleware"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/store"
	"github.com/manmeet-sys/vakil-gpt-sub002/pkg/mcp"
	"github.com/manmeet-sys/vakil-gpt-sub002/pkg/riskengine"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	st, err := store.Open(cfg.Storage.AssessmentDB)
	if err != nil {
		logger.Fatal("failed to open assessment store", zap.String("path", cfg.Storage.AssessmentDB), zap.Error(err))
	}
	defer st.Close()

	auditor, err := audit.NewAuditor(cfg.Storage.AuditDB, logger)
	if err != nil {
		logger.Fatal("failed to open audit log", zap.String("path", cfg.Storage.AuditDB), zap.Error(err))
	}
	defer auditor.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	live := config.NewLive(cfg)

	// Create MCP handler
	handler, err := mcp.NewHandler(live, mcp.Options{
		Store:   st,
		Auditor: auditor,
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("failed to create MCP handler", zap.Error(err))
	}

	router := newRouter(live, handler, m, logger)

	// Start server
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout, 15*time.Second),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting risk gateway", zap.String("addr", cfg.Server.Addr), zap.Strings("workers", handler.Workers()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownTimeout, 30*time.Second))
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}

type gateway struct {
	handler *mcp.Handler
	logger  *zap.Logger
}

func newRouter(cfg *config.Live, handler *mcp.Handler, m *metrics.Metrics, logger *zap.Logger) *mux.Router {
	g := &gateway{handler: handler, logger: logger}

	router := mux.NewRouter()
	middleware.Register(router, cfg, logger)

	// MCP endpoint
	router.PathPrefix("/mcp").Handler(handler)

	// Health endpoint
	router.HandleFunc("/health", healthHandler).Methods("GET")

	// Metrics endpoint
	router.Handle("/metrics", m.Handler()).Methods("GET")

	// Tools endpoints
	router.HandleFunc("/tools", g.listToolsHandler).Methods("GET")
	router.HandleFunc("/tools/{worker}/{tool}", g.executeToolHandler).Methods("POST")

	// Configuration API
	config.NewConfigAPI(cfg).Register(router)

	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (g *gateway) listToolsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"tools":   g.handler.Tools(),
		"workers": g.handler.Workers(),
	})
}

func (g *gateway) executeToolHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := g.handler.ExecuteWorkerTool(r.Context(), vars["worker"], vars["tool"], body)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			g.logger.Error("tool execution failed", zap.String("worker", vars["worker"]), zap.String("tool", vars["tool"]), zap.Error(err))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(result)
}

func statusFor(err error) int {
	switch {
	case riskengine.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, mcp.ErrToolNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, mcp.ErrToolNotAllowed):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
