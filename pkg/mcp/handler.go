package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/manmeet-sys/vakil-gpt-sub002/internal/audit"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/config"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/metrics"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/store"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/workers"
	"github.com/manmeet-sys/vakil-gpt-sub002/pkg/riskengine"
)

const serverVersion = "1.0.0"

var (
	ErrToolNotFound   = errors.New("tool not found")
	ErrToolNotAllowed = errors.New("tool not allowed")
)

type Worker interface {
	GetTools() []workers.ToolDef
	Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error)
}

// Options carries the shared services the handler hands to its workers.
// Every field is optional.
type Options struct {
	Store   *store.Store
	Auditor *audit.Auditor
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type Handler struct {
	config  *config.Live
	audit   *audit.Auditor
	metrics *metrics.Metrics
	logger  *zap.Logger
	workers map[string]Worker
	server  *mcp.Server
	http    http.Handler
}

// ToolInfo describes one registered tool by its full name.
type ToolInfo struct {
	Name        string `json:"name"`
	Worker      string `json:"worker"`
	Description string `json:"description"`
}

// NewHandler builds the workers enabled in the current configuration. The tool
// allow-list is re-read from live on every call.
func NewHandler(live *config.Live, opts Options) (*Handler, error) {
	cfg := live.Get()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		config:  live,
		audit:   opts.Auditor,
		metrics: opts.Metrics,
		logger:  logger,
		workers: make(map[string]Worker),
	}
	deps := workers.Deps{Store: opts.Store, Metrics: opts.Metrics, Logger: logger}

	// Contract risk analyzer
	if cfg.Engines.Contract.Enabled {
		var catalog *riskengine.Catalog
		if path := cfg.Engines.Contract.CatalogPath; path != "" {
			c, err := riskengine.LoadCatalogFile(path)
			if err != nil {
				return nil, fmt.Errorf("load contract catalog: %w", err)
			}
			catalog = c
			logger.Info("loaded contract catalog", zap.String("path", path), zap.Int("factors", c.FactorCount()))
		}
		engine, err := riskengine.NewContractEngine(catalog)
		if err != nil {
			return nil, err
		}
		h.workers["contract"] = workers.NewContractWorker(engine, deps, cfg.Engines.Batch)
	}

	// Litigation outcome predictor
	if cfg.Engines.Litigation.Enabled {
		engine, err := riskengine.NewLitigationEngine()
		if err != nil {
			return nil, err
		}
		h.workers["litigation"] = workers.NewLitigationWorker(engine, deps)
	}

	h.initMCPServer()
	return h, nil
}

func (h *Handler) initMCPServer() {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "Vakil Risk Gateway",
		Version: serverVersion,
	}, nil)

	for _, tool := range h.Tools() {
		mcp.AddTool(server, &mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
		}, h.wrapTool(tool.Name))
	}

	h.server = server
	h.http = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return h.server
	}, nil)
}

func (h *Handler) wrapTool(toolName string) func(ctx context.Context, req *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, any, error) {
		inputBytes, err := json.Marshal(input)
		if err != nil {
			return nil, nil, err
		}
		result, err := h.ExecuteTool(ctx, toolName, inputBytes)
		if err != nil {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{
					&mcp.TextContent{Text: err.Error()},
				},
			}, nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(result)},
			},
		}, nil, nil
	}
}

// ServeHTTP serves the MCP streamable HTTP transport.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.http == nil {
		http.Error(w, "MCP server not initialized", http.StatusInternalServerError)
		return
	}
	h.http.ServeHTTP(w, r)
}

// Tools lists every tool the auth configuration allows, sorted by name.
func (h *Handler) Tools() []ToolInfo {
	var tools []ToolInfo
	for name, worker := range h.workers {
		for _, tool := range worker.GetTools() {
			full := name + "_" + tool.Name
			if !h.allowed(full) {
				continue
			}
			tools = append(tools, ToolInfo{Name: full, Worker: name, Description: tool.Description})
		}
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Workers returns the names of the enabled workers.
func (h *Handler) Workers() []string {
	names := make([]string, 0, len(h.workers))
	for name := range h.workers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Handler) allowed(toolName string) bool {
	allowed := h.config.Get().Auth.AllowedTools
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return true
	}
	return slices.Contains(allowed, toolName)
}

// ExecuteTool runs a tool by its full name, e.g. "contract_analyze".
func (h *Handler) ExecuteTool(ctx context.Context, toolName string, args json.RawMessage) ([]byte, error) {
	workerName, shortName, ok := strings.Cut(toolName, "_")
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
	}
	return h.ExecuteWorkerTool(ctx, workerName, shortName, args)
}

// ExecuteWorkerTool runs one tool of the named worker, recording it in the
// audit log and the tool metrics.
func (h *Handler) ExecuteWorkerTool(ctx context.Context, workerName, toolName string, args json.RawMessage) ([]byte, error) {
	fullName := workerName + "_" + toolName
	worker, ok := h.workers[workerName]
	if !ok || !hasTool(worker, toolName) {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, fullName)
	}
	if !h.allowed(fullName) {
		return nil, fmt.Errorf("%w: %s", ErrToolNotAllowed, fullName)
	}

	start := time.Now()
	result, err := worker.Execute(ctx, toolName, args)
	elapsed := time.Since(start)

	h.audit.Log(fullName, args, result, err, elapsed)
	h.metrics.ObserveTool(fullName, err, elapsed)
	if err != nil {
		h.logger.Debug("tool failed", zap.String("tool", fullName), zap.Error(err))
	}
	return result, err
}

func hasTool(w Worker, name string) bool {
	for _, t := range w.GetTools() {
		if t.Name == name {
			return true
		}
	}
	return false
}
