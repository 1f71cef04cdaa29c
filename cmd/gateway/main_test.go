package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/manmeet-sys/vakil-gpt-sub002/internal/config"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/metrics"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/store"
	"github.com/manmeet-sys/vakil-gpt-sub002/pkg/mcp"
	"github.com/manmeet-sys/vakil-gpt-sub002/pkg/riskengine"
)

const testToken = "test-token"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Addr: ":0"},
		Auth:   config.AuthConfig{Token: testToken, AllowedTools: []string{"*"}},
		Log:    config.LogConfig{Level: "info"},
		Storage: config.StorageConfig{
			AssessmentDB: filepath.Join(t.TempDir(), "assessments.db"),
			AuditDB:      ":memory:",
		},
		Engines: config.EnginesConfig{
			Contract:   config.ContractEngineConfig{Enabled: true},
			Litigation: config.LitigationEngineConfig{Enabled: true},
			Batch:      config.BatchConfig{MaxParallel: 2, MaxItems: 10},
		},
	}
}

func testRouter(t *testing.T) *mux.Router {
	t.Helper()
	return newTestRouter(t, testConfig(t))
}

func newTestRouter(t *testing.T, cfg *config.Config) *mux.Router {
	t.Helper()
	st, err := store.Open(cfg.Storage.AssessmentDB)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	live := config.NewLive(cfg)
	m := metrics.New(prometheus.NewRegistry())
	handler, err := mcp.NewHandler(live, mcp.Options{Store: st, Metrics: m, Logger: zap.NewNop()})
	require.NoError(t, err)
	return newRouter(live, handler, m, zap.NewNop())
}

func do(router http.Handler, method, target string, body []byte, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if auth {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
}

func TestRouter_HealthAndMetricsAreOpen(t *testing.T) {
	router := testRouter(t)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", nil, false).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/metrics", nil, false).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/tools", nil, false).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/configure", nil, false).Code)
}

func TestRouter_ListTools(t *testing.T) {
	router := testRouter(t)

	w := do(router, http.MethodGet, "/tools", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tools   []mcp.ToolInfo `json:"tools"`
		Workers []string       `json:"workers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Tools, 9)
	assert.Equal(t, []string{"contract", "litigation"}, resp.Workers)
}

func TestRouter_ExecuteTool(t *testing.T) {
	router := testRouter(t)

	body, _ := json.Marshal(map[string]any{
		"text":          "Either party may terminate at any time without notice.",
		"contract_type": "employment",
		"save":          true,
	})
	w := do(router, http.MethodPost, "/tools/contract/analyze", body, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AssessmentID string `json:"assessment_id"`
		riskengine.OverallAssessment
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AssessmentID)
	score, _ := resp.Score(riskengine.CategoryTermination)
	assert.Greater(t, score, 0)

	w = do(router, http.MethodPost, "/tools/contract/get",
		[]byte(fmt.Sprintf(`{"assessment_id":%q}`, resp.AssessmentID)), true)
	assert.Equal(t, http.StatusOK, w.Code)

	// the MCP metrics surface the call
	w = do(router, http.MethodGet, "/metrics", nil, false)
	assert.Contains(t, w.Body.String(), `vakil_tool_calls_total{status="ok",tool="contract_analyze"} 1`)
}

func TestRouter_ExecuteToolErrors(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"validation error", "/tools/contract/analyze", `{"text":"","contract_type":"nda"}`, http.StatusBadRequest},
		{"unknown case type", "/tools/litigation/predict", `{"facts":"x","case_type":"tax"}`, http.StatusBadRequest},
		{"unknown tool", "/tools/contract/summarize", `{}`, http.StatusNotFound},
		{"unknown worker", "/tools/email/send", `{}`, http.StatusNotFound},
		{"missing assessment", "/tools/contract/get", `{"assessment_id":"missing"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, tt.target, []byte(tt.body), true)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestRouter_ConfigureMasksToken(t *testing.T) {
	router := testRouter(t)

	w := do(router, http.MethodGet, "/configure", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), testToken)
}

func TestRouter_ConfigureAppliesToRequests(t *testing.T) {
	cfg := testConfig(t)
	router := newTestRouter(t, cfg)

	next := *cfg
	next.Auth = config.AuthConfig{Token: "rotated", AllowedTools: []string{"contract_catalog"}}
	body, err := json.Marshal(next)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, do(router, http.MethodPost, "/configure", body, true).Code)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/tools", nil, true).Code)

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	req.Header.Set("Authorization", "Bearer rotated")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Tools []mcp.ToolInfo `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tools, 1)
	assert.Equal(t, "contract_catalog", resp.Tools[0].Name)
}

// Run with -race: configuration updates must not race with request handling.
func TestRouter_ConfigureWhileServing(t *testing.T) {
	cfg := testConfig(t)
	router := newTestRouter(t, cfg)

	next := *cfg
	next.Auth = config.AuthConfig{Token: "***", AllowedTools: []string{"*"}}
	body, err := json.Marshal(next)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/configure", body, true).Code)
		}()
		go func() {
			defer wg.Done()
			assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/tools", nil, true).Code)
		}()
	}
	wg.Wait()
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&riskengine.ValidationError{Field: "text", Reason: "must not be empty"}))
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("%w: x", store.ErrNotFound)))
	assert.Equal(t, http.StatusForbidden, statusFor(fmt.Errorf("%w: x", mcp.ErrToolNotAllowed)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk full")))
}
