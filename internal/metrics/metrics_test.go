package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAssessment(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAssessment("contract", "medium")
	m.ObserveAssessment("contract", "medium")
	m.ObserveAssessment("litigation", "low")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.assessments.WithLabelValues("contract", "medium")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assessments.WithLabelValues("litigation", "low")))
}

func TestObserveTool(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTool("contract_analyze", nil, 3*time.Millisecond)
	m.ObserveTool("contract_analyze", errors.New("bad input"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("contract_analyze", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("contract_analyze", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.toolDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAssessment("contract", "low")
		m.ObserveTool("x", nil, 0)
	})
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveAssessment("contract", "high")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vakil_assessments_total{band="high",engine="contract"} 1`)
}
