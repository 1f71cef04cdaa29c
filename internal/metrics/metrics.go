// Package metrics exposes Prometheus counters for risk assessments and tool calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vakil"

type Metrics struct {
	gatherer prometheus.Gatherer

	// assessments counts completed assessments by engine and risk band
	assessments *prometheus.CounterVec

	// toolCalls counts tool executions by tool and status
	toolCalls *prometheus.CounterVec

	toolDuration *prometheus.HistogramVec
}

// New registers the gateway metrics on reg. Passing a fresh
// prometheus.NewRegistry keeps tests isolated from the global registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		assessments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Completed risk assessments by engine and risk band",
		}, []string{"engine", "band"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool and status",
		}, []string{"tool", "status"}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Tool execution latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}, []string{"tool"}),
	}
}

// ObserveAssessment records one finished assessment. Safe on a nil receiver.
func (m *Metrics) ObserveAssessment(engine, band string) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(engine, band).Inc()
}

// ObserveTool records a tool call outcome and latency. Safe on a nil receiver.
func (m *Metrics) ObserveTool(tool string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
