package provisioning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reconcile actions reported by RecordReconcile.
const (
	ActionCreate  = "create"
	ActionStart   = "start"
	ActionReuse   = "reuse"
	ActionAdopt   = "adopt"
	ActionConnect = "connect"
	ActionDelete  = "delete"
)

// Results used in metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds fogprov's Prometheus collectors on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	reconcileTotal *prometheus.CounterVec
	apiCallsTotal  *prometheus.CounterVec
	apiLatency     *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reconcileTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fogprov",
				Name:      "reconcile_total",
				Help:      "Total number of node reconciliations by action and result",
			},
			[]string{"action", "result"},
		),
		apiCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fogprov",
				Subsystem: "compute",
				Name:      "api_calls_total",
				Help:      "Total number of compute API calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		apiLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fogprov",
				Subsystem: "compute",
				Name:      "api_latency_seconds",
				Help:      "Latency of compute API calls in seconds, including action waits",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
			},
			[]string{"operation"},
		),
	}
	m.registry.MustRegister(m.reconcileTotal, m.apiCallsTotal, m.apiLatency)
	return m
}

// Registry returns the registry holding fogprov's collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordReconcile counts one reconciliation outcome.
func (m *Metrics) RecordReconcile(action string, err error) {
	if m == nil {
		return
	}
	m.reconcileTotal.WithLabelValues(action, result(err)).Inc()
}

// ObserveCall records a compute API call. It satisfies compute.CallRecorder.
func (m *Metrics) ObserveCall(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.apiCallsTotal.WithLabelValues(operation, result(err)).Inc()
	m.apiLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// WriteTextfile dumps the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
