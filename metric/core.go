// Package metric provides prometheus instrumentation for the batch engine:
// batch and per-operation counters, phase timings, and node creation totals.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all engine-level metrics (not caller-specific).
type Metrics struct {
	BatchesTotal    *prometheus.CounterVec
	OperationsTotal *prometheus.CounterVec
	RollbacksTotal  prometheus.Counter
	PhaseDuration   *prometheus.HistogramVec
	NodesCreated    *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance under the given namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "nodeforge"
	}
	return &Metrics{
		BatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "batches_total",
				Help:      "Total number of batch requests executed",
			},
			[]string{"status"},
		),

		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "operations_total",
				Help:      "Total number of batch operations by phase and status",
			},
			[]string{"phase", "status"},
		),

		RollbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "rollbacks_total",
				Help:      "Total number of batches rolled back",
			},
		),

		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "phase_duration_seconds",
				Help:      "Batch phase execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"phase"},
		),

		NodesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "graph",
				Name:      "nodes_created_total",
				Help:      "Total number of nodes created by graph kind and node kind",
			},
			[]string{"graph_kind", "node_kind"},
		),
	}
}

// Collectors returns every metric for bulk registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.BatchesTotal,
		m.OperationsTotal,
		m.RollbacksTotal,
		m.PhaseDuration,
		m.NodesCreated,
	}
}
