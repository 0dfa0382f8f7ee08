// Package metrics holds the Prometheus collectors of sopctl. They are
// registered on the default registry and can be dumped to a node-exporter
// textfile at the end of a run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sopctl"

const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeRemoved   = "removed"
	OutcomeFailed    = "failed"
)

var (
	// ReconciledObjectsTotal counts reconciled inventory objects.
	// kind: organization | network | switch_stack | device
	ReconciledObjectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "objects_total",
			Help:      "Total number of reconciled inventory objects by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	RemotePushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "remote_pushes_total",
			Help:      "Total number of corrections pushed to a dashboard by outcome.",
		},
		[]string{"dashboard", "outcome"},
	)

	DashboardRefreshSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "dashboard_refresh_seconds",
			Help:      "Duration of a full dashboard refresh in seconds.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"dashboard"},
	)

	PropagationStepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "infra",
			Name:      "propagation_steps_total",
			Help:      "Total number of master records updated by upward propagation.",
		},
	)

	CyclesDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "infra",
			Name:      "cycles_detected_total",
			Help:      "Total number of master/slave cycles detected.",
		},
	)
)

// WriteTextfile dumps every registered metric to path.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}

	return nil
}
