// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_turns_processed_total",
			Help: "Total number of turns processed, labeled by resulting action",
		},
		[]string{"action"},
	)

	TurnsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dialogue_turns_deduplicated_total",
			Help: "Total number of redelivered turns suppressed by the guard",
		},
	)

	DownstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_downstream_failures_total",
			Help: "Total number of downstream client failures",
		},
		[]string{"client", "error_code"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dialogue_turn_duration_seconds",
			Help: "Duration of turn processing in seconds",
		},
		[]string{"action"},
	)

	ActiveFlows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dialogue_active_flows",
			Help: "Number of conversations currently holding a waiting state",
		},
	)
)
