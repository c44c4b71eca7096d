package core

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/metrics"
)

// Metrics holds the service-level collectors. Handler latency and
// upstream failures are the two signals on-call actually watches.
type Metrics struct {
	ChatTurns       *prometheus.CounterVec
	ChatLatency     *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	WorkflowOutcome *prometheus.CounterVec
}

func setupMetrics(appName string) *Metrics {
	metrics.SetupMetricsManager(appName, "service", prometheus.NewRegistry())

	return &Metrics{
		ChatTurns:       metrics.NewCounterVec("chat_turns_total", []string{"category"}),
		ChatLatency:     metrics.NewHistogramVec("chat_turn_seconds", []string{"category"}),
		UpstreamErrors:  metrics.NewCounterVec("upstream_errors_total", []string{"collaborator"}),
		CacheLookups:    metrics.NewCounterVec("profile_cache_lookups_total", []string{"result"}),
		WorkflowOutcome: metrics.NewCounterVec("workflow_outcomes_total", []string{"kind", "outcome"}),
	}
}
