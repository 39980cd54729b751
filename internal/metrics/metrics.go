// Package metrics exposes the service's prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts completed audio analysis requests by outcome.
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_insights_analyses_total",
		Help: "Completed audio analysis requests by outcome.",
	}, []string{"outcome"})

	// DegradedSignals counts fallback substitutions by signal name.
	DegradedSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_insights_degraded_signals_total",
		Help: "Signals that fell back to their documented default.",
	}, []string{"signal"})

	// ProviderFailures counts failed capability-provider calls.
	ProviderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_insights_provider_failures_total",
		Help: "Failed external capability calls by provider.",
	}, []string{"provider"})

	// PersistFailures counts best-effort store writes that were dropped.
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lead_insights_persist_failures_total",
		Help: "Analysis persistence failures (non-fatal by policy).",
	})
)
