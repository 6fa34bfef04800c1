// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GeoLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geo_lookups_total",
			Help: "Total number of geo lookups by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	GeoLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "geo_lookup_duration_seconds",
			Help: "Duration of geo lookups in seconds",
		},
		[]string{"operation"},
	)

	GeoCandidatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geo_candidates_skipped_total",
			Help: "Total number of candidate records skipped during radius scans",
		},
	)

	ProjectionBusinessesBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projection_businesses_built_total",
			Help: "Total number of business projections built by outcome",
		},
		[]string{"outcome"},
	)

	ProjectionBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "projection_build_duration_seconds",
			Help: "Duration of projection query builds in seconds",
		},
		[]string{"source"},
	)

	ReconcileEntriesPruned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_entries_pruned_total",
			Help: "Total number of stale entries pruned by reconciliation",
		},
		[]string{"index"},
	)

	ReconcileErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_errors_total",
			Help: "Total number of errors encountered during reconciliation",
		},
		[]string{"phase"},
	)

	ReconcileRunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reconcile_runs_active",
			Help: "Number of reconciliation passes currently running",
		},
	)
)
