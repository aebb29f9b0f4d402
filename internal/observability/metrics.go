// Package observability holds the Prometheus instrumentation for the
// versioning engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the counters the isolation and search paths emit.
type Metrics struct {
	// ResolutionsDenied counts resolutions rejected by the isolation policy,
	// labeled by record kind.
	ResolutionsDenied *prometheus.CounterVec

	// FallbacksApplied counts resolutions served by the fallback-latest-active
	// policy instead of an explicit assignment, labeled by record kind.
	FallbacksApplied *prometheus.CounterVec

	// SearchResultsSkipped counts search candidates dropped because their
	// effective version could not be resolved for the caller.
	SearchResultsSkipped prometheus.Counter

	// VersionConflictRetries counts write attempts that lost the
	// version-number race and were retried.
	VersionConflictRetries prometheus.Counter
}

// NewMetrics registers and returns the engine's metrics on the given
// registerer. Pass prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ResolutionsDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versioning",
			Name:      "resolutions_denied_total",
			Help:      "Resolutions denied by the isolation policy.",
		}, []string{"kind"}),

		FallbacksApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versioning",
			Name:      "fallbacks_applied_total",
			Help:      "Resolutions served by the fallback-latest-active policy.",
		}, []string{"kind"}),

		SearchResultsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "versioning",
			Name:      "search_results_skipped_total",
			Help:      "Search candidates dropped because resolution failed for the caller.",
		}),

		VersionConflictRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "versioning",
			Name:      "version_conflict_retries_total",
			Help:      "Write attempts retried after losing a version-number race.",
		}),
	}
}
