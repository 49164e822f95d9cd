package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger metrics
var (
	// AwardsTotal tracks award calls by source and outcome (applied/capped/noop).
	// Free-form sources are bucketed under CUSTOM to bound cardinality.
	AwardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "respect_awards_total",
			Help: "Total award calls by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// PointsAppliedTotal tracks the absolute points written to the ledger by
	// source and direction (award/penalty).
	PointsAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "respect_points_applied_total",
			Help: "Absolute respect points applied by source and direction",
		},
		[]string{"source", "direction"},
	)

	// LedgerTxFailures tracks failed event+balance transactions.
	LedgerTxFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "respect_ledger_tx_failures_total",
			Help: "Total failed ledger transactions",
		},
	)
)

// Decay metrics
var (
	// DecayRunsTotal counts completed decay batches.
	DecayRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "respect_decay_runs_total",
			Help: "Total completed decay batches",
		},
	)

	// DecayUsersTotal counts users decayed across all batches.
	DecayUsersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "respect_decay_users_total",
			Help: "Total users decayed across all batches",
		},
	)

	// DecayDuration tracks decay batch duration in seconds.
	DecayDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "respect_decay_duration_seconds",
			Help:    "Decay batch duration in seconds",
			Buckets: []float64{.1, .5, 1, 5, 15, 60, 300},
		},
	)
)

// Cache metrics
var (
	// CacheOpsTotal tracks respect cache operations by operation and status
	// (hit/miss/error/ok).
	CacheOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "respect_cache_operations_total",
			Help: "Respect cache operations by operation and status",
		},
		[]string{"operation", "status"},
	)
)
