package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statusQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_status_queries_total",
			Help: "Total scheduled status queries issued, by service.",
		},
		[]string{"service"},
	)

	sessionOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_session_outcomes_total",
			Help: "Sessions finished, by end status (success, failure, exhausted, cancelled).",
		},
		[]string{"outcome"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reconciler_active_sessions",
			Help: "Sessions currently awaiting a terminal outcome.",
		},
	)

	queryDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconciler_status_query_duration_seconds",
			Help:    "Latency of provider status queries.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Accessors for tests using prometheus/testutil. Metrics are registered on
// the default registry, so tests measure increments rather than absolutes.

func GetStatusQueriesTotal() *prometheus.CounterVec { return statusQueriesTotal }

func GetSessionOutcomesTotal() *prometheus.CounterVec { return sessionOutcomesTotal }

func GetActiveSessions() prometheus.Gauge { return activeSessions }

func GetQueryDurationSeconds() prometheus.Histogram { return queryDurationSeconds }
