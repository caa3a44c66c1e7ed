// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "litreview_runs_started_total",
		Help: "Run executions that entered the running state.",
	})

	runsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "litreview_runs_completed_total",
		Help: "Run executions that reached the completed state.",
	})

	runsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "litreview_runs_failed_total",
		Help: "Run executions that reached the failed state.",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "litreview_run_duration_seconds",
		Help:    "Wall-clock duration of run executions.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})
)
