package dataprocessing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keepa_files_processed_total",
		Help: "Input files handled by merge runs, by outcome.",
	}, []string{"status"})

	mergeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keepa_merge_runs_total",
		Help: "Completed merge runs, by outcome.",
	}, []string{"status"})

	rowsMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keepa_rows_merged_total",
		Help: "Total rows written into merged tables.",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "keepa_merge_run_duration_seconds",
		Help:    "Wall-clock duration of merge runs.",
		Buckets: prometheus.DefBuckets,
	})
)
