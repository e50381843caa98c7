package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coalesce_parsing_seconds",
		Help:    "Time spent parsing a PHP source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"level"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coalesce_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	FilesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coalesce_files_analyzed_total",
		Help: "Total number of files analyzed, by outcome.",
	}, []string{"outcome"})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coalesce_findings_total",
		Help: "Total number of null coalescing findings reported, by pattern.",
	}, []string{"pattern"})

	FixesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coalesce_fixes_total",
		Help: "Total number of quick-fixes attempted, by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coalesce_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coalesce_watcher_throttled_total",
		Help: "Total number of rescans skipped by the per-file rate limiter.",
	})

	HistoryRunsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coalesce_history_runs",
		Help: "Number of scan runs currently kept in the history store.",
	})
)
