package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "impactgraph_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ParseOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "impactgraph_parse_outcomes_total",
		Help: "Parse results by outcome (ok, parse_failed, no_parser).",
	}, []string{"outcome"})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "impactgraph_graph_nodes_total",
		Help: "Total number of nodes in the published dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "impactgraph_graph_edges_total",
		Help: "Total number of edges in the published dependency graph.",
	})

	SnapshotVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "impactgraph_snapshot_version",
		Help: "Version of the currently published graph snapshot.",
	})

	BuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "impactgraph_build_seconds",
		Help:    "Time spent producing a graph snapshot.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "impactgraph_cache_hits_total",
		Help: "Parse cache lookups served from memory.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "impactgraph_cache_misses_total",
		Help: "Parse cache lookups that required a parse.",
	})

	CacheMismatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "impactgraph_cache_fingerprint_mismatches_total",
		Help: "Parse cache entries discarded because the content fingerprint changed.",
	})

	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "impactgraph_cache_evictions_total",
		Help: "Parse cache entries evicted by the LRU policy.",
	})

	ImpactScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "impactgraph_impact_score",
		Help:    "Distribution of aggregate impact scores.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	ImpactDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "impactgraph_impact_seconds",
		Help:    "Time spent computing an impact result.",
		Buckets: prometheus.DefBuckets,
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "impactgraph_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "impactgraph_watcher_dropped_total",
		Help: "Watcher flushes deferred by the rate limiter.",
	})
)
