package cacheinfra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookupsTotal counts reads by outcome (hit, stale, miss)
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagecache_store_lookups_total",
			Help: "Total number of store lookups by outcome",
		},
		[]string{"outcome"},
	)

	// fetchesTotal counts loader invocations by result (success, error)
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagecache_store_fetches_total",
			Help: "Total number of loader invocations by result",
		},
		[]string{"result"},
	)

	dedupedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagecache_store_deduplicated_total",
			Help: "Total number of fetches that shared an in-flight request",
		},
	)

	invalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagecache_store_invalidated_entries_total",
			Help: "Total number of entries marked stale by invalidation",
		},
	)

	inflightGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagecache_store_inflight_fetches",
			Help: "Number of loader invocations currently running",
		},
	)
)
