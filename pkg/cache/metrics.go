package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheRequests tracks Get calls by store kind and outcome
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nba_cache_requests_total",
			Help: "Total number of cache lookups by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: hit, refreshed, stale, failed
	)

	// CacheFetchDuration tracks upstream fetch latency triggered by the cache
	CacheFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nba_cache_fetch_duration_seconds",
			Help:    "Duration of cache refresh fetches by kind",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"kind"},
	)

	// CacheEntries tracks the number of stored entries per kind
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nba_cache_entries",
			Help: "Current number of cache entries by kind",
		},
		[]string{"kind"},
	)
)
