package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache reads answered from the store, by key kind.",
	}, []string{"kind"})
	cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache reads that found no entry, by key kind.",
	}, []string{"kind"})
	cacheErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "cache",
		Name:      "errors_total",
		Help:      "Store or codec failures swallowed by the cache, by operation.",
	}, []string{"op"})
)

// Collectors returns the cache metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{cacheHits, cacheMisses, cacheErrors}
}
