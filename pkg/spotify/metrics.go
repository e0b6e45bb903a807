package spotify

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "spotify",
		Name:      "operations_total",
		Help:      "Catalog operations by final outcome.",
	}, []string{"op", "outcome"})
	retriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "spotify",
		Name:      "retries_total",
		Help:      "Retried catalog attempts by reason.",
	}, []string{"op", "reason"})
	backoffSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pulse",
		Subsystem: "spotify",
		Name:      "backoff_seconds",
		Help:      "Delay applied before retrying a catalog attempt.",
		Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 30},
	}, []string{"op"})
	tokenRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "spotify",
		Name:      "token_refreshes_total",
		Help:      "Client-credentials exchanges by outcome.",
	}, []string{"outcome"})
)

// Collectors returns the catalog client metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{requestsTotal, retriesTotal, backoffSeconds, tokenRefreshes}
}
