package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	OperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cryptoinsight",
			Subsystem: "insight",
			Name:      "latency_seconds",
			Help:      "Latency of insight operations served over HTTP",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	OperationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cryptoinsight",
			Subsystem: "insight",
			Name:      "errors_total",
			Help:      "Failed insight operations by kind",
		},
		[]string{"operation", "kind"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cryptoinsight",
			Subsystem: "insight",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		},
	)
)

// Register adds the collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(OperationLatency, OperationErrors, RateLimited)
	})
}
