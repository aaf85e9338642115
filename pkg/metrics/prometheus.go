package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	sourceFetches  *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	synthesisTotal *prometheus.CounterVec
	synthesisDur   *prometheus.HistogramVec
	activeSessions prometheus.Gauge
	lastPrice      *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder registered on reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		sourceFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptoinsight_source_fetches_total",
				Help: "Upstream data source calls by outcome",
			},
			[]string{"source", "outcome"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptoinsight_cache_lookups_total",
				Help: "Response cache lookups by class and result",
			},
			[]string{"class", "hit"},
		),
		synthesisTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptoinsight_synthesis_total",
				Help: "Text backend invocations by agent and outcome",
			},
			[]string{"agent", "outcome"},
		),
		synthesisDur: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptoinsight_synthesis_duration_seconds",
				Help:    "Duration of text backend calls in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"agent"},
		),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "cryptoinsight_active_sessions",
			Help: "Live conversational sessions",
		}),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cryptoinsight_last_price_usd",
				Help: "Last observed USD price for a symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordSourceFetch counts one upstream call ("ok", "unavailable", "error").
func (r *Recorder) RecordSourceFetch(source, outcome string) {
	r.sourceFetches.WithLabelValues(source, outcome).Inc()
}

// RecordCacheLookup counts a cache hit or miss for a TTL class.
func (r *Recorder) RecordCacheLookup(class string, hit bool) {
	r.cacheLookups.WithLabelValues(class, strconv.FormatBool(hit)).Inc()
}

// RecordSynthesis records a backend call outcome and its latency.
func (r *Recorder) RecordSynthesis(agent, outcome string, seconds float64) {
	r.synthesisTotal.WithLabelValues(agent, outcome).Inc()
	r.synthesisDur.WithLabelValues(agent).Observe(seconds)
}

func (r *Recorder) RecordActiveSessions(n int) {
	r.activeSessions.Set(float64(n))
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordSourceFetch(string, string)        {}
func (Nop) RecordCacheLookup(string, bool)          {}
func (Nop) RecordSynthesis(string, string, float64) {}
func (Nop) RecordActiveSessions(int)                {}
func (Nop) RecordLastPrice(string, float64)         {}
