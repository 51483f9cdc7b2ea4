package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agn"

// Metrics groups the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	retrieval       *prometheus.CounterVec
	synthesis       *prometheus.CounterVec
	normalization   *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	sessionsEvicted prometheus.Counter
	queryDuration   prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: path (vector, fallback)
		retrieval: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_total",
			Help:      "Retrievals by the path that produced the result",
		}, []string{"path"}),

		// Labels: path (generated, templated, apology)
		synthesis: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_total",
			Help:      "Answers by synthesis tier",
		}, []string{"path"}),

		// Labels: result (normalized, raw, skipped)
		normalization: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalization_total",
			Help:      "Query normalization outcomes",
		}, []string{"result"}),

		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory",
		}),

		sessionsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Sessions removed by the idle sweep",
		}),

		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end query processing latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
}

func (m *Metrics) Retrieval(path string) {
	if m == nil {
		return
	}
	m.retrieval.WithLabelValues(path).Inc()
}

func (m *Metrics) Synthesis(path string) {
	if m == nil {
		return
	}
	m.synthesis.WithLabelValues(path).Inc()
}

func (m *Metrics) Normalization(result string) {
	if m == nil {
		return
	}
	m.normalization.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionsActive(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

func (m *Metrics) SessionsEvicted(n int) {
	if m == nil {
		return
	}
	m.sessionsEvicted.Add(float64(n))
}

func (m *Metrics) ObserveQuery(d time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.Observe(d.Seconds())
}
