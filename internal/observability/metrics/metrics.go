package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for the reconciliation engine.
type EngineMetrics struct {
	refreshTotal    *prometheus.CounterVec
	refreshLatency  *prometheus.HistogramVec
	transitionTotal *prometheus.CounterVec
	staleDetected   prometheus.Counter
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "views",
			Name:      "refresh_total",
			Help:      "Total view refresh attempts",
		}, []string{"view", "outcome"}),
		refreshLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "frontdesk",
			Subsystem: "views",
			Name:      "refresh_latency_seconds",
			Help:      "Latency of view snapshot fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"view"}),
		transitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "appointments",
			Name:      "transition_total",
			Help:      "Total appointment transition requests",
		}, []string{"target", "outcome"}),
		staleDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "views",
			Name:      "stale_detected_total",
			Help:      "Mutations refused because the local snapshot was stale",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.refreshTotal, m.refreshLatency, m.transitionTotal, m.staleDetected)
	return m
}

func (m *EngineMetrics) ObserveRefresh(view, outcome string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(view, outcome).Inc()
}

func (m *EngineMetrics) ObserveRefreshLatency(view string, seconds float64) {
	if m == nil {
		return
	}
	m.refreshLatency.WithLabelValues(view).Observe(seconds)
}

func (m *EngineMetrics) ObserveTransition(target, outcome string) {
	if m == nil {
		return
	}
	m.transitionTotal.WithLabelValues(target, outcome).Inc()
}

func (m *EngineMetrics) ObserveStale() {
	if m == nil {
		return
	}
	m.staleDetected.Inc()
}
