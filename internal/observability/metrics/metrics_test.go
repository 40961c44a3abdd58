package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestEngineMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)
	m.ObserveRefresh("new-appointments", "ok")
	m.ObserveRefresh("new-appointments", "transport_error")
	m.ObserveRefreshLatency("new-appointments", 0.05)
	m.ObserveTransition("APPROVED", "accepted")
	m.ObserveStale()
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var m *EngineMetrics
	m.ObserveRefresh("view", "ok")
	m.ObserveRefreshLatency("view", 0.1)
	m.ObserveTransition("DONE", "rejected")
	m.ObserveStale()
}
