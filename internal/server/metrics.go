package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are registered on a per-server registry so several servers can
// live in one process.
type metrics struct {
	registry   *prometheus.Registry
	updates    *prometheus.CounterVec
	renders    *prometheus.CounterVec
	broadcasts prometheus.Counter
	hubClients prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &metrics{
		registry: reg,
		updates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loadtracker_updates_total",
			Help: "Total load updates by result",
		}, []string{"result"}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loadtracker_renders_total",
			Help: "Total fragments rendered by kind",
		}, []string{"kind"}),
		broadcasts: f.NewCounter(prometheus.CounterOpts{
			Name: "loadtracker_broadcasts_total",
			Help: "Total rowUpdated messages sent to hub clients",
		}),
		hubClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "loadtracker_hub_clients",
			Help: "Connected push hub clients",
		}),
	}
}
