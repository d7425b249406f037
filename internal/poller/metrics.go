package poller

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the poller's operational counters for Prometheus scrapes.
type Metrics struct {
	registry *prometheus.Registry

	cycleDuration prometheus.Gauge
	activeTickets prometheus.Gauge
	cacheFailures prometheus.Counter
	archivedTotal prometheus.Counter
	newTotal      prometheus.Counter
}

// NewMetrics builds and registers the poller metric set on its own registry
// so tests can run several side by side.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycleDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "beacon_poll_cycle_duration_seconds",
			Help: "Wall time of the most recent poll cycle.",
		}),
		activeTickets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "beacon_active_tickets",
			Help: "Tickets cached by the most recent poll cycle.",
		}),
		cacheFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_ticket_fetch_failures_total",
			Help: "Tickets excluded from a cycle because their detail fetch or write failed.",
		}),
		archivedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_tickets_archived_total",
			Help: "Tickets moved to the dated archive because they left the active set.",
		}),
		newTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_tickets_new_total",
			Help: "Tickets seen for the first time.",
		}),
	}
	m.registry.MustRegister(m.cycleDuration, m.activeTickets, m.cacheFailures, m.archivedTotal, m.newTotal)
	return m
}

// RecordCycle folds one cycle's stats into the metric set.
func (m *Metrics) RecordCycle(stats CycleStats) {
	m.cycleDuration.Set(stats.Duration.Seconds())
	m.activeTickets.Set(float64(stats.Cached))
	m.cacheFailures.Add(float64(stats.Failed))
	m.archivedTotal.Add(float64(stats.Archived))
	m.newTotal.Add(float64(stats.New))
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return mux
}
