package projection

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are the Prometheus counters the engine reports per
// projection. Registered against the registerer passed to
// WithMetricsRegisterer (engineProvider passes
// prometheus.DefaultRegisterer); an Engine built without that option
// keeps no metrics.
type metrics struct {
	eventsApplied *prometheus.CounterVec
	eventsFailed  *prometheus.CounterVec
	rebuildsTotal *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		eventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authcore",
			Subsystem: "projection",
			Name:      "events_applied_total",
			Help:      "Events successfully applied by a projection handler.",
		}, []string{"projection"}),
		eventsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authcore",
			Subsystem: "projection",
			Name:      "events_failed_total",
			Help:      "Events that failed to apply and were recorded in failed_events.",
		}, []string{"projection"}),
		rebuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authcore",
			Subsystem: "projection",
			Name:      "rebuilds_total",
			Help:      "Full Rebuild runs started per projection.",
		}, []string{"projection"}),
	}
	if reg != nil {
		reg.MustRegister(m.eventsApplied, m.eventsFailed, m.rebuildsTotal)
	}
	return m
}
