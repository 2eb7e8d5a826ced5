package refresher

import (
	"github.com/mykube-run/krefresh/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcomes
const (
	OutcomeIrrelevant = "irrelevant"
	OutcomeRejected   = "rejected"
	OutcomeRefreshed  = "refreshed"
	OutcomeFailed     = "failed"
)

// Metrics counts dispatched events by channel and outcome. A nil *Metrics records nothing.
type Metrics struct {
	events *prometheus.CounterVec
}

// NewMetrics registers dispatch metrics on reg, prometheus.DefaultRegisterer is used when reg is nil
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dispatch",
		Name:      "events_total",
		Help:      "Config change events received by the refresh dispatcher, by channel and outcome.",
	}, []string{"channel", "outcome"})
	return &Metrics{events: events}
}

// Counter returns the counter for given channel and outcome
func (m *Metrics) Counter(ch types.Channel, outcome string) prometheus.Counter {
	return m.events.WithLabelValues(string(ch), outcome)
}

func (m *Metrics) observe(ch types.Channel, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.Counter(ch, outcome).Inc()
}
