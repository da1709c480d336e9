package collector

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics owns the collector's Prometheus collectors.
type metrics struct {
	received  *prometheus.CounterVec
	malformed prometheus.Counter
}

// newMetrics registers the collectors against reg.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &metrics{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "errbeacon_payloads_received_total",
			Help: "Payloads received partitioned by capture point.",
		}, []string{"type"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "errbeacon_payloads_malformed_total",
			Help: "Inbound bodies that did not parse as a payload.",
		}),
	}
	for _, c := range []prometheus.Collector{m.received, m.malformed} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector metrics: %w", err)
		}
	}
	return m, nil
}
