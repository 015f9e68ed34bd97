package verify

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts verification outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	events *prometheus.CounterVec
}

const (
	eventIssued     = "issued"
	eventConsumed   = "consumed"
	eventInvalid    = "invalid"
	eventExpired    = "expired"
	eventMailFailed = "mail_failed"
	eventStoreError = "store_error"
)

// NewMetrics registers the verification counter on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authd",
			Subsystem: "verify",
			Name:      "events_total",
			Help:      "Email verification outcomes by event.",
		}, []string{"event"}),
	}
	if reg != nil {
		if err := reg.Register(m.events); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) inc(event string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event).Inc()
}
