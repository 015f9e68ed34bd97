package session

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts lifecycle outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	events *prometheus.CounterVec
	swept  prometheus.Counter
}

// Event labels.
const (
	eventIssued      = "issued"
	eventValidated   = "validated"
	eventRenewed     = "renewed"
	eventExpired     = "expired"
	eventMissing     = "missing"
	eventInvalidated = "invalidated"
	eventStoreError  = "store_error"
)

// NewMetrics registers session collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authd",
			Subsystem: "session",
			Name:      "events_total",
			Help:      "Session lifecycle outcomes by event.",
		}, []string{"event"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "authd",
			Subsystem: "session",
			Name:      "swept_total",
			Help:      "Expired sessions removed by the background sweep.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.events, m.swept} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
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

func (m *Metrics) addSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.swept.Add(float64(n))
}
