package capability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lingopad_capability_invocations_total",
				Help: "Capability invocations by outcome",
			},
			[]string{"capability", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lingopad_capability_duration_seconds",
				Help:    "Capability invocation latency, including detection and provisioning waits",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"capability"},
		),
	}
	if reg == nil {
		return m, nil
	}

	if err := reg.Register(m.invocations); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.invocations = are.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(m.duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	return m, nil
}

// outcome labels an invocation result.
func outcome(err error) string {
	var unavailable *UnavailableError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &unavailable):
		return "unavailable"
	default:
		return "error"
	}
}
