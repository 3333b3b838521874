package billing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridemeter_billing_activations_total",
			Help: "Billing activations by mode (auto, manual)",
		},
		[]string{"mode"},
	)

	duplicateActivationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ridemeter_billing_duplicate_activations_total",
			Help: "Activation attempts ignored because billing was already active",
		},
	)

	settlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridemeter_billing_settlements_total",
			Help: "Settled rides, labelled by whether the fare was clamped at zero",
		},
		[]string{"clamped"},
	)

	pollFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ridemeter_billing_poll_failures_total",
			Help: "Failed passenger ride polls",
		},
	)
)

func activationMode(manual bool) string {
	if manual {
		return "manual"
	}
	return "auto"
}
