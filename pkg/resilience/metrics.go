package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

// Call outcomes as seen from the caller of Execute
const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeRejected = "rejected"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ridemeter_circuit_breaker_state",
		Help: "Breaker state per dependency: 0 closed, 0.5 half-open, 1 open",
	}, []string{"breaker"})

	breakerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridemeter_circuit_breaker_calls_total",
		Help: "Calls made through a breaker by outcome; rejected calls went to the fallback",
	}, []string{"breaker", "outcome"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridemeter_circuit_breaker_transitions_total",
		Help: "Breaker state transitions",
	}, []string{"breaker", "from", "to"})
)

var stateValues = map[gobreaker.State]float64{
	gobreaker.StateClosed:   0,
	gobreaker.StateHalfOpen: 0.5,
	gobreaker.StateOpen:     1,
}

// breakerMetrics holds the series of one named breaker
type breakerMetrics struct {
	name  string
	state prometheus.Gauge
	calls map[string]prometheus.Counter
}

func newBreakerMetrics(name string) *breakerMetrics {
	m := &breakerMetrics{
		name:  name,
		state: breakerState.WithLabelValues(name),
		calls: make(map[string]prometheus.Counter, 3),
	}
	for _, outcome := range []string{outcomeSuccess, outcomeFailure, outcomeRejected} {
		m.calls[outcome] = breakerCalls.WithLabelValues(name, outcome)
	}
	m.state.Set(stateValues[gobreaker.StateClosed])
	return m
}

func (m *breakerMetrics) transition(from, to gobreaker.State) {
	breakerTransitions.WithLabelValues(m.name, from.String(), to.String()).Inc()
	m.state.Set(stateValues[to])
}

func (m *breakerMetrics) observe(outcome string) {
	m.calls[outcome].Inc()
}
