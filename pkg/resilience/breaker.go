package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Settings configures a CircuitBreaker.
type Settings struct {
	Name             string
	Interval         time.Duration // window after which closed-state counts reset
	Timeout          time.Duration // time spent open before probing again
	FailureThreshold uint32        // consecutive failures that trip the breaker
	SuccessThreshold uint32        // probes allowed while half-open
}

// CircuitBreaker wraps gobreaker with metrics and a fallback hook.
type CircuitBreaker struct {
	name     string
	breaker  *gobreaker.CircuitBreaker
	fallback FallbackFunc
	metrics  *breakerMetrics
}

// NewCircuitBreaker builds a breaker. A nil fallback behaves like NoopFallback.
// Breakers sharing a name share their metric series.
func NewCircuitBreaker(settings Settings, fallback FallbackFunc) *CircuitBreaker {
	name := settings.Name
	if name == "" {
		name = "default"
	}
	if fallback == nil {
		fallback = NoopFallback
	}

	failureThreshold := settings.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = DefaultFailureThreshold
	}
	maxRequests := settings.SuccessThreshold
	if maxRequests == 0 {
		maxRequests = 1
	}

	cb := &CircuitBreaker{name: name, fallback: fallback, metrics: newBreakerMetrics(name)}
	cb.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			cb.metrics.transition(from, to)
		},
	})

	return cb
}

// Name returns the breaker name used in metrics.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Execute runs op through the breaker. When the breaker is open the fallback
// decides the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return op(ctx)
	})
	if err == nil {
		cb.metrics.observe(outcomeSuccess)
		return result, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		cb.metrics.observe(outcomeRejected)
		return cb.fallback(ctx, err)
	}

	cb.metrics.observe(outcomeFailure)
	return nil, err
}
