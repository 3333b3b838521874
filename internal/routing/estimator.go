package routing

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/ridemeter/internal/geo"
	"github.com/richxcame/ridemeter/internal/traffic"
	"github.com/richxcame/ridemeter/pkg/logger"
	"github.com/richxcame/ridemeter/pkg/resilience"
	"github.com/richxcame/ridemeter/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// UrbanDetourFactor converts straight-line distance into road distance
	UrbanDetourFactor = 1.9
	// SafetyBuffer pads every duration estimate by 4%
	SafetyBuffer = 1.04
	// MinDistanceKm is the smallest distance ever reported
	MinDistanceKm = 0.1

	shortTripKm          = 2.0
	longTripKm           = 10.0
	shortTripSpeedFactor = 0.75
	longTripSpeedFactor  = 1.1

	defaultProviderTimeout = 5 * time.Second
)

// Source says where the distance came from
type Source string

const (
	SourceProvider Source = "provider"
	SourceFallback Source = "fallback"
)

// RouteEstimate is the estimator output
type RouteEstimate struct {
	DistanceKm    float64          `json:"distance_km"`
	DurationMin   int              `json:"duration_min"`
	Source        Source           `json:"source"`
	DistanceText  string           `json:"distance_text"`
	DurationText  string           `json:"duration_text"`
	TrafficBucket traffic.BucketID `json:"traffic_bucket"`
}

var fallbackTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ridemeter_route_estimate_fallbacks_total",
		Help: "Route estimates computed with the geometric fallback",
	},
	[]string{"reason"},
)

// Estimator combines a routing provider with the traffic model
type Estimator struct {
	provider Provider
	traffic  *traffic.Model
	breaker  *resilience.CircuitBreaker
	timeout  time.Duration
	now      func() time.Time
}

// Option customizes an Estimator
type Option func(*Estimator)

// WithClock overrides the wall clock used for traffic lookups
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

// WithTimeout overrides the per-call provider timeout
func WithTimeout(d time.Duration) Option {
	return func(e *Estimator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEstimator creates an estimator. provider and breaker may be nil.
func NewEstimator(provider Provider, model *traffic.Model, breaker *resilience.CircuitBreaker, opts ...Option) *Estimator {
	if provider == nil {
		provider = NoopProvider{}
	}
	e := &Estimator{
		provider: provider,
		traffic:  model,
		breaker:  breaker,
		timeout:  defaultProviderTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EstimateRoute returns distance and duration between from and to. Provider
// failures are absorbed by the Haversine fallback; only invalid coordinates
// produce an error.
func (e *Estimator) EstimateRoute(ctx context.Context, from, to geo.LatLng) (*RouteEstimate, error) {
	if err := from.Validate(); err != nil {
		return nil, err
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer("routing").Start(ctx, "Estimator.EstimateRoute")
	defer span.End()

	source := SourceProvider
	distanceKm, err := e.providerDistance(ctx, from, to)
	if err != nil {
		source = SourceFallback
		reason := fallbackReason(err)
		fallbackTotal.WithLabelValues(reason).Inc()
		logger.WithContext(ctx).Warn("routing provider unavailable, using geometric estimate",
			zap.String("reason", reason),
			zap.Error(err),
		)
		distanceKm = geo.HaversineKm(from, to) * UrbanDetourFactor
	}

	distanceKm = math.Max(MinDistanceKm, math.Round(distanceKm*100)/100)
	duration, congestion := e.DurationFor(distanceKm, e.now())

	span.SetAttributes(
		attribute.String("route.source", string(source)),
		attribute.Float64("route.distance_km", distanceKm),
		attribute.Int("route.duration_min", duration),
	)

	return &RouteEstimate{
		DistanceKm:    distanceKm,
		DurationMin:   duration,
		Source:        source,
		DistanceText:  FormatDistance(distanceKm),
		DurationText:  FormatDuration(duration),
		TrafficBucket: congestion.Bucket,
	}, nil
}

// DurationFor applies the traffic-aware duration formula at time at
func (e *Estimator) DurationFor(distanceKm float64, at time.Time) (int, traffic.Congestion) {
	congestion := e.traffic.CongestionFor(at)
	return DurationMinutes(distanceKm, congestion.AverageSpeedKmh), congestion
}

// DurationMinutes is the pure duration formula: short trips are slowed, long
// trips use faster arterials, and the result is padded and floored at 1.
func DurationMinutes(distanceKm, speedKmh float64) int {
	speed := speedKmh
	switch {
	case distanceKm < shortTripKm:
		speed *= shortTripSpeedFactor
	case distanceKm > longTripKm:
		speed *= longTripSpeedFactor
	}
	if speed <= 0 {
		return 1
	}

	minutes := int(math.Round(distanceKm / speed * 60 * SafetyBuffer))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// providerDistance asks the provider for the road distance. The provider's
// own duration is discarded because it reflects free-flow conditions.
func (e *Estimator) providerDistance(ctx context.Context, from, to geo.LatLng) (float64, error) {
	call := func(ctx context.Context) (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		return e.provider.GetDirections(callCtx, from, to)
	}

	var (
		result interface{}
		err    error
	)
	if e.breaker != nil {
		result, err = e.breaker.Execute(ctx, call)
	} else {
		result, err = call(ctx)
	}
	if err != nil {
		return 0, err
	}

	dir, ok := result.(*Directions)
	if !ok || dir == nil || dir.DistanceKm <= 0 || math.IsNaN(dir.DistanceKm) || math.IsInf(dir.DistanceKm, 0) {
		return 0, errInvalidDistance
	}
	return dir.DistanceKm, nil
}

var errInvalidDistance = errors.New("provider returned a non-finite or non-positive distance")

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrProviderDisabled):
		return "disabled"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrNoRoute):
		return "no_route"
	case errors.Is(err, errInvalidDistance):
		return "invalid_distance"
	default:
		return "error"
	}
}
