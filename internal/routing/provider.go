// Package routing turns two coordinates into a traffic-aware distance and
// duration estimate.
package routing

import (
	"context"
	"errors"

	"github.com/richxcame/ridemeter/internal/geo"
)

var (
	// ErrNoRoute is returned when the provider finds no drivable route
	ErrNoRoute = errors.New("no route found")
	// ErrProviderDisabled is returned by NoopProvider
	ErrProviderDisabled = errors.New("routing provider disabled")
)

// Directions is the raw provider answer
type Directions struct {
	DistanceKm  float64
	DurationMin float64
}

// Provider looks up road directions between two points
type Provider interface {
	GetDirections(ctx context.Context, from, to geo.LatLng) (*Directions, error)
}

// NoopProvider always fails so the estimator uses its geometric fallback
type NoopProvider struct{}

// GetDirections implements Provider
func (NoopProvider) GetDirections(ctx context.Context, from, to geo.LatLng) (*Directions, error) {
	return nil, ErrProviderDisabled
}
