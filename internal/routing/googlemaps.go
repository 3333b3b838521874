package routing

import (
	"context"
	"fmt"

	"github.com/richxcame/ridemeter/internal/geo"
	"googlemaps.github.io/maps"
)

// directionsAPI is the slice of *maps.Client the provider uses
type directionsAPI interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// GoogleMapsProvider queries the Google Directions API in driving mode
type GoogleMapsProvider struct {
	client directionsAPI
}

// NewGoogleMapsProvider creates a provider with the given API key
func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleMapsProvider{client: client}, nil
}

// GetDirections implements Provider
func (p *GoogleMapsProvider) GetDirections(ctx context.Context, from, to geo.LatLng) (*Directions, error) {
	r := &maps.DirectionsRequest{
		Origin:      from.String(),
		Destination: to.String(),
		Mode:        maps.TravelModeDriving,
		Language:    "fr",
		Region:      "cd",
	}

	routes, _, err := p.client.Directions(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, ErrNoRoute
	}

	var meters int
	var seconds float64
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		seconds += leg.Duration.Seconds()
	}

	return &Directions{
		DistanceKm:  float64(meters) / 1000,
		DurationMin: seconds / 60,
	}, nil
}
