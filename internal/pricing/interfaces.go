package pricing

import (
	"context"
	"time"

	"github.com/richxcame/ridemeter/internal/currency"
	"github.com/richxcame/ridemeter/internal/geo"
	"github.com/richxcame/ridemeter/internal/routing"
	"github.com/richxcame/ridemeter/internal/tariffs"
)

// RouteEstimator is implemented by *routing.Estimator
type RouteEstimator interface {
	EstimateRoute(ctx context.Context, from, to geo.LatLng) (*routing.RouteEstimate, error)
}

// Clock resolves the tariff time of day; implemented by *traffic.Model
type Clock interface {
	TimeOfDayAt(t time.Time) tariffs.TimeOfDay
}

// RateProvider hands out exchange-rate snapshots; implemented by *currency.Refresher
type RateProvider interface {
	Current() currency.Snapshot
}
