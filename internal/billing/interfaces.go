package billing

import (
	"context"
	"time"

	"github.com/richxcame/ridemeter/internal/pricing"
	"github.com/richxcame/ridemeter/internal/tariffs"
)

// Pricer prices the hourly-slot surcharge; implemented by *pricing.Service
type Pricer interface {
	Surcharge(category tariffs.VehicleCategory, tod tariffs.TimeOfDay, elapsedSeconds int64) float64
}

// Settler computes the final fare; implemented by *pricing.Service and by
// *rides.Client for remote drivers
type Settler interface {
	Settle(ctx context.Context, req pricing.SettleRequest) (*pricing.Settlement, error)
}

// TariffClock fixes the tariff time of day at ride start
type TariffClock interface {
	TimeOfDayAt(t time.Time) tariffs.TimeOfDay
}

// Publisher sends billing events; implemented by *eventbus.Bus
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

// Subscriber receives billing events; implemented by *eventbus.Bus
type Subscriber interface {
	Subscribe(subject string, handler func([]byte)) (func() error, error)
}
