package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/pricing"
	"github.com/richxcame/ridemeter/internal/rides"
	"github.com/richxcame/ridemeter/internal/tariffs"
)

// Snapshot is what a client renders each tick
type Snapshot struct {
	RideID                   uuid.UUID    `json:"ride_id"`
	RideStatus               rides.Status `json:"ride_status"`
	State                    State        `json:"state"`
	WaitingRemainingSeconds  int64        `json:"waiting_remaining_seconds"`
	WaitingTimeFrozenSeconds *int64       `json:"waiting_time_frozen_seconds,omitempty"`
	BillingStartTime         *time.Time   `json:"billing_start_time,omitempty"`
	Projected                bool         `json:"projected,omitempty"` // billing start inferred from the free window
	ElapsedSeconds           int64        `json:"elapsed_seconds"`
	ExtraHours               int          `json:"extra_hours"`
	EstimatedPrice           float64      `json:"estimated_price"`
	Surcharge                float64      `json:"surcharge"`
	CurrentTotal             float64      `json:"current_total"`
	FinalPrice               *float64     `json:"final_price,omitempty"`
	Currency                 string       `json:"currency"`
	Degraded                 bool         `json:"degraded,omitempty"`
	LastSyncedAt             *time.Time   `json:"last_synced_at,omitempty"`
}

// SnapshotFor derives the meter view of ride at now. A ride whose free
// window ran out before the driver's activation reached the record is shown
// as billing from the end of the window, flagged Projected.
func SnapshotFor(ride *rides.Ride, now time.Time, freeWindow time.Duration, pricer Pricer) Snapshot {
	m := RestoreMeter(ride, freeWindow)
	projected := false
	if ride.Status == rides.StatusInProgress && m.ShouldAutoActivate(now) {
		projected, _ = m.Activate(now, false)
	}
	snap := m.snapshot(ride, now, pricer)
	snap.Projected = projected
	return snap
}

func (m *Meter) snapshot(ride *rides.Ride, now time.Time, pricer Pricer) Snapshot {
	s := Snapshot{
		RideID:         ride.ID,
		RideStatus:     ride.Status,
		State:          m.state,
		EstimatedPrice: ride.EstimatedPrice,
		Currency:       ride.Currency,
	}

	remaining := m.WaitingRemaining(now)
	s.WaitingRemainingSeconds = int64((remaining + time.Second - 1) / time.Second)

	if start, ok := m.BillingStart(); ok {
		s.BillingStartTime = &start
		frozen, _ := m.WaitingTimeFrozen()
		secs := int64(frozen / time.Second)
		s.WaitingTimeFrozenSeconds = &secs
	}

	s.ElapsedSeconds = m.Elapsed(now)
	s.ExtraHours = pricing.ExtraHours(s.ElapsedSeconds)
	if pricer != nil {
		s.Surcharge = pricer.Surcharge(ride.VehicleCategory, timeOfDayFor(ride), s.ElapsedSeconds)
	}
	s.CurrentTotal = ride.EstimatedPrice + s.Surcharge

	if ride.FinalPrice != nil {
		final := *ride.FinalPrice
		s.FinalPrice = &final
		s.CurrentTotal = final
	}
	return s
}

// SettleRequestFor builds the settlement input for a ride billed for
// elapsedSeconds
func SettleRequestFor(ride *rides.Ride, elapsedSeconds int64) pricing.SettleRequest {
	req := pricing.SettleRequest{
		RideID:         ride.ID,
		Category:       ride.VehicleCategory,
		TimeOfDay:      timeOfDayFor(ride),
		EstimatedPrice: ride.EstimatedPrice,
		ElapsedSeconds: elapsedSeconds,
	}
	if ride.RiderID != uuid.Nil {
		rider := ride.RiderID
		req.RiderID = &rider
	}
	if ride.PromoCode != nil {
		req.PromoCode = *ride.PromoCode
	}
	return req
}

// timeOfDayFor is the tariff fixed at ride start; day when it was never
// recorded
func timeOfDayFor(ride *rides.Ride) tariffs.TimeOfDay {
	if ride.TimeOfDayAtStart != nil && *ride.TimeOfDayAtStart != "" {
		return *ride.TimeOfDayAtStart
	}
	return tariffs.Day
}
