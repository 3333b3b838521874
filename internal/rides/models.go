package rides

import (
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/tariffs"
)

// Status is the ride lifecycle state
type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// transitions lists the statuses reachable from each status
var transitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusWaiting, StatusInProgress, StatusCancelled},
	StatusWaiting:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a ride may move from one status to another.
// Re-applying the current status is allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Ride is the shared ride record. The driver client owns every billing field;
// the passenger client only reads.
type Ride struct {
	ID                       uuid.UUID               `json:"id"`
	RiderID                  uuid.UUID               `json:"rider_id"`
	DriverID                 *uuid.UUID              `json:"driver_id,omitempty"`
	VehicleCategory          tariffs.VehicleCategory `json:"vehicle_category"`
	ServiceType              string                  `json:"service_type"`
	EstimatedPrice           float64                 `json:"estimated_price"`
	Currency                 string                  `json:"currency"`
	DistanceKm               float64                 `json:"distance_km"`
	EstimatedDurationMin     int                     `json:"estimated_duration_min"`
	PickupTime               time.Time               `json:"pickup_time"`
	StartedAt                *time.Time              `json:"started_at,omitempty"`
	TimeOfDayAtStart         *tariffs.TimeOfDay      `json:"time_of_day_at_start,omitempty"`
	BillingStartTime         *time.Time              `json:"billing_start_time,omitempty"`
	BillingElapsedSeconds    int64                   `json:"billing_elapsed_seconds"`
	WaitingTimeFrozenSeconds *int64                  `json:"waiting_time_frozen_seconds,omitempty"`
	PromoCode                *string                 `json:"promo_code,omitempty"`
	Status                   Status                  `json:"status"`
	FinalPrice               *float64                `json:"final_price,omitempty"`
	CreatedAt                time.Time               `json:"created_at"`
	UpdatedAt                time.Time               `json:"updated_at"`
}

// IsBilling reports whether the metered clock has been activated
func (r *Ride) IsBilling() bool {
	return r.BillingStartTime != nil
}

// Patch is a partial update of a ride. Nil fields are left untouched.
// BillingStartTime, StartedAt and WaitingTimeFrozenSeconds are write-once.
type Patch struct {
	Status                   *Status            `json:"status,omitempty" validate:"omitempty,ride_status"`
	DriverID                 *uuid.UUID         `json:"driver_id,omitempty"`
	StartedAt                *time.Time         `json:"started_at,omitempty"`
	TimeOfDayAtStart         *tariffs.TimeOfDay `json:"time_of_day_at_start,omitempty" validate:"omitempty,oneof=day night"`
	BillingStartTime         *time.Time         `json:"billing_start_time,omitempty"`
	BillingElapsedSeconds    *int64             `json:"billing_elapsed_seconds,omitempty" validate:"omitempty,gte=0"`
	WaitingTimeFrozenSeconds *int64             `json:"waiting_time_frozen_seconds,omitempty" validate:"omitempty,gte=0"`
	FinalPrice               *float64           `json:"final_price,omitempty" validate:"omitempty,gte=0"`
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.DriverID == nil && p.StartedAt == nil && p.TimeOfDayAtStart == nil &&
		p.BillingStartTime == nil && p.BillingElapsedSeconds == nil && p.WaitingTimeFrozenSeconds == nil &&
		p.FinalPrice == nil
}

// NewRide is the input of Repository.CreateRide
type NewRide struct {
	RiderID              uuid.UUID
	VehicleCategory      tariffs.VehicleCategory
	ServiceType          string
	EstimatedPrice       float64
	Currency             string
	DistanceKm           float64
	EstimatedDurationMin int
	PickupTime           time.Time
	PromoCode            *string
}
