package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/pkg/logger"
	"go.uber.org/zap"
)

// EventType names a billing lifecycle event
type EventType string

const (
	EventRideStarted      EventType = "ride.started"
	EventBillingActivated EventType = "billing.activated"
	EventRideCompleted    EventType = "ride.completed"
)

// Event is published on every driver-side transition. Passengers treat it as
// a hint to poll now; the ride record stays the source of truth.
type Event struct {
	Type             EventType  `json:"type"`
	RideID           uuid.UUID  `json:"ride_id"`
	At               time.Time  `json:"at"`
	BillingStartTime *time.Time `json:"billing_start_time,omitempty"`
	ElapsedSeconds   int64      `json:"elapsed_seconds"`
	FinalPrice       *float64   `json:"final_price,omitempty"`
	Manual           bool       `json:"manual,omitempty"`
}

// Subject is the per-ride event subject
func Subject(rideID uuid.UUID) string {
	return "billing." + rideID.String()
}

func publish(ctx context.Context, p Publisher, ev Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, Subject(ev.RideID), ev); err != nil {
		logger.WithContext(ctx).Warn("failed to publish billing event",
			zap.String("ride_id", ev.RideID.String()),
			zap.String("event", string(ev.Type)),
			zap.Error(err),
		)
	}
}

// Hints subscribes to a ride's events and turns them into poll-now signals.
// Signals coalesce: at most one is pending at a time.
func Hints(sub Subscriber, rideID uuid.UUID) (<-chan struct{}, func() error, error) {
	ch := make(chan struct{}, 1)
	unsubscribe, err := sub.Subscribe(Subject(rideID), func([]byte) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return ch, unsubscribe, nil
}
