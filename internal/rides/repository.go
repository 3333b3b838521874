package rides

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/richxcame/ridemeter/pkg/common"
)

// Querier is satisfied by *sql.DB and *sql.Tx
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const rideColumns = `id, rider_id, driver_id, vehicle_category, service_type, estimated_price, currency,
		distance_km, estimated_duration_min, pickup_time, started_at, time_of_day_at_start,
		billing_start_time, billing_elapsed_seconds, waiting_time_frozen_seconds, promo_code,
		status, final_price, created_at, updated_at`

// Repository persists rides through database/sql
type Repository struct {
	q Querier
}

// Ensure the concrete repository satisfies the service's requirements.
var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new ride repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{q: db}
}

// CreateRide inserts a pending ride
func (r *Repository) CreateRide(ctx context.Context, in NewRide) (*Ride, error) {
	query := `
		INSERT INTO rides (
			id, rider_id, vehicle_category, service_type, estimated_price, currency,
			distance_km, estimated_duration_min, pickup_time, promo_code, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + rideColumns

	var promo sql.NullString
	if in.PromoCode != nil && *in.PromoCode != "" {
		promo = sql.NullString{String: *in.PromoCode, Valid: true}
	}

	ride, err := scanRide(r.q.QueryRowContext(ctx, query,
		uuid.New(),
		in.RiderID,
		string(in.VehicleCategory),
		in.ServiceType,
		in.EstimatedPrice,
		in.Currency,
		in.DistanceKm,
		in.EstimatedDurationMin,
		in.PickupTime,
		promo,
		string(StatusPending),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create ride: %w", err)
	}
	return ride, nil
}

// GetRide loads a ride by id
func (r *Repository) GetRide(ctx context.Context, id uuid.UUID) (*Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFoundError("ride not found", err)
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return ride, nil
}

// UpdateRide applies patch and returns the updated ride. Write-once fields
// keep their first value: a second billing start is silently ignored by the
// database and the caller sees the stored value in the result.
func (r *Repository) UpdateRide(ctx context.Context, id uuid.UUID, patch Patch) (*Ride, error) {
	if patch.IsEmpty() {
		return r.GetRide(ctx, id)
	}

	sets := make([]string, 0, 9)
	args := []interface{}{id}
	set := func(expr string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if patch.Status != nil {
		set("status = $%d", string(*patch.Status))
	}
	if patch.DriverID != nil {
		set("driver_id = $%d", *patch.DriverID)
	}
	if patch.StartedAt != nil {
		set("started_at = COALESCE(started_at, $%d)", *patch.StartedAt)
	}
	if patch.TimeOfDayAtStart != nil {
		set("time_of_day_at_start = COALESCE(time_of_day_at_start, $%d)", string(*patch.TimeOfDayAtStart))
	}
	if patch.BillingStartTime != nil {
		set("billing_start_time = COALESCE(billing_start_time, $%d)", *patch.BillingStartTime)
	}
	if patch.WaitingTimeFrozenSeconds != nil {
		set("waiting_time_frozen_seconds = COALESCE(waiting_time_frozen_seconds, $%d)", *patch.WaitingTimeFrozenSeconds)
	}
	if patch.BillingElapsedSeconds != nil {
		set("billing_elapsed_seconds = $%d", *patch.BillingElapsedSeconds)
	}
	if patch.FinalPrice != nil {
		set("final_price = $%d", *patch.FinalPrice)
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE rides SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + rideColumns

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFoundError("ride not found", err)
		}
		return nil, fmt.Errorf("failed to update ride: %w", err)
	}
	return ride, nil
}

func scanRide(row *sql.Row) (*Ride, error) {
	var (
		ride             Ride
		driverID         uuid.NullUUID
		category         string
		status           string
		startedAt        sql.NullTime
		timeOfDay        sql.NullString
		billingStart     sql.NullTime
		waitingFrozen    sql.NullInt64
		promo            sql.NullString
		finalPrice       sql.NullFloat64
		pickupTime       time.Time
		estimatedMinutes int64
	)

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&driverID,
		&category,
		&ride.ServiceType,
		&ride.EstimatedPrice,
		&ride.Currency,
		&ride.DistanceKm,
		&estimatedMinutes,
		&pickupTime,
		&startedAt,
		&timeOfDay,
		&billingStart,
		&ride.BillingElapsedSeconds,
		&waitingFrozen,
		&promo,
		&status,
		&finalPrice,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ride.VehicleCategory = tariffs.VehicleCategory(category)
	ride.Status = Status(status)
	ride.EstimatedDurationMin = int(estimatedMinutes)
	ride.PickupTime = pickupTime
	if driverID.Valid {
		ride.DriverID = &driverID.UUID
	}
	if startedAt.Valid {
		ride.StartedAt = &startedAt.Time
	}
	if timeOfDay.Valid {
		tod := tariffs.TimeOfDay(timeOfDay.String)
		ride.TimeOfDayAtStart = &tod
	}
	if billingStart.Valid {
		ride.BillingStartTime = &billingStart.Time
	}
	if waitingFrozen.Valid {
		ride.WaitingTimeFrozenSeconds = &waitingFrozen.Int64
	}
	if promo.Valid {
		ride.PromoCode = &promo.String
	}
	if finalPrice.Valid {
		ride.FinalPrice = &finalPrice.Float64
	}
	return &ride, nil
}
