package rides

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columnNames = []string{
	"id", "rider_id", "driver_id", "vehicle_category", "service_type", "estimated_price", "currency",
	"distance_km", "estimated_duration_min", "pickup_time", "started_at", "time_of_day_at_start",
	"billing_start_time", "billing_elapsed_seconds", "waiting_time_frozen_seconds", "promo_code",
	"status", "final_price", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

type rideRow struct {
	id, rider     uuid.UUID
	status        Status
	startedAt     interface{}
	timeOfDay     interface{}
	billingStart  interface{}
	elapsed       int64
	waitingFrozen interface{}
	finalPrice    interface{}
}

func (r rideRow) rows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(columnNames).AddRow(
		r.id.String(), r.rider.String(), nil, "standard", "hourly", 14000.0, "CDF",
		5.7, int64(27), now, r.startedAt, r.timeOfDay,
		r.billingStart, r.elapsed, r.waitingFrozen, nil,
		string(r.status), r.finalPrice, now, now,
	)
}

func TestRepository_CreateRide(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC)
	rider := uuid.New()
	promo := "KIN10"

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rides")).
		WithArgs(sqlmock.AnyArg(), rider, "standard", "hourly", 14000.0, "CDF", 5.7, 27, now, sql.NullString{String: promo, Valid: true}, "pending").
		WillReturnRows(rideRow{id: uuid.New(), rider: rider, status: StatusPending}.rows(now))

	ride, err := repo.CreateRide(context.Background(), NewRide{
		RiderID:              rider,
		VehicleCategory:      tariffs.Standard,
		ServiceType:          "hourly",
		EstimatedPrice:       14000,
		Currency:             "CDF",
		DistanceKm:           5.7,
		EstimatedDurationMin: 27,
		PickupTime:           now,
		PromoCode:            &promo,
	})

	require.NoError(t, err)
	assert.Equal(t, rider, ride.RiderID)
	assert.Equal(t, StatusPending, ride.Status)
	assert.Equal(t, tariffs.Standard, ride.VehicleCategory)
	assert.Equal(t, 27, ride.EstimatedDurationMin)
	assert.Nil(t, ride.BillingStartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetRide(t *testing.T) {
	now := time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC)
	id := uuid.New()

	t.Run("found with billing fields", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		started := now.Add(-20 * time.Minute)
		billing := now.Add(-10 * time.Minute)

		mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(rideRow{
				id: id, rider: uuid.New(), status: StatusInProgress,
				startedAt: started, timeOfDay: "night", billingStart: billing, waitingFrozen: int64(600),
			}.rows(now))

		ride, err := repo.GetRide(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, id, ride.ID)
		assert.Equal(t, StatusInProgress, ride.Status)
		require.NotNil(t, ride.StartedAt)
		assert.True(t, started.Equal(*ride.StartedAt))
		require.NotNil(t, ride.BillingStartTime)
		assert.True(t, billing.Equal(*ride.BillingStartTime))
		require.NotNil(t, ride.TimeOfDayAtStart)
		assert.Equal(t, tariffs.Night, *ride.TimeOfDayAtStart)
		require.NotNil(t, ride.WaitingTimeFrozenSeconds)
		assert.Equal(t, int64(600), *ride.WaitingTimeFrozenSeconds)
		assert.Nil(t, ride.FinalPrice)
		assert.Nil(t, ride.DriverID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = $1")).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetRide(context.Background(), id)

		require.Error(t, err)
		assert.True(t, common.IsNotFound(err))
	})
}

func TestRepository_UpdateRide_BillingStartIsWriteOnce(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC)
	id := uuid.New()
	first := now.Add(-5 * time.Minute)
	second := now
	frozen := int64(300)

	mock.ExpectQuery(regexp.QuoteMeta("billing_start_time = COALESCE(billing_start_time, $2), waiting_time_frozen_seconds = COALESCE(waiting_time_frozen_seconds, $3), updated_at = NOW() WHERE id = $1")).
		WithArgs(id, second, frozen).
		WillReturnRows(rideRow{
			id: id, rider: uuid.New(), status: StatusInProgress,
			startedAt: first.Add(-5 * time.Minute), billingStart: first, waitingFrozen: int64(300),
		}.rows(now))

	ride, err := repo.UpdateRide(context.Background(), id, Patch{BillingStartTime: &second, WaitingTimeFrozenSeconds: &frozen})

	require.NoError(t, err)
	require.NotNil(t, ride.BillingStartTime)
	assert.True(t, first.Equal(*ride.BillingStartTime), "stored start time must win")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateRide_Completion(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC)
	id := uuid.New()
	status := StatusCompleted
	elapsed := int64(7500)
	final := 44000.0

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE rides SET status = $2, billing_elapsed_seconds = $3, final_price = $4, updated_at = NOW() WHERE id = $1")).
		WithArgs(id, "completed", elapsed, final).
		WillReturnRows(rideRow{
			id: id, rider: uuid.New(), status: StatusCompleted,
			billingStart: now.Add(-125 * time.Minute), elapsed: elapsed, finalPrice: final,
		}.rows(now))

	ride, err := repo.UpdateRide(context.Background(), id, Patch{Status: &status, BillingElapsedSeconds: &elapsed, FinalPrice: &final})

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, ride.Status)
	assert.Equal(t, elapsed, ride.BillingElapsedSeconds)
	require.NotNil(t, ride.FinalPrice)
	assert.Equal(t, final, *ride.FinalPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateRide_EmptyPatchReads(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(rideRow{id: id, rider: uuid.New(), status: StatusAccepted}.rows(now))

	ride, err := repo.UpdateRide(context.Background(), id, Patch{})

	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, ride.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateRide_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	status := StatusCancelled

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE rides SET status = $2")).
		WithArgs(id, "cancelled").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateRide(context.Background(), id, Patch{Status: &status})

	require.Error(t, err)
	assert.True(t, common.IsNotFound(err))
}
