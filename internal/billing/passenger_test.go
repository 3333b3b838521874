package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/richxcame/ridemeter/internal/rides"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inProgressRide(billingAfter time.Duration) *rides.Ride {
	ride := acceptedRide()
	started := rideStart
	night := tariffs.Night
	ride.Status = rides.StatusInProgress
	ride.StartedAt = &started
	ride.TimeOfDayAtStart = &night
	if billingAfter >= 0 {
		start := rideStart.Add(billingAfter)
		frozen := int64(billingAfter / time.Second)
		ride.BillingStartTime = &start
		ride.WaitingTimeFrozenSeconds = &frozen
	}
	return ride
}

func TestPassengerSession_SnapshotBeforePoll(t *testing.T) {
	ride := inProgressRide(-1)
	p := NewPassengerSession(ride.ID, readerOnly{newFakeStore(ride)}, newCalcPricer())

	snap := p.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.LastSyncedAt)
	assert.False(t, p.Done())
}

func TestPassengerSession_OptimisticClock(t *testing.T) {
	ride := inProgressRide(2 * time.Minute)
	clock := newFakeClock(rideStart.Add(5 * time.Minute))
	p := NewPassengerSession(ride.ID, readerOnly{newFakeStore(ride)}, newCalcPricer(), WithClock(clock.Now))

	require.NoError(t, p.Poll(context.Background()))
	snap := p.Snapshot()
	assert.Equal(t, StateBilling, snap.State)
	assert.Equal(t, int64(180), snap.ElapsedSeconds)
	require.NotNil(t, snap.LastSyncedAt)
	assert.Equal(t, rideStart.Add(5*time.Minute), *snap.LastSyncedAt)

	// no poll needed for the clock to advance
	clock.Advance(time.Hour)
	snap = p.Snapshot()
	assert.Equal(t, int64(3780), snap.ElapsedSeconds)
	assert.Equal(t, 1, snap.ExtraHours)
	assert.Equal(t, 15000.0, snap.Surcharge)
	assert.Equal(t, 30000.0, snap.CurrentTotal)
}

func TestPassengerSession_ProjectsAutoActivation(t *testing.T) {
	ride := inProgressRide(-1)
	clock := newFakeClock(rideStart.Add(12 * time.Minute))
	p := NewPassengerSession(ride.ID, readerOnly{newFakeStore(ride)}, newCalcPricer(), WithClock(clock.Now))
	require.NoError(t, p.Poll(context.Background()))

	snap := p.Snapshot()
	assert.Equal(t, StateBilling, snap.State)
	assert.True(t, snap.Projected)
	require.NotNil(t, snap.BillingStartTime)
	assert.Equal(t, rideStart.Add(FreeWaitingWindow), *snap.BillingStartTime)
	assert.Equal(t, int64(120), snap.ElapsedSeconds)
}

func TestPassengerSession_DegradedAfterGrace(t *testing.T) {
	ride := inProgressRide(0)
	store := newFakeStore(ride)
	clock := newFakeClock(rideStart.Add(time.Minute))
	p := NewPassengerSession(ride.ID, readerOnly{store}, newCalcPricer(), WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, p.Poll(ctx))
	store.failGets(errNetwork)

	assert.ErrorIs(t, p.Poll(ctx), errNetwork)
	assert.False(t, p.Degraded())

	clock.Advance(30 * time.Second)
	assert.ErrorIs(t, p.Poll(ctx), errNetwork)
	assert.False(t, p.Degraded(), "exactly the grace period is not degraded")

	clock.Advance(time.Second)
	assert.ErrorIs(t, p.Poll(ctx), errNetwork)
	snap := p.Snapshot()
	assert.True(t, snap.Degraded)
	// the meter keeps counting from the last known record
	assert.Equal(t, StateBilling, snap.State)
	assert.Equal(t, int64(91), snap.ElapsedSeconds)
	assert.Equal(t, rideStart.Add(time.Minute), *snap.LastSyncedAt)

	// one success clears the streak
	store.failGets(nil)
	require.NoError(t, p.Poll(ctx))
	assert.False(t, p.Degraded())
}

// The passenger's clock runs seven seconds ahead of the driver's. While the
// ride runs the two views differ; once the driver completes, the passenger
// shows exactly the driver's elapsed time and price.
func TestPassengerSession_ConvergesOnDriverSettlement(t *testing.T) {
	driver := newDriverFixture()
	passengerClock := newFakeClock(rideStart.Add(7 * time.Second))
	passenger := NewPassengerSession(driver.ride.ID, readerOnly{driver.store}, driver.pricer, WithClock(passengerClock.Now))
	ctx := context.Background()

	advance := func(d time.Duration) {
		driver.clock.Advance(d)
		passengerClock.Advance(d)
	}

	require.NoError(t, driver.session.StartRide(ctx))
	advance(3 * time.Minute)
	_, err := driver.session.ActivateBilling(ctx)
	require.NoError(t, err)

	advance(61*time.Minute + 13*time.Second)
	require.NoError(t, passenger.Poll(ctx))
	assert.Equal(t, driver.session.Snapshot().ElapsedSeconds+7, passenger.Snapshot().ElapsedSeconds)

	settlement, err := driver.session.Complete(ctx)
	require.NoError(t, err)

	advance(4 * time.Second)
	require.NoError(t, passenger.Poll(ctx))
	assert.True(t, passenger.Done())

	dv := driver.session.Snapshot()
	pv := passenger.Snapshot()
	assert.Equal(t, StateSettled, pv.State)
	assert.Equal(t, dv.ElapsedSeconds, pv.ElapsedSeconds)
	assert.Equal(t, int64(3673), pv.ElapsedSeconds)
	require.NotNil(t, pv.FinalPrice)
	assert.Equal(t, settlement.FinalPrice, *pv.FinalPrice)
	assert.Equal(t, dv.CurrentTotal, pv.CurrentTotal)
	assert.Equal(t, 30000.0, pv.CurrentTotal)
}

func TestPassengerSession_Done(t *testing.T) {
	tests := []struct {
		name     string
		statuses []rides.Status
		want     bool
	}{
		{"accepted", []rides.Status{rides.StatusAccepted}, false},
		{"in progress", []rides.Status{rides.StatusInProgress}, false},
		{"completed", []rides.Status{rides.StatusInProgress, rides.StatusCompleted}, true},
		{"cancelled before start", []rides.Status{rides.StatusCancelled}, true},
		{"left in progress", []rides.Status{rides.StatusInProgress, rides.StatusWaiting}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ride := acceptedRide()
			store := newFakeStore(ride)
			p := NewPassengerSession(ride.ID, readerOnly{store}, nil)
			for _, status := range tt.statuses {
				status := status
				store.set(func(r *rides.Ride) { r.Status = status })
				require.NoError(t, p.Poll(context.Background()))
			}
			assert.Equal(t, tt.want, p.Done())
		})
	}
}

func runPassenger(t *testing.T, p *PassengerSession, ctx context.Context) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("passenger session did not stop")
		return nil
	}
}

func TestPassengerSession_RunStopsOnCompletion(t *testing.T) {
	ride := inProgressRide(0)
	store := newFakeStore(ride)

	var mu sync.Mutex
	var last Snapshot
	p := NewPassengerSession(ride.ID, readerOnly{store}, newCalcPricer(),
		WithTickInterval(time.Millisecond),
		WithPollInterval(time.Millisecond),
		WithOnUpdate(func(s Snapshot) {
			mu.Lock()
			last = s
			mu.Unlock()
		}),
	)

	done := runPassenger(t, p, context.Background())
	time.Sleep(10 * time.Millisecond)

	final := 15000.0
	store.set(func(r *rides.Ride) {
		r.Status = rides.StatusCompleted
		r.BillingElapsedSeconds = 42
		r.FinalPrice = &final
	})

	require.NoError(t, waitRun(t, done))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, StateSettled, last.State)
	assert.Equal(t, int64(42), last.ElapsedSeconds)
}

func TestPassengerSession_RunKeepsTickingWhilePollsFail(t *testing.T) {
	ride := inProgressRide(0)
	store := newFakeStore(ride)
	store.failGets(errNetwork)

	var mu sync.Mutex
	ticks := 0
	p := NewPassengerSession(ride.ID, readerOnly{store}, nil,
		WithTickInterval(time.Millisecond),
		WithPollInterval(time.Millisecond),
		WithOnUpdate(func(Snapshot) {
			mu.Lock()
			ticks++
			mu.Unlock()
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, waitRun(t, runPassenger(t, p, ctx)), context.DeadlineExceeded)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, ticks, 1)
}

func TestPassengerSession_HintTriggersPoll(t *testing.T) {
	ride := inProgressRide(0)
	store := newFakeStore(ride)
	hints := make(chan struct{}, 1)

	p := NewPassengerSession(ride.ID, readerOnly{store}, nil,
		WithTickInterval(time.Millisecond),
		WithPollInterval(time.Hour),
		WithHints(hints),
	)

	done := runPassenger(t, p, context.Background())
	require.Eventually(t, func() bool {
		return p.Snapshot().State == StateBilling
	}, time.Second, time.Millisecond)

	store.set(func(r *rides.Ride) { r.Status = rides.StatusCompleted })
	hints <- struct{}{}
	require.NoError(t, waitRun(t, done))
	assert.True(t, p.Done())
}
