package billing

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/pricing"
	"github.com/richxcame/ridemeter/internal/rides"
	"github.com/richxcame/ridemeter/pkg/logger"
	"go.uber.org/zap"
)

// DriverSession is the authoritative meter. It is the only writer of the
// ride's billing fields.
type DriverSession struct {
	rideID  uuid.UUID
	store   rides.Store
	pricer  Pricer
	settler Settler
	clock   TariffClock
	opts    options

	// ops serializes transitions, which include store round trips; mu only
	// guards the fields below and is never held across I/O.
	ops        sync.Mutex
	mu         sync.RWMutex
	ride       *rides.Ride
	meter      *Meter
	settlement *pricing.Settlement
}

// NewDriverSession creates a driver session for rideID
func NewDriverSession(rideID uuid.UUID, store rides.Store, pricer Pricer, settler Settler, clock TariffClock, opts ...Option) *DriverSession {
	return &DriverSession{
		rideID:  rideID,
		store:   store,
		pricer:  pricer,
		settler: settler,
		clock:   clock,
		opts:    buildOptions(opts),
	}
}

// Load reads the ride record and restores the meter from it
func (s *DriverSession) Load(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()
	return s.load(ctx)
}

func (s *DriverSession) load(ctx context.Context) error {
	ride, err := s.store.GetRide(ctx, s.rideID)
	if err != nil {
		return fmt.Errorf("failed to load ride: %w", err)
	}
	s.apply(ride)
	return nil
}

func (s *DriverSession) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.ride != nil
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.load(ctx)
}

func (s *DriverSession) apply(ride *rides.Ride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ride = ride
	s.meter = RestoreMeter(ride, s.opts.freeWindow)
}

// meterCopy returns a copy of the meter safe to mutate speculatively
func (s *DriverSession) meterCopy() (Meter, *rides.Ride) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.meter, s.ride
}

// StartRide moves the ride to in_progress and opens the free waiting window.
// The tariff time of day is fixed here for the whole ride.
func (s *DriverSession) StartRide(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	m, ride := s.meterCopy()
	if m.State() != StateIdle {
		return nil
	}
	if !rides.CanTransition(ride.Status, rides.StatusInProgress) {
		return fmt.Errorf("cannot start ride in status %s", ride.Status)
	}

	now := s.opts.now()
	status := rides.StatusInProgress
	tod := s.clock.TimeOfDayAt(now)
	updated, err := s.store.UpdateRide(ctx, s.rideID, rides.Patch{Status: &status, StartedAt: &now, TimeOfDayAtStart: &tod})
	if err != nil {
		return fmt.Errorf("failed to start ride: %w", err)
	}
	s.apply(updated)

	logger.WithContext(ctx).Info("ride started, free waiting window open",
		zap.String("ride_id", s.rideID.String()),
		zap.String("time_of_day", string(tod)),
		zap.Duration("free_window", s.opts.freeWindow),
	)
	publish(ctx, s.opts.publisher, Event{Type: EventRideStarted, RideID: s.rideID, At: now})
	return nil
}

// ActivateBilling starts billing on the driver's request, before the free
// window is over. A second activation is ignored and logged.
func (s *DriverSession) ActivateBilling(ctx context.Context) (bool, error) {
	s.ops.Lock()
	defer s.ops.Unlock()
	return s.activate(ctx, true)
}

func (s *DriverSession) activate(ctx context.Context, manual bool) (bool, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}
	log := logger.WithContext(ctx).With(zap.String("ride_id", s.rideID.String()))

	m, _ := s.meterCopy()
	if m.State() == StateBilling {
		duplicateActivationsTotal.Inc()
		log.Warn("billing already active, ignoring activation", zap.Bool("manual", manual))
		return false, nil
	}

	now := s.opts.now()
	activated, err := m.Activate(now, manual)
	if err != nil || !activated {
		return false, err
	}

	start, _ := m.BillingStart()
	frozen, _ := m.WaitingTimeFrozen()
	frozenSecs := int64(frozen / time.Second)
	updated, err := s.store.UpdateRide(ctx, s.rideID, rides.Patch{BillingStartTime: &start, WaitingTimeFrozenSeconds: &frozenSecs})
	if err != nil {
		return false, fmt.Errorf("failed to activate billing: %w", err)
	}
	s.apply(updated)

	if updated.BillingStartTime != nil && !updated.BillingStartTime.Equal(start) {
		// another writer got there first; the stored start wins
		start = *updated.BillingStartTime
		log.Warn("billing start already recorded, adopting stored value", zap.Time("billing_start_time", start))
	}

	activationsTotal.WithLabelValues(activationMode(manual)).Inc()
	log.Info("billing activated",
		zap.Bool("manual", manual),
		zap.Time("billing_start_time", start),
		zap.Int64("waiting_time_frozen_seconds", frozenSecs),
	)
	publish(ctx, s.opts.publisher, Event{Type: EventBillingActivated, RideID: s.rideID, At: now, BillingStartTime: &start, Manual: manual})
	return true, nil
}

// Tick activates billing automatically once the free window is over and
// returns the current snapshot
func (s *DriverSession) Tick(ctx context.Context) (Snapshot, error) {
	s.ops.Lock()
	var err error
	if loadErr := s.ensureLoaded(ctx); loadErr != nil {
		err = loadErr
	} else if m, _ := s.meterCopy(); m.ShouldAutoActivate(s.opts.now()) {
		_, err = s.activate(ctx, false)
	}
	s.ops.Unlock()
	return s.Snapshot(), err
}

// Run ticks until the ride is settled or ctx is done
func (s *DriverSession) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.tick)
	defer ticker.Stop()

	for {
		snap, err := s.Tick(ctx)
		if err != nil {
			logger.WithContext(ctx).Warn("meter tick failed", zap.String("ride_id", s.rideID.String()), zap.Error(err))
		}
		if s.opts.onUpdate != nil {
			s.opts.onUpdate(snap)
		}
		if snap.State == StateSettled || snap.RideStatus == rides.StatusCancelled {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Complete settles the ride: it freezes the elapsed billing time, prices the
// ride and writes the completion. Completing twice returns the first result.
func (s *DriverSession) Complete(ctx context.Context) (*pricing.Settlement, error) {
	s.ops.Lock()
	defer s.ops.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	m, ride := s.meterCopy()
	switch m.State() {
	case StateIdle:
		return nil, ErrNotStarted
	case StateSettled:
		s.mu.RLock()
		settlement := s.settlement
		s.mu.RUnlock()
		if settlement != nil {
			return settlement, nil
		}
		return nil, ErrSettled
	}

	now := s.opts.now()
	elapsed, _ := m.Settle(now)

	settlement, err := s.settler.Settle(ctx, SettleRequestFor(ride, elapsed))
	if err != nil {
		return nil, fmt.Errorf("failed to settle ride: %w", err)
	}

	status := rides.StatusCompleted
	final := settlement.FinalPrice
	updated, err := s.store.UpdateRide(ctx, s.rideID, rides.Patch{Status: &status, BillingElapsedSeconds: &elapsed, FinalPrice: &final})
	if err != nil {
		return nil, fmt.Errorf("failed to complete ride: %w", err)
	}
	s.apply(updated)
	s.mu.Lock()
	s.settlement = settlement
	s.mu.Unlock()

	settlementsTotal.WithLabelValues(strconv.FormatBool(settlement.Clamped)).Inc()
	logger.WithContext(ctx).Info("ride settled",
		zap.String("ride_id", s.rideID.String()),
		zap.Int64("billing_elapsed_seconds", elapsed),
		zap.Float64("estimated_price", settlement.EstimatedPrice),
		zap.Float64("surcharge", settlement.Surcharge),
		zap.Float64("total_discount", settlement.TotalDiscount),
		zap.Float64("final_price", settlement.FinalPrice),
		zap.String("currency", settlement.Currency),
	)
	publish(ctx, s.opts.publisher, Event{Type: EventRideCompleted, RideID: s.rideID, At: now, ElapsedSeconds: elapsed, FinalPrice: &final})
	return settlement, nil
}

// Snapshot returns the current meter view
func (s *DriverSession) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ride == nil {
		return Snapshot{RideID: s.rideID, State: StateIdle}
	}
	return s.meter.snapshot(s.ride, s.opts.now(), s.pricer)
}
