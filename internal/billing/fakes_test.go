package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/pricing"
	"github.com/richxcame/ridemeter/internal/rides"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/richxcame/ridemeter/pkg/common"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeStore mimics the repository, including write-once billing fields
type fakeStore struct {
	mu      sync.Mutex
	rides   map[uuid.UUID]*rides.Ride
	patches []rides.Patch
	getErr  error
}

func newFakeStore(ride *rides.Ride) *fakeStore {
	return &fakeStore{rides: map[uuid.UUID]*rides.Ride{ride.ID: ride}}
}

func (s *fakeStore) GetRide(ctx context.Context, id uuid.UUID) (*rides.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	r, ok := s.rides[id]
	if !ok {
		return nil, common.NewNotFoundError("ride not found", nil)
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) UpdateRide(ctx context.Context, id uuid.UUID, p rides.Patch) (*rides.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return nil, common.NewNotFoundError("ride not found", nil)
	}
	s.patches = append(s.patches, p)
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.StartedAt != nil && r.StartedAt == nil {
		r.StartedAt = p.StartedAt
	}
	if p.TimeOfDayAtStart != nil && r.TimeOfDayAtStart == nil {
		r.TimeOfDayAtStart = p.TimeOfDayAtStart
	}
	if p.BillingStartTime != nil && r.BillingStartTime == nil {
		r.BillingStartTime = p.BillingStartTime
	}
	if p.WaitingTimeFrozenSeconds != nil && r.WaitingTimeFrozenSeconds == nil {
		r.WaitingTimeFrozenSeconds = p.WaitingTimeFrozenSeconds
	}
	if p.BillingElapsedSeconds != nil {
		r.BillingElapsedSeconds = *p.BillingElapsedSeconds
	}
	if p.FinalPrice != nil {
		r.FinalPrice = p.FinalPrice
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) set(fn func(r *rides.Ride)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rides {
		fn(r)
	}
}

func (s *fakeStore) failGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

func (s *fakeStore) patchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patches)
}

// readerOnly hides the write methods of a store
type readerOnly struct {
	store *fakeStore
}

func (r readerOnly) GetRide(ctx context.Context, id uuid.UUID) (*rides.Ride, error) {
	return r.store.GetRide(ctx, id)
}

// calcPricer prices with the real calculator at 1000 CDF per USD
type calcPricer struct {
	calc *pricing.Calculator
	cfg  pricing.PricingConfig
	err  error
}

func newCalcPricer() *calcPricer {
	return &calcPricer{
		calc: pricing.NewCalculator(tariffs.DefaultTable()),
		cfg: pricing.PricingConfig{
			BaseCurrency:          "USD",
			DisplayCurrency:       "CDF",
			ExchangeRate:          1000,
			DisplayDecimals:       0,
			PlatformCommissionPct: 20,
		},
	}
}

func (p *calcPricer) Surcharge(category tariffs.VehicleCategory, tod tariffs.TimeOfDay, elapsedSeconds int64) float64 {
	return p.calc.Surcharge(p.cfg, category, tod, elapsedSeconds)
}

func (p *calcPricer) Settle(ctx context.Context, req pricing.SettleRequest) (*pricing.Settlement, error) {
	if p.err != nil {
		return nil, p.err
	}
	s := p.calc.Settle(p.cfg, req.EstimatedPrice, p.Surcharge(req.Category, req.TimeOfDay, req.ElapsedSeconds), pricing.Discounts{})
	return &s, nil
}

type fixedTimeOfDay tariffs.TimeOfDay

func (f fixedTimeOfDay) TimeOfDayAt(time.Time) tariffs.TimeOfDay {
	return tariffs.TimeOfDay(f)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := payload.(Event); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

var errNetwork = errors.New("network unreachable")

// Wednesday 22:00 UTC: a night tariff ride
var rideStart = time.Date(2024, 6, 5, 22, 0, 0, 0, time.UTC)

func acceptedRide() *rides.Ride {
	return &rides.Ride{
		ID:              uuid.New(),
		RiderID:         uuid.New(),
		VehicleCategory: tariffs.Plus,
		ServiceType:     "hourly",
		EstimatedPrice:  15000,
		Currency:        "CDF",
		PickupTime:      rideStart,
		Status:          rides.StatusAccepted,
	}
}
