package billing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/rides"
	"github.com/richxcame/ridemeter/pkg/logger"
	"go.uber.org/zap"
)

// PassengerSession mirrors the driver's meter from the ride record. It only
// ever reads: the optimistic local clock runs from the stored billing start,
// and on completion the meter freezes to the server-reported elapsed time.
type PassengerSession struct {
	rideID uuid.UUID
	reader rides.Reader
	pricer Pricer
	opts   options

	mu             sync.RWMutex
	ride           *rides.Ride
	lastSynced     time.Time
	failingSince   time.Time
	seenInProgress bool
}

// NewPassengerSession creates a passenger session for rideID
func NewPassengerSession(rideID uuid.UUID, reader rides.Reader, pricer Pricer, opts ...Option) *PassengerSession {
	return &PassengerSession{
		rideID: rideID,
		reader: reader,
		pricer: pricer,
		opts:   buildOptions(opts),
	}
}

// Poll fetches the ride record once, bounded by the poll timeout. A failure
// keeps the previous record and starts or extends the failure streak.
func (p *PassengerSession) Poll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.pollTimeout)
	defer cancel()

	ride, err := p.reader.GetRide(ctx, p.rideID)
	now := p.opts.now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		pollFailuresTotal.Inc()
		if p.failingSince.IsZero() {
			p.failingSince = now
		}
		return err
	}

	p.ride = ride
	p.lastSynced = now
	p.failingSince = time.Time{}
	if ride.Status == rides.StatusInProgress {
		p.seenInProgress = true
	}
	return nil
}

// Degraded reports whether polls have been failing for longer than the grace
// period
func (p *PassengerSession) Degraded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.degraded(p.opts.now())
}

func (p *PassengerSession) degraded(now time.Time) bool {
	return !p.failingSince.IsZero() && now.Sub(p.failingSince) > p.opts.grace
}

// Done reports whether the ride has left the in-progress phase
func (p *PassengerSession) Done() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.ride == nil {
		return false
	}
	return p.ride.Status.IsTerminal() || (p.seenInProgress && p.ride.Status != rides.StatusInProgress)
}

// Snapshot returns the local view at the passenger's own clock
func (p *PassengerSession) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	now := p.opts.now()
	if p.ride == nil {
		return Snapshot{RideID: p.rideID, State: StateIdle, Degraded: p.degraded(now)}
	}

	snap := SnapshotFor(p.ride, now, p.opts.freeWindow, p.pricer)
	snap.Degraded = p.degraded(now)
	if !p.lastSynced.IsZero() {
		synced := p.lastSynced
		snap.LastSyncedAt = &synced
	}
	return snap
}

// Run drives the local tick and the poll loop until the ride leaves
// in_progress or ctx is done. Polling runs on its own goroutine so a slow
// fetch never delays a tick.
func (p *PassengerSession) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.pollLoop(runCtx, cancel)
	}()

	ticker := time.NewTicker(p.opts.tick)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			wg.Wait()
			p.emit()
			if p.Done() {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			p.emit()
		}
	}
}

func (p *PassengerSession) emit() {
	if p.opts.onUpdate != nil {
		p.opts.onUpdate(p.Snapshot())
	}
}

func (p *PassengerSession) pollLoop(ctx context.Context, stop context.CancelFunc) {
	ticker := time.NewTicker(p.opts.poll)
	defer ticker.Stop()

	for {
		if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			logger.WithContext(ctx).Debug("ride poll failed, will retry",
				zap.String("ride_id", p.rideID.String()),
				zap.Bool("degraded", p.Degraded()),
				zap.Error(err),
			)
		}
		if p.Done() {
			stop()
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.opts.hints:
		}
	}
}
