// Package billing runs the live ride meter: a free waiting window, billing
// activation and the hourly-slot surcharge, shared by a driver session (the
// only writer) and passenger sessions that poll the ride record.
package billing

import (
	"errors"
	"time"

	"github.com/richxcame/ridemeter/internal/rides"
)

// State is the meter state
type State string

const (
	StateIdle    State = "idle"
	StateWaiting State = "waiting"
	StateBilling State = "billing"
	StateSettled State = "settled"
)

// FreeWaitingWindow is the unbilled grace period after ride start
const FreeWaitingWindow = 600 * time.Second

var (
	ErrNotStarted     = errors.New("meter has not started")
	ErrAlreadyStarted = errors.New("meter already started")
	ErrSettled        = errors.New("meter already settled")
)

// Meter is the billing state machine. It holds no clock; every transition
// takes the time it happens at. Not safe for concurrent use.
type Meter struct {
	freeWindow     time.Duration
	state          State
	startedAt      time.Time
	billingStart   time.Time
	waitingFrozen  time.Duration
	manual         bool
	settledElapsed int64
}

// NewMeter creates an idle meter
func NewMeter(freeWindow time.Duration) *Meter {
	if freeWindow <= 0 {
		freeWindow = FreeWaitingWindow
	}
	return &Meter{freeWindow: freeWindow, state: StateIdle}
}

// RestoreMeter rebuilds the meter from a ride record
func RestoreMeter(ride *rides.Ride, freeWindow time.Duration) *Meter {
	m := NewMeter(freeWindow)
	if ride.Status != rides.StatusInProgress && ride.Status != rides.StatusCompleted {
		return m
	}

	m.state = StateWaiting
	m.startedAt = ride.PickupTime
	if ride.StartedAt != nil {
		m.startedAt = *ride.StartedAt
	}

	if ride.BillingStartTime != nil {
		m.state = StateBilling
		m.billingStart = *ride.BillingStartTime
		if ride.WaitingTimeFrozenSeconds != nil {
			m.waitingFrozen = time.Duration(*ride.WaitingTimeFrozenSeconds) * time.Second
		} else {
			m.waitingFrozen = nonNegative(m.billingStart.Sub(m.startedAt))
		}
	}

	if ride.Status == rides.StatusCompleted {
		m.Freeze(ride.BillingElapsedSeconds)
	}
	return m
}

// State returns the current state
func (m *Meter) State() State {
	return m.state
}

// StartedAt returns when the ride started
func (m *Meter) StartedAt() time.Time {
	return m.startedAt
}

// BillingStart returns the billing start time once billing is active
func (m *Meter) BillingStart() (time.Time, bool) {
	if m.billingStart.IsZero() {
		return time.Time{}, false
	}
	return m.billingStart, true
}

// WaitingTimeFrozen returns the unbilled waiting time fixed at activation
func (m *Meter) WaitingTimeFrozen() (time.Duration, bool) {
	if m.billingStart.IsZero() {
		return 0, false
	}
	return m.waitingFrozen, true
}

// Manual reports whether billing was activated by the driver
func (m *Meter) Manual() bool {
	return m.manual
}

// Start opens the free waiting window
func (m *Meter) Start(at time.Time) error {
	if m.state != StateIdle {
		return ErrAlreadyStarted
	}
	m.state = StateWaiting
	m.startedAt = at
	return nil
}

// ShouldAutoActivate reports whether the free window has run out
func (m *Meter) ShouldAutoActivate(now time.Time) bool {
	return m.state == StateWaiting && now.Sub(m.startedAt) >= m.freeWindow
}

// Activate starts billing. A manual activation starts billing at the given time; an
// automatic one only fires once the free window is over and bills from the
// end of the window. Activating an already billing meter is a no-op and
// returns false.
func (m *Meter) Activate(at time.Time, manual bool) (bool, error) {
	switch m.state {
	case StateIdle:
		return false, ErrNotStarted
	case StateSettled:
		return false, ErrSettled
	case StateBilling:
		return false, nil
	}

	if !manual {
		if !m.ShouldAutoActivate(at) {
			return false, nil
		}
		at = m.startedAt.Add(m.freeWindow)
	}
	if at.Before(m.startedAt) {
		at = m.startedAt
	}

	m.state = StateBilling
	m.billingStart = at
	m.waitingFrozen = at.Sub(m.startedAt)
	m.manual = manual
	return true, nil
}

// WaitingRemaining is the time left in the free window
func (m *Meter) WaitingRemaining(now time.Time) time.Duration {
	if m.state != StateWaiting {
		return 0
	}
	return nonNegative(m.freeWindow - now.Sub(m.startedAt))
}

// Elapsed returns whole seconds of active billing at now
func (m *Meter) Elapsed(now time.Time) int64 {
	switch m.state {
	case StateSettled:
		return m.settledElapsed
	case StateBilling:
		return int64(nonNegative(now.Sub(m.billingStart)) / time.Second)
	}
	return 0
}

// Settle stops the meter and returns the elapsed billing seconds it froze at
func (m *Meter) Settle(at time.Time) (int64, error) {
	switch m.state {
	case StateIdle:
		return 0, ErrNotStarted
	case StateSettled:
		return m.settledElapsed, nil
	}
	m.Freeze(m.Elapsed(at))
	return m.settledElapsed, nil
}

// Freeze settles the meter at a known elapsed value, typically the one the
// server reported on completion
func (m *Meter) Freeze(elapsedSeconds int64) {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	m.state = StateSettled
	m.settledElapsed = elapsedSeconds
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
