package billing

import (
	"time"

	"github.com/richxcame/ridemeter/pkg/config"
)

// Default session timings
const (
	DefaultTickInterval  = time.Second
	DefaultPollInterval  = 3 * time.Second
	DefaultPollTimeout   = 5 * time.Second
	DefaultDegradedGrace = 30 * time.Second
)

type options struct {
	now         func() time.Time
	freeWindow  time.Duration
	tick        time.Duration
	poll        time.Duration
	pollTimeout time.Duration
	grace       time.Duration
	publisher   Publisher
	hints       <-chan struct{}
	onUpdate    func(Snapshot)
}

func defaultOptions() options {
	return options{
		now:         time.Now,
		freeWindow:  FreeWaitingWindow,
		tick:        DefaultTickInterval,
		poll:        DefaultPollInterval,
		pollTimeout: DefaultPollTimeout,
		grace:       DefaultDegradedGrace,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a session
type Option func(*options)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithFreeWindow overrides the free waiting window
func WithFreeWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.freeWindow = d
		}
	}
}

// WithTickInterval sets the local clock tick
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tick = d
		}
	}
}

// WithPollInterval sets the passenger poll cadence
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.poll = d
		}
	}
}

// WithPollTimeout bounds each poll attempt
func WithPollTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollTimeout = d
		}
	}
}

// WithDegradedGrace sets how long polls may fail before the session reports
// itself degraded
func WithDegradedGrace(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.grace = d
		}
	}
}

// WithPublisher publishes driver events
func WithPublisher(p Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithHints makes a passenger poll immediately whenever ch fires
func WithHints(ch <-chan struct{}) Option {
	return func(o *options) { o.hints = ch }
}

// WithOnUpdate is called with a fresh snapshot on every tick
func WithOnUpdate(fn func(Snapshot)) Option {
	return func(o *options) { o.onUpdate = fn }
}

// OptionsFromConfig maps billing configuration to session options
func OptionsFromConfig(cfg *config.BillingConfig) []Option {
	return []Option{
		WithFreeWindow(time.Duration(cfg.FreeWaitingSeconds) * time.Second),
		WithTickInterval(time.Duration(cfg.TickMillis) * time.Millisecond),
		WithPollInterval(time.Duration(cfg.PollSeconds) * time.Second),
		WithPollTimeout(time.Duration(cfg.PollTimeoutSeconds) * time.Second),
		WithDegradedGrace(time.Duration(cfg.DegradedGraceSeconds) * time.Second),
	}
}
