package currency

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/ridemeter/pkg/logger"
	"go.uber.org/zap"
)

var exchangeRateGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "ridemeter_exchange_rate",
		Help: "Display currency units per base currency unit currently used for pricing",
	},
	[]string{"from", "to"},
)

// Refresher owns the exchange-rate lifecycle: an initial load, periodic
// refresh, and read-only snapshots for pricing. A failed refresh keeps the
// last known rate.
type Refresher struct {
	source    RateSource
	converter *Converter
	interval  time.Duration

	mu      sync.RWMutex
	current Snapshot
}

// NewRefresher creates a refresher seeded with initialRate
func NewRefresher(source RateSource, baseCurrency, displayCurrency string, initialRate float64, interval time.Duration) *Refresher {
	converter := NewConverter(baseCurrency)
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	r := &Refresher{
		source:    source,
		converter: converter,
		interval:  interval,
		current: Snapshot{
			BaseCurrency:    converter.BaseCurrency(),
			DisplayCurrency: displayCurrency,
			Rate:            initialRate,
			DecimalPlaces:   converter.DecimalPlaces(displayCurrency),
			Source:          "config",
			FetchedAt:       time.Now(),
		},
	}
	if baseCurrency == displayCurrency {
		r.current.Rate = 1
	}
	exchangeRateGauge.WithLabelValues(r.current.BaseCurrency, displayCurrency).Set(r.current.Rate)
	return r
}

// Current returns the snapshot in effect
func (r *Refresher) Current() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Load fetches the rate once
func (r *Refresher) Load(ctx context.Context) error {
	snap := r.Current()
	if snap.BaseCurrency == snap.DisplayCurrency {
		return nil
	}

	rate, err := r.source.GetExchangeRate(ctx)
	if err != nil {
		logger.WithContext(ctx).Warn("exchange rate refresh failed, keeping last rate",
			zap.Float64("rate", snap.Rate),
			zap.Error(err),
		)
		return err
	}

	r.mu.Lock()
	r.current.Rate = rate
	r.current.Source = "source"
	r.current.FetchedAt = time.Now()
	r.mu.Unlock()

	exchangeRateGauge.WithLabelValues(snap.BaseCurrency, snap.DisplayCurrency).Set(rate)
	if rate != snap.Rate {
		logger.Info("exchange rate updated",
			zap.String("pair", snap.BaseCurrency+"/"+snap.DisplayCurrency),
			zap.Float64("old", snap.Rate),
			zap.Float64("new", rate),
		)
	}
	return nil
}

// Run refreshes on the configured interval until ctx is done
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Load(ctx)
		}
	}
}
