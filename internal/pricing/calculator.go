package pricing

import (
	"math"

	"github.com/richxcame/ridemeter/internal/currency"
	"github.com/richxcame/ridemeter/internal/promos"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/richxcame/ridemeter/pkg/logger"
	"go.uber.org/zap"
)

// Calculator computes fares from the tariff table. It is pure apart from
// audit logging.
type Calculator struct {
	tariffs   tariffs.Table
	converter *currency.Converter
}

// NewCalculator creates a calculator over table
func NewCalculator(table tariffs.Table) *Calculator {
	return &Calculator{tariffs: table, converter: currency.NewConverter("")}
}

// Tariffs returns the table in use
func (c *Calculator) Tariffs() tariffs.Table {
	return c.tariffs
}

// BilledHours is max(1, ceil(durationMin/60))
func BilledHours(durationMin int) int {
	if durationMin <= 60 {
		return 1
	}
	return (durationMin + 59) / 60
}

// ExtraHours counts completed billing hours beyond the first, which the
// estimate already covers.
func ExtraHours(elapsedSeconds int64) int {
	if elapsedSeconds <= 0 {
		return 0
	}
	minutes := elapsedSeconds / 60
	return int(minutes / 60)
}

// ComputeFare prices a ride before discounts. Unknown categories get the
// configured fallback fare instead of an error.
func (c *Calculator) ComputeFare(cfg PricingConfig, req FareRequest) FareQuote {
	q := FareQuote{
		Category:     req.Category,
		ServiceType:  req.ServiceType,
		TimeOfDay:    req.TimeOfDay,
		BaseCurrency: cfg.BaseCurrency,
		Currency:     cfg.DisplayCurrency,
		ExchangeRate: cfg.ExchangeRate,
	}

	profile, ok := c.tariffs.Lookup(req.Category)
	if !ok {
		logger.Warn("unknown vehicle category, using fallback fare",
			zap.String("category", string(req.Category)),
			zap.Float64("fallback_fare", cfg.FallbackFare),
		)
		q.Fallback = true
		q.BaseFare = cfg.FallbackFare
		return c.finish(cfg, q)
	}

	serviceType := req.ServiceType
	if serviceType == ServiceHourly && !profile.HasHourly() {
		serviceType = ServiceDaily
	}
	q.ServiceType = serviceType

	switch serviceType {
	case ServiceDaily:
		q.BaseFare = profile.DailyRate
	case ServiceAirportTransfer:
		if req.Flags.RoundTrip {
			q.BaseFare = profile.AirportFare.RoundTrip
		} else {
			q.BaseFare = profile.AirportFare.OneWay
		}
	default:
		rate := profile.HourlyRate.For(req.TimeOfDay)
		q.HourlyRate = rate
		q.BilledHours = BilledHours(req.DurationMin)
		q.BaseFare = rate * float64(q.BilledHours)
		if req.Flags.RemoteZone {
			// the first hour is doubled, not the whole fare
			q.RemoteZoneCharge = rate
			q.BaseFare += rate
		}
	}

	return c.finish(cfg, q)
}

// finish converts the base fare last, after hour rounding
func (c *Calculator) finish(cfg PricingConfig, q FareQuote) FareQuote {
	q.Amount = c.toDisplay(cfg, q.BaseFare)
	q.PlatformCommission, q.DriverEarnings = c.split(cfg, q.Amount)
	return q
}

// ApplyDiscounts applies the wallet tier then the promo code to a display
// currency amount. The result is never negative; a clamp is logged.
func (c *Calculator) ApplyDiscounts(cfg PricingConfig, amount float64, d Discounts) DiscountResult {
	res := DiscountResult{Original: amount, Final: amount}

	if d.WalletQualifies && cfg.WalletTierPct > 0 {
		tier := promos.WalletTier{Threshold: cfg.WalletTierThreshold, Pct: cfg.WalletTierPct}
		after, clamped := tier.Discount().Apply(res.Final, cfg.DisplayDecimals)
		res.WalletDiscount = res.Final - after
		res.Final = after
		res.Clamped = res.Clamped || clamped
	}

	if d.Promo != nil {
		after, clamped := d.Promo.Apply(res.Final, cfg.DisplayDecimals)
		res.PromoDiscount = res.Final - after
		res.Final = after
		res.Clamped = res.Clamped || clamped
	}

	if res.Final < 0 {
		res.Final = 0
		res.Clamped = true
	}
	res.TotalDiscount = res.Original - res.Final

	if res.Clamped {
		logger.Warn("discounted fare clamped at zero",
			zap.Float64("amount", amount),
			zap.Float64("wallet_discount", res.WalletDiscount),
			zap.Float64("promo_discount", res.PromoDiscount),
			zap.String("currency", cfg.DisplayCurrency),
		)
	}
	return res
}

// Surcharge is hourly[tod] per completed billing hour beyond the first, in
// the display currency. Categories without an hourly profile pay none.
func (c *Calculator) Surcharge(cfg PricingConfig, category tariffs.VehicleCategory, tod tariffs.TimeOfDay, elapsedSeconds int64) float64 {
	profile, ok := c.tariffs.Lookup(category)
	if !ok || !profile.HasHourly() {
		return 0
	}
	extra := ExtraHours(elapsedSeconds)
	if extra == 0 {
		return 0
	}
	rate := c.toDisplay(cfg, profile.HourlyRate.For(tod))
	return rate * float64(extra)
}

// Settle computes the final fare: estimate + surcharge - discounts, floored
// at zero. Discounts are taken on the estimate only.
func (c *Calculator) Settle(cfg PricingConfig, estimated, surcharge float64, d Discounts) Settlement {
	disc := c.ApplyDiscounts(cfg, estimated, d)

	final := c.round(cfg, estimated+surcharge-disc.TotalDiscount)
	clamped := disc.Clamped
	if final < 0 {
		final = 0
		clamped = true
	}

	s := Settlement{
		EstimatedPrice: estimated,
		Surcharge:      surcharge,
		TotalDiscount:  disc.TotalDiscount,
		FinalPrice:     final,
		Currency:       cfg.DisplayCurrency,
		Clamped:        clamped,
	}
	s.PlatformCommission, s.DriverEarnings = c.split(cfg, final)
	return s
}

// ToDisplay converts a base currency amount for callers outside the package
func (c *Calculator) ToDisplay(cfg PricingConfig, base float64) float64 {
	return c.toDisplay(cfg, base)
}

func (c *Calculator) toDisplay(cfg PricingConfig, base float64) float64 {
	return c.converter.Convert(base, cfg.Rate(), cfg.rounding(), cfg.DisplayDecimals)
}

func (c *Calculator) round(cfg PricingConfig, v float64) float64 {
	return c.converter.Round(v, cfg.rounding(), cfg.DisplayDecimals)
}

func (c *Calculator) split(cfg PricingConfig, amount float64) (commission, earnings float64) {
	commission = c.round(cfg, amount*cfg.PlatformCommissionPct/100)
	earnings = c.round(cfg, amount-commission)
	return commission, math.Max(0, earnings)
}
