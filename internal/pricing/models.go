package pricing

import (
	"github.com/richxcame/ridemeter/internal/currency"
	"github.com/richxcame/ridemeter/internal/promos"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/richxcame/ridemeter/pkg/config"
)

// ServiceType selects how a ride is priced
type ServiceType string

const (
	ServiceHourly          ServiceType = "hourly"
	ServiceDaily           ServiceType = "daily"
	ServiceAirportTransfer ServiceType = "airport_transfer"
)

// ParseServiceType accepts the API spellings, including "airport"
func ParseServiceType(s string) (ServiceType, bool) {
	switch s {
	case "", "hourly":
		return ServiceHourly, true
	case "daily":
		return ServiceDaily, true
	case "airport", "airport_transfer":
		return ServiceAirportTransfer, true
	}
	return ServiceType(s), false
}

// PricingConfig is the injected, per-call pricing context. Amounts named
// "base" are in BaseCurrency; everything returned to callers is in
// DisplayCurrency.
type PricingConfig struct {
	BaseCurrency          string  `json:"base_currency"`
	DisplayCurrency       string  `json:"display_currency"`
	ExchangeRate          float64 `json:"exchange_rate"`
	DisplayDecimals       int     `json:"display_decimals"`
	WalletTierThreshold   float64 `json:"wallet_tier_threshold"` // base currency
	WalletTierPct         float64 `json:"wallet_tier_pct"`
	FallbackFare          float64 `json:"fallback_fare"` // base currency
	PlatformCommissionPct float64 `json:"platform_commission_pct"`
	// Rounding applies to every display amount; empty means standard
	Rounding currency.RoundingMode `json:"rounding"`
}

// NewPricingConfig combines static settings with the current rate snapshot
func NewPricingConfig(cfg *config.PricingConfig, snap currency.Snapshot) PricingConfig {
	rounding, ok := currency.ParseRoundingMode(cfg.RoundingMode)
	if !ok {
		rounding = currency.RoundingModeStandard
	}
	return PricingConfig{
		BaseCurrency:          snap.BaseCurrency,
		DisplayCurrency:       snap.DisplayCurrency,
		ExchangeRate:          snap.Rate,
		DisplayDecimals:       snap.DecimalPlaces,
		WalletTierThreshold:   cfg.WalletTierThreshold,
		WalletTierPct:         cfg.WalletTierPct,
		FallbackFare:          cfg.FallbackFare,
		PlatformCommissionPct: cfg.PlatformCommissionPct,
		Rounding:              rounding,
	}
}

// Rate returns the base→display rate
func (c PricingConfig) Rate() *currency.ExchangeRate {
	return &currency.ExchangeRate{
		FromCurrency: c.BaseCurrency,
		ToCurrency:   c.DisplayCurrency,
		Rate:         c.ExchangeRate,
		Source:       "pricing_config",
	}
}

func (c PricingConfig) rounding() currency.RoundingMode {
	if c.Rounding == "" {
		return currency.RoundingModeStandard
	}
	return c.Rounding
}

// WalletThresholdIn expresses the wallet threshold in currencyCode. Only the
// base and display currencies are supported.
func (c PricingConfig) WalletThresholdIn(currencyCode string) (float64, bool) {
	switch currencyCode {
	case c.BaseCurrency:
		return c.WalletTierThreshold, true
	case c.DisplayCurrency:
		return c.WalletTierThreshold * c.ExchangeRate, true
	}
	return 0, false
}

// FareFlags are optional pricing modifiers
type FareFlags struct {
	RemoteZone bool `json:"remote_zone"`
	RoundTrip  bool `json:"round_trip"`
}

// FareRequest is the Calculator input
type FareRequest struct {
	Category    tariffs.VehicleCategory
	ServiceType ServiceType
	DurationMin int
	DistanceKm  float64
	TimeOfDay   tariffs.TimeOfDay
	Flags       FareFlags
}

// FareQuote is the pre-discount fare
type FareQuote struct {
	Category           tariffs.VehicleCategory `json:"category"`
	ServiceType        ServiceType             `json:"service_type"`
	TimeOfDay          tariffs.TimeOfDay       `json:"time_of_day"`
	BilledHours        int                     `json:"billed_hours,omitempty"`
	HourlyRate         float64                 `json:"hourly_rate,omitempty"` // base currency
	RemoteZoneCharge   float64                 `json:"remote_zone_charge,omitempty"`
	BaseFare           float64                 `json:"base_fare"` // base currency
	BaseCurrency       string                  `json:"base_currency"`
	Amount             float64                 `json:"amount"` // display currency
	Currency           string                  `json:"currency"`
	ExchangeRate       float64                 `json:"exchange_rate"`
	PlatformCommission float64                 `json:"platform_commission"`
	DriverEarnings     float64                 `json:"driver_earnings"`
	Fallback           bool                    `json:"fallback,omitempty"`
}

// Discounts are the adjustments supplied by wallet and promo lookups
type Discounts struct {
	WalletQualifies bool             `json:"wallet_qualifies"`
	Promo           *promos.Discount `json:"promo,omitempty"`
}

// DiscountResult breaks down ApplyDiscounts
type DiscountResult struct {
	Original       float64 `json:"original"`
	WalletDiscount float64 `json:"wallet_discount"`
	PromoDiscount  float64 `json:"promo_discount"`
	TotalDiscount  float64 `json:"total_discount"`
	Final          float64 `json:"final"`
	Clamped        bool    `json:"clamped,omitempty"`
}

// Settlement is the final fare of a completed ride
type Settlement struct {
	EstimatedPrice     float64 `json:"estimated_price"`
	Surcharge          float64 `json:"surcharge"`
	TotalDiscount      float64 `json:"total_discount"`
	FinalPrice         float64 `json:"final_price"`
	Currency           string  `json:"currency"`
	PlatformCommission float64 `json:"platform_commission"`
	DriverEarnings     float64 `json:"driver_earnings"`
	Clamped            bool    `json:"clamped,omitempty"`
}
