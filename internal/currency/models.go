package currency

import "time"

// Currency codes used by the fare pipeline
const (
	CurrencyUSD = "USD"
	CurrencyCDF = "CDF"
	CurrencyEUR = "EUR"
)

// RoundingMode defines how converted amounts are rounded
type RoundingMode string

const (
	RoundingModeNone     RoundingMode = "none"
	RoundingModeStandard RoundingMode = "standard" // half away from zero
	RoundingModeCeiling  RoundingMode = "ceiling"
	RoundingModeFloor    RoundingMode = "floor"
	RoundingModeBankers  RoundingMode = "bankers" // half to even
)

// ParseRoundingMode maps a configured name to a RoundingMode. An empty name
// is standard rounding.
func ParseRoundingMode(s string) (RoundingMode, bool) {
	switch m := RoundingMode(s); m {
	case "":
		return RoundingModeStandard, true
	case RoundingModeNone, RoundingModeStandard, RoundingModeCeiling, RoundingModeFloor, RoundingModeBankers:
		return m, true
	}
	return "", false
}

// Currency describes a display currency
type Currency struct {
	Code          string `json:"code"`
	Symbol        string `json:"symbol"`
	DecimalPlaces int    `json:"decimal_places"`
}

// ExchangeRate is a single directional rate
type ExchangeRate struct {
	FromCurrency string    `json:"from_currency"`
	ToCurrency   string    `json:"to_currency"`
	Rate         float64   `json:"rate"` // ToCurrency units per 1 FromCurrency
	Source       string    `json:"source"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Money represents an amount with currency
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Snapshot is an immutable view of the current base→display conversion
type Snapshot struct {
	BaseCurrency    string    `json:"base_currency"`
	DisplayCurrency string    `json:"display_currency"`
	Rate            float64   `json:"rate"`
	DecimalPlaces   int       `json:"decimal_places"`
	Source          string    `json:"source"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// ExchangeRate returns the snapshot as a directional rate
func (s Snapshot) ExchangeRate() *ExchangeRate {
	return &ExchangeRate{
		FromCurrency: s.BaseCurrency,
		ToCurrency:   s.DisplayCurrency,
		Rate:         s.Rate,
		Source:       s.Source,
		FetchedAt:    s.FetchedAt,
	}
}
