package currency

import (
	"math"

	"github.com/richxcame/ridemeter/pkg/i18n"
)

// Converter handles currency conversion calculations
type Converter struct {
	baseCurrency string
}

// NewConverter creates a new currency converter
func NewConverter(baseCurrency string) *Converter {
	if baseCurrency == "" {
		baseCurrency = CurrencyUSD
	}
	return &Converter{baseCurrency: baseCurrency}
}

// BaseCurrency returns the currency tariffs are held in
func (c *Converter) BaseCurrency() string {
	return c.baseCurrency
}

// Convert converts an amount from one currency to another using the given rate
func (c *Converter) Convert(amount float64, rate *ExchangeRate, roundingMode RoundingMode, decimalPlaces int) float64 {
	if rate == nil || rate.FromCurrency == rate.ToCurrency {
		return c.Round(amount, roundingMode, decimalPlaces)
	}
	return c.Round(amount*rate.Rate, roundingMode, decimalPlaces)
}

// Round rounds an amount according to the specified mode and decimal places
func (c *Converter) Round(amount float64, mode RoundingMode, decimalPlaces int) float64 {
	if decimalPlaces < 0 {
		decimalPlaces = 0
	}

	multiplier := math.Pow(10, float64(decimalPlaces))

	switch mode {
	case RoundingModeNone:
		return amount
	case RoundingModeCeiling:
		return math.Ceil(amount*multiplier) / multiplier
	case RoundingModeFloor:
		return math.Floor(amount*multiplier) / multiplier
	case RoundingModeBankers:
		return c.bankersRound(amount, decimalPlaces)
	default: // RoundingModeStandard
		return math.Round(amount*multiplier) / multiplier
	}
}

// bankersRound implements banker's rounding (round half to even)
func (c *Converter) bankersRound(amount float64, decimalPlaces int) float64 {
	multiplier := math.Pow(10, float64(decimalPlaces))
	shifted := amount * multiplier
	truncated := math.Trunc(shifted)
	fraction := shifted - truncated

	if fraction > 0.5 {
		return (truncated + 1) / multiplier
	} else if fraction < 0.5 {
		return truncated / multiplier
	}

	if int64(truncated)%2 == 0 {
		return truncated / multiplier
	}
	return (truncated + 1) / multiplier
}

// FormatAmount formats an amount with the currency symbol and its decimal places
func (c *Converter) FormatAmount(amount float64, currencyCode string) string {
	return i18n.FormatAmount(c.Round(amount, RoundingModeStandard, c.DecimalPlaces(currencyCode)), currencyCode)
}

// IsZeroCurrency returns true if the currency uses zero decimal places
func (c *Converter) IsZeroCurrency(currencyCode string) bool {
	zeroCurrencies := map[string]bool{
		"JPY": true,
		"KRW": true,
		"CDF": true,
		"XAF": true,
		"RWF": true,
		"UGX": true,
	}
	return zeroCurrencies[currencyCode]
}

// DecimalPlaces returns the display precision for currencyCode
func (c *Converter) DecimalPlaces(currencyCode string) int {
	if c.IsZeroCurrency(currencyCode) {
		return 0
	}
	return 2
}
