// Package tariffs holds the static per-category pricing rules. Amounts are in
// the base currency.
package tariffs

import (
	"fmt"
	"sort"
)

// VehicleCategory identifies a tariff profile
type VehicleCategory string

const (
	Standard VehicleCategory = "standard"
	Confort  VehicleCategory = "confort"
	Plus     VehicleCategory = "plus"
	Business VehicleCategory = "business"
)

// TimeOfDay selects the day or night hourly rate
type TimeOfDay string

const (
	Day   TimeOfDay = "day"
	Night TimeOfDay = "night"
)

// Day tariff hours are [DayStartHour, NightStartHour)
const (
	DayStartHour   = 6
	NightStartHour = 21
)

// TimeOfDayForHour maps a wall-clock hour to day or night
func TimeOfDayForHour(hour int) TimeOfDay {
	if hour >= DayStartHour && hour < NightStartHour {
		return Day
	}
	return Night
}

// HourlyRate holds the per-hour price for each time of day
type HourlyRate struct {
	Day   float64 `json:"day"`
	Night float64 `json:"night"`
}

// For returns the rate applicable to tod
func (h HourlyRate) For(tod TimeOfDay) float64 {
	if tod == Night {
		return h.Night
	}
	return h.Day
}

// AirportFare holds flat airport transfer prices
type AirportFare struct {
	OneWay    float64 `json:"one_way"`
	RoundTrip float64 `json:"round_trip"`
}

// TariffProfile is the pricing rule set for one vehicle category.
// A nil HourlyRate means the category is booked by the day only.
type TariffProfile struct {
	HourlyRate              *HourlyRate `json:"hourly_rate,omitempty"`
	DailyRate               float64     `json:"daily_rate"`
	AirportFare             AirportFare `json:"airport_fare"`
	Capacity                int         `json:"capacity"`
	MinimumCreditToGoOnline float64     `json:"minimum_credit_to_go_online"`
}

// HasHourly reports whether the profile can be billed per hour
func (p TariffProfile) HasHourly() bool {
	return p.HourlyRate != nil
}

// Table maps categories to their profiles
type Table map[VehicleCategory]TariffProfile

// DefaultTable returns the production tariff table
func DefaultTable() Table {
	return Table{
		Standard: {
			HourlyRate:              &HourlyRate{Day: 7, Night: 10},
			DailyRate:               60,
			AirportFare:             AirportFare{OneWay: 25, RoundTrip: 45},
			Capacity:                4,
			MinimumCreditToGoOnline: 5,
		},
		Confort: {
			HourlyRate:              &HourlyRate{Day: 9, Night: 12},
			DailyRate:               80,
			AirportFare:             AirportFare{OneWay: 30, RoundTrip: 55},
			Capacity:                4,
			MinimumCreditToGoOnline: 7,
		},
		Plus: {
			HourlyRate:              &HourlyRate{Day: 12, Night: 15},
			DailyRate:               100,
			AirportFare:             AirportFare{OneWay: 40, RoundTrip: 70},
			Capacity:                6,
			MinimumCreditToGoOnline: 10,
		},
		Business: {
			DailyRate:               150,
			AirportFare:             AirportFare{OneWay: 60, RoundTrip: 100},
			Capacity:                4,
			MinimumCreditToGoOnline: 20,
		},
	}
}

// Lookup returns the profile for category
func (t Table) Lookup(category VehicleCategory) (TariffProfile, bool) {
	p, ok := t[category]
	return p, ok
}

// Categories returns the known categories in stable order
func (t Table) Categories() []VehicleCategory {
	out := make([]VehicleCategory, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks that every category has an hourly profile or a daily-only
// profile, and that no rate is negative.
func (t Table) Validate() error {
	for _, c := range t.Categories() {
		p := t[c]
		if p.HourlyRate == nil && p.DailyRate <= 0 {
			return fmt.Errorf("category %s has neither an hourly nor a daily rate", c)
		}
		if p.HourlyRate != nil && (p.HourlyRate.Day <= 0 || p.HourlyRate.Night <= 0) {
			return fmt.Errorf("category %s has a non-positive hourly rate", c)
		}
		if p.DailyRate < 0 || p.AirportFare.OneWay < 0 || p.AirportFare.RoundTrip < 0 {
			return fmt.Errorf("category %s has a negative flat fare", c)
		}
	}
	return nil
}

// ParseCategory converts s to a known category
func ParseCategory(s string) (VehicleCategory, bool) {
	c := VehicleCategory(s)
	switch c {
	case Standard, Confort, Plus, Business:
		return c, true
	}
	return c, false
}
