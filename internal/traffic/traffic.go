// Package traffic maps wall-clock time to an average road speed.
package traffic

import (
	"fmt"
	"time"

	"github.com/richxcame/ridemeter/internal/tariffs"
)

// BucketID names a traffic window
type BucketID string

const (
	Night            BucketID = "night"
	MorningRush      BucketID = "morning_rush"
	Midday           BucketID = "midday"
	EveningRush      BucketID = "evening_rush"
	Evening          BucketID = "evening"
	WeekendMorning   BucketID = "weekend_morning"
	WeekendAfternoon BucketID = "weekend_afternoon"
	WeekendEvening   BucketID = "weekend_evening"
)

// Bucket is one window of the day, covering hours [StartHour, EndHour)
type Bucket struct {
	ID                   BucketID `json:"id"`
	StartHour            int      `json:"start_hour"`
	EndHour              int      `json:"end_hour"`
	AverageSpeedKmh      float64  `json:"average_speed_kmh"`
	CongestionMultiplier float64  `json:"congestion_multiplier"`
}

// Congestion is the result of a lookup
type Congestion struct {
	Bucket          BucketID `json:"bucket"`
	AverageSpeedKmh float64  `json:"average_speed_kmh"`
	Multiplier      float64  `json:"multiplier"`
	Weekend         bool     `json:"weekend"`
}

// Table holds the bucket lists for weekdays and weekends
type Table struct {
	Weekday []Bucket
	Weekend []Bucket
}

// DefaultTable returns the calibrated speed table
func DefaultTable() Table {
	return Table{
		Weekday: []Bucket{
			{Night, 0, 6, 32, 1.0},
			{MorningRush, 6, 10, 13, 1.8},
			{Midday, 10, 16, 18, 1.3},
			{EveningRush, 16, 20, 12, 1.9},
			{Evening, 20, 24, 22, 1.2},
		},
		Weekend: []Bucket{
			{Night, 0, 7, 35, 1.0},
			{WeekendMorning, 7, 12, 22, 1.1},
			{WeekendAfternoon, 12, 20, 17, 1.4},
			{WeekendEvening, 20, 24, 24, 1.2},
		},
	}
}

// Validate checks that each bucket list covers [0,24) without gaps or overlap
func (t Table) Validate() error {
	for name, buckets := range map[string][]Bucket{"weekday": t.Weekday, "weekend": t.Weekend} {
		next := 0
		for _, b := range buckets {
			if b.StartHour != next || b.EndHour <= b.StartHour {
				return fmt.Errorf("%s bucket %s does not start at hour %d", name, b.ID, next)
			}
			if b.AverageSpeedKmh <= 0 {
				return fmt.Errorf("%s bucket %s has non-positive speed", name, b.ID)
			}
			next = b.EndHour
		}
		if next != 24 {
			return fmt.Errorf("%s buckets end at hour %d, want 24", name, next)
		}
	}
	return nil
}

// Model answers congestion queries in a fixed timezone
type Model struct {
	table Table
	loc   *time.Location
}

// NewModel creates a model. A nil location means UTC.
func NewModel(table Table, loc *time.Location) (*Model, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Model{table: table, loc: loc}, nil
}

// Location returns the timezone used for hour lookups
func (m *Model) Location() *time.Location {
	return m.loc
}

// CongestionFor returns the traffic conditions at now
func (m *Model) CongestionFor(now time.Time) Congestion {
	local := now.In(m.loc)
	weekend := local.Weekday() == time.Saturday || local.Weekday() == time.Sunday

	buckets := m.table.Weekday
	if weekend {
		buckets = m.table.Weekend
	}

	hour := local.Hour()
	for _, b := range buckets {
		if hour >= b.StartHour && hour < b.EndHour {
			return Congestion{
				Bucket:          b.ID,
				AverageSpeedKmh: b.AverageSpeedKmh,
				Multiplier:      b.CongestionMultiplier,
				Weekend:         weekend,
			}
		}
	}

	// unreachable with a validated table
	last := buckets[len(buckets)-1]
	return Congestion{Bucket: last.ID, AverageSpeedKmh: last.AverageSpeedKmh, Multiplier: last.CongestionMultiplier, Weekend: weekend}
}

// TimeOfDayAt returns the tariff time of day at t in the model's timezone
func (m *Model) TimeOfDayAt(t time.Time) tariffs.TimeOfDay {
	return tariffs.TimeOfDayForHour(t.In(m.loc).Hour())
}

var descriptions = map[BucketID]string{
	Night:            "Fluid traffic",
	MorningRush:      "Morning rush hour, heavy traffic",
	Midday:           "Moderate midday traffic",
	EveningRush:      "Evening rush hour, very heavy traffic",
	Evening:          "Light evening traffic",
	WeekendMorning:   "Light weekend morning traffic",
	WeekendAfternoon: "Busy weekend afternoon",
	WeekendEvening:   "Light weekend evening traffic",
}

// Describe maps a bucket to a display string
func Describe(id BucketID) string {
	if d, ok := descriptions[id]; ok {
		return d
	}
	return "Unknown traffic conditions"
}
