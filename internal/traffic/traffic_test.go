package traffic

import (
	"testing"
	"time"

	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel(DefaultTable(), time.UTC)
	require.NoError(t, err)
	return m
}

func TestDefaultTable_CoversEveryHour(t *testing.T) {
	require.NoError(t, DefaultTable().Validate())
}

func TestTable_ValidateRejectsGaps(t *testing.T) {
	table := DefaultTable()
	table.Weekday = table.Weekday[:4]
	assert.Error(t, table.Validate())

	table = DefaultTable()
	table.Weekend[1].StartHour = 8
	assert.Error(t, table.Validate())
}

func TestCongestionFor(t *testing.T) {
	m := newTestModel(t)

	// 2024-06-05 is a Wednesday, 2024-06-08 a Saturday
	tests := []struct {
		name   string
		at     time.Time
		bucket BucketID
		speed  float64
	}{
		{"weekday night", time.Date(2024, 6, 5, 3, 0, 0, 0, time.UTC), Night, 32},
		{"weekday morning rush start", time.Date(2024, 6, 5, 6, 0, 0, 0, time.UTC), MorningRush, 13},
		{"weekday midday", time.Date(2024, 6, 5, 12, 30, 0, 0, time.UTC), Midday, 18},
		{"weekday evening rush", time.Date(2024, 6, 5, 19, 59, 0, 0, time.UTC), EveningRush, 12},
		{"weekday evening", time.Date(2024, 6, 5, 23, 0, 0, 0, time.UTC), Evening, 22},
		{"weekend early", time.Date(2024, 6, 8, 6, 30, 0, 0, time.UTC), Night, 35},
		{"weekend morning", time.Date(2024, 6, 8, 7, 0, 0, 0, time.UTC), WeekendMorning, 22},
		{"weekend afternoon", time.Date(2024, 6, 9, 15, 0, 0, 0, time.UTC), WeekendAfternoon, 17},
		{"weekend evening", time.Date(2024, 6, 9, 21, 0, 0, 0, time.UTC), WeekendEvening, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := m.CongestionFor(tt.at)
			assert.Equal(t, tt.bucket, c.Bucket)
			assert.Equal(t, tt.speed, c.AverageSpeedKmh)
		})
	}
}

func TestCongestionFor_UsesModelTimezone(t *testing.T) {
	kinshasa := time.FixedZone("WAT", 3600)
	m, err := NewModel(DefaultTable(), kinshasa)
	require.NoError(t, err)

	// 05:30 UTC is 06:30 in Kinshasa
	c := m.CongestionFor(time.Date(2024, 6, 5, 5, 30, 0, 0, time.UTC))
	assert.Equal(t, MorningRush, c.Bucket)
	assert.Equal(t, tariffs.Day, m.TimeOfDayAt(time.Date(2024, 6, 5, 5, 30, 0, 0, time.UTC)))
	assert.Equal(t, tariffs.Night, m.TimeOfDayAt(time.Date(2024, 6, 5, 20, 0, 0, 0, time.UTC)))
}

func TestCongestionFor_Deterministic(t *testing.T) {
	m := newTestModel(t)
	at := time.Date(2024, 6, 5, 8, 15, 0, 0, time.UTC)
	assert.Equal(t, m.CongestionFor(at), m.CongestionFor(at))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Evening rush hour, very heavy traffic", Describe(EveningRush))
	assert.Equal(t, "Unknown traffic conditions", Describe("gridlock"))
	for _, b := range DefaultTable().Weekday {
		assert.NotEqual(t, "Unknown traffic conditions", Describe(b.ID))
	}
}
