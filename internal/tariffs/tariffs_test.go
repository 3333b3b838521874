package tariffs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeOfDayForHour(t *testing.T) {
	tests := []struct {
		hour int
		want TimeOfDay
	}{
		{0, Night},
		{5, Night},
		{6, Day},
		{12, Day},
		{20, Day},
		{21, Night},
		{23, Night},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeOfDayForHour(tt.hour), "hour %d", tt.hour)
	}
}

func TestDefaultTable_Valid(t *testing.T) {
	table := DefaultTable()
	require.NoError(t, table.Validate())
	assert.Equal(t, []VehicleCategory{Business, Confort, Plus, Standard}, table.Categories())

	std, ok := table.Lookup(Standard)
	require.True(t, ok)
	require.True(t, std.HasHourly())
	assert.Equal(t, 7.0, std.HourlyRate.For(Day))
	assert.Equal(t, 10.0, std.HourlyRate.For(Night))

	biz, ok := table.Lookup(Business)
	require.True(t, ok)
	assert.False(t, biz.HasHourly())
	assert.Equal(t, 150.0, biz.DailyRate)
}

func TestTable_ValidateRejectsEmptyProfile(t *testing.T) {
	table := Table{"van": {Capacity: 8}}
	err := table.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither an hourly nor a daily rate")

	table = Table{"van": {HourlyRate: &HourlyRate{Day: 5, Night: 0}}}
	assert.Error(t, table.Validate())
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("confort")
	assert.True(t, ok)
	assert.Equal(t, Confort, c)

	_, ok = ParseCategory("luxury")
	assert.False(t, ok)
}
