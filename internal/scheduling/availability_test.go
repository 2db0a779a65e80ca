package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 is a Monday.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestResolveForDateExceptionWins(t *testing.T) {
	avail := PersonAvailability{
		Regular: []Window{
			{Weekday: "MONDAY", Ranges: []TimeRange{{StartTime: "09:00", EndTime: "12:00"}}},
		},
		Exceptions: []Window{
			{Date: "2024-01-01", FullDay: false}, // away all day
		},
	}

	resolved := ResolveForDate(monday, avail, ModeWithSpecial)
	require.NotNil(t, resolved)
	assert.True(t, resolved.Exceptional)
	assert.False(t, resolved.FullDay)
	assert.Empty(t, resolved.Ranges)
}

func TestResolveForDateRegularOnlyIgnoresExceptions(t *testing.T) {
	avail := PersonAvailability{
		Regular: []Window{
			{Weekday: "MONDAY", Ranges: []TimeRange{{StartTime: "09:00", EndTime: "12:00"}}},
		},
		Exceptions: []Window{
			{Date: "2024-01-01", FullDay: false},
		},
	}

	resolved := ResolveForDate(monday, avail, ModeRegularOnly)
	require.NotNil(t, resolved)
	assert.False(t, resolved.Exceptional)
	assert.Equal(t, "MONDAY", resolved.Weekday)
	require.Len(t, resolved.Ranges, 1)
	assert.Equal(t, "09:00", resolved.Ranges[0].StartTime)
}

func TestResolveForDateNoData(t *testing.T) {
	resolved := ResolveForDate(monday, PersonAvailability{}, ModeWithSpecial)
	assert.Nil(t, resolved, "absence of data is distinct from explicit unavailability")
}

func TestRasterizeFullDay(t *testing.T) {
	grid := NewGrid()
	coverage := Rasterize(&Window{FullDay: true}, grid)
	require.Len(t, coverage, SlotCount)
	for i, covered := range coverage {
		assert.True(t, covered, "slot %d", i)
	}
}

func TestRasterizeNilWindow(t *testing.T) {
	grid := NewGrid()
	coverage := Rasterize(nil, grid)
	require.Len(t, coverage, SlotCount)
	assert.False(t, anyCovered(coverage))
}

func TestRasterizeRangesAreAdditive(t *testing.T) {
	grid := NewGrid()
	window := &Window{Ranges: []TimeRange{
		{StartTime: "09:00", EndTime: "10:00"},
		{StartTime: "09:30", EndTime: "11:00"},
		{StartTime: "16:00", EndTime: "17:00"},
	}}
	coverage := Rasterize(window, grid)

	assert.True(t, grid.CoveredRange("09:00", "11:00", coverage))
	assert.True(t, grid.CoveredRange("16:00", "17:00", coverage))
	assert.False(t, grid.CoveredRange("11:00", "12:00", coverage))
	assert.False(t, grid.CoveredRange("08:00", "09:00", coverage))
}

func TestRasterizeSkipsOffGridRanges(t *testing.T) {
	grid := NewGrid()
	window := &Window{Ranges: []TimeRange{
		{StartTime: "07:00", EndTime: "07:30"},
		{StartTime: "10:00", EndTime: "10:30"},
	}}
	coverage := Rasterize(window, grid)

	assert.True(t, grid.CoveredRange("10:00", "10:30", coverage))
	assert.False(t, coverage[0])
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "MONDAY", WeekdayName(monday))
	assert.Equal(t, "SUNDAY", WeekdayName(monday.AddDate(0, 0, -1)))
	assert.Equal(t, "SATURDAY", WeekdayName(monday.AddDate(0, 0, 5)))
}
