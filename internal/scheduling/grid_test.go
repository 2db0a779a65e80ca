package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridGeneratesContiguousSlots(t *testing.T) {
	grid := NewGrid()
	slots := grid.Slots()
	require.Len(t, slots, SlotCount)

	assert.Equal(t, "08:00", slots[0].Start)
	assert.Equal(t, "08:15", slots[0].End)
	assert.Equal(t, "22:00", slots[SlotCount-1].Start)
	assert.Equal(t, "22:15", slots[SlotCount-1].End)

	for i := 0; i < len(slots)-1; i++ {
		assert.Equal(t, i, slots[i].Index)
		assert.Equal(t, slots[i].End, slots[i+1].Start, "slot %d must abut slot %d", i, i+1)
		assert.Less(t, slots[i].Start, slots[i+1].Start)
	}
}

func TestGridIndexLookups(t *testing.T) {
	grid := NewGrid()

	assert.Equal(t, 0, grid.IndexOfStart("08:00"))
	assert.Equal(t, 8, grid.IndexOfStart("10:00"))
	assert.Equal(t, 56, grid.IndexOfStart("22:00"))
	assert.Equal(t, IndexNotFound, grid.IndexOfStart("22:15"))
	assert.Equal(t, IndexNotFound, grid.IndexOfStart("07:45"))
	assert.Equal(t, IndexNotFound, grid.IndexOfStart("10:07"))

	// Interior end times resolve through the matching slot start.
	assert.Equal(t, 12, grid.IndexOfEnd("11:00"))
	// The final boundary only exists as a slot end and must not leave a gap.
	assert.Equal(t, 57, grid.IndexOfEnd("22:15"))
	assert.Equal(t, IndexNotFound, grid.IndexOfEnd("23:00"))
}

func TestGridCoveredRange(t *testing.T) {
	grid := NewGrid()

	coverage := make([]bool, SlotCount)
	for i := grid.IndexOfStart("09:00"); i < grid.IndexOfEnd("12:00"); i++ {
		coverage[i] = true
	}

	assert.True(t, grid.CoveredRange("10:00", "11:00", coverage))
	assert.True(t, grid.CoveredRange("09:00", "12:00", coverage))
	assert.False(t, grid.CoveredRange("11:30", "12:30", coverage))
	assert.False(t, grid.CoveredRange("08:00", "09:30", coverage))

	// Absent coverage means no participant selected: fully covered.
	assert.True(t, grid.CoveredRange("08:00", "22:15", nil))

	// Idempotent: identical inputs yield identical results.
	first := grid.CoveredRange("10:00", "11:00", coverage)
	second := grid.CoveredRange("10:00", "11:00", coverage)
	assert.Equal(t, first, second)
}

func TestOnGrid(t *testing.T) {
	assert.True(t, OnGrid("10:00", "11:00"))
	assert.True(t, OnGrid("08:00", "22:15"))

	assert.False(t, OnGrid("10:07", "11:07"))
	assert.False(t, OnGrid("07:45", "09:00"))
	assert.False(t, OnGrid("10:00", "23:00"))
}

func TestGridCoveredRangeRejectsOffGridTimes(t *testing.T) {
	grid := NewGrid()
	coverage := make([]bool, SlotCount)
	for i := range coverage {
		coverage[i] = true
	}

	assert.False(t, grid.CoveredRange("10:07", "11:00", coverage))
	assert.False(t, grid.CoveredRange("11:00", "10:00", coverage))
}
