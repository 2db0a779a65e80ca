package scheduling

import "fmt"

const (
	// SlotCount is the number of bookable slots in one day.
	SlotCount = 57
	// SlotMinutes is the fixed slot resolution.
	SlotMinutes = 15

	dayStartHour = 8

	// IndexNotFound is returned when a clock time is off the grid.
	IndexNotFound = -1
)

// TimeSlot is one fixed 15-minute block of the schedulable day.
type TimeSlot struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Grid holds the day's slot sequence (08:00 through 22:15) and the
// clock-time lookup tables derived from it.
type Grid struct {
	slots      []TimeSlot
	startIndex map[string]int
	endIndex   map[string]int
}

// NewGrid builds the fixed daily grid. Slots are contiguous and strictly
// increasing; slot[i].End always equals slot[i+1].Start.
func NewGrid() *Grid {
	g := &Grid{
		slots:      make([]TimeSlot, 0, SlotCount),
		startIndex: make(map[string]int, SlotCount),
		endIndex:   make(map[string]int, SlotCount),
	}
	for i := 0; i < SlotCount; i++ {
		start := minutesToClock(dayStartHour*60 + i*SlotMinutes)
		end := minutesToClock(dayStartHour*60 + (i+1)*SlotMinutes)
		g.slots = append(g.slots, TimeSlot{Index: i, Start: start, End: end})
		g.startIndex[start] = i
		g.endIndex[end] = i
	}
	return g
}

// Slots returns the ordered slot sequence.
func (g *Grid) Slots() []TimeSlot {
	out := make([]TimeSlot, len(g.slots))
	copy(out, g.slots)
	return out
}

// IndexOfStart resolves a "HH:MM" clock time to the slot beginning at that
// time, or IndexNotFound.
func (g *Grid) IndexOfStart(t string) int {
	if idx, ok := g.startIndex[t]; ok {
		return idx
	}
	return IndexNotFound
}

// IndexOfEnd resolves a "HH:MM" clock time to the exclusive slot bound for a
// range ending at that time. A time that only matches a slot's end (the final
// grid boundary) resolves to that slot's index plus one, so half-open ranges
// ending exactly on the last boundary stay gap-free.
func (g *Grid) IndexOfEnd(t string) int {
	if idx, ok := g.startIndex[t]; ok {
		return idx
	}
	if idx, ok := g.endIndex[t]; ok {
		return idx + 1
	}
	return IndexNotFound
}

// CoveredRange reports whether every slot in [startTime, endTime) is true in
// the coverage array. A nil coverage array counts as fully covered: no
// participant selected means no conflict signal.
func (g *Grid) CoveredRange(startTime, endTime string, coverage []bool) bool {
	if coverage == nil {
		return true
	}
	startIdx := g.IndexOfStart(startTime)
	endIdx := g.IndexOfEnd(endTime)
	if startIdx == IndexNotFound || endIdx == IndexNotFound || startIdx >= endIdx {
		return false
	}
	for i := startIdx; i < endIdx; i++ {
		if i >= len(coverage) || !coverage[i] {
			return false
		}
	}
	return true
}

func minutesToClock(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

var defaultGrid = NewGrid()

// OnGrid reports whether both bounds of a time range land on slot boundaries
// of the daily grid. Validation boundaries use it to reject clock times the
// slot-index arithmetic cannot place.
func OnGrid(startTime, endTime string) bool {
	return defaultGrid.IndexOfStart(startTime) != IndexNotFound &&
		defaultGrid.IndexOfEnd(endTime) != IndexNotFound
}
