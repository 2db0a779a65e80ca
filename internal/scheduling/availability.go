package scheduling

import (
	"strings"
	"time"
)

// Mode selects whether date-specific exceptions participate in resolution.
type Mode string

const (
	// ModeWithSpecial lets an exceptional window for the exact date win over
	// the recurring weekly window.
	ModeWithSpecial Mode = "with-special"
	// ModeRegularOnly ignores exceptions entirely.
	ModeRegularOnly Mode = "regular-only"
)

// TimeRange is one allowed "HH:MM" interval inside a window.
type TimeRange struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Window is a person's availability for either a named weekday (recurring)
// or one specific date (exceptional). FullDay true means available all day.
// FullDay false with no ranges means explicitly unavailable all day.
type Window struct {
	Weekday     string      `json:"weekday,omitempty"`
	Date        string      `json:"date,omitempty"`
	FullDay     bool        `json:"fullDay"`
	Ranges      []TimeRange `json:"ranges,omitempty"`
	Exceptional bool        `json:"exceptional,omitempty"`
}

// PersonAvailability is the read-only availability snapshot for one person.
type PersonAvailability struct {
	Regular    []Window
	Exceptions []Window
}

// WeekdayName maps a date to the SUNDAY..SATURDAY naming used by windows.
func WeekdayName(date time.Time) string {
	return strings.ToUpper(date.Weekday().String())
}

// ResolveForDate picks the window that governs one calendar date, or nil when
// the person has no availability data for it. nil is "no data", which
// downstream treats as always available; it is distinct from an explicit
// window whose ranges fail to cover a requested time.
func ResolveForDate(date time.Time, avail PersonAvailability, mode Mode) *Window {
	day := date.Format("2006-01-02")
	if mode == ModeWithSpecial {
		for i := range avail.Exceptions {
			if avail.Exceptions[i].Date == day {
				w := avail.Exceptions[i]
				w.Exceptional = true
				return &w
			}
		}
	}
	weekday := WeekdayName(date)
	for i := range avail.Regular {
		if strings.EqualFold(avail.Regular[i].Weekday, weekday) {
			w := avail.Regular[i]
			return &w
		}
	}
	return nil
}

// Rasterize projects a window onto the grid as a per-slot coverage array.
// A nil window yields all-false; callers own the nil-vs-array distinction for
// "no data" semantics. Ranges are additive, never subtractive.
func Rasterize(w *Window, g *Grid) []bool {
	coverage := make([]bool, SlotCount)
	if w == nil {
		return coverage
	}
	if w.FullDay {
		for i := range coverage {
			coverage[i] = true
		}
		return coverage
	}
	for _, r := range w.Ranges {
		startIdx := g.IndexOfStart(r.StartTime)
		endIdx := g.IndexOfEnd(r.EndTime)
		if startIdx == IndexNotFound || endIdx == IndexNotFound {
			continue
		}
		for i := startIdx; i < endIdx && i < len(coverage); i++ {
			coverage[i] = true
		}
	}
	return coverage
}

func anyCovered(coverage []bool) bool {
	for _, covered := range coverage {
		if covered {
			return true
		}
	}
	return false
}
