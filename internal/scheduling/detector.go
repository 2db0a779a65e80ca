package scheduling

import (
	"fmt"
	"time"
)

// ConflictType tags one reason a candidate date cannot be booked as-is.
type ConflictType string

const (
	ConflictStudentUnavailable ConflictType = "STUDENT_UNAVAILABLE"
	ConflictTeacherUnavailable ConflictType = "TEACHER_UNAVAILABLE"
	ConflictStudentWrongTime   ConflictType = "STUDENT_WRONG_TIME"
	ConflictTeacherWrongTime   ConflictType = "TEACHER_WRONG_TIME"
	ConflictVacation           ConflictType = "VACATION"
	ConflictBooth              ConflictType = "BOOTH_CONFLICT"
)

// Role identifies which side of the lesson a participant is on.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Participant points at the person a conflict belongs to.
type Participant struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Conflict is one detected booking problem for one occurrence date. A date
// can carry several Conflict records with different types.
type Conflict struct {
	Date           time.Time    `json:"date"`
	Type           ConflictType `json:"type"`
	Details        string       `json:"details"`
	Participant    *Participant `json:"participant,omitempty"`
	TeacherSlots   []bool       `json:"teacherSlots,omitempty"`
	StudentSlots   []bool       `json:"studentSlots,omitempty"`
	AvailableSlots []bool       `json:"availableSlots,omitempty"`
}

// BookedSession is the snapshot of an already-committed lesson used for
// double-booking checks.
type BookedSession struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	TeacherID string    `json:"teacherId"`
	StudentID string    `json:"studentId"`
	BoothID   string    `json:"boothId"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

// Occurrence is one candidate date with whatever conflicts were detected.
// Zero conflicts means the date will be created as requested.
type Occurrence struct {
	Date      time.Time  `json:"date"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Flagged reports whether the occurrence needs operator resolution.
func (o Occurrence) Flagged() bool {
	return len(o.Conflicts) > 0
}

// DetectorInput bundles the resolved snapshots the detector runs against.
// Existing must already exclude sessions belonging to the series being
// edited, and should be in stable (date, start time) order so repeated runs
// yield identical conflict lists.
type DetectorInput struct {
	Definition SeriesDefinition
	Teacher    PersonAvailability
	Student    PersonAvailability
	Existing   []BookedSession
	// CheckAvailability toggles the soft availability checks. Booth and
	// participant double-booking are hard resource conflicts and are never
	// suppressed.
	CheckAvailability bool
	HorizonMonths     int
}

// Detector classifies each candidate occurrence of a series as conflict-free
// or flagged. It is pure: all data arrives resolved in DetectorInput.
type Detector struct {
	grid *Grid
}

// NewDetector builds a detector over the given grid.
func NewDetector(grid *Grid) *Detector {
	if grid == nil {
		grid = NewGrid()
	}
	return &Detector{grid: grid}
}

// Grid exposes the detector's slot grid.
func (d *Detector) Grid() *Grid {
	return d.grid
}

// Detect enumerates the series' candidate dates in ascending order and tags
// each with its conflicts. Availability checks run before booking checks so
// the per-date conflict order is deterministic.
func (d *Detector) Detect(in DetectorInput) []Occurrence {
	dates := in.Definition.Occurrences(in.HorizonMonths)
	byDate := make(map[string][]BookedSession, len(in.Existing))
	for _, s := range in.Existing {
		key := DateKey(s.Date)
		byDate[key] = append(byDate[key], s)
	}

	occurrences := make([]Occurrence, 0, len(dates))
	for _, date := range dates {
		occ := Occurrence{Date: date}

		// Each person's window is resolved once per date and shared between
		// the coverage snapshot and the availability check.
		teacherWindow := ResolveForDate(date, in.Teacher, ModeWithSpecial)
		studentWindow := ResolveForDate(date, in.Student, ModeWithSpecial)
		teacherSlots := d.rasterize(teacherWindow)
		studentSlots := d.rasterize(studentWindow)

		if in.CheckAvailability {
			occ.Conflicts = append(occ.Conflicts, d.availabilityConflicts(date, in.Definition, RoleTeacher, teacherWindow, teacherSlots, teacherSlots, studentSlots)...)
			occ.Conflicts = append(occ.Conflicts, d.availabilityConflicts(date, in.Definition, RoleStudent, studentWindow, studentSlots, teacherSlots, studentSlots)...)
		}

		occ.Conflicts = append(occ.Conflicts, d.bookingConflicts(date, in.Definition, byDate[DateKey(date)])...)
		occurrences = append(occurrences, occ)
	}
	return occurrences
}

// rasterize keeps the nil-for-no-data contract: a person without a governing
// window gets nil coverage, which downstream treats as always available.
func (d *Detector) rasterize(window *Window) []bool {
	if window == nil {
		return nil
	}
	return Rasterize(window, d.grid)
}

func (d *Detector) availabilityConflicts(date time.Time, def SeriesDefinition, role Role, window *Window, coverage, teacherSlots, studentSlots []bool) []Conflict {
	if window == nil {
		return nil
	}
	if d.grid.CoveredRange(def.StartTime, def.EndTime, coverage) {
		return nil
	}

	participant := &Participant{ID: def.TeacherID, Role: role}
	if role == RoleStudent {
		participant.ID = def.StudentID
	}

	conflict := Conflict{
		Date:           date,
		Participant:    participant,
		TeacherSlots:   teacherSlots,
		StudentSlots:   studentSlots,
		AvailableSlots: coverage,
	}

	switch {
	case !anyCovered(coverage) && window.Exceptional:
		conflict.Type = ConflictVacation
		conflict.Details = fmt.Sprintf("%s is away on %s", role, DateKey(date))
	case !anyCovered(coverage):
		conflict.Type = unavailableType(role)
		conflict.Details = fmt.Sprintf("%s has no availability on %s", role, DateKey(date))
	default:
		conflict.Type = wrongTimeType(role)
		conflict.Details = fmt.Sprintf("%s is not available between %s and %s on %s", role, def.StartTime, def.EndTime, DateKey(date))
	}
	return []Conflict{conflict}
}

// bookingConflicts covers the hard resource checks: booth double-booking and
// participant double-booking against any other committed session on the same
// date and overlapping time.
func (d *Detector) bookingConflicts(date time.Time, def SeriesDefinition, existing []BookedSession) []Conflict {
	var conflicts []Conflict
	for _, session := range existing {
		if !d.overlaps(def.StartTime, def.EndTime, session.StartTime, session.EndTime) {
			continue
		}
		if session.BoothID != "" && session.BoothID == def.BoothID {
			conflicts = append(conflicts, Conflict{
				Date:    date,
				Type:    ConflictBooth,
				Details: fmt.Sprintf("booth %s is already booked %s-%s", session.BoothID, session.StartTime, session.EndTime),
			})
		}
		if session.TeacherID != "" && session.TeacherID == def.TeacherID {
			conflicts = append(conflicts, Conflict{
				Date:        date,
				Type:        ConflictTeacherUnavailable,
				Details:     fmt.Sprintf("teacher already has a lesson %s-%s", session.StartTime, session.EndTime),
				Participant: &Participant{ID: def.TeacherID, Role: RoleTeacher},
			})
		}
		if session.StudentID != "" && session.StudentID == def.StudentID {
			conflicts = append(conflicts, Conflict{
				Date:        date,
				Type:        ConflictStudentUnavailable,
				Details:     fmt.Sprintf("student already has a lesson %s-%s", session.StartTime, session.EndTime),
				Participant: &Participant{ID: def.StudentID, Role: RoleStudent},
			})
		}
	}
	return conflicts
}

// overlaps fails closed: a bound that cannot be placed on the slot axis
// counts as overlapping, so resource checks never wave an unparseable time
// through.
func (d *Detector) overlaps(aStart, aEnd, bStart, bEnd string) bool {
	as, ae := d.grid.IndexOfStart(aStart), d.grid.IndexOfEnd(aEnd)
	bs, be := d.grid.IndexOfStart(bStart), d.grid.IndexOfEnd(bEnd)
	if as == IndexNotFound || ae == IndexNotFound || bs == IndexNotFound || be == IndexNotFound {
		return true
	}
	return as < be && bs < ae
}

func unavailableType(role Role) ConflictType {
	if role == RoleStudent {
		return ConflictStudentUnavailable
	}
	return ConflictTeacherUnavailable
}

func wrongTimeType(role Role) ConflictType {
	if role == RoleStudent {
		return ConflictStudentWrongTime
	}
	return ConflictTeacherWrongTime
}
