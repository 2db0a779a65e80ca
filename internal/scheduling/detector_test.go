package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSeriesOccurrencesMondayWednesday(t *testing.T) {
	end := date(2024, 1, 10)
	def := SeriesDefinition{
		StartDate:  date(2024, 1, 1), // Monday
		EndDate:    &end,
		DaysOfWeek: []int{1, 3},
	}

	dates := def.Occurrences(3)
	require.Len(t, dates, 4)
	assert.Equal(t, date(2024, 1, 1), dates[0])
	assert.Equal(t, date(2024, 1, 3), dates[1])
	assert.Equal(t, date(2024, 1, 8), dates[2])
	assert.Equal(t, date(2024, 1, 10), dates[3])
	for i := 0; i < len(dates)-1; i++ {
		assert.True(t, dates[i].Before(dates[i+1]), "dates must be strictly ascending")
	}
}

func TestSeriesOccurrencesDefaultsToStartWeekday(t *testing.T) {
	end := date(2024, 1, 15)
	def := SeriesDefinition{
		StartDate: date(2024, 1, 1),
		EndDate:   &end,
	}

	dates := def.Occurrences(3)
	require.Len(t, dates, 3)
	for _, d := range dates {
		assert.Equal(t, time.Monday, d.Weekday())
	}
}

func TestSeriesOccurrencesDefaultHorizon(t *testing.T) {
	def := SeriesDefinition{
		StartDate:  date(2024, 1, 1),
		DaysOfWeek: []int{1},
	}

	dates := def.Occurrences(1)
	require.NotEmpty(t, dates)
	last := dates[len(dates)-1]
	assert.False(t, last.After(date(2024, 2, 1)))
}

func TestSeriesOccurrencesEmptyRange(t *testing.T) {
	end := date(2023, 12, 1)
	def := SeriesDefinition{StartDate: date(2024, 1, 1), EndDate: &end}
	assert.Empty(t, def.Occurrences(3))
}

func mondayDef() SeriesDefinition {
	end := date(2024, 1, 8)
	return SeriesDefinition{
		TeacherID:  "teacher-1",
		StudentID:  "student-1",
		SubjectID:  "math",
		BoothID:    "booth-A",
		StartTime:  "10:00",
		EndTime:    "11:00",
		StartDate:  date(2024, 1, 1),
		EndDate:    &end,
		DaysOfWeek: []int{1},
	}
}

func teacherMondayMorning() PersonAvailability {
	return PersonAvailability{Regular: []Window{
		{Weekday: "MONDAY", Ranges: []TimeRange{{StartTime: "09:00", EndTime: "12:00"}}},
	}}
}

func TestDetectorNoConflictInsideWindow(t *testing.T) {
	detector := NewDetector(NewGrid())

	occurrences := detector.Detect(DetectorInput{
		Definition:        mondayDef(),
		Teacher:           teacherMondayMorning(),
		CheckAvailability: true,
	})

	require.Len(t, occurrences, 2)
	for _, occ := range occurrences {
		assert.False(t, occ.Flagged())
	}
}

func TestDetectorWrongTimeOutsideWindow(t *testing.T) {
	detector := NewDetector(NewGrid())
	def := mondayDef()
	def.StartTime = "11:30"
	def.EndTime = "12:30"

	occurrences := detector.Detect(DetectorInput{
		Definition:        def,
		Teacher:           teacherMondayMorning(),
		CheckAvailability: true,
	})

	require.Len(t, occurrences, 2)
	for _, occ := range occurrences {
		require.Len(t, occ.Conflicts, 1)
		conflict := occ.Conflicts[0]
		assert.Equal(t, ConflictTeacherWrongTime, conflict.Type)
		require.NotNil(t, conflict.Participant)
		assert.Equal(t, "teacher-1", conflict.Participant.ID)
		assert.Equal(t, RoleTeacher, conflict.Participant.Role)
		assert.NotEmpty(t, conflict.AvailableSlots)
	}
}

func TestDetectorVacationException(t *testing.T) {
	detector := NewDetector(NewGrid())
	teacher := teacherMondayMorning()
	teacher.Exceptions = []Window{{Date: "2024-01-01", FullDay: false}}

	occurrences := detector.Detect(DetectorInput{
		Definition:        mondayDef(),
		Teacher:           teacher,
		CheckAvailability: true,
	})

	require.Len(t, occurrences, 2)
	require.Len(t, occurrences[0].Conflicts, 1)
	assert.Equal(t, ConflictVacation, occurrences[0].Conflicts[0].Type)
	assert.False(t, occurrences[1].Flagged(), "the exception only covers its own date")
}

func TestDetectorExplicitEmptyRegularWindowIsUnavailable(t *testing.T) {
	detector := NewDetector(NewGrid())
	teacher := PersonAvailability{Regular: []Window{{Weekday: "MONDAY"}}}

	occurrences := detector.Detect(DetectorInput{
		Definition:        mondayDef(),
		Teacher:           teacher,
		CheckAvailability: true,
	})

	require.Len(t, occurrences, 2)
	require.Len(t, occurrences[0].Conflicts, 1)
	assert.Equal(t, ConflictTeacherUnavailable, occurrences[0].Conflicts[0].Type)
}

func TestDetectorMissingDataNeverFlags(t *testing.T) {
	detector := NewDetector(NewGrid())

	occurrences := detector.Detect(DetectorInput{
		Definition:        mondayDef(),
		CheckAvailability: true,
	})

	for _, occ := range occurrences {
		assert.False(t, occ.Flagged(), "no availability data is treated as always available")
	}
}

func TestDetectorBoothConflict(t *testing.T) {
	detector := NewDetector(NewGrid())

	occurrences := detector.Detect(DetectorInput{
		Definition: mondayDef(),
		Existing: []BookedSession{
			{ID: "s1", Date: date(2024, 1, 1), BoothID: "booth-A", TeacherID: "other-t", StudentID: "other-s", StartTime: "10:30", EndTime: "11:30"},
		},
		CheckAvailability: true,
	})

	require.Len(t, occurrences, 2)
	require.Len(t, occurrences[0].Conflicts, 1)
	assert.Equal(t, ConflictBooth, occurrences[0].Conflicts[0].Type)
	assert.False(t, occurrences[1].Flagged())
}

func TestDetectorOffGridTimesStillCollide(t *testing.T) {
	detector := NewDetector(NewGrid())
	def := mondayDef()
	def.StartTime = "10:07"
	def.EndTime = "11:07"

	occurrences := detector.Detect(DetectorInput{
		Definition: def,
		// Same booth, same date; the proposed times sit between slot
		// boundaries, which must not slip past the booth check.
		Existing: []BookedSession{
			{ID: "s1", Date: date(2024, 1, 1), BoothID: "booth-A", TeacherID: "other-t", StudentID: "other-s", StartTime: "10:00", EndTime: "11:00"},
		},
		CheckAvailability: false,
	})

	require.Len(t, occurrences, 2)
	require.NotEmpty(t, occurrences[0].Conflicts)
	assert.Equal(t, ConflictBooth, occurrences[0].Conflicts[0].Type)
}

func TestDetectorDoubleBookingNotSuppressible(t *testing.T) {
	detector := NewDetector(NewGrid())

	occurrences := detector.Detect(DetectorInput{
		Definition: mondayDef(),
		// Teacher is elsewhere at the same time; availability checks are off.
		Existing: []BookedSession{
			{ID: "s1", Date: date(2024, 1, 1), BoothID: "booth-B", TeacherID: "teacher-1", StudentID: "other-s", StartTime: "10:00", EndTime: "11:00"},
		},
		CheckAvailability: false,
	})

	require.Len(t, occurrences[0].Conflicts, 1)
	conflict := occurrences[0].Conflicts[0]
	assert.Equal(t, ConflictTeacherUnavailable, conflict.Type)
	assert.Contains(t, conflict.Details, "already has a lesson")
}

func TestDetectorSuppressesSoftChecksOnly(t *testing.T) {
	detector := NewDetector(NewGrid())
	def := mondayDef()
	def.StartTime = "13:00"
	def.EndTime = "14:00"

	occurrences := detector.Detect(DetectorInput{
		Definition:        def,
		Teacher:           teacherMondayMorning(),
		CheckAvailability: false,
	})

	for _, occ := range occurrences {
		assert.False(t, occ.Flagged(), "availability mismatch must be suppressed")
	}
}

func TestDetectorRetainsMultipleConflictKinds(t *testing.T) {
	detector := NewDetector(NewGrid())
	def := mondayDef()
	def.StartTime = "13:00"
	def.EndTime = "14:00"

	occurrences := detector.Detect(DetectorInput{
		Definition: def,
		Teacher:    teacherMondayMorning(),
		Existing: []BookedSession{
			{ID: "s1", Date: date(2024, 1, 1), BoothID: "booth-A", TeacherID: "other-t", StudentID: "student-1", StartTime: "13:00", EndTime: "14:00"},
		},
		CheckAvailability: true,
	})

	types := make([]ConflictType, 0, len(occurrences[0].Conflicts))
	for _, c := range occurrences[0].Conflicts {
		types = append(types, c.Type)
	}
	// Availability check first, then booking checks, in stable order.
	assert.Equal(t, []ConflictType{ConflictTeacherWrongTime, ConflictBooth, ConflictStudentUnavailable}, types)
}

func TestDetectorDeterministic(t *testing.T) {
	input := DetectorInput{
		Definition: mondayDef(),
		Teacher:    teacherMondayMorning(),
		Existing: []BookedSession{
			{ID: "s1", Date: date(2024, 1, 1), BoothID: "booth-A", TeacherID: "x", StudentID: "y", StartTime: "10:00", EndTime: "11:00"},
		},
		CheckAvailability: true,
	}

	detector := NewDetector(NewGrid())
	first := detector.Detect(input)
	second := detector.Detect(input)
	assert.Equal(t, first, second)
}
