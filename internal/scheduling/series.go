package scheduling

import "time"

// SeriesDefinition is a recurrence rule that expands into dated occurrences:
// participants, booth, daily time window, weekday set and date range.
// DaysOfWeek uses 0=Sunday..6=Saturday.
type SeriesDefinition struct {
	TeacherID  string     `json:"teacherId"`
	StudentID  string     `json:"studentId"`
	SubjectID  string     `json:"subjectId"`
	BoothID    string     `json:"boothId"`
	StartTime  string     `json:"startTime"`
	EndTime    string     `json:"endTime"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	DaysOfWeek []int      `json:"daysOfWeek"`
}

// Occurrences enumerates the candidate dates of the series: every date in
// [StartDate, EndDate] whose weekday is in DaysOfWeek, strictly ascending and
// deduplicated. An empty DaysOfWeek falls back to StartDate's weekday; an
// absent EndDate uses the administrative default horizon in months.
func (d SeriesDefinition) Occurrences(defaultHorizonMonths int) []time.Time {
	start := truncateDate(d.StartDate)
	var end time.Time
	if d.EndDate != nil {
		end = truncateDate(*d.EndDate)
	} else {
		if defaultHorizonMonths <= 0 {
			defaultHorizonMonths = 3
		}
		end = start.AddDate(0, defaultHorizonMonths, 0)
	}
	if end.Before(start) {
		return nil
	}

	wanted := make(map[time.Weekday]bool, len(d.DaysOfWeek))
	for _, day := range d.DaysOfWeek {
		if day >= 0 && day <= 6 {
			wanted[time.Weekday(day)] = true
		}
	}
	if len(wanted) == 0 {
		wanted[start.Weekday()] = true
	}

	var dates []time.Time
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
		if wanted[cursor.Weekday()] {
			dates = append(dates, cursor)
		}
	}
	return dates
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey renders a date in the canonical YYYY-MM-DD form used to key
// per-occurrence state.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
