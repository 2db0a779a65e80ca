package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SeriesStatus tracks a recurring lesson series.
type SeriesStatus string

const (
	SeriesActive    SeriesStatus = "ACTIVE"
	SeriesCancelled SeriesStatus = "CANCELLED"
)

// LessonSeries is a stored recurrence rule that sessions were materialized
// from. DaysOfWeek is a JSON-encoded int list, 0=Sunday..6=Saturday.
type LessonSeries struct {
	ID         string         `db:"id" json:"id"`
	TeacherID  string         `db:"teacher_id" json:"teacher_id"`
	StudentID  string         `db:"student_id" json:"student_id"`
	SubjectID  string         `db:"subject_id" json:"subject_id"`
	BoothID    string         `db:"booth_id" json:"booth_id"`
	StartTime  string         `db:"start_time" json:"start_time"`
	EndTime    string         `db:"end_time" json:"end_time"`
	StartDate  time.Time      `db:"start_date" json:"start_date"`
	EndDate    *time.Time     `db:"end_date" json:"end_date,omitempty"`
	DaysOfWeek types.JSONText `db:"days_of_week" json:"days_of_week"`
	Status     SeriesStatus   `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}
