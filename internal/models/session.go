package models

import "time"

// SessionStatus tracks the lifecycle of one lesson session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionCancelled SessionStatus = "CANCELLED"
)

// ClassSession is one concrete lesson occupying a booth and a time window on
// one calendar date. Sessions generated from a series carry its SeriesID.
type ClassSession struct {
	ID        string        `db:"id" json:"id"`
	SeriesID  *string       `db:"series_id" json:"series_id,omitempty"`
	TeacherID string        `db:"teacher_id" json:"teacher_id"`
	StudentID string        `db:"student_id" json:"student_id"`
	SubjectID string        `db:"subject_id" json:"subject_id"`
	BoothID   string        `db:"booth_id" json:"booth_id"`
	Date      time.Time     `db:"date" json:"date"`
	StartTime string        `db:"start_time" json:"start_time"`
	EndTime   string        `db:"end_time" json:"end_time"`
	Status    SessionStatus `db:"status" json:"status"`
	Notes     *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// SessionFilter captures query params for listing sessions.
type SessionFilter struct {
	TeacherID string
	StudentID string
	BoothID   string
	SeriesID  string
	DateFrom  *time.Time
	DateTo    *time.Time
	Status    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
