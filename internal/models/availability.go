package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AvailabilityKind separates recurring weekly windows from date exceptions.
type AvailabilityKind string

const (
	AvailabilityRegular     AvailabilityKind = "REGULAR"
	AvailabilityExceptional AvailabilityKind = "EXCEPTIONAL"
)

// AvailabilityWindow stores one availability record for a teacher or
// student: either a recurring weekday window (Weekday set) or a
// date-specific exception (Date set). Ranges holds the JSON-encoded
// {startTime, endTime} list; empty with FullDay false means explicitly
// unavailable all day.
type AvailabilityWindow struct {
	ID        string           `db:"id" json:"id"`
	PersonID  string           `db:"person_id" json:"person_id"`
	Role      string           `db:"role" json:"role"`
	Kind      AvailabilityKind `db:"kind" json:"kind"`
	Weekday   *string          `db:"weekday" json:"weekday,omitempty"`
	Date      *time.Time       `db:"date" json:"date,omitempty"`
	FullDay   bool             `db:"full_day" json:"full_day"`
	Ranges    types.JSONText   `db:"ranges" json:"ranges"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}
