package models

import "time"

// Subject is one teachable subject: a family (math, english, ...) at a
// specific level (elementary, junior-high, senior-high, ...).
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Family    string    `db:"family" json:"family"`
	Level     string    `db:"level" json:"level"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures query params for listing subjects.
type SubjectFilter struct {
	Family    string
	Level     string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SubjectPreference links a teacher or student to a subject they teach or
// take. Family and Level are denormalized from the subject for
// classification.
type SubjectPreference struct {
	ID        string    `db:"id" json:"id"`
	PersonID  string    `db:"person_id" json:"person_id"`
	Role      string    `db:"role" json:"role"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Family    string    `db:"family" json:"family"`
	Level     string    `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
