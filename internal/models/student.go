package models

import "time"

// Student represents an enrolled student.
type Student struct {
	ID         string    `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	FullName   string    `db:"full_name" json:"full_name"`
	Kana       *string   `db:"kana" json:"kana,omitempty"`
	GradeLevel *string   `db:"grade_level" json:"grade_level,omitempty"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures query params for listing students.
type StudentFilter struct {
	Active    *bool
	Search    string
	SubjectID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
