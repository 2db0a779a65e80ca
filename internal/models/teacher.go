package models

import "time"

// Teacher represents an instructor on the center's roster.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Kana      *string   `db:"kana" json:"kana,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures query params for listing teachers.
type TeacherFilter struct {
	Active    *bool
	Search    string
	SubjectID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
