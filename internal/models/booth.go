package models

import "time"

// Booth is a bookable teaching station.
type Booth struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BoothFilter captures query params for listing booths.
type BoothFilter struct {
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
