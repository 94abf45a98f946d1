package models

import "time"

// Contract entitles a client to follow the progress of a fixed set of students.
type Contract struct {
	ID        string     `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	ClientID  string     `db:"client_id" json:"client_id"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
}
