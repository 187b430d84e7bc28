package models

import "time"

// Course is an entry of the course catalog (cours).
type Course struct {
	Code        string    `db:"code" json:"code"`
	Label       string    `db:"label" json:"label"`
	Description string    `db:"description" json:"description"`
	Credits     int       `db:"credits" json:"credits"`
	Hours       int       `db:"hours" json:"hours"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures supported filters for listing courses.
type CourseFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
