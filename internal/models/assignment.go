package models

import "time"

// AssignmentKey is the composite identity of an assignment.
type AssignmentKey struct {
	CourseCode string `db:"course_code" json:"course_code"`
	StaffCode  string `db:"staff_code" json:"staff_code"`
}

// Assignment links a staff member to a course they teach (affectation).
type Assignment struct {
	AssignmentKey
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AssignmentDetail enriches assignments with descriptive fields.
type AssignmentDetail struct {
	Assignment
	CourseLabel string `db:"course_label" json:"course_label"`
	StaffName   string `db:"staff_name" json:"staff_name"`
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	CourseCode string
	StaffCode  string
}
