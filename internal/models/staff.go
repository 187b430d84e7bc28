package models

import "time"

// StaffRole represents the available roles for the RBAC system.
type StaffRole string

const (
	RoleTeacher       StaffRole = "TEACHER"
	RoleAcademicLead  StaffRole = "ACADEMIC_LEAD"
	RolePersonnelLead StaffRole = "PERSONNEL_LEAD"
)

// Valid reports whether the role is known.
func (r StaffRole) Valid() bool {
	return r.CodePrefix() != ""
}

// CodePrefix returns the prefix used when generating staff codes for the role.
func (r StaffRole) CodePrefix() string {
	switch r {
	case RoleTeacher:
		return "ENS"
	case RoleAcademicLead:
		return "RA"
	case RolePersonnelLead:
		return "RP"
	}
	return ""
}

// Staff is a member of personnel (personnel). Staff also authenticate against the API.
type Staff struct {
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Login        string    `db:"login" json:"login"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Sex          string    `db:"sex" json:"sex"`
	Phone        string    `db:"phone" json:"phone"`
	Role         StaffRole `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StaffFilter captures filtering criteria for listing staff.
type StaffFilter struct {
	Role      StaffRole
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
