package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "SCHEDULED"
	BookingStatusValidated BookingStatus = "VALIDATED"
	BookingStatusRejected  BookingStatus = "REJECTED"
)

// Valid reports whether the status is known.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusScheduled, BookingStatusValidated, BookingStatusRejected:
		return true
	}
	return false
}

// HoldsRoom reports whether a booking in this status blocks its interval.
// Pending bookings are provisionally exclusive until rejected.
func (s BookingStatus) HoldsRoom() bool {
	return s == BookingStatusScheduled || s == BookingStatusValidated
}

// CanTransitionTo reports whether a review may move a booking from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s != BookingStatusScheduled {
		return false
	}
	return next == BookingStatusValidated || next == BookingStatusRejected
}

// Booking is a scheduled use of a room by a course (programmation).
type Booking struct {
	ID            int64         `db:"id" json:"id"`
	RoomCode      string        `db:"room_code" json:"room_code"`
	CourseCode    string        `db:"course_code" json:"course_code"`
	CreatorCode   string        `db:"creator_code" json:"creator_code"`
	ReviewerCode  *string       `db:"reviewer_code" json:"reviewer_code,omitempty"`
	DurationHours int           `db:"duration_hours" json:"duration_hours"`
	StartsAt      time.Time     `db:"starts_at" json:"starts_at"`
	EndsAt        time.Time     `db:"ends_at" json:"ends_at"`
	Status        BookingStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2) intersect.
// Touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// OverlapsWindow reports whether the booking interval intersects [start, end).
func (b Booking) OverlapsWindow(start, end time.Time) bool {
	return Overlaps(b.StartsAt, b.EndsAt, start, end)
}

// BookingFilter describes query params for listing bookings.
type BookingFilter struct {
	RoomCode     string
	CourseCode   string
	CreatorCode  string
	ReviewerCode string
	Status       BookingStatus
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// BookingConflictError is returned when a booking collides with existing ones on the same room.
type BookingConflictError struct {
	RoomCode    string    `json:"room_code"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	BookingIDs  []int64   `json:"booking_ids"`
	Conflicting []Booking `json:"conflicting,omitempty"`
}

// NewBookingConflictError builds the error from the overlapping bookings.
func NewBookingConflictError(roomCode string, start, end time.Time, conflicting []Booking) *BookingConflictError {
	ids := make([]int64, 0, len(conflicting))
	for _, b := range conflicting {
		ids = append(ids, b.ID)
	}
	return &BookingConflictError{RoomCode: roomCode, StartsAt: start, EndsAt: end, BookingIDs: ids, Conflicting: conflicting}
}

// Error implements the error interface for conflict errors.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	ids := make([]string, 0, len(e.BookingIDs))
	for _, id := range e.BookingIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return fmt.Sprintf("room %s already booked between %s and %s by booking(s) %s",
		e.RoomCode, e.StartsAt.Format(time.RFC3339), e.EndsAt.Format(time.RFC3339), strings.Join(ids, ", "))
}

// BookedHours aggregates booked hours for one course or staff member.
type BookedHours struct {
	Code  string `db:"code" json:"code"`
	Hours int    `db:"hours" json:"hours"`
}

// BookingStats summarises booked hours, excluding rejected bookings.
type BookingStats struct {
	ByCourse  []BookedHours `json:"by_course"`
	ByCreator []BookedHours `json:"by_creator"`
}
