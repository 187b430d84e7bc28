package dto

import (
	"time"

	"github.com/noah-isme/suivi-academique-api/internal/models"
)

// CreateBookingRequest is the payload for POST /programmations.
// Pointers distinguish an absent timestamp from the zero time.
type CreateBookingRequest struct {
	RoomCode      string     `json:"room_code"`
	CourseCode    string     `json:"course_code"`
	CreatorCode   string     `json:"creator_code"`
	DurationHours int        `json:"duration_hours"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
}

// UpdateBookingRequest replaces the mutable fields of a booking.
type UpdateBookingRequest struct {
	RoomCode      string     `json:"room_code"`
	CourseCode    string     `json:"course_code"`
	CreatorCode   string     `json:"creator_code"`
	DurationHours int        `json:"duration_hours"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
}

// ReviewDecision is the reviewer's verdict on a scheduled booking.
type ReviewDecision string

const (
	DecisionValidate ReviewDecision = "VALIDATE"
	DecisionReject   ReviewDecision = "REJECT"
)

// TargetStatus maps a decision onto the resulting booking status.
func (d ReviewDecision) TargetStatus() (models.BookingStatus, bool) {
	switch d {
	case DecisionValidate:
		return models.BookingStatusValidated, true
	case DecisionReject:
		return models.BookingStatusRejected, true
	}
	return "", false
}

// ReviewBookingRequest is the payload for POST /programmations/{id}/review.
type ReviewBookingRequest struct {
	ReviewerCode string         `json:"reviewer_code"`
	Decision     ReviewDecision `json:"decision" validate:"required"`
}

// ConflictQuery probes a room for bookings overlapping a window.
type ConflictQuery struct {
	RoomCode  string
	StartsAt  time.Time
	EndsAt    time.Time
	ExcludeID *int64
}

// BookingResponse is the outward representation of a booking.
type BookingResponse struct {
	ID            int64                `json:"id"`
	RoomCode      string               `json:"room_code"`
	CourseCode    string               `json:"course_code"`
	CreatorCode   string               `json:"creator_code"`
	ReviewerCode  string               `json:"reviewer_code,omitempty"`
	DurationHours int                  `json:"duration_hours"`
	StartsAt      time.Time            `json:"starts_at"`
	EndsAt        time.Time            `json:"ends_at"`
	Status        models.BookingStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// FromBooking maps a persisted booking to its response shape.
func FromBooking(b models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID,
		RoomCode:      b.RoomCode,
		CourseCode:    b.CourseCode,
		CreatorCode:   b.CreatorCode,
		DurationHours: b.DurationHours,
		StartsAt:      b.StartsAt.UTC(),
		EndsAt:        b.EndsAt.UTC(),
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.ReviewerCode != nil {
		resp.ReviewerCode = *b.ReviewerCode
	}
	return resp
}

// FromBookings maps a slice of bookings.
func FromBookings(items []models.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(items))
	for _, b := range items {
		out = append(out, FromBooking(b))
	}
	return out
}

// AvailableRoomsResponse lists rooms bookable for a window.
type AvailableRoomsResponse struct {
	StartsAt time.Time     `json:"starts_at"`
	EndsAt   time.Time     `json:"ends_at"`
	Rooms    []models.Room `json:"rooms"`
}
