package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/suivi-academique-api/internal/models"
)

func TestFromBookingFlattensReviewer(t *testing.T) {
	reviewer := "RA202512345"
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.FixedZone("WAT", 3600))
	resp := FromBooking(models.Booking{
		ID:           3,
		RoomCode:     "S101",
		ReviewerCode: &reviewer,
		StartsAt:     start,
		EndsAt:       start.Add(time.Hour),
		Status:       models.BookingStatusValidated,
	})

	assert.Equal(t, reviewer, resp.ReviewerCode)
	assert.Equal(t, time.UTC, resp.StartsAt.Location())
	assert.True(t, resp.StartsAt.Equal(start))

	empty := FromBooking(models.Booking{ID: 4})
	assert.Empty(t, empty.ReviewerCode)
}

func TestReviewDecisionTargetStatus(t *testing.T) {
	status, ok := DecisionValidate.TargetStatus()
	assert.True(t, ok)
	assert.Equal(t, models.BookingStatusValidated, status)

	status, ok = DecisionReject.TargetStatus()
	assert.True(t, ok)
	assert.Equal(t, models.BookingStatusRejected, status)

	_, ok = ReviewDecision("MAYBE").TargetStatus()
	assert.False(t, ok)
}
