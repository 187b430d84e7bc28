package service

import (
	"context"
	"time"

	"github.com/noah-isme/suivi-academique-api/internal/models"
)

type overlapFinder interface {
	FindOverlapping(ctx context.Context, roomCode string, start, end time.Time, excludeID *int64) ([]models.Booking, error)
}

// ConflictDetector computes the bookings of a room colliding with a time window.
type ConflictDetector struct{}

// NewConflictDetector constructs a detector.
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

// FindOverlapping returns every non-rejected booking of roomCode whose [start, end)
// interval intersects the given window, leaving out excludeID when set.
// Rows are re-checked in memory so a store returning a superset never leaks through.
func (d *ConflictDetector) FindOverlapping(ctx context.Context, store overlapFinder, roomCode string, start, end time.Time, excludeID *int64) ([]models.Booking, error) {
	candidates, err := store.FindOverlapping(ctx, roomCode, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	conflicts := make([]models.Booking, 0, len(candidates))
	for _, b := range candidates {
		if b.RoomCode != roomCode || !b.Status.HoldsRoom() {
			continue
		}
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if b.OverlapsWindow(start, end) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts, nil
}
