package models

import "time"

// RoomStatus describes whether a room is in rotation for bookings.
type RoomStatus string

const (
	RoomStatusFree     RoomStatus = "FREE"
	RoomStatusOccupied RoomStatus = "OCCUPIED"
	RoomStatusClosed   RoomStatus = "CLOSED"
)

// Valid reports whether the status is one of the known room states.
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusFree, RoomStatusOccupied, RoomStatusClosed:
		return true
	}
	return false
}

// Room is a bookable classroom (salle).
type Room struct {
	Code        string     `db:"code" json:"code"`
	Description string     `db:"description" json:"description"`
	Capacity    int        `db:"capacity" json:"capacity"`
	Status      RoomStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures supported filters for listing rooms.
type RoomFilter struct {
	Status      RoomStatus
	MinCapacity int
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
