package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/suivi-academique-api/internal/models"
)

const bookingColumns = "id, room_code, course_code, creator_code, reviewer_code, duration_hours, starts_at, ends_at, status, created_at, updated_at"

// BookingStore is the set of reads and writes available to booking admission,
// both on the pooled connection and inside a room lock.
type BookingStore interface {
	FindByID(ctx context.Context, id int64) (*models.Booking, error)
	FindOverlapping(ctx context.Context, roomCode string, start, end time.Time, excludeID *int64) ([]models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, booking *models.Booking) error
	UpdateReview(ctx context.Context, id int64, status models.BookingStatus, reviewerCode string) error
	Delete(ctx context.Context, id int64) error
	FindRoom(ctx context.Context, code string) (*models.Room, error)
	CourseExists(ctx context.Context, code string) (bool, error)
	StaffExists(ctx context.Context, code string) (bool, error)
}

// BookingRepository provides persistence for bookings (programmations).
type BookingRepository struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db, q: db}
}

// WithRoomLock runs fn inside a transaction holding row locks on the given rooms.
// Rooms are locked in code order so that concurrent multi-room updates cannot deadlock.
// Any error returned by fn rolls the transaction back.
func (r *BookingRepository) WithRoomLock(ctx context.Context, roomCodes []string, fn func(store BookingStore) error) (err error) {
	if r.db == nil {
		return fmt.Errorf("room lock requires a database handle")
	}
	codes := uniqueSorted(roomCodes)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked []string
	const lockQuery = `SELECT code FROM rooms WHERE code = ANY($1) ORDER BY code FOR UPDATE`
	if err = tx.SelectContext(ctx, &locked, lockQuery, pq.Array(codes)); err != nil {
		return fmt.Errorf("lock rooms: %w", err)
	}

	if err = fn(&BookingRepository{q: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit booking transaction: %w", err)
	}
	return nil
}

// List returns bookings with optional filtering and pagination.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	base := "FROM bookings WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.RoomCode != "" {
		conditions = append(conditions, fmt.Sprintf("room_code = $%d", len(args)+1))
		args = append(args, filter.RoomCode)
	}
	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.CreatorCode != "" {
		conditions = append(conditions, fmt.Sprintf("creator_code = $%d", len(args)+1))
		args = append(args, filter.CreatorCode)
	}
	if filter.ReviewerCode != "" {
		conditions = append(conditions, fmt.Sprintf("reviewer_code = $%d", len(args)+1))
		args = append(args, filter.ReviewerCode)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(filter.Status))
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("ends_at > $%d", len(args)+1))
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("starts_at < $%d", len(args)+1))
		args = append(args, filter.To.UTC())
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"starts_at":  true,
		"ends_at":    true,
		"room_code":  true,
		"status":     true,
		"created_at": true,
		"id":         true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "starts_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", bookingColumns, base, sortBy, order, size, offset)
	var bookings []models.Booking
	if err := sqlx.SelectContext(ctx, r.q, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := sqlx.GetContext(ctx, r.q, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	return bookings, total, nil
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id int64) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := sqlx.GetContext(ctx, r.q, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindOverlapping returns the non-rejected bookings of a room whose [starts_at, ends_at)
// interval intersects [start, end). excludeID, when set, is left out of the result.
func (r *BookingRepository) FindOverlapping(ctx context.Context, roomCode string, start, end time.Time, excludeID *int64) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE room_code = $1 AND status <> $2 AND starts_at < $3 AND ends_at > $4", bookingColumns)
	args := []interface{}{roomCode, string(models.BookingStatusRejected), end.UTC(), start.UTC()}
	if excludeID != nil {
		query += " AND id <> $5"
		args = append(args, *excludeID)
	}
	query += " ORDER BY starts_at ASC, id ASC"

	var bookings []models.Booking
	if err := sqlx.SelectContext(ctx, r.q, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}
	return bookings, nil
}

// Create stores a new booking and fills in its generated identifier.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	const query = `INSERT INTO bookings (room_code, course_code, creator_code, reviewer_code, duration_hours, starts_at, ends_at, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	row := r.q.QueryRowxContext(ctx, query,
		booking.RoomCode,
		booking.CourseCode,
		booking.CreatorCode,
		booking.ReviewerCode,
		booking.DurationHours,
		booking.StartsAt.UTC(),
		booking.EndsAt.UTC(),
		string(booking.Status),
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err := row.Scan(&booking.ID); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// Update modifies the schedulable fields of a booking.
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bookings SET room_code = $1, course_code = $2, creator_code = $3, duration_hours = $4, starts_at = $5, ends_at = $6, updated_at = $7 WHERE id = $8`
	res, err := r.q.ExecContext(ctx, query,
		booking.RoomCode,
		booking.CourseCode,
		booking.CreatorCode,
		booking.DurationHours,
		booking.StartsAt.UTC(),
		booking.EndsAt.UTC(),
		booking.UpdatedAt,
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return expectAffected(res, "update booking")
}

// UpdateReview records a lifecycle transition and its reviewer.
func (r *BookingRepository) UpdateReview(ctx context.Context, id int64, status models.BookingStatus, reviewerCode string) error {
	const query = `UPDATE bookings SET status = $1, reviewer_code = $2, updated_at = $3 WHERE id = $4`
	res, err := r.q.ExecContext(ctx, query, string(status), reviewerCode, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("review booking: %w", err)
	}
	return expectAffected(res, "review booking")
}

// Delete removes a booking by id.
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return expectAffected(res, "delete booking")
}

// FindRoom loads the room a booking targets.
func (r *BookingRepository) FindRoom(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	if err := sqlx.GetContext(ctx, r.q, &room, `SELECT code, description, capacity, status, created_at, updated_at FROM rooms WHERE code = $1`, code); err != nil {
		return nil, err
	}
	return &room, nil
}

// CourseExists checks the course catalog.
func (r *BookingRepository) CourseExists(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.q, `SELECT 1 FROM courses WHERE code = $1 LIMIT 1`, code)
}

// StaffExists checks the staff catalog.
func (r *BookingRepository) StaffExists(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.q, `SELECT 1 FROM staff WHERE code = $1 LIMIT 1`, code)
}

// AvailableRooms returns FREE rooms without any non-rejected booking overlapping [start, end).
func (r *BookingRepository) AvailableRooms(ctx context.Context, start, end time.Time) ([]models.Room, error) {
	const query = `SELECT code, description, capacity, status, created_at, updated_at FROM rooms r
WHERE r.status = $1 AND NOT EXISTS (
	SELECT 1 FROM bookings b WHERE b.room_code = r.code AND b.status <> $2 AND b.starts_at < $3 AND b.ends_at > $4
) ORDER BY r.code ASC`
	var rooms []models.Room
	if err := sqlx.SelectContext(ctx, r.q, &rooms, query, string(models.RoomStatusFree), string(models.BookingStatusRejected), end.UTC(), start.UTC()); err != nil {
		return nil, fmt.Errorf("list available rooms: %w", err)
	}
	return rooms, nil
}

// HoursByCourse sums booked hours per course, ignoring rejected bookings.
func (r *BookingRepository) HoursByCourse(ctx context.Context) ([]models.BookedHours, error) {
	const query = `SELECT course_code AS code, COALESCE(SUM(duration_hours), 0) AS hours FROM bookings WHERE status <> $1 GROUP BY course_code ORDER BY course_code ASC`
	var rows []models.BookedHours
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, string(models.BookingStatusRejected)); err != nil {
		return nil, fmt.Errorf("sum hours by course: %w", err)
	}
	return rows, nil
}

// HoursByCreator sums booked hours per creating staff member, ignoring rejected bookings.
func (r *BookingRepository) HoursByCreator(ctx context.Context) ([]models.BookedHours, error) {
	const query = `SELECT creator_code AS code, COALESCE(SUM(duration_hours), 0) AS hours FROM bookings WHERE status <> $1 GROUP BY creator_code ORDER BY creator_code ASC`
	var rows []models.BookedHours
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, string(models.BookingStatusRejected)); err != nil {
		return nil, fmt.Errorf("sum hours by creator: %w", err)
	}
	return rows, nil
}

func exists(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (bool, error) {
	var one int
	if err := sqlx.GetContext(ctx, q, &one, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
