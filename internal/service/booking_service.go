package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/suivi-academique-api/internal/dto"
	"github.com/noah-isme/suivi-academique-api/internal/models"
	"github.com/noah-isme/suivi-academique-api/internal/repository"
	"github.com/noah-isme/suivi-academique-api/pkg/database"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
	"github.com/noah-isme/suivi-academique-api/pkg/events"
)

type bookingRepository interface {
	WithRoomLock(ctx context.Context, roomCodes []string, fn func(store repository.BookingStore) error) error
	FindByID(ctx context.Context, id int64) (*models.Booking, error)
	FindOverlapping(ctx context.Context, roomCode string, start, end time.Time, excludeID *int64) ([]models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	AvailableRooms(ctx context.Context, start, end time.Time) ([]models.Room, error)
	HoursByCourse(ctx context.Context) ([]models.BookedHours, error)
	HoursByCreator(ctx context.Context) ([]models.BookedHours, error)
}

// bookingDraft is the admission input shared by create and update.
type bookingDraft struct {
	RoomCode      string
	CourseCode    string
	CreatorCode   string
	DurationHours int
	StartsAt      *time.Time
	EndsAt        *time.Time
}

// BookingService admits, updates, reviews and removes room bookings.
// Every write for a room runs under that room's lock so that the overlap
// check and the insert/update commit as one unit.
type BookingService struct {
	repo      bookingRepository
	detector  *ConflictDetector
	locker    *RoomLocker
	cache     *CacheService
	metrics   *MetricsService
	publisher events.Publisher
	logger    *zap.Logger
}

// NewBookingService builds the service. cache, metrics and publisher are optional.
func NewBookingService(repo bookingRepository, cache *CacheService, metrics *MetricsService, publisher events.Publisher, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &BookingService{
		repo:      repo,
		detector:  NewConflictDetector(),
		locker:    NewRoomLocker(),
		cache:     cache,
		metrics:   metrics,
		publisher: publisher,
		logger:    logger,
	}
}

// List returns bookings with pagination metadata.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return bookings, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a booking by id.
func (s *BookingService) Get(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bookingNotFound(id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// Create admits a new booking in SCHEDULED status.
func (s *BookingService) Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error) {
	started := time.Now()
	draft := bookingDraft{
		RoomCode:      strings.TrimSpace(req.RoomCode),
		CourseCode:    strings.TrimSpace(req.CourseCode),
		CreatorCode:   strings.TrimSpace(req.CreatorCode),
		DurationHours: req.DurationHours,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
	}

	var booking *models.Booking
	err := s.inRoomLock(ctx, []string{draft.RoomCode}, func(store repository.BookingStore) error {
		if err := s.admit(ctx, store, draft, nil); err != nil {
			return err
		}
		booking = &models.Booking{
			RoomCode:      draft.RoomCode,
			CourseCode:    draft.CourseCode,
			CreatorCode:   draft.CreatorCode,
			DurationHours: draft.DurationHours,
			StartsAt:      draft.StartsAt.UTC(),
			EndsAt:        draft.EndsAt.UTC(),
			Status:        models.BookingStatusScheduled,
		}
		return store.Create(ctx, booking)
	})
	s.metrics.RecordAdmission("create", admissionOutcome(err), time.Since(started))
	if err != nil {
		s.logRejection("create", draft, err)
		return nil, err
	}

	s.logger.Info("booking created",
		zap.Int64("booking_id", booking.ID),
		zap.String("room", booking.RoomCode),
		zap.Time("starts_at", booking.StartsAt),
		zap.Time("ends_at", booking.EndsAt),
	)
	s.afterWrite(ctx, events.BookingCreated, dto.FromBooking(*booking))
	return booking, nil
}

// Update re-runs admission for an existing booking, ignoring its own interval.
// Status and reviewer are left untouched.
func (s *BookingService) Update(ctx context.Context, id int64, req dto.UpdateBookingRequest) (*models.Booking, error) {
	started := time.Now()
	current, err := s.Get(ctx, id)
	if err != nil {
		s.metrics.RecordAdmission("update", admissionOutcome(err), time.Since(started))
		return nil, err
	}

	draft := bookingDraft{
		RoomCode:      strings.TrimSpace(req.RoomCode),
		CourseCode:    strings.TrimSpace(req.CourseCode),
		CreatorCode:   strings.TrimSpace(req.CreatorCode),
		DurationHours: req.DurationHours,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
	}

	var updated *models.Booking
	err = s.inRoomLock(ctx, []string{current.RoomCode, draft.RoomCode}, func(store repository.BookingStore) error {
		existing, err := store.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return bookingNotFound(id)
			}
			return err
		}
		if err := s.admit(ctx, store, draft, &id); err != nil {
			return err
		}
		existing.RoomCode = draft.RoomCode
		existing.CourseCode = draft.CourseCode
		existing.CreatorCode = draft.CreatorCode
		existing.DurationHours = draft.DurationHours
		existing.StartsAt = draft.StartsAt.UTC()
		existing.EndsAt = draft.EndsAt.UTC()
		if err := store.Update(ctx, existing); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return bookingNotFound(id)
			}
			return err
		}
		updated = existing
		return nil
	})
	s.metrics.RecordAdmission("update", admissionOutcome(err), time.Since(started))
	if err != nil {
		s.logRejection("update", draft, err)
		return nil, err
	}

	s.logger.Info("booking updated", zap.Int64("booking_id", id), zap.String("room", updated.RoomCode))
	s.afterWrite(ctx, events.BookingUpdated, dto.FromBooking(*updated))
	return updated, nil
}

// Delete removes a booking.
func (s *BookingService) Delete(ctx context.Context, id int64) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.inRoomLock(ctx, []string{current.RoomCode}, func(store repository.BookingStore) error {
		if err := store.Delete(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return bookingNotFound(id)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("booking deleted", zap.Int64("booking_id", id), zap.String("room", current.RoomCode))
	s.afterWrite(ctx, events.BookingDeleted, map[string]interface{}{"id": id, "room_code": current.RoomCode})
	return nil
}

// Review moves a SCHEDULED booking to VALIDATED or REJECTED and records the reviewer.
func (s *BookingService) Review(ctx context.Context, id int64, req dto.ReviewBookingRequest) (*models.Booking, error) {
	target, ok := req.Decision.TargetStatus()
	if !ok {
		s.metrics.RecordReview(OutcomeInvalid)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("decision must be %s or %s", dto.DecisionValidate, dto.DecisionReject))
	}
	reviewerCode := strings.TrimSpace(req.ReviewerCode)

	current, err := s.Get(ctx, id)
	if err != nil {
		s.metrics.RecordReview(admissionOutcome(err))
		return nil, err
	}

	var reviewed *models.Booking
	err = s.inRoomLock(ctx, []string{current.RoomCode}, func(store repository.BookingStore) error {
		booking, err := store.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return bookingNotFound(id)
			}
			return err
		}
		found, err := store.StaffExists(ctx, reviewerCode)
		if err != nil {
			return err
		}
		if !found {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("reviewer %s not found", reviewerCode))
		}
		if !booking.Status.CanTransitionTo(target) {
			return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("booking %d is %s; only %s bookings can be reviewed", id, booking.Status, models.BookingStatusScheduled))
		}
		if err := store.UpdateReview(ctx, id, target, reviewerCode); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return bookingNotFound(id)
			}
			return err
		}
		booking.Status = target
		booking.ReviewerCode = &reviewerCode
		reviewed = booking
		return nil
	})
	if err != nil {
		s.metrics.RecordReview(admissionOutcome(err))
		return nil, err
	}

	s.metrics.RecordReview(strings.ToLower(string(target)))
	s.logger.Info("booking reviewed",
		zap.Int64("booking_id", id),
		zap.String("status", string(target)),
		zap.String("reviewer", reviewerCode),
	)
	s.afterWrite(ctx, events.BookingReviewed, dto.FromBooking(*reviewed))
	return reviewed, nil
}

// CheckConflicts lists the bookings of a room overlapping a window without locking.
func (s *BookingService) CheckConflicts(ctx context.Context, query dto.ConflictQuery) ([]models.Booking, error) {
	if strings.TrimSpace(query.RoomCode) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "room is required")
	}
	if err := validateWindow(query.StartsAt, query.EndsAt); err != nil {
		return nil, err
	}
	conflicts, err := s.detector.FindOverlapping(ctx, s.repo, query.RoomCode, query.StartsAt.UTC(), query.EndsAt.UTC(), query.ExcludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check conflicts")
	}
	return conflicts, nil
}

// AvailableRooms lists FREE rooms with no active booking overlapping the window.
func (s *BookingService) AvailableRooms(ctx context.Context, start, end time.Time) ([]models.Room, error) {
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}
	key := availableRoomsKey(start, end)
	var cached []models.Room
	if s.cacheLookup(ctx, key, &cached) {
		return cached, nil
	}
	rooms, err := s.repo.AvailableRooms(ctx, start.UTC(), end.UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available rooms")
	}
	s.cacheStore(ctx, key, rooms)
	return rooms, nil
}

// Stats sums booked hours per course and per creator, rejected bookings excluded.
func (s *BookingService) Stats(ctx context.Context) (*models.BookingStats, error) {
	var cached models.BookingStats
	if s.cacheLookup(ctx, bookingStatsKey, &cached) {
		return &cached, nil
	}
	byCourse, err := s.repo.HoursByCourse(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute booking stats")
	}
	byCreator, err := s.repo.HoursByCreator(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute booking stats")
	}
	stats := &models.BookingStats{ByCourse: byCourse, ByCreator: byCreator}
	s.cacheStore(ctx, bookingStatsKey, stats)
	return stats, nil
}

// cacheLookup reports a hit. Cache failures fall back to the database.
func (s *BookingService) cacheLookup(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Debug("booking cache read skipped", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *BookingService) cacheStore(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.logger.Debug("booking cache write skipped", zap.String("key", key), zap.Error(err))
	}
}

// admit runs the admission checks in order; the first failure wins.
func (s *BookingService) admit(ctx context.Context, store repository.BookingStore, draft bookingDraft, excludeID *int64) error {
	room, err := store.FindRoom(ctx, draft.RoomCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("room %s not found", draft.RoomCode))
		}
		return err
	}

	found, err := store.CourseExists(ctx, draft.CourseCode)
	if err != nil {
		return err
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", draft.CourseCode))
	}

	found, err = store.StaffExists(ctx, draft.CreatorCode)
	if err != nil {
		return err
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("staff %s not found", draft.CreatorCode))
	}

	if draft.DurationHours <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "duration must be greater than zero")
	}
	if draft.StartsAt == nil || draft.EndsAt == nil {
		return appErrors.Clone(appErrors.ErrValidation, "start and end are required")
	}
	if err := validateWindow(*draft.StartsAt, *draft.EndsAt); err != nil {
		return err
	}

	if room.Status != models.RoomStatusFree {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("room %s is not in a bookable state (%s)", room.Code, room.Status))
	}

	start, end := draft.StartsAt.UTC(), draft.EndsAt.UTC()
	conflicts, err := s.detector.FindOverlapping(ctx, store, draft.RoomCode, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		conflictErr := models.NewBookingConflictError(draft.RoomCode, start, end, conflicts)
		return appErrors.Wrap(conflictErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflictErr.Error())
	}
	return nil
}

// inRoomLock serialises fn with every other write on the same rooms, in process
// and in the database, and normalises infrastructure errors.
func (s *BookingService) inRoomLock(ctx context.Context, roomCodes []string, fn func(store repository.BookingStore) error) error {
	release := s.locker.Lock(roomCodes...)
	defer release()

	err := s.repo.WithRoomLock(ctx, roomCodes, fn)
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case database.IsExclusionViolation(err):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "booking overlaps an existing booking on this room")
	case database.IsForeignKeyViolation(err):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "referenced room, course or staff no longer exists")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist booking")
}

func (s *BookingService) afterWrite(ctx context.Context, eventType string, payload interface{}) {
	if err := s.cache.Invalidate(ctx, bookingCachePattern); err != nil {
		s.logger.Warn("booking cache not cleared after write", zap.String("type", eventType), zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, payload)); err != nil {
		s.logger.Warn("publish booking event failed", zap.String("type", eventType), zap.Error(err))
	}
}

func (s *BookingService) logRejection(operation string, draft bookingDraft, err error) {
	appErr := appErrors.FromError(err)
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("room", draft.RoomCode),
		zap.String("code", appErr.Code),
		zap.String("reason", appErr.Message),
	}
	if appErr.Status >= 500 {
		s.logger.Error("booking write failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Info("booking admission rejected", fields...)
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "start and end are required")
	}
	if !end.After(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	}
	return nil
}

func bookingNotFound(id int64) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("booking %d not found", id))
}

func admissionOutcome(err error) string {
	if err == nil {
		return OutcomeAccepted
	}
	switch appErrors.FromError(err).Code {
	case appErrors.ErrConflict.Code:
		return OutcomeConflict
	case appErrors.ErrNotFound.Code:
		return OutcomeNotFound
	case appErrors.ErrValidation.Code:
		return OutcomeInvalid
	case appErrors.ErrInvalidState.Code:
		return OutcomeState
	}
	return OutcomeError
}
