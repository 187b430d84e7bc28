package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/suivi-academique-api/internal/models"
	"github.com/noah-isme/suivi-academique-api/pkg/database"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
)

const defaultMinRoomCapacity = 10

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByCode(ctx context.Context, code string) (*models.Room, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	UpdateStatus(ctx context.Context, code string, status models.RoomStatus) error
	Delete(ctx context.Context, code string) error
}

// CreateRoomRequest is the payload for adding a room.
type CreateRoomRequest struct {
	Code        string            `json:"code" validate:"required,max=32"`
	Description string            `json:"description"`
	Capacity    int               `json:"capacity"`
	Status      models.RoomStatus `json:"status"`
}

// UpdateRoomRequest replaces the mutable fields of a room.
type UpdateRoomRequest struct {
	Description string            `json:"description"`
	Capacity    int               `json:"capacity"`
	Status      models.RoomStatus `json:"status" validate:"required"`
}

// UpdateRoomStatusRequest changes only the room status.
type UpdateRoomStatusRequest struct {
	Status models.RoomStatus `json:"status" validate:"required"`
}

// RoomService manages the room catalog.
type RoomService struct {
	repo        roomRepository
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	minCapacity int
}

// NewRoomService creates a room service. minCapacity falls back to 10 when unset.
func NewRoomService(repo roomRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, minCapacity int) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if minCapacity <= 0 {
		minCapacity = defaultMinRoomCapacity
	}
	return &RoomService{repo: repo, cache: cache, validator: validate, logger: logger, minCapacity: minCapacity}
}

// List returns rooms with pagination metadata.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a room by code.
func (s *RoomService) Get(ctx context.Context, code string) (*models.Room, error) {
	room, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("room %s not found", code))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// Create adds a room. New rooms are FREE unless a status is given.
func (s *RoomService) Create(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room := &models.Room{
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
		Capacity:    req.Capacity,
		Status:      req.Status,
	}
	if room.Status == "" {
		room.Status = models.RoomStatusFree
	}
	if err := s.checkRoom(room); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByCode(ctx, room.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room code")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("room %s already exists", room.Code))
	}

	if err := s.repo.Create(ctx, room); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("room %s already exists", room.Code))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	s.invalidate(ctx)
	s.logger.Info("room created", zap.String("room", room.Code), zap.Int("capacity", room.Capacity))
	return room, nil
}

// Update modifies a room.
func (s *RoomService) Update(ctx context.Context, code string, req UpdateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	room.Description = strings.TrimSpace(req.Description)
	room.Capacity = req.Capacity
	room.Status = req.Status
	if err := s.checkRoom(room); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	s.invalidate(ctx)
	return room, nil
}

// UpdateStatus moves a room between FREE, OCCUPIED and CLOSED.
func (s *RoomService) UpdateStatus(ctx context.Context, code string, req UpdateRoomStatusRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown room status %q", req.Status))
	}
	if err := s.repo.UpdateStatus(ctx, code, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("room %s not found", code))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room status")
	}
	s.invalidate(ctx)
	s.logger.Info("room status changed", zap.String("room", code), zap.String("status", string(req.Status)))
	return s.Get(ctx, code)
}

// Delete removes a room together with its bookings.
func (s *RoomService) Delete(ctx context.Context, code string) error {
	if _, err := s.Get(ctx, code); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}
	s.invalidate(ctx)
	return nil
}

func (s *RoomService) checkRoom(room *models.Room) error {
	if !room.Status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown room status %q", room.Status))
	}
	if room.Capacity < s.minCapacity {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("capacity must be at least %d", s.minCapacity))
	}
	return nil
}

// room changes affect availability lookups
func (s *RoomService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, bookingCachePattern); err != nil {
		s.logger.Warn("booking cache not cleared after room change", zap.Error(err))
	}
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
