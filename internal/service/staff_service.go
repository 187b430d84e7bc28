package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/suivi-academique-api/internal/models"
	"github.com/noah-isme/suivi-academique-api/pkg/database"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
)

type staffRepository interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error)
	FindByCode(ctx context.Context, code string) (*models.Staff, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ExistsByLogin(ctx context.Context, login, excludeCode string) (bool, error)
	Create(ctx context.Context, staff *models.Staff) error
	Update(ctx context.Context, staff *models.Staff) error
	Delete(ctx context.Context, code string) error
}

// CreateStaffRequest is the payload for adding personnel.
type CreateStaffRequest struct {
	Name     string           `json:"name" validate:"required"`
	Login    string           `json:"login" validate:"required"`
	Password string           `json:"password" validate:"required,min=6"`
	Sex      string           `json:"sex" validate:"required"`
	Phone    string           `json:"phone" validate:"required"`
	Role     models.StaffRole `json:"role" validate:"required"`
}

// UpdateStaffRequest modifies personnel. An empty password keeps the current one.
type UpdateStaffRequest struct {
	Name     string           `json:"name" validate:"required"`
	Login    string           `json:"login" validate:"required"`
	Password string           `json:"password" validate:"omitempty,min=6"`
	Sex      string           `json:"sex" validate:"required"`
	Phone    string           `json:"phone" validate:"required"`
	Role     models.StaffRole `json:"role" validate:"required"`
}

// StaffService manages personnel records.
type StaffService struct {
	repo      staffRepository
	codes     *StaffCodeGenerator
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStaffService creates a staff service.
// cache may be nil; it is cleared when a delete cascades to bookings.
func NewStaffService(repo staffRepository, codes *StaffCodeGenerator, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StaffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if codes == nil {
		codes = NewStaffCodeGenerator(repo, defaultStaffCodeAttempts)
	}
	return &StaffService{repo: repo, codes: codes, cache: cache, validator: validate, logger: logger}
}

// List returns staff with pagination metadata.
func (s *StaffService) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, *models.Pagination, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid role filter")
	}
	staff, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list staff")
	}
	return staff, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a staff member by code.
func (s *StaffService) Get(ctx context.Context, code string) (*models.Staff, error) {
	staff, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("staff %s not found", code))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	return staff, nil
}

// Create adds a staff member with a generated code and a hashed password.
func (s *StaffService) Create(ctx context.Context, req CreateStaffRequest) (*models.Staff, error) {
	req.Login = strings.TrimSpace(req.Login)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", req.Role))
	}
	if err := s.ensureLoginFree(ctx, req.Login, ""); err != nil {
		return nil, err
	}

	code, err := s.codes.Generate(ctx, req.Role)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	staff := &models.Staff{
		Code:         code,
		Name:         strings.TrimSpace(req.Name),
		Login:        req.Login,
		PasswordHash: string(hash),
		Sex:          req.Sex,
		Phone:        req.Phone,
		Role:         req.Role,
	}
	if err := s.repo.Create(ctx, staff); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "login or code already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create staff")
	}
	s.logger.Info("staff created", zap.String("staff", staff.Code), zap.String("role", string(staff.Role)))
	return staff, nil
}

// Update modifies a staff member. The code never changes, even when the role does.
func (s *StaffService) Update(ctx context.Context, code string, req UpdateStaffRequest) (*models.Staff, error) {
	req.Login = strings.TrimSpace(req.Login)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", req.Role))
	}
	staff, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.ensureLoginFree(ctx, req.Login, code); err != nil {
		return nil, err
	}

	staff.Name = strings.TrimSpace(req.Name)
	staff.Login = req.Login
	staff.Sex = req.Sex
	staff.Phone = req.Phone
	staff.Role = req.Role
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		staff.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, staff); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update staff")
	}
	return staff, nil
}

// Delete removes a staff member with their assignments and bookings.
func (s *StaffService) Delete(ctx context.Context, code string) error {
	if _, err := s.Get(ctx, code); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete staff")
	}
	if err := s.cache.Invalidate(ctx, bookingCachePattern); err != nil {
		s.logger.Warn("booking cache not cleared after staff delete", zap.String("staff", code), zap.Error(err))
	}
	s.logger.Info("staff deleted", zap.String("staff", code))
	return nil
}

func (s *StaffService) ensureLoginFree(ctx context.Context, login, excludeCode string) error {
	taken, err := s.repo.ExistsByLogin(ctx, login, excludeCode)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check login")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("login %s already in use", login))
	}
	return nil
}
