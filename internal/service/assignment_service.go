package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/suivi-academique-api/internal/models"
	"github.com/noah-isme/suivi-academique-api/pkg/database"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, error)
	Exists(ctx context.Context, key models.AssignmentKey) (bool, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, key models.AssignmentKey) error
}

type catalogLookup interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// AssignmentService links staff to the courses they teach.
type AssignmentService struct {
	repo    assignmentRepository
	courses catalogLookup
	staff   catalogLookup
	logger  *zap.Logger
}

// NewAssignmentService creates an assignment service.
func NewAssignmentService(repo assignmentRepository, courses, staff catalogLookup, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, courses: courses, staff: staff, logger: logger}
}

// List returns assignments, optionally narrowed to a course or a staff member.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return items, nil
}

// Create links a staff member to a course once.
func (s *AssignmentService) Create(ctx context.Context, key models.AssignmentKey) (*models.Assignment, error) {
	key.CourseCode = strings.TrimSpace(key.CourseCode)
	key.StaffCode = strings.TrimSpace(key.StaffCode)
	if key.CourseCode == "" || key.StaffCode == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_code and staff_code are required")
	}

	if err := s.mustExist(ctx, s.courses, "course", key.CourseCode); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, s.staff, "staff", key.StaffCode); err != nil {
		return nil, err
	}

	taken, err := s.repo.Exists(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("staff %s is already assigned to course %s", key.StaffCode, key.CourseCode))
	}

	assignment := &models.Assignment{AssignmentKey: key}
	if err := s.repo.Create(ctx, assignment); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("staff %s is already assigned to course %s", key.StaffCode, key.CourseCode))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.logger.Info("assignment created", zap.String("course", key.CourseCode), zap.String("staff", key.StaffCode))
	return assignment, nil
}

// Delete removes the assignment identified by key.
func (s *AssignmentService) Delete(ctx context.Context, key models.AssignmentKey) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("assignment %s/%s not found", key.CourseCode, key.StaffCode))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

func (s *AssignmentService) mustExist(ctx context.Context, lookup catalogLookup, kind, code string) error {
	found, err := lookup.ExistsByCode(ctx, code)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to check %s", kind))
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", kind, code))
	}
	return nil
}
