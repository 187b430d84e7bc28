package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/suivi-academique-api/internal/models"
)

// AssignmentRepository manages staff ↔ course links.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments with course label and staff name.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	var conditions []string
	var args []interface{}
	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("a.course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.StaffCode != "" {
		conditions = append(conditions, fmt.Sprintf("a.staff_code = $%d", len(args)+1))
		args = append(args, filter.StaffCode)
	}

	query := `SELECT a.course_code, a.staff_code, a.created_at, c.label AS course_label, s.name AS staff_name
FROM assignments a
JOIN courses c ON c.code = a.course_code
JOIN staff s ON s.code = a.staff_code`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.course_code ASC, a.staff_code ASC"

	var items []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return items, nil
}

// Exists checks whether the (course, staff) pair is already assigned.
func (r *AssignmentRepository) Exists(ctx context.Context, key models.AssignmentKey) (bool, error) {
	found, err := exists(ctx, r.db, `SELECT 1 FROM assignments WHERE course_code = $1 AND staff_code = $2 LIMIT 1`, key.CourseCode, key.StaffCode)
	if err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return found, nil
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignments (course_code, staff_code, created_at) VALUES (:course_code, :staff_code, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment by composite key.
func (r *AssignmentRepository) Delete(ctx context.Context, key models.AssignmentKey) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE course_code = $1 AND staff_code = $2`, key.CourseCode, key.StaffCode)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return expectAffected(res, "delete assignment")
}
