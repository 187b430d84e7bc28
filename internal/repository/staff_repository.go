package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/suivi-academique-api/internal/models"
)

const staffColumns = "code, name, login, password_hash, sex, phone, role, created_at, updated_at"

// StaffRepository provides database access for personnel records.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// FindByLogin returns a staff member by login.
func (r *StaffRepository) FindByLogin(ctx context.Context, login string) (*models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staff WHERE login = $1 LIMIT 1", staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, login); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find staff by login: %w", err)
	}
	return &staff, nil
}

// FindByCode returns a staff member by code.
func (r *StaffRepository) FindByCode(ctx context.Context, code string) (*models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staff WHERE code = $1 LIMIT 1", staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find staff by code: %w", err)
	}
	return &staff, nil
}

// ExistsByCode reports whether a staff code is already used.
func (r *StaffRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	found, err := exists(ctx, r.db, `SELECT 1 FROM staff WHERE code = $1 LIMIT 1`, code)
	if err != nil {
		return false, fmt.Errorf("check staff code: %w", err)
	}
	return found, nil
}

// ExistsByLogin reports whether a login is taken by anyone other than excludeCode.
func (r *StaffRepository) ExistsByLogin(ctx context.Context, login, excludeCode string) (bool, error) {
	query := `SELECT 1 FROM staff WHERE LOWER(login) = LOWER($1)`
	args := []interface{}{login}
	if excludeCode != "" {
		query += " AND code <> $2"
		args = append(args, excludeCode)
	}
	query += " LIMIT 1"
	found, err := exists(ctx, r.db, query, args...)
	if err != nil {
		return false, fmt.Errorf("check staff login: %w", err)
	}
	return found, nil
}

// List returns staff based on filters with total count.
func (r *StaffRepository) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error) {
	base := "FROM staff WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, string(filter.Role))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(login) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"code":       true,
		"name":       true,
		"role":       true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", staffColumns, base, sortBy, order, size, offset)
	var staff []models.Staff
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list staff: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count staff: %w", err)
	}
	return staff, total, nil
}

// Create inserts a staff record.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	now := time.Now().UTC()
	staff.CreatedAt = now
	staff.UpdatedAt = now

	const query = `INSERT INTO staff (code, name, login, password_hash, sex, phone, role, created_at, updated_at)
VALUES (:code, :name, :login, :password_hash, :sex, :phone, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// Update modifies a staff record.
func (r *StaffRepository) Update(ctx context.Context, staff *models.Staff) error {
	staff.UpdatedAt = time.Now().UTC()
	const query = `UPDATE staff SET name = :name, login = :login, password_hash = :password_hash, sex = :sex, phone = :phone, role = :role, updated_at = :updated_at WHERE code = :code`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	return nil
}

// Delete removes a staff record.
func (r *StaffRepository) Delete(ctx context.Context, code string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM staff WHERE code = $1`, code); err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	return nil
}
