package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/suivi-academique-api/internal/models"
)

func TestStaffRepositoryFindByLogin(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"code", "name", "login", "password_hash", "sex", "phone", "role", "created_at", "updated_at"}).
		AddRow("ENS202512345", "Awa Ndiaye", "awa", "hash", "F", "0600000000", "TEACHER", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + staffColumns + " FROM staff WHERE login = $1 LIMIT 1")).
		WithArgs("awa").
		WillReturnRows(rows)

	staff, err := repo.FindByLogin(context.Background(), "awa")
	require.NoError(t, err)
	assert.Equal(t, "ENS202512345", staff.Code)
	assert.Equal(t, models.RoleTeacher, staff.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryExistsByLoginExcludesSelf(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM staff WHERE LOWER(login) = LOWER($1) AND code <> $2 LIMIT 1")).
		WithArgs("awa", "ENS202512345").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	taken, err := repo.ExistsByLogin(context.Background(), "awa", "ENS202512345")
	require.NoError(t, err)
	assert.False(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryListByRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"code", "name", "login", "password_hash", "sex", "phone", "role", "created_at", "updated_at"}).
		AddRow("RA202500001", "Moussa Diop", "moussa", "hash", "M", "0611111111", "ACADEMIC_LEAD", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM staff WHERE 1=1 AND role = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("ACADEMIC_LEAD").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM staff WHERE 1=1 AND role = $1")).
		WithArgs("ACADEMIC_LEAD").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	staff, total, err := repo.List(context.Background(), models.StaffFilter{Role: models.RoleAcademicLead})
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
