package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/suivi-academique-api/internal/models"
)

func TestRoomRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"code", "description", "capacity", "status", "created_at", "updated_at"}).
		AddRow("A101", "Amphi", 120, "FREE", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, description, capacity, status, created_at, updated_at FROM rooms WHERE 1=1 AND status = $1 ORDER BY code ASC LIMIT 20 OFFSET 0")).
		WithArgs("FREE").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rooms WHERE 1=1 AND status = $1")).
		WithArgs("FREE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rooms, total, err := repo.List(context.Background(), models.RoomFilter{Status: models.RoomStatusFree})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryFindByCodeMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE code = $1")).
		WithArgs("Z999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByCode(context.Background(), "Z999")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET status = $1, updated_at = $2 WHERE code = $3")).
		WithArgs("CLOSED", sqlmock.AnyArg(), "A101").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "A101", models.RoomStatusClosed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"code", "label", "description", "credits", "hours", "created_at", "updated_at"}).
		AddRow("INF101", "Algorithmique", "Bases", 6, 48, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE 1=1 AND (LOWER(code) LIKE $1 OR LOWER(label) LIKE $1) ORDER BY code ASC LIMIT 20 OFFSET 0")).
		WithArgs("%algo%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses")).
		WithArgs("%algo%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Search: "Algo"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "INF101", courses[0].Code)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
