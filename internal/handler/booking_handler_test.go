package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/suivi-academique-api/internal/dto"
	"github.com/noah-isme/suivi-academique-api/internal/middleware"
	"github.com/noah-isme/suivi-academique-api/internal/models"
	"github.com/noah-isme/suivi-academique-api/internal/service"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
	"github.com/noah-isme/suivi-academique-api/pkg/export"
)

type bookingServiceMock struct {
	booking     *models.Booking
	err         error
	lastFilter  models.BookingFilter
	lastCreate  dto.CreateBookingRequest
	lastReview  dto.ReviewBookingRequest
	lastQuery   dto.ConflictQuery
	conflicts   []models.Booking
	rooms       []models.Room
	deletedID   int64
	createCalls int
}

func (m *bookingServiceMock) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	m.lastFilter = filter
	if m.booking == nil {
		return nil, &models.Pagination{Page: 1, PageSize: 20}, m.err
	}
	return []models.Booking{*m.booking}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, m.err
}

func (m *bookingServiceMock) Get(ctx context.Context, id int64) (*models.Booking, error) {
	return m.booking, m.err
}

func (m *bookingServiceMock) Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error) {
	m.createCalls++
	m.lastCreate = req
	return m.booking, m.err
}

func (m *bookingServiceMock) Update(ctx context.Context, id int64, req dto.UpdateBookingRequest) (*models.Booking, error) {
	return m.booking, m.err
}

func (m *bookingServiceMock) Delete(ctx context.Context, id int64) error {
	m.deletedID = id
	return m.err
}

func (m *bookingServiceMock) Review(ctx context.Context, id int64, req dto.ReviewBookingRequest) (*models.Booking, error) {
	m.lastReview = req
	return m.booking, m.err
}

func (m *bookingServiceMock) CheckConflicts(ctx context.Context, query dto.ConflictQuery) ([]models.Booking, error) {
	m.lastQuery = query
	return m.conflicts, m.err
}

func (m *bookingServiceMock) AvailableRooms(ctx context.Context, start, end time.Time) ([]models.Room, error) {
	return m.rooms, m.err
}

func (m *bookingServiceMock) Stats(ctx context.Context) (*models.BookingStats, error) {
	return &models.BookingStats{}, m.err
}

type exporterMock struct {
	format export.Format
}

func (m *exporterMock) ExportBookings(ctx context.Context, filter models.BookingFilter, format export.Format) (*service.ExportFile, error) {
	m.format = format
	return &service.ExportFile{Filename: "programmations.csv", ContentType: format.ContentType(), Content: []byte("id\n")}, nil
}

func sampleBooking() *models.Booking {
	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	return &models.Booking{ID: 7, RoomCode: "A101", CourseCode: "INF101", CreatorCode: "ENS202512345",
		DurationHours: 2, StartsAt: start, EndsAt: start.Add(2 * time.Hour), Status: models.BookingStatusScheduled}
}

func newBookingContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestBookingHandlerCreate(t *testing.T) {
	mockSvc := &bookingServiceMock{booking: sampleBooking()}
	h := NewBookingHandler(mockSvc, nil)

	payload := []byte(`{"room_code":"A101","course_code":"INF101","creator_code":"ENS202512345","duration_hours":2,"starts_at":"2025-03-03T08:00:00Z","ends_at":"2025-03-03T10:00:00Z"}`)
	c, w := newBookingContext(http.MethodPost, "/programmations", payload)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "A101", mockSvc.lastCreate.RoomCode)
	require.NotNil(t, mockSvc.lastCreate.StartsAt)

	var body struct {
		Data dto.BookingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.Data.ID)
	assert.Equal(t, models.BookingStatusScheduled, body.Data.Status)
}

func TestBookingHandlerCreateMalformedBody(t *testing.T) {
	mockSvc := &bookingServiceMock{}
	h := NewBookingHandler(mockSvc, nil)

	c, w := newBookingContext(http.MethodPost, "/programmations", []byte(`{"room_code":`))
	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mockSvc.createCalls)
}

func TestBookingHandlerConflictIsBadRequest(t *testing.T) {
	conflict := models.NewBookingConflictError("A101", time.Now(), time.Now().Add(time.Hour), []models.Booking{{ID: 3}})
	mockSvc := &bookingServiceMock{err: appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflict.Error())}
	h := NewBookingHandler(mockSvc, nil)

	c, w := newBookingContext(http.MethodPost, "/programmations", []byte(`{"room_code":"A101"}`))
	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
	assert.Contains(t, w.Body.String(), "booking(s) 3")
}

func TestBookingHandlerGetNotFoundAndBadID(t *testing.T) {
	h := NewBookingHandler(&bookingServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "booking 9 not found")}, nil)

	c, w := newBookingContext(http.MethodGet, "/programmations/9", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newBookingContext(http.MethodGet, "/programmations/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerReviewDefaultsReviewer(t *testing.T) {
	mockSvc := &bookingServiceMock{booking: sampleBooking()}
	h := NewBookingHandler(mockSvc, nil)

	c, w := newBookingContext(http.MethodPost, "/programmations/7/review", []byte(`{"decision":"VALIDATE"}`))
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{StaffCode: "RA202500001", Role: models.RoleAcademicLead})
	h.Review(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RA202500001", mockSvc.lastReview.ReviewerCode)
	assert.Equal(t, dto.DecisionValidate, mockSvc.lastReview.Decision)
}

func TestBookingHandlerListParsesFilters(t *testing.T) {
	mockSvc := &bookingServiceMock{booking: sampleBooking()}
	h := NewBookingHandler(mockSvc, nil)

	c, w := newBookingContext(http.MethodGet, "/programmations?room=A101&reviewer=RA202500001&status=validated&from=2025-03-01T00:00:00Z&page=2&page_size=5", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A101", mockSvc.lastFilter.RoomCode)
	assert.Equal(t, "RA202500001", mockSvc.lastFilter.ReviewerCode)
	assert.Equal(t, models.BookingStatusValidated, mockSvc.lastFilter.Status)
	require.NotNil(t, mockSvc.lastFilter.From)
	assert.Nil(t, mockSvc.lastFilter.To)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 5, mockSvc.lastFilter.PageSize)

	c, w = newBookingContext(http.MethodGet, "/programmations?from=yesterday", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerConflicts(t *testing.T) {
	mockSvc := &bookingServiceMock{conflicts: []models.Booking{*sampleBooking()}}
	h := NewBookingHandler(mockSvc, nil)

	c, w := newBookingContext(http.MethodGet, "/programmations/conflicts?room=A101&start=2025-03-03T09:00:00Z&end=2025-03-03T11:00:00Z&exclude=4", nil)
	h.Conflicts(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A101", mockSvc.lastQuery.RoomCode)
	require.NotNil(t, mockSvc.lastQuery.ExcludeID)
	assert.Equal(t, int64(4), *mockSvc.lastQuery.ExcludeID)
	assert.Contains(t, w.Body.String(), `"conflict":true`)

	c, w = newBookingContext(http.MethodGet, "/programmations/conflicts?room=A101", nil)
	h.Conflicts(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerExport(t *testing.T) {
	exporter := &exporterMock{}
	h := NewBookingHandler(&bookingServiceMock{}, exporter)

	c, w := newBookingContext(http.MethodGet, "/programmations/export?format=PDF", nil)
	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.FormatPDF, exporter.format)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	c, w = newBookingContext(http.MethodGet, "/programmations/export?format=xml", nil)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerDelete(t *testing.T) {
	mockSvc := &bookingServiceMock{}
	h := NewBookingHandler(mockSvc, nil)

	c, w := newBookingContext(http.MethodDelete, "/programmations/12", nil)
	c.Params = gin.Params{{Key: "id", Value: "12"}}
	h.Delete(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(12), mockSvc.deletedID)
}
