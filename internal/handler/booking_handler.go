package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/suivi-academique-api/internal/dto"
	"github.com/noah-isme/suivi-academique-api/internal/middleware"
	"github.com/noah-isme/suivi-academique-api/internal/models"
	"github.com/noah-isme/suivi-academique-api/internal/service"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
	"github.com/noah-isme/suivi-academique-api/pkg/export"
	"github.com/noah-isme/suivi-academique-api/pkg/response"
)

type bookingService interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Booking, error)
	Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error)
	Update(ctx context.Context, id int64, req dto.UpdateBookingRequest) (*models.Booking, error)
	Delete(ctx context.Context, id int64) error
	Review(ctx context.Context, id int64, req dto.ReviewBookingRequest) (*models.Booking, error)
	CheckConflicts(ctx context.Context, query dto.ConflictQuery) ([]models.Booking, error)
	AvailableRooms(ctx context.Context, start, end time.Time) ([]models.Room, error)
	Stats(ctx context.Context) (*models.BookingStats, error)
}

type bookingExporter interface {
	ExportBookings(ctx context.Context, filter models.BookingFilter, format export.Format) (*service.ExportFile, error)
}

// BookingHandler exposes the /programmations endpoints.
type BookingHandler struct {
	service  bookingService
	exporter bookingExporter
}

// NewBookingHandler builds a booking handler.
func NewBookingHandler(svc bookingService, exporter bookingExporter) *BookingHandler {
	return &BookingHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List bookings
// @Tags Programmations
// @Produce json
// @Param room query string false "Room code"
// @Param course query string false "Course code"
// @Param creator query string false "Creator staff code"
// @Param reviewer query string false "Reviewer staff code"
// @Param status query string false "SCHEDULED, VALIDATED or REJECTED"
// @Param from query string false "Window start (RFC 3339)"
// @Param to query string false "Window end (RFC 3339)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /programmations [get]
func (h *BookingHandler) List(c *gin.Context) {
	filter, err := bookingFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.FromBookings(items), pagination, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Schedule a booking
// @Tags Programmations
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programmations [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	booking, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.FromBooking(*booking))
}

// Get godoc
// @Summary Get a booking
// @Tags Programmations
// @Produce json
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programmations/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, err := bookingIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	booking, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.FromBooking(*booking), nil)
}

// Update godoc
// @Summary Update a booking
// @Tags Programmations
// @Accept json
// @Produce json
// @Param id path int true "Booking ID"
// @Param payload body dto.UpdateBookingRequest true "Booking payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programmations/{id} [put]
func (h *BookingHandler) Update(c *gin.Context) {
	id, err := bookingIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	booking, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.FromBooking(*booking), nil)
}

// Delete godoc
// @Summary Delete a booking
// @Tags Programmations
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programmations/{id} [delete]
func (h *BookingHandler) Delete(c *gin.Context) {
	id, err := bookingIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": id}, nil)
}

// Review godoc
// @Summary Validate or reject a scheduled booking
// @Tags Programmations
// @Accept json
// @Produce json
// @Param id path int true "Booking ID"
// @Param payload body dto.ReviewBookingRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programmations/{id}/review [post]
func (h *BookingHandler) Review(c *gin.Context) {
	id, err := bookingIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ReviewBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	if req.ReviewerCode == "" {
		if claims := claimsFromContext(c); claims != nil {
			req.ReviewerCode = claims.StaffCode
		}
	}
	booking, err := h.service.Review(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.FromBooking(*booking), nil)
}

// Conflicts godoc
// @Summary Probe a room for overlapping bookings
// @Tags Programmations
// @Produce json
// @Param room query string true "Room code"
// @Param start query string true "Window start (RFC 3339)"
// @Param end query string true "Window end (RFC 3339)"
// @Param exclude query int false "Booking ID to ignore"
// @Success 200 {object} response.Envelope
// @Router /programmations/conflicts [get]
func (h *BookingHandler) Conflicts(c *gin.Context) {
	start, end, err := requiredWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query := dto.ConflictQuery{RoomCode: strings.TrimSpace(c.Query("room")), StartsAt: start, EndsAt: end}
	if raw := c.Query("exclude"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "exclude must be a booking id"))
			return
		}
		query.ExcludeID = &id
	}
	items, err := h.service.CheckConflicts(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.FromBookings(items), nil, map[string]interface{}{"conflict": len(items) > 0})
}

// AvailableRooms godoc
// @Summary List FREE rooms without bookings in a window
// @Tags Programmations
// @Produce json
// @Param start query string true "Window start (RFC 3339)"
// @Param end query string true "Window end (RFC 3339)"
// @Success 200 {object} response.Envelope
// @Router /programmations/available-rooms [get]
func (h *BookingHandler) AvailableRooms(c *gin.Context) {
	start, end, err := requiredWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rooms, err := h.service.AvailableRooms(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AvailableRoomsResponse{StartsAt: start.UTC(), EndsAt: end.UTC(), Rooms: rooms}, nil)
}

// Stats godoc
// @Summary Booked hours per course and per creator
// @Tags Programmations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programmations/stats [get]
func (h *BookingHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export bookings
// @Tags Programmations
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /programmations/export [get]
func (h *BookingHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	filter, err := bookingFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.ExportBookings(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func bookingFilterFromQuery(c *gin.Context) (models.BookingFilter, error) {
	page, size := pageParams(c)
	filter := models.BookingFilter{
		RoomCode:     c.Query("room"),
		CourseCode:   c.Query("course"),
		CreatorCode:  c.Query("creator"),
		ReviewerCode: c.Query("reviewer"),
		Status:       models.BookingStatus(strings.ToUpper(c.Query("status"))),
		Page:         page,
		PageSize:     size,
		SortBy:       c.Query("sort"),
		SortOrder:    c.Query("order"),
	}
	var err error
	if filter.From, err = optionalTime(c, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = optionalTime(c, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}
