package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/suivi-academique-api/internal/models"
	"github.com/noah-isme/suivi-academique-api/internal/service"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
	"github.com/noah-isme/suivi-academique-api/pkg/response"
)

type roomService interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error)
	Get(ctx context.Context, code string) (*models.Room, error)
	Create(ctx context.Context, req service.CreateRoomRequest) (*models.Room, error)
	Update(ctx context.Context, code string, req service.UpdateRoomRequest) (*models.Room, error)
	UpdateStatus(ctx context.Context, code string, req service.UpdateRoomStatusRequest) (*models.Room, error)
	Delete(ctx context.Context, code string) error
}

// RoomHandler exposes the /salle endpoints.
type RoomHandler struct {
	service roomService
}

// NewRoomHandler builds a room handler.
func NewRoomHandler(svc roomService) *RoomHandler {
	return &RoomHandler{service: svc}
}

// List godoc
// @Summary List rooms
// @Tags Salles
// @Produce json
// @Param status query string false "FREE, OCCUPIED or CLOSED"
// @Param min_capacity query int false "Minimum capacity"
// @Param search query string false "Code or description"
// @Success 200 {object} response.Envelope
// @Router /salle [get]
func (h *RoomHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	minCapacity, _ := strconv.Atoi(c.Query("min_capacity"))
	filter := models.RoomFilter{
		Status:      models.RoomStatus(strings.ToUpper(c.Query("status"))),
		MinCapacity: minCapacity,
		Search:      c.Query("search"),
		Page:        page,
		PageSize:    size,
		SortBy:      c.Query("sort"),
		SortOrder:   c.Query("order"),
	}
	rooms, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, pagination)
}

// Get godoc
// @Summary Get a room
// @Tags Salles
// @Produce json
// @Param code path string true "Room code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /salle/{code} [get]
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.service.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Create godoc
// @Summary Create a room
// @Tags Salles
// @Accept json
// @Produce json
// @Param payload body service.CreateRoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Router /salle [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req service.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}
	room, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// Update godoc
// @Summary Update a room
// @Tags Salles
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param payload body service.UpdateRoomRequest true "Room payload"
// @Success 200 {object} response.Envelope
// @Router /salle/{code} [put]
func (h *RoomHandler) Update(c *gin.Context) {
	var req service.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}
	room, err := h.service.Update(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// UpdateStatus godoc
// @Summary Change a room status
// @Tags Salles
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param payload body service.UpdateRoomStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /salle/{code}/status [patch]
func (h *RoomHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateRoomStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	room, err := h.service.UpdateStatus(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Delete godoc
// @Summary Delete a room and its bookings
// @Tags Salles
// @Param code path string true "Room code"
// @Success 204
// @Router /salle/{code} [delete]
func (h *RoomHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
