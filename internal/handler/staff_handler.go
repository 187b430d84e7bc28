package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/suivi-academique-api/internal/models"
	"github.com/noah-isme/suivi-academique-api/internal/service"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
	"github.com/noah-isme/suivi-academique-api/pkg/response"
)

type staffService interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, *models.Pagination, error)
	Get(ctx context.Context, code string) (*models.Staff, error)
	Create(ctx context.Context, req service.CreateStaffRequest) (*models.Staff, error)
	Update(ctx context.Context, code string, req service.UpdateStaffRequest) (*models.Staff, error)
	Delete(ctx context.Context, code string) error
}

// StaffHandler exposes the /personnel endpoints.
type StaffHandler struct {
	service staffService
}

// NewStaffHandler builds a staff handler.
func NewStaffHandler(svc staffService) *StaffHandler {
	return &StaffHandler{service: svc}
}

// List godoc
// @Summary List personnel
// @Tags Personnel
// @Produce json
// @Param role query string false "TEACHER, ACADEMIC_LEAD or PERSONNEL_LEAD"
// @Param search query string false "Name, login or code"
// @Success 200 {object} response.Envelope
// @Router /personnel [get]
func (h *StaffHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	filter := models.StaffFilter{
		Role:      models.StaffRole(strings.ToUpper(c.Query("role"))),
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  size,
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	staff, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, pagination)
}

// Get godoc
// @Summary Get a staff member
// @Tags Personnel
// @Produce json
// @Param code path string true "Staff code"
// @Success 200 {object} response.Envelope
// @Router /personnel/{code} [get]
func (h *StaffHandler) Get(c *gin.Context) {
	staff, err := h.service.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Create godoc
// @Summary Create a staff member
// @Tags Personnel
// @Accept json
// @Produce json
// @Param payload body service.CreateStaffRequest true "Staff payload"
// @Success 201 {object} response.Envelope
// @Router /personnel [post]
func (h *StaffHandler) Create(c *gin.Context) {
	var req service.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid staff payload"))
		return
	}
	staff, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, staff)
}

// Update godoc
// @Summary Update a staff member
// @Tags Personnel
// @Accept json
// @Produce json
// @Param code path string true "Staff code"
// @Param payload body service.UpdateStaffRequest true "Staff payload"
// @Success 200 {object} response.Envelope
// @Router /personnel/{code} [put]
func (h *StaffHandler) Update(c *gin.Context) {
	var req service.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid staff payload"))
		return
	}
	staff, err := h.service.Update(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Delete godoc
// @Summary Delete a staff member
// @Tags Personnel
// @Param code path string true "Staff code"
// @Success 204
// @Router /personnel/{code} [delete]
func (h *StaffHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
