package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/suivi-academique-api/internal/models"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
	"github.com/noah-isme/suivi-academique-api/pkg/response"
)

type assignmentService interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, error)
	Create(ctx context.Context, key models.AssignmentKey) (*models.Assignment, error)
	Delete(ctx context.Context, key models.AssignmentKey) error
}

// AssignmentHandler exposes the /affectation endpoints.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler builds an assignment handler.
func NewAssignmentHandler(svc assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List godoc
// @Summary List assignments
// @Tags Affectations
// @Produce json
// @Param course query string false "Course code"
// @Param staff query string false "Staff code"
// @Success 200 {object} response.Envelope
// @Router /affectation [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	filter := models.AssignmentFilter{CourseCode: c.Query("course"), StaffCode: c.Query("staff")}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Assign a staff member to a course
// @Tags Affectations
// @Accept json
// @Produce json
// @Param payload body models.AssignmentKey true "Assignment key"
// @Success 201 {object} response.Envelope
// @Router /affectation [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var key models.AssignmentKey
	if err := c.ShouldBindJSON(&key); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.Create(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Delete godoc
// @Summary Remove an assignment
// @Tags Affectations
// @Param courseCode path string true "Course code"
// @Param staffCode path string true "Staff code"
// @Success 204
// @Router /affectation/{courseCode}/{staffCode} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	key := models.AssignmentKey{CourseCode: c.Param("courseCode"), StaffCode: c.Param("staffCode")}
	if err := h.service.Delete(c.Request.Context(), key); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
