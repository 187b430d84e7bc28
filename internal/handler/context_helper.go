package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/suivi-academique-api/internal/middleware"
	"github.com/noah-isme/suivi-academique-api/internal/models"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func bookingIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid booking id")
	}
	return id, nil
}

// optionalTime parses an RFC 3339 query value. Blank values yield nil.
func optionalTime(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, key+" must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func requiredWindow(c *gin.Context) (time.Time, time.Time, error) {
	start, err := optionalTime(c, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := optionalTime(c, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start == nil || end == nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start and end are required")
	}
	return *start, *end, nil
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}
