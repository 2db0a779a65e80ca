package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/service"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
	"github.com/mirai-juku/scheduling-api/pkg/response"
)

// AvailabilityHandler wires availability windows to HTTP routes. The role is
// part of the path so teacher and student availability share one handler.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs a new AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// Get godoc
// @Summary Get a person's availability windows
// @Tags Availability
// @Produce json
// @Param role path string true "Person role (teacher/student)"
// @Param id path string true "Person ID"
// @Success 200 {object} response.Envelope
// @Router /availability/{role}/{id} [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	resp, err := h.availability.Get(c.Request.Context(), c.Param("id"), c.Param("role"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Put godoc
// @Summary Replace a person's availability windows
// @Tags Availability
// @Accept json
// @Produce json
// @Param role path string true "Person role (teacher/student)"
// @Param id path string true "Person ID"
// @Param payload body dto.PutAvailabilityRequest true "Availability payload"
// @Success 200 {object} response.Envelope
// @Router /availability/{role}/{id} [put]
func (h *AvailabilityHandler) Put(c *gin.Context) {
	var req dto.PutAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	resp, err := h.availability.Replace(c.Request.Context(), c.Param("id"), c.Param("role"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// ResolveDay godoc
// @Summary Resolve the governing window for one date
// @Tags Availability
// @Produce json
// @Param role path string true "Person role (teacher/student)"
// @Param id path string true "Person ID"
// @Param date query string true "Calendar date (YYYY-MM-DD)"
// @Param mode query string false "Resolution mode (with-special/regular-only)"
// @Success 200 {object} response.Envelope
// @Router /availability/{role}/{id}/day [get]
func (h *AvailabilityHandler) ResolveDay(c *gin.Context) {
	resp, err := h.availability.ResolveDay(c.Request.Context(), c.Param("id"), c.Param("role"), c.Query("date"), c.Query("mode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
