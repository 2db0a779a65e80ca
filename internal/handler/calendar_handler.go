package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/service"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
	"github.com/mirai-juku/scheduling-api/pkg/response"
)

// CalendarHandler keeps the operator's multi-select calendar state.
type CalendarHandler struct {
	selectedDates *service.SelectedDatesService
}

// NewCalendarHandler constructs a new CalendarHandler.
func NewCalendarHandler(selectedDates *service.SelectedDatesService) *CalendarHandler {
	return &CalendarHandler{selectedDates: selectedDates}
}

// GetSelectedDates godoc
// @Summary Get the operator's selected dates
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /calendar/selected-dates [get]
func (h *CalendarHandler) GetSelectedDates(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	payload, err := h.selectedDates.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// PutSelectedDates godoc
// @Summary Replace the operator's selected dates
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.SelectedDatesPayload true "Selected dates"
// @Success 200 {object} response.Envelope
// @Router /calendar/selected-dates [put]
func (h *CalendarHandler) PutSelectedDates(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SelectedDatesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid selected dates payload"))
		return
	}
	payload, err := h.selectedDates.Put(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
