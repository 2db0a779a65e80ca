package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/scheduling"
	"github.com/mirai-juku/scheduling-api/internal/service"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
	"github.com/mirai-juku/scheduling-api/pkg/response"
)

// SessionHandler wires one-off lesson sessions to HTTP routes.
type SessionHandler struct {
	sessions *service.SessionService
	exports  *service.ExportService
}

// NewSessionHandler constructs a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService, exports *service.ExportService) *SessionHandler {
	return &SessionHandler{sessions: sessions, exports: exports}
}

// List godoc
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Param teacherId query string false "Filter by teacher"
// @Param studentId query string false "Filter by student"
// @Param boothId query string false "Filter by booth"
// @Param seriesId query string false "Filter by series"
// @Param status query string false "Filter by status"
// @Param dateFrom query string false "Inclusive lower date bound (YYYY-MM-DD)"
// @Param dateTo query string false "Inclusive upper date bound (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	filter := models.SessionFilter{
		TeacherID: c.Query("teacherId"),
		StudentID: c.Query("studentId"),
		BoothID:   c.Query("boothId"),
		SeriesID:  c.Query("seriesId"),
		Status:    c.Query("status"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	filter.Page, filter.PageSize = parsePageQuery(c, 50)

	if from := c.Query("dateFrom"); from != "" {
		date, err := time.ParseInLocation(dto.DateLayout, from, time.UTC)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid dateFrom"))
			return
		}
		filter.DateFrom = &date
	}
	if to := c.Query("dateTo"); to != "" {
		date, err := time.ParseInLocation(dto.DateLayout, to, time.UTC)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid dateTo"))
			return
		}
		filter.DateTo = &date
	}

	sessions, pagination, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, &pagination)
}

// Get godoc
// @Summary Get session detail
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Create godoc
// @Summary Book a one-off session
// @Description Any detected conflict rejects the booking with the conflict list; force skips only the availability checks
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	session, conflicts, err := h.sessions.Create(c.Request.Context(), req)
	if err != nil {
		respondSessionError(c, err, conflicts)
		return
	}
	response.Created(c, session)
}

// Update godoc
// @Summary Reschedule or annotate a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateSessionRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id} [put]
func (h *SessionHandler) Update(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}
	session, conflicts, err := h.sessions.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondSessionError(c, err, conflicts)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Cancel godoc
// @Summary Cancel a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	session, err := h.sessions.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete a session
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DaySchedule godoc
// @Summary Get the schedule for one date
// @Tags Sessions
// @Produce json
// @Param date query string true "Calendar date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /sessions/day [get]
func (h *SessionHandler) DaySchedule(c *gin.Context) {
	sessions, err := h.sessions.DaySchedule(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// ExportDaySchedule godoc
// @Summary Export the schedule for one date
// @Tags Sessions
// @Produce text/csv
// @Produce application/pdf
// @Param date query string true "Calendar date (YYYY-MM-DD)"
// @Param format query string false "Export format (csv/pdf)"
// @Success 200 {file} file
// @Router /sessions/day/export [get]
func (h *SessionHandler) ExportDaySchedule(c *gin.Context) {
	artifact, err := h.exports.DaySchedule(c.Request.Context(), c.Query("date"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// respondSessionError keeps the detected conflicts in the error envelope so
// the client can render them without a second preview call.
func respondSessionError(c *gin.Context, err error, conflicts []scheduling.Conflict) {
	appErr := appErrors.FromError(err)
	if len(conflicts) == 0 {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, response.Envelope{
		Error: appErr,
		Data:  gin.H{"conflicts": conflicts},
	})
}
