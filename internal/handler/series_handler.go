package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/service"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
	"github.com/mirai-juku/scheduling-api/pkg/response"
)

// SeriesHandler wires recurring lesson series to HTTP routes.
type SeriesHandler struct {
	series *service.SeriesService
}

// NewSeriesHandler constructs a new SeriesHandler.
func NewSeriesHandler(series *service.SeriesService) *SeriesHandler {
	return &SeriesHandler{series: series}
}

// Preview godoc
// @Summary Preview a series' conflicts
// @Description Expands the recurrence rule and reports every candidate date with its conflicts, without writing anything
// @Tags Series
// @Accept json
// @Produce json
// @Param payload body dto.PreviewSeriesRequest true "Series definition"
// @Success 200 {object} response.Envelope
// @Router /series/preview [post]
func (h *SeriesHandler) Preview(c *gin.Context) {
	var req dto.PreviewSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preview payload"))
		return
	}
	resp, err := h.series.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Create godoc
// @Summary Materialize a series
// @Description Re-validates the definition, applies per-date actions, and creates the sessions. Returns success=false with fresh conflicts when unresolved dates remain.
// @Tags Series
// @Accept json
// @Produce json
// @Param payload body dto.CreateSeriesRequest true "Series definition with actions"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Router /series [post]
func (h *SeriesHandler) Create(c *gin.Context) {
	var req dto.CreateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid create payload"))
		return
	}
	resp, err := h.series.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !resp.Success {
		// Remaining conflicts are not an HTTP failure: the operator re-enters
		// resolution with the returned conflict set.
		response.JSON(c, http.StatusOK, resp, nil)
		return
	}
	response.Created(c, resp)
}

// Get godoc
// @Summary Get series detail
// @Tags Series
// @Produce json
// @Param id path string true "Series ID"
// @Success 200 {object} response.Envelope
// @Router /series/{id} [get]
func (h *SeriesHandler) Get(c *gin.Context) {
	record, err := h.series.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Extend godoc
// @Summary Extend a series
// @Description Pushes the end date forward and materializes the added dates after the same detect/resolve cycle
// @Tags Series
// @Accept json
// @Produce json
// @Param id path string true "Series ID"
// @Param payload body dto.ExtendSeriesRequest true "Extension payload"
// @Success 200 {object} response.Envelope
// @Router /series/{id}/extend [post]
func (h *SeriesHandler) Extend(c *gin.Context) {
	var req dto.ExtendSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid extend payload"))
		return
	}
	resp, err := h.series.Extend(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Cancel godoc
// @Summary Cancel a series
// @Tags Series
// @Param id path string true "Series ID"
// @Success 204
// @Router /series/{id} [delete]
func (h *SeriesHandler) Cancel(c *gin.Context) {
	if err := h.series.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
