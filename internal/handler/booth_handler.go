package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/service"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
	"github.com/mirai-juku/scheduling-api/pkg/response"
)

// BoothHandler wires booth management to HTTP routes.
type BoothHandler struct {
	booths *service.BoothService
}

// NewBoothHandler constructs a new BoothHandler.
func NewBoothHandler(booths *service.BoothService) *BoothHandler {
	return &BoothHandler{booths: booths}
}

// List godoc
// @Summary List booths
// @Tags Booths
// @Produce json
// @Param active query bool false "Filter by active status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /booths [get]
func (h *BoothHandler) List(c *gin.Context) {
	filter := models.BoothFilter{
		Search: c.Query("search"),
		Active: parseBoolQuery(c, "active"),
	}
	filter.Page, filter.PageSize = parsePageQuery(c, 50)

	booths, pagination, err := h.booths.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booths, &pagination)
}

// Get godoc
// @Summary Get booth detail
// @Tags Booths
// @Produce json
// @Param id path string true "Booth ID"
// @Success 200 {object} response.Envelope
// @Router /booths/{id} [get]
func (h *BoothHandler) Get(c *gin.Context) {
	booth, err := h.booths.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booth, nil)
}

// Create godoc
// @Summary Create booth
// @Tags Booths
// @Accept json
// @Produce json
// @Param payload body service.UpsertBoothRequest true "Booth payload"
// @Success 201 {object} response.Envelope
// @Router /booths [post]
func (h *BoothHandler) Create(c *gin.Context) {
	var req service.UpsertBoothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booth payload"))
		return
	}
	booth, err := h.booths.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booth)
}

// Update godoc
// @Summary Update booth
// @Tags Booths
// @Accept json
// @Produce json
// @Param id path string true "Booth ID"
// @Param payload body service.UpsertBoothRequest true "Booth payload"
// @Success 200 {object} response.Envelope
// @Router /booths/{id} [put]
func (h *BoothHandler) Update(c *gin.Context) {
	var req service.UpsertBoothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booth payload"))
		return
	}
	booth, err := h.booths.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booth, nil)
}

// Delete godoc
// @Summary Deactivate booth
// @Tags Booths
// @Param id path string true "Booth ID"
// @Success 204
// @Router /booths/{id} [delete]
func (h *BoothHandler) Delete(c *gin.Context) {
	if err := h.booths.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
