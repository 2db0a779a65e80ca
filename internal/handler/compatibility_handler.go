package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/service"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
	"github.com/mirai-juku/scheduling-api/pkg/response"
)

// CompatibilityHandler exposes preference-based candidate ranking.
type CompatibilityHandler struct {
	compatibility *service.CompatibilityService
}

// NewCompatibilityHandler constructs a new CompatibilityHandler.
func NewCompatibilityHandler(compatibility *service.CompatibilityService) *CompatibilityHandler {
	return &CompatibilityHandler{compatibility: compatibility}
}

// Rank godoc
// @Summary Rank candidate partners by subject compatibility
// @Description Ranks teachers for a student (studentId) or students for a teacher (teacherId)
// @Tags Compatibility
// @Produce json
// @Param studentId query string false "Anchor student ID"
// @Param teacherId query string false "Anchor teacher ID"
// @Param subjectFamily query string false "Subject family to match on"
// @Success 200 {object} response.Envelope
// @Router /compatibility/rank [get]
func (h *CompatibilityHandler) Rank(c *gin.Context) {
	var query dto.RankQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rank query"))
		return
	}
	resp, err := h.compatibility.Rank(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
