package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mirai-juku/scheduling-api/internal/middleware"
	"github.com/mirai-juku/scheduling-api/internal/models"
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

func parseBoolQuery(c *gin.Context, key string) *bool {
	switch strings.ToLower(c.Query(key)) {
	case "true":
		val := true
		return &val
	case "false":
		val := false
		return &val
	}
	return nil
}

func parsePageQuery(c *gin.Context, defaultSize int) (int, int) {
	page, size := 1, defaultSize
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSize))); err == nil {
		size = v
	}
	return page, size
}
