package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mirai-juku/scheduling-api/internal/middleware"
	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth          *AuthHandler
	Teachers      *TeacherHandler
	Students      *StudentHandler
	Subjects      *SubjectHandler
	Booths        *BoothHandler
	Availability  *AvailabilityHandler
	Compatibility *CompatibilityHandler
	Series        *SeriesHandler
	Sessions      *SessionHandler
	Calendar      *CalendarHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts the API under the given prefix. Reads require a valid
// token; roster and catalogue writes are limited to back-office roles.
func RegisterRoutes(r *gin.Engine, prefix string, auth *service.AuthService, h Handlers) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(auth))
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)

	authed.GET("/auth/me", h.Auth.Me)

	authed.GET("/teachers", h.Teachers.List)
	authed.GET("/teachers/:id", h.Teachers.Get)
	authed.GET("/teachers/:id/subjects", h.Teachers.Subjects)
	authed.POST("/teachers", staff, h.Teachers.Create)
	authed.PUT("/teachers/:id", staff, h.Teachers.Update)
	authed.DELETE("/teachers/:id", staff, h.Teachers.Delete)

	authed.GET("/students", h.Students.List)
	authed.GET("/students/:id", h.Students.Get)
	authed.GET("/students/:id/subjects", h.Students.Subjects)
	authed.POST("/students", staff, h.Students.Create)
	authed.PUT("/students/:id", staff, h.Students.Update)
	authed.DELETE("/students/:id", staff, h.Students.Delete)

	authed.GET("/subjects", h.Subjects.List)
	authed.GET("/subjects/:id", h.Subjects.Get)
	authed.POST("/subjects", staff, h.Subjects.Create)
	authed.PUT("/subjects/:id", staff, h.Subjects.Update)

	authed.GET("/booths", h.Booths.List)
	authed.GET("/booths/:id", h.Booths.Get)
	authed.POST("/booths", staff, h.Booths.Create)
	authed.PUT("/booths/:id", staff, h.Booths.Update)
	authed.DELETE("/booths/:id", staff, h.Booths.Delete)

	authed.GET("/availability/:role/:id", h.Availability.Get)
	authed.PUT("/availability/:role/:id", staff, h.Availability.Put)
	authed.GET("/availability/:role/:id/day", h.Availability.ResolveDay)

	authed.GET("/compatibility/rank", h.Compatibility.Rank)

	authed.POST("/series/preview", staff, h.Series.Preview)
	authed.POST("/series", staff, h.Series.Create)
	authed.GET("/series/:id", h.Series.Get)
	authed.POST("/series/:id/extend", staff, h.Series.Extend)
	authed.DELETE("/series/:id", staff, h.Series.Cancel)

	authed.GET("/sessions", h.Sessions.List)
	authed.GET("/sessions/day", h.Sessions.DaySchedule)
	authed.GET("/sessions/day/export", h.Sessions.ExportDaySchedule)
	authed.GET("/sessions/:id", h.Sessions.Get)
	authed.POST("/sessions", staff, h.Sessions.Create)
	authed.PUT("/sessions/:id", staff, h.Sessions.Update)
	authed.POST("/sessions/:id/cancel", staff, h.Sessions.Cancel)
	authed.DELETE("/sessions/:id", staff, h.Sessions.Delete)

	authed.GET("/calendar/selected-dates", h.Calendar.GetSelectedDates)
	authed.PUT("/calendar/selected-dates", h.Calendar.PutSelectedDates)

	authed.GET("/metrics/summary", staff, h.Metrics.Summary)
}
