package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/middleware"
	"github.com/iliyamo/course-enrollment/internal/utils"
)

// RegisterAdmin registers the administration endpoints under /v1/admin.
// Every route requires the ADMIN role.
func RegisterAdmin(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)

	g.POST("/courses", h.Courses.Create)
	g.PUT("/courses/:id", h.Courses.Update)
	g.DELETE("/courses/:id", h.Courses.Delete)

	g.GET("/students", h.Students.List)
	g.GET("/students/:id", h.Students.Get)
	g.PUT("/students/:id", h.Students.Update)
	g.DELETE("/students/:id", h.Students.Delete)

	g.POST("/enrollments", h.Enrollments.AdminEnroll)
	g.GET("/enrollments", h.Enrollments.AdminList)
	g.GET("/enrollments/:id", h.Enrollments.AdminGet)
	g.DELETE("/enrollments/:id", h.Enrollments.AdminCancel)
	g.POST("/enrollments/:id/complete", h.Enrollments.AdminComplete)

	g.GET("/payments", h.Payments.AdminList)
	g.GET("/payments/:id", h.Payments.AdminGet)
}
