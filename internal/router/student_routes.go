package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/middleware"
	"github.com/iliyamo/course-enrollment/internal/utils"
)

// RegisterStudent registers the student-scoped endpoints.  All of them
// require a valid JWT with the STUDENT role; the student id is the token
// subject.  limiter guards the write routes.
func RegisterStudent(e *echo.Echo, h Handlers, jwtSecret string, limiter echo.MiddlewareFunc) {
	limiter = orPass(limiter)
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleStudent),
	)
	g.GET("/me", h.Students.Me)
	g.PUT("/me", h.Students.UpdateMe)

	g.POST("/courses/:id/enroll", h.Enrollments.Enroll, limiter)
	g.GET("/courses/:id/enrollment", h.Enrollments.Status)
	g.DELETE("/enrollments/:id", h.Enrollments.Cancel, limiter)
	g.GET("/my-enrollments", h.Enrollments.Mine)

	g.POST("/courses/:id/payments", h.Payments.Pay, limiter)
	g.GET("/my-payments", h.Payments.Mine)
}
