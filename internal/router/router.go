package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/handler"
)

// Handlers groups the handlers the route files mount.
type Handlers struct {
	Courses     *handler.CourseHandler
	Students    *handler.StudentHandler
	Enrollments *handler.EnrollmentHandler
	Payments    *handler.PaymentHandler
}

// RegisterRoutes registers the probes and the metrics endpoint.  ready may
// be nil when no external record store is used.
func RegisterRoutes(e *echo.Echo, ready handler.Pinger, metrics http.Handler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(ready))
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterPublic registers the unauthenticated catalogue and registration
// endpoints.  cache wraps only the course listings.
func RegisterPublic(e *echo.Echo, h Handlers, cache echo.MiddlewareFunc) {
	cache = orPass(cache)
	e.GET("/v1/courses", h.Courses.List, cache)
	e.GET("/v1/courses/available", h.Courses.Available, cache)
	e.GET("/v1/courses/:id", h.Courses.Get, cache)
	e.POST("/v1/students", h.Students.Register)
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}
