package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/service"
)

// writeError maps service errors to status codes and JSON bodies.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already_enrolled"})
	case errors.Is(err, service.ErrCourseFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "course_full"})
	case errors.Is(err, service.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email_exists"})
	case errors.Is(err, service.ErrInvalidStatus):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_status"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
