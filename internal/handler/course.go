package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/service"
)

const dateLayout = "2006-01-02"

// CourseHandler serves the public catalogue and the admin course CRUD.
type CourseHandler struct {
	Courses *service.CourseService
	Cache   Purger
}

func NewCourseHandler(courses *service.CourseService, cache Purger) *CourseHandler {
	if courses == nil {
		panic("nil course service passed to NewCourseHandler")
	}
	if cache == nil {
		cache = noopPurger{}
	}
	return &CourseHandler{Courses: courses, Cache: cache}
}

type courseRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Instructor  string          `json:"instructor"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Fee         decimal.Decimal `json:"fee"`
	Capacity    int             `json:"capacity"`
}

func (r courseRequest) toModel() (model.Course, string) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(r.StartDate))
	if err != nil {
		return model.Course{}, "start_date must be YYYY-MM-DD"
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(r.EndDate))
	if err != nil {
		return model.Course{}, "end_date must be YYYY-MM-DD"
	}
	return model.Course{
		Name:        r.Name,
		Description: r.Description,
		Instructor:  r.Instructor,
		StartDate:   start,
		EndDate:     end,
		Fee:         r.Fee,
		Capacity:    r.Capacity,
	}, ""
}

// List handles GET /v1/courses.  ?available=true narrows to courses with a
// free seat.
func (h *CourseHandler) List(c echo.Context) error {
	return h.list(c, c.QueryParam("available") == "true")
}

// Available handles GET /v1/courses/available.
func (h *CourseHandler) Available(c echo.Context) error {
	return h.list(c, true)
}

func (h *CourseHandler) list(c echo.Context, availableOnly bool) error {
	courses, err := h.Courses.List(c.Request().Context(), availableOnly)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": courses, "count": len(courses)})
}

// Get handles GET /v1/courses/:id.
func (h *CourseHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	course, err := h.Courses.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, course)
}

// Create handles POST /v1/admin/courses.
func (h *CourseHandler) Create(c echo.Context) error {
	var req courseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	course, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	created, err := h.Courses.Create(c.Request().Context(), course)
	if err != nil {
		return writeError(c, err)
	}
	purge(c, h.Cache)
	return c.JSON(http.StatusCreated, created)
}

// Update handles PUT /v1/admin/courses/:id.
func (h *CourseHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req courseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	course, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	course.ID = id
	updated, err := h.Courses.Update(c.Request().Context(), course)
	if err != nil {
		return writeError(c, err)
	}
	purge(c, h.Cache)
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/admin/courses/:id.
func (h *CourseHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	if err := h.Courses.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	purge(c, h.Cache)
	return c.NoContent(http.StatusNoContent)
}
