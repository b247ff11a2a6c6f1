package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/service"
)

// EnrollmentHandler exposes the enrollment service.  Student routes take
// the student id from the verified token; admin routes take it from the
// request.
type EnrollmentHandler struct {
	Enrollments *service.EnrollmentService
	Cache       Purger
}

func NewEnrollmentHandler(enrollments *service.EnrollmentService, cache Purger) *EnrollmentHandler {
	if enrollments == nil {
		panic("nil enrollment service passed to NewEnrollmentHandler")
	}
	if cache == nil {
		cache = noopPurger{}
	}
	return &EnrollmentHandler{Enrollments: enrollments, Cache: cache}
}

// Enroll handles POST /v1/courses/:id/enroll.
func (h *EnrollmentHandler) Enroll(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	d, err := h.Enrollments.Enroll(c.Request().Context(), uid, courseID)
	if err != nil {
		return writeError(c, err)
	}
	purge(c, h.Cache)
	return c.JSON(http.StatusCreated, d)
}

// Status handles GET /v1/courses/:id/enrollment.
func (h *EnrollmentHandler) Status(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	enrolled, err := h.Enrollments.IsEnrolled(c.Request().Context(), uid, courseID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"course_id": courseID, "enrolled": enrolled})
}

// Cancel handles DELETE /v1/enrollments/:id for the owning student.
func (h *EnrollmentHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid enrollment id"})
	}
	d, err := h.Enrollments.CancelOwned(c.Request().Context(), id, uid)
	if err != nil {
		return writeError(c, err)
	}
	purge(c, h.Cache)
	return c.JSON(http.StatusOK, d)
}

// Mine handles GET /v1/my-enrollments.  ?status= filters by status.
func (h *EnrollmentHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	f := model.EnrollmentFilter{
		StudentID: uid,
		Status:    model.EnrollmentStatus(strings.ToUpper(c.QueryParam("status"))),
	}
	return h.list(c, f)
}

// AdminEnroll handles POST /v1/admin/enrollments.
func (h *EnrollmentHandler) AdminEnroll(c echo.Context) error {
	var req struct {
		StudentID uint64 `json:"student_id"`
		CourseID  uint64 `json:"course_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.StudentID == 0 || req.CourseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id and course_id are required"})
	}
	d, err := h.Enrollments.Enroll(c.Request().Context(), req.StudentID, req.CourseID)
	if err != nil {
		return writeError(c, err)
	}
	purge(c, h.Cache)
	return c.JSON(http.StatusCreated, d)
}

// AdminList handles GET /v1/admin/enrollments with optional student_id,
// course_id and status query parameters.
func (h *EnrollmentHandler) AdminList(c echo.Context) error {
	studentID, ok := queryID(c, "student_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student_id"})
	}
	courseID, ok := queryID(c, "course_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course_id"})
	}
	return h.list(c, model.EnrollmentFilter{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    model.EnrollmentStatus(strings.ToUpper(c.QueryParam("status"))),
	})
}

func (h *EnrollmentHandler) list(c echo.Context, f model.EnrollmentFilter) error {
	items, err := h.Enrollments.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// AdminGet handles GET /v1/admin/enrollments/:id.
func (h *EnrollmentHandler) AdminGet(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid enrollment id"})
	}
	d, err := h.Enrollments.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// AdminCancel handles DELETE /v1/admin/enrollments/:id.
func (h *EnrollmentHandler) AdminCancel(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid enrollment id"})
	}
	d, err := h.Enrollments.Cancel(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	purge(c, h.Cache)
	return c.JSON(http.StatusOK, d)
}

// AdminComplete handles POST /v1/admin/enrollments/:id/complete.
func (h *EnrollmentHandler) AdminComplete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid enrollment id"})
	}
	d, err := h.Enrollments.Complete(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	purge(c, h.Cache)
	return c.JSON(http.StatusOK, d)
}
