package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/service"
)

// StudentHandler covers registration, the student's own profile and the
// admin student listing.
type StudentHandler struct {
	Students *service.StudentService
	Cache    Purger
}

func NewStudentHandler(students *service.StudentService, cache Purger) *StudentHandler {
	if students == nil {
		panic("nil student service passed to NewStudentHandler")
	}
	if cache == nil {
		cache = noopPurger{}
	}
	return &StudentHandler{Students: students, Cache: cache}
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type profileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// Register handles POST /v1/students.
func (h *StudentHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	st, err := h.Students.Register(c.Request().Context(), service.Registration{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, st)
}

// Me handles GET /v1/me.
func (h *StudentHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	st, err := h.Students.Get(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// UpdateMe handles PUT /v1/me.
func (h *StudentHandler) UpdateMe(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return h.update(c, uid)
}

// Update handles PUT /v1/admin/students/:id.
func (h *StudentHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student id"})
	}
	return h.update(c, id)
}

func (h *StudentHandler) update(c echo.Context, id uint64) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	st, err := h.Students.Update(c.Request().Context(), model.Student{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// List handles GET /v1/admin/students.
func (h *StudentHandler) List(c echo.Context) error {
	students, err := h.Students.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": students, "count": len(students)})
}

// Get handles GET /v1/admin/students/:id.
func (h *StudentHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student id"})
	}
	st, err := h.Students.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Delete handles DELETE /v1/admin/students/:id.  Seat counts of the
// student's courses change, so listings are purged.
func (h *StudentHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student id"})
	}
	if err := h.Students.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	purge(c, h.Cache)
	return c.NoContent(http.StatusNoContent)
}
