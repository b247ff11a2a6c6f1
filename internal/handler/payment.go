package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/service"
)

// PaymentHandler records and lists payments.
type PaymentHandler struct {
	Payments *service.PaymentRecorder
}

func NewPaymentHandler(payments *service.PaymentRecorder) *PaymentHandler {
	if payments == nil {
		panic("nil payment recorder passed to NewPaymentHandler")
	}
	return &PaymentHandler{Payments: payments}
}

// Pay handles POST /v1/courses/:id/payments.  Body: {"method": "...",
// "transaction_id": "..."}; the amount is always the course fee.
func (h *PaymentHandler) Pay(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req struct {
		Method        string `json:"method"`
		TransactionID string `json:"transaction_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	method := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method)))
	p, err := h.Payments.Record(c.Request().Context(), uid, courseID, method, req.TransactionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Mine handles GET /v1/my-payments.
func (h *PaymentHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return h.list(c, model.PaymentFilter{StudentID: uid})
}

// AdminList handles GET /v1/admin/payments?student_id=&course_id=.
func (h *PaymentHandler) AdminList(c echo.Context) error {
	studentID, ok := queryID(c, "student_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student_id"})
	}
	courseID, ok := queryID(c, "course_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course_id"})
	}
	return h.list(c, model.PaymentFilter{StudentID: studentID, CourseID: courseID})
}

// AdminGet handles GET /v1/admin/payments/:id.
func (h *PaymentHandler) AdminGet(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}
	p, err := h.Payments.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) list(c echo.Context, f model.PaymentFilter) error {
	items, err := h.Payments.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}
